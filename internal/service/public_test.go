package service

import (
	"context"
	"testing"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVehicle(t *testing.T, ts *testService, status string) *store.Vehicle {
	t.Helper()
	v := &store.Vehicle{VIN: "WP0AB2A99KS123456", Year: 2019, Make: "Porsche", Model: "911", Status: status, PriceCents: 12_500_000}
	require.NoError(t, ts.store.CreateVehicle(context.Background(), v))
	return v
}

func TestListPublicVehicles(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	seedVehicle(t, ts, store.VehicleStatusDraft)
	available := seedVehicle(t, ts, store.VehicleStatusAvailable)
	pending := seedVehicle(t, ts, store.VehicleStatusPending)
	sold := seedVehicle(t, ts, store.VehicleStatusSold)

	got, err := ts.ListPublicVehicles(ctx, VehicleQuery{}, Page{})
	require.NoError(t, err)
	ids := []int64{}
	for _, v := range got {
		ids = append(ids, v.VehicleID)
	}
	assert.Equal(t, []int64{available.VehicleID, pending.VehicleID}, ids, "the default catalog is what's for sale")

	got, err = ts.ListPublicVehicles(ctx, VehicleQuery{Status: store.VehicleStatusSold}, Page{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sold.VehicleID, got[0].VehicleID)

	got, err = ts.ListPublicVehicles(ctx, VehicleQuery{Status: store.VehicleStatusDraft}, Page{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetPublicVehicleHidesDrafts(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	draft := seedVehicle(t, ts, store.VehicleStatusDraft)
	_, err := ts.GetPublicVehicle(ctx, draft.VehicleID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	live := seedVehicle(t, ts, store.VehicleStatusAvailable)
	v, err := ts.GetPublicVehicle(ctx, live.VehicleID)
	require.NoError(t, err)
	assert.Equal(t, "Porsche", v.Make)
}

func consignmentRequest() ConsignmentRequest {
	return ConsignmentRequest{
		OwnerName:        "Jordan Avery",
		OwnerEmail:       "Jordan@Example.com",
		OwnerPhone:       "(415) 555-0100",
		VIN:              "wp0ab2a99ks123456",
		Year:             2019,
		Make:             "Porsche",
		Model:            "911",
		Mileage:          12000,
		AskingPriceCents: 12_000_000,
	}
}

func TestSubmitConsignment(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	c, err := ts.SubmitConsignment(ctx, consignmentRequest())
	require.NoError(t, err)

	assert.Equal(t, store.ConsignmentStatusPending, c.Status)
	assert.Equal(t, "+14155550100", c.OwnerPhone)
	assert.Equal(t, "jordan@example.com", c.OwnerEmail)
	assert.Equal(t, "WP0AB2A99KS123456", c.VIN)

	require.Len(t, ts.store.notifications, 1)
	assert.Equal(t, store.NotificationConsignment, ts.store.notifications[0].Kind)
	assert.Contains(t, ts.store.notifications[0].Body, "$120,000")

	ts.drain(t)
	texts := ts.sms.sentTexts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "+14155550100: Acme Motors: we received your consignment request")
	require.Len(t, ts.crm.contacts, 1)
	assert.Equal(t, []string{"consignment"}, ts.crm.contacts[0].Tags)
}

func TestSubmitConsignmentWithoutSMSProvider(t *testing.T) {
	ts := newTestService(t)
	ts.sms.configured = false

	_, err := ts.SubmitConsignment(context.Background(), consignmentRequest())
	require.NoError(t, err)

	ts.drain(t)
	assert.Empty(t, ts.sms.sentTexts())
	assert.Empty(t, ts.store.smsSnapshot())
}

func TestSubmitInquiry(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()
	v := seedVehicle(t, ts, store.VehicleStatusAvailable)

	i, err := ts.SubmitInquiry(ctx, InquiryRequest{
		Kind:      store.InquiryKindTestDrive,
		VehicleID: int64Ptr(v.VehicleID),
		Name:      "Sam Lee",
		Phone:     "415-555-0111",
	})
	require.NoError(t, err)
	assert.Equal(t, store.StageNew, i.Stage)
	assert.Equal(t, store.SourceWebsite, i.Source)
	assert.Equal(t, "+14155550111", i.Phone)
	assert.Contains(t, ts.store.notifications[0].Title, "test drive request from Sam Lee about the 2019 Porsche 911")

	ts.drain(t)
	saved, err := ts.store.GetInquiry(ctx, i.InquiryID)
	require.NoError(t, err)
	assert.Equal(t, "contact-1", saved.CRMContactID)
	assert.Len(t, ts.store.activitiesOf(store.ActivityCRMSync), 1)
}

func TestSubmitInquiryUnknownVehicle(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()
	draft := seedVehicle(t, ts, store.VehicleStatusDraft)

	for _, id := range []int64{999, draft.VehicleID} {
		_, err := ts.SubmitInquiry(ctx, InquiryRequest{
			Kind:      store.InquiryKindInquiry,
			VehicleID: int64Ptr(id),
			Name:      "Sam Lee",
			Email:     "sam@example.com",
		})
		var verr *validation.Error
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "vehicle_id")
	}
	assert.Empty(t, ts.store.inquiries)
}

func TestSubmitCreditApplication(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	req := CreditApplicationRequest{
		Name:              "Robin Park",
		Email:             "robin@example.com",
		Phone:             "+442071838750",
		DateOfBirth:       "1990-05-01",
		AnnualIncomeCents: 15_000_000,
		HousingStatus:     store.HousingOwn,
	}
	i, err := ts.SubmitCreditApplication(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, store.InquiryKindCreditApplication, i.Kind)

	app, err := ts.store.CreditApplicationForInquiry(ctx, i.InquiryID)
	require.NoError(t, err)
	assert.Equal(t, 1990, app.DateOfBirth.Year())

	req.DateOfBirth = "2010-01-01"
	_, err = ts.SubmitCreditApplication(ctx, req)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["date_of_birth"], "at least 18")
}

func TestSubscribeAndVAPID(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	req := SubscribeRequest{Endpoint: "https://push.example.com/abc"}
	req.Keys.P256dh = "key"
	req.Keys.Auth = "auth"

	first, err := ts.Subscribe(ctx, req, "Mozilla/5.0")
	require.NoError(t, err)
	again, err := ts.Subscribe(ctx, req, "Mozilla/5.0")
	require.NoError(t, err)
	assert.Equal(t, first.SubscriptionID, again.SubscriptionID)

	key, err := ts.VAPIDPublicKey()
	require.NoError(t, err)
	assert.Equal(t, "BPUBLIC", key)

	ts.push.configured = false
	_, err = ts.VAPIDPublicKey()
	assert.ErrorIs(t, err, ErrUnavailable)

	require.NoError(t, ts.Unsubscribe(ctx, req.Endpoint))
	assert.Empty(t, ts.store.subs)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$0", formatCents(0))
	assert.Equal(t, "$999", formatCents(99_900))
	assert.Equal(t, "$1,000", formatCents(100_000))
	assert.Equal(t, "$12,500,000", formatCents(1_250_000_000))
}
