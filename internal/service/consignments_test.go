package service

import (
	"context"
	"testing"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/pipeline"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsignmentLifecycle(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()
	c := seedConsignment(t, ts, store.ConsignmentStatusPending)

	d, err := ts.TransitionConsignment(ctx, c.ConsignmentID, ConsignmentTransitionRequest{
		Status:     store.ConsignmentStatusApproved,
		PriceCents: int64Ptr(9_500_000),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9_500_000), *d.AgreedPriceCents)
	assert.Equal(t, "agreed", d.Payout.Basis)
	assert.Nil(t, d.Vehicle)

	d, err = ts.TransitionConsignment(ctx, c.ConsignmentID, ConsignmentTransitionRequest{Status: store.ConsignmentStatusListed})
	require.NoError(t, err)
	require.NotNil(t, d.Vehicle)
	assert.Equal(t, store.VehicleStatusAvailable, d.Vehicle.Status)
	assert.Equal(t, store.VehicleSourceConsignment, d.Vehicle.Source)
	assert.Equal(t, int64(9_500_000), d.Vehicle.PriceCents)
	assert.Equal(t, c.ConsignmentID, *d.Vehicle.ConsignmentID)
	vehicleID := d.Vehicle.VehicleID

	// unlisting keeps the vehicle as a draft; listing again republishes the same one
	d, err = ts.TransitionConsignment(ctx, c.ConsignmentID, ConsignmentTransitionRequest{Status: store.ConsignmentStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, store.VehicleStatusDraft, d.Vehicle.Status)

	d, err = ts.TransitionConsignment(ctx, c.ConsignmentID, ConsignmentTransitionRequest{Status: store.ConsignmentStatusListed, PriceCents: int64Ptr(9_900_000)})
	require.NoError(t, err)
	assert.Equal(t, vehicleID, d.Vehicle.VehicleID)
	assert.Equal(t, int64(9_900_000), d.Vehicle.PriceCents)

	_, err = ts.TransitionConsignment(ctx, c.ConsignmentID, ConsignmentTransitionRequest{Status: store.ConsignmentStatusSold})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "sold_price_cents")

	d, err = ts.TransitionConsignment(ctx, c.ConsignmentID, ConsignmentTransitionRequest{Status: store.ConsignmentStatusSold, SoldPriceCents: int64Ptr(9_800_000)})
	require.NoError(t, err)
	assert.Equal(t, store.ConsignmentStatusSold, d.Status)
	assert.Equal(t, store.VehicleStatusSold, d.Vehicle.Status)
	assert.Equal(t, int64(9_800_000), d.Vehicle.PriceCents)
	require.NotNil(t, d.Vehicle.SoldAt)
	assert.True(t, d.Payout.Final)

	ts.drain(t)
	assert.Len(t, ts.sms.sentTexts(), 5, "one status text per transition")
}

func TestTransitionConsignmentRules(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()
	c := seedConsignment(t, ts, store.ConsignmentStatusPending)

	_, err := ts.TransitionConsignment(ctx, c.ConsignmentID, ConsignmentTransitionRequest{Status: store.ConsignmentStatusSold, SoldPriceCents: int64Ptr(1)})
	assert.ErrorIs(t, err, pipeline.ErrInvalidTransition)

	_, err = ts.TransitionConsignment(ctx, c.ConsignmentID, ConsignmentTransitionRequest{Status: store.ConsignmentStatusRejected, Reason: "  "})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "reason")

	d, err := ts.TransitionConsignment(ctx, c.ConsignmentID, ConsignmentTransitionRequest{Status: store.ConsignmentStatusRejected, Reason: "salvage title"})
	require.NoError(t, err)
	assert.Equal(t, "salvage title", d.RejectionReason)

	_, err = ts.TransitionConsignment(ctx, 404, ConsignmentTransitionRequest{Status: store.ConsignmentStatusApproved})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStatusTextsCanBeTurnedOff(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()
	_, err := ts.store.PutSetting(ctx, SettingSMSStatusUpdates, "false")
	require.NoError(t, err)
	c := seedConsignment(t, ts, store.ConsignmentStatusPending)

	_, err = ts.TransitionConsignment(ctx, c.ConsignmentID, ConsignmentTransitionRequest{Status: store.ConsignmentStatusApproved})
	require.NoError(t, err)

	ts.drain(t)
	assert.Empty(t, ts.sms.sentTexts())
}

func TestUpdateConsignment(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()
	c := seedConsignment(t, ts, store.ConsignmentStatusPending)

	phone := "212-555-0123"
	got, err := ts.UpdateConsignment(ctx, c.ConsignmentID, ConsignmentUpdate{OwnerPhone: &phone, AgreedPriceCents: int64Ptr(7_000_000)})
	require.NoError(t, err)
	assert.Equal(t, "+12125550123", got.OwnerPhone)
	assert.Equal(t, int64(7_000_000), *got.AgreedPriceCents)
	assert.Equal(t, "Jordan Avery", got.OwnerName)
}

func TestConsignmentDocuments(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()
	c := seedConsignment(t, ts, store.ConsignmentStatusPending)
	other := seedConsignment(t, ts, store.ConsignmentStatusPending)

	d, err := ts.AddDocument(ctx, c.ConsignmentID, DocumentRequest{Kind: store.DocumentKindTitle, Name: " title.pdf ", URL: "https://files.example.com/title.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "title.pdf", d.Name)

	_, err = ts.AddDocument(ctx, 404, DocumentRequest{Kind: store.DocumentKindOther, Name: "x", URL: "https://x.example.com"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, ts.DeleteDocument(ctx, other.ConsignmentID, d.DocumentID), store.ErrNotFound)
	require.NoError(t, ts.DeleteDocument(ctx, c.ConsignmentID, d.DocumentID))
	assert.Empty(t, ts.store.documents)
}
