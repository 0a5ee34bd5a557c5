package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/pipeline"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

const minApplicantAge = 18

// ListPublicVehicles is the catalog; drafts never show and the default is what's for sale
func (s *Service) ListPublicVehicles(ctx context.Context, q VehicleQuery, page Page) ([]store.Vehicle, error) {
	f := vehicleFilter(q)

	switch {
	case q.Status == "":
		f.Statuses = []string{store.VehicleStatusAvailable, store.VehicleStatusPending}
	case q.Status == store.VehicleStatusDraft:
		return []store.Vehicle{}, nil
	}

	return s.store.ListVehicles(ctx, f, page.options())
}

func (s *Service) GetPublicVehicle(ctx context.Context, id int64) (*store.Vehicle, error) {
	v, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status == store.VehicleStatusDraft {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func vehicleFilter(q VehicleQuery) *store.VehicleFilter {
	f := &store.VehicleFilter{
		Make:     strings.TrimSpace(q.Make),
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		MinYear:  q.MinYear,
		MaxYear:  q.MaxYear,
		Featured: q.Featured,
		Search:   strings.TrimSpace(q.Search),
	}
	if q.Status != "" {
		f.Statuses = []string{q.Status}
	}
	return f
}

// SubmitConsignment records an owner's request to consign a car and lets the office know
func (s *Service) SubmitConsignment(ctx context.Context, req ConsignmentRequest) (*store.Consignment, error) {
	phone, err := validation.NormalizePhone(req.OwnerPhone)
	if err != nil {
		return nil, validation.FieldError("owner_phone", "must be a valid phone number")
	}

	c := &store.Consignment{
		OwnerName:        strings.TrimSpace(req.OwnerName),
		OwnerEmail:       strings.ToLower(strings.TrimSpace(req.OwnerEmail)),
		OwnerPhone:       phone,
		VIN:              strings.ToUpper(req.VIN),
		Year:             req.Year,
		Make:             strings.TrimSpace(req.Make),
		Model:            strings.TrimSpace(req.Model),
		Trim:             strings.TrimSpace(req.Trim),
		Mileage:          req.Mileage,
		Condition:        req.Condition,
		AskingPriceCents: req.AskingPriceCents,
		Notes:            req.Notes,
		Status:           store.ConsignmentStatusPending,
	}
	if err := s.store.CreateConsignment(ctx, c); err != nil {
		return nil, err
	}

	s.notify(ctx, &store.Notification{
		Kind:  store.NotificationConsignment,
		Title: fmt.Sprintf("New consignment: %d %s %s", c.Year, c.Make, c.Model),
		Body:  fmt.Sprintf("%s is asking %s", c.OwnerName, formatCents(c.AskingPriceCents)),
		Link:  fmt.Sprintf("/admin/consignments/%d", c.ConsignmentID),
	})

	name := s.dealershipName(ctx)
	s.goBackground(ctx, "consignment-received", func(ctx context.Context) error {
		var errs []error
		if _, err := s.crmUpsert(ctx, c.OwnerName, c.OwnerEmail, c.OwnerPhone, "consignment"); err != nil {
			errs = append(errs, err)
		}
		body := fmt.Sprintf("%s: we received your consignment request for the %d %s %s. We'll be in touch shortly.", name, c.Year, c.Make, c.Model)
		if err := s.sendSystemSMS(ctx, c.OwnerPhone, body); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	return c, nil
}

// SubmitInquiry records a lead from the site
func (s *Service) SubmitInquiry(ctx context.Context, req InquiryRequest) (*store.Inquiry, error) {
	i := &store.Inquiry{
		Kind:    req.Kind,
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Message: req.Message,
		Source:  req.Source,
		Stage:   store.StageNew,
	}
	if i.Source == "" {
		i.Source = store.SourceWebsite
	}
	if req.Phone != "" {
		phone, err := validation.NormalizePhone(req.Phone)
		if err != nil {
			return nil, validation.FieldError("phone", "must be a valid phone number")
		}
		i.Phone = phone
	}

	vehicle, err := s.inquiryVehicle(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	i.VehicleID = req.VehicleID

	if err := s.store.CreateInquiry(ctx, i); err != nil {
		return nil, err
	}

	title := fmt.Sprintf("New %s from %s", kindLabel(i.Kind), i.Name)
	if vehicle != nil {
		title += fmt.Sprintf(" about the %d %s %s", vehicle.Year, vehicle.Make, vehicle.Model)
	}
	s.notify(ctx, &store.Notification{
		Kind:  store.NotificationInquiry,
		Title: title,
		Body:  truncate(i.Message, 200),
		Link:  fmt.Sprintf("/admin/leads/%d", i.InquiryID),
	})

	s.syncLeadLater(ctx, i)
	return i, nil
}

// SubmitCreditApplication stores the lead and its application together
func (s *Service) SubmitCreditApplication(ctx context.Context, req CreditApplicationRequest) (*store.Inquiry, error) {
	phone, err := validation.NormalizePhone(req.Phone)
	if err != nil {
		return nil, validation.FieldError("phone", "must be a valid phone number")
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, validation.FieldError("date_of_birth", "must be a date formatted 2006-01-02")
	}
	if dob.AddDate(minApplicantAge, 0, 0).After(s.now()) {
		return nil, validation.FieldError("date_of_birth", fmt.Sprintf("applicant must be at least %d", minApplicantAge))
	}

	if _, err := s.inquiryVehicle(ctx, req.VehicleID); err != nil {
		return nil, err
	}

	i := &store.Inquiry{
		Kind:      store.InquiryKindCreditApplication,
		VehicleID: req.VehicleID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     phone,
		Message:   req.Message,
		Source:    store.SourceWebsite,
		Stage:     store.StageNew,
	}
	app := &store.CreditApplication{
		DateOfBirth:         dob,
		Employer:            strings.TrimSpace(req.Employer),
		EmploymentYears:     req.EmploymentYears,
		AnnualIncomeCents:   req.AnnualIncomeCents,
		HousingStatus:       req.HousingStatus,
		MonthlyHousingCents: req.MonthlyHousingCents,
		DownPaymentCents:    req.DownPaymentCents,
	}
	if err := s.store.CreateCreditApplication(ctx, i, app); err != nil {
		return nil, err
	}

	s.notify(ctx, &store.Notification{
		Kind:  store.NotificationCredit,
		Title: "New credit application from " + i.Name,
		Link:  fmt.Sprintf("/admin/leads/%d", i.InquiryID),
	})

	s.syncLeadLater(ctx, i)
	return i, nil
}

// inquiryVehicle checks the car a lead is about is one the public can see
func (s *Service) inquiryVehicle(ctx context.Context, id *int64) (*store.Vehicle, error) {
	if id == nil {
		return nil, nil
	}
	v, err := s.GetPublicVehicle(ctx, *id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, validation.FieldError("vehicle_id", "does not exist")
	}
	return v, err
}

// Subscribe saves a browser's push subscription; subscribing again refreshes it
func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest, userAgent string) (*store.PushSubscription, error) {
	sub := &store.PushSubscription{
		Endpoint:  req.Endpoint,
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		UserAgent: truncate(userAgent, 500),
	}
	if err := s.store.UpsertPushSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) Unsubscribe(ctx context.Context, endpoint string) error {
	return s.store.DeletePushSubscription(ctx, endpoint)
}

func (s *Service) VAPIDPublicKey() (string, error) {
	if s.push == nil || !s.push.Configured() {
		return "", ErrUnavailable
	}
	return s.push.PublicKey(), nil
}

// ConsignmentTerms are the fees shown next to the consignment form
func (s *Service) ConsignmentTerms(ctx context.Context) pipeline.Terms {
	return s.terms(ctx)
}

func kindLabel(kind string) string {
	switch kind {
	case store.InquiryKindTestDrive:
		return "test drive request"
	case store.InquiryKindTradeIn:
		return "trade-in request"
	case store.InquiryKindCreditApplication:
		return "credit application"
	}
	return "inquiry"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func formatCents(c int64) string {
	dollars := c / 100
	s := fmt.Sprintf("%d", dollars)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i, ch := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, ch)
	}
	return "$" + string(out)
}
