package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/pipeline"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

// ConsignmentDetail is a consignment with its paperwork, payout estimate and listing
type ConsignmentDetail struct {
	*store.Consignment
	Payout    pipeline.Payout             `json:"payout"`
	Documents []store.ConsignmentDocument `json:"documents"`
	Vehicle   *store.Vehicle              `json:"vehicle,omitempty"`
}

type ConsignmentQuery struct {
	Status string `json:"status" validate:"omitempty,oneof=pending approved listed sold rejected"`
	Search string `json:"q" validate:"max=100"`
}

func (s *Service) ListConsignments(ctx context.Context, q ConsignmentQuery, page Page) ([]store.Consignment, error) {
	f := &store.ConsignmentFilter{
		Status: q.Status,
		Search: strings.TrimSpace(q.Search),
	}
	return s.store.ListConsignments(ctx, f, page.options())
}

func (s *Service) GetConsignment(ctx context.Context, id int64) (*ConsignmentDetail, error) {
	c, err := s.store.GetConsignment(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &ConsignmentDetail{
		Consignment: c,
		Payout:      pipeline.EstimatePayout(c, s.terms(ctx)),
	}
	d.Documents, err = s.store.DocumentsForConsignment(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.VehicleID != nil {
		v, err := s.store.GetVehicle(ctx, *c.VehicleID)
		switch {
		case err == nil:
			d.Vehicle = v
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}
	return d, nil
}

// UpdateConsignment edits the owner's details and the agreed terms; status moves through TransitionConsignment
func (s *Service) UpdateConsignment(ctx context.Context, id int64, req ConsignmentUpdate) (*store.Consignment, error) {
	c, err := s.store.GetConsignment(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.OwnerName != nil {
		c.OwnerName = strings.TrimSpace(*req.OwnerName)
	}
	if req.OwnerEmail != nil {
		c.OwnerEmail = strings.ToLower(strings.TrimSpace(*req.OwnerEmail))
	}
	if req.OwnerPhone != nil {
		phone, err := validation.NormalizePhone(*req.OwnerPhone)
		if err != nil {
			return nil, validation.FieldError("owner_phone", "must be a valid phone number")
		}
		c.OwnerPhone = phone
	}
	if req.Trim != nil {
		c.Trim = strings.TrimSpace(*req.Trim)
	}
	if req.Mileage != nil {
		c.Mileage = *req.Mileage
	}
	if req.Condition != nil {
		c.Condition = *req.Condition
	}
	if req.AskingPriceCents != nil {
		c.AskingPriceCents = *req.AskingPriceCents
	}
	if req.AgreedPriceCents != nil {
		c.AgreedPriceCents = int64Ptr(*req.AgreedPriceCents)
	}
	if req.Notes != nil {
		c.Notes = *req.Notes
	}

	if err := s.store.UpdateConsignment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

/*
TransitionConsignment moves a consignment along its lifecycle:

	approved  records the agreed price; coming back from listed takes the car off the site
	listed    creates the inventory vehicle, or republishes the one it had
	sold      needs the sold price and marks the vehicle sold with it
	rejected  needs a reason

The owner gets a text about the new status unless status texts are turned off.
*/
func (s *Service) TransitionConsignment(ctx context.Context, id int64, req ConsignmentTransitionRequest) (*ConsignmentDetail, error) {
	c, err := s.store.GetConsignment(ctx, id)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if err := pipeline.ConsignmentTransition(c.Status, req.Status, reason); err != nil {
		if errors.Is(err, pipeline.ErrReasonRequired) {
			return nil, validation.FieldError("reason", "is required to reject a consignment")
		}
		return nil, err
	}

	from := c.Status
	c.Status = req.Status

	switch req.Status {
	case store.ConsignmentStatusApproved:
		if req.PriceCents != nil {
			c.AgreedPriceCents = int64Ptr(*req.PriceCents)
		}
		err = s.unlist(ctx, c, from)

	case store.ConsignmentStatusListed:
		err = s.list(ctx, c, req.PriceCents)

	case store.ConsignmentStatusSold:
		if req.SoldPriceCents == nil {
			return nil, validation.FieldError("sold_price_cents", "is required to mark a consignment sold")
		}
		c.SoldPriceCents = int64Ptr(*req.SoldPriceCents)
		err = s.sell(ctx, c)

	case store.ConsignmentStatusRejected:
		c.RejectionReason = reason
		err = s.store.UpdateConsignment(ctx, c)
	}
	if err != nil {
		return nil, err
	}

	s.log.WithField("consignment_id", c.ConsignmentID).Infof("consignment %s -> %s", from, c.Status)
	s.statusText(ctx, c)

	return s.GetConsignment(ctx, id)
}

func (s *Service) list(ctx context.Context, c *store.Consignment, price *int64) error {
	v := &store.Vehicle{}
	if c.VehicleID != nil {
		existing, err := s.store.GetVehicle(ctx, *c.VehicleID)
		switch {
		case err == nil:
			v = existing
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
	}

	if v.VehicleID == 0 {
		v = &store.Vehicle{
			Source:     store.VehicleSourceConsignment,
			VIN:        c.VIN,
			Year:       c.Year,
			Make:       c.Make,
			Model:      c.Model,
			Trim:       c.Trim,
			Mileage:    c.Mileage,
			PriceCents: c.AskingPriceCents,
		}
		if c.AgreedPriceCents != nil {
			v.PriceCents = *c.AgreedPriceCents
		}
	}
	if price != nil {
		v.PriceCents = *price
	}
	v.Status = store.VehicleStatusAvailable
	v.SoldAt = nil

	return s.store.SaveConsignmentVehicle(ctx, c, v)
}

func (s *Service) unlist(ctx context.Context, c *store.Consignment, from string) error {
	if from != store.ConsignmentStatusListed || c.VehicleID == nil {
		return s.store.UpdateConsignment(ctx, c)
	}

	v, err := s.store.GetVehicle(ctx, *c.VehicleID)
	if errors.Is(err, store.ErrNotFound) {
		c.VehicleID = nil
		return s.store.UpdateConsignment(ctx, c)
	}
	if err != nil {
		return err
	}

	v.Status = store.VehicleStatusDraft
	return s.store.SaveConsignmentVehicle(ctx, c, v)
}

func (s *Service) sell(ctx context.Context, c *store.Consignment) error {
	if c.VehicleID == nil {
		return s.store.UpdateConsignment(ctx, c)
	}

	v, err := s.store.GetVehicle(ctx, *c.VehicleID)
	if errors.Is(err, store.ErrNotFound) {
		c.VehicleID = nil
		return s.store.UpdateConsignment(ctx, c)
	}
	if err != nil {
		return err
	}

	v.Status = store.VehicleStatusSold
	v.PriceCents = *c.SoldPriceCents
	v.SoldAt = timePtr(s.now())
	return s.store.SaveConsignmentVehicle(ctx, c, v)
}

// statusText lets the owner know where their car stands
func (s *Service) statusText(ctx context.Context, c *store.Consignment) {
	if !s.statusTextsEnabled(ctx) {
		return
	}

	car := fmt.Sprintf("%d %s %s", c.Year, c.Make, c.Model)
	var body string
	switch c.Status {
	case store.ConsignmentStatusApproved:
		body = fmt.Sprintf("good news, your %s has been approved for consignment.", car)
	case store.ConsignmentStatusListed:
		body = fmt.Sprintf("your %s is now listed for sale.", car)
	case store.ConsignmentStatusSold:
		body = fmt.Sprintf("your %s has sold! We'll contact you about your payout.", car)
	case store.ConsignmentStatusRejected:
		body = fmt.Sprintf("we're unable to take your %s on consignment at this time.", car)
	default:
		return
	}
	body = s.dealershipName(ctx) + ": " + body

	phone := c.OwnerPhone
	s.goBackground(ctx, "consignment-status-sms", func(ctx context.Context) error {
		return s.sendSystemSMS(ctx, phone, body)
	})
}

func (s *Service) AddDocument(ctx context.Context, consignmentID int64, req DocumentRequest) (*store.ConsignmentDocument, error) {
	if _, err := s.store.GetConsignment(ctx, consignmentID); err != nil {
		return nil, err
	}

	d := &store.ConsignmentDocument{
		ConsignmentID: consignmentID,
		Kind:          req.Kind,
		Name:          strings.TrimSpace(req.Name),
		URL:           req.URL,
	}
	if err := s.store.AddDocument(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeleteDocument(ctx context.Context, consignmentID, documentID int64) error {
	d, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if d.ConsignmentID != consignmentID {
		return store.ErrNotFound
	}
	return s.store.DeleteDocument(ctx, documentID)
}
