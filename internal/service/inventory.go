package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/pipeline"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
)

// ListVehicles is the back office inventory: every status, drafts included
func (s *Service) ListVehicles(ctx context.Context, q VehicleQuery, page Page) ([]store.Vehicle, error) {
	return s.store.ListVehicles(ctx, vehicleFilter(q), page.options())
}

func (s *Service) GetVehicle(ctx context.Context, id int64) (*store.Vehicle, error) {
	return s.store.GetVehicle(ctx, id)
}

// CreateVehicle adds a dealership-owned car; consigned cars come in through TransitionConsignment
func (s *Service) CreateVehicle(ctx context.Context, req VehicleRequest) (*store.Vehicle, error) {
	v := &store.Vehicle{
		Source: store.VehicleSourceOwned,
		Status: store.VehicleStatusDraft,
	}
	applyVehicle(v, req)
	if req.Status != "" {
		if err := pipeline.VehicleTransition(store.VehicleStatusDraft, req.Status); err != nil {
			return nil, err
		}
		v.Status = req.Status
	}

	if err := s.store.CreateVehicle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) UpdateVehicle(ctx context.Context, id int64, req VehicleRequest) (*store.Vehicle, error) {
	v, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = v.Status
	}
	if err := s.checkVehicleStatus(v, status); err != nil {
		return nil, err
	}

	applyVehicle(v, req)
	s.setVehicleStatus(v, status)

	if err := s.store.UpdateVehicle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ChangeVehicleStatus moves a car through its lifecycle, optionally repricing it
func (s *Service) ChangeVehicleStatus(ctx context.Context, id int64, req VehicleStatusRequest) (*store.Vehicle, error) {
	v, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVehicleStatus(v, req.Status); err != nil {
		return nil, err
	}

	s.setVehicleStatus(v, req.Status)
	if req.PriceCents != nil {
		v.PriceCents = *req.PriceCents
	}

	if err := s.store.UpdateVehicle(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteVehicle removes a dealership-owned car; consigned cars stay while the consignment exists
func (s *Service) DeleteVehicle(ctx context.Context, id int64) error {
	v, err := s.store.GetVehicle(ctx, id)
	if err != nil {
		return err
	}
	if v.ConsignmentID != nil {
		return fmt.Errorf("%w: vehicle belongs to consignment %d", store.ErrConflict, *v.ConsignmentID)
	}
	return s.store.DeleteVehicle(ctx, id)
}

// checkVehicleStatus applies the lifecycle rules; a consigned car is only sold through its consignment
func (s *Service) checkVehicleStatus(v *store.Vehicle, to string) error {
	if err := pipeline.VehicleTransition(v.Status, to); err != nil {
		return err
	}
	if v.ConsignmentID != nil && to == store.VehicleStatusSold && v.Status != store.VehicleStatusSold {
		return validation.FieldError("status", "consigned vehicles are sold by marking the consignment sold")
	}
	return nil
}

func (s *Service) setVehicleStatus(v *store.Vehicle, status string) {
	if status == store.VehicleStatusSold && v.SoldAt == nil {
		v.SoldAt = timePtr(s.now())
	}
	v.Status = status
}

func applyVehicle(v *store.Vehicle, req VehicleRequest) {
	v.VIN = strings.ToUpper(req.VIN)
	v.Year = req.Year
	v.Make = strings.TrimSpace(req.Make)
	v.Model = strings.TrimSpace(req.Model)
	v.Trim = strings.TrimSpace(req.Trim)
	v.Mileage = req.Mileage
	v.ExteriorColor = req.ExteriorColor
	v.InteriorColor = req.InteriorColor
	v.PriceCents = req.PriceCents
	v.Description = req.Description
	v.Featured = req.Featured
	v.Photos = append(v.Photos[:0], req.Photos...)
}
