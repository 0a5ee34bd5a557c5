package store

import (
	"context"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"
	"github.com/lib/pq"
)

func (s *store) CreateVehicle(ctx context.Context, v *Vehicle) error {
	if v.Photos == nil {
		v.Photos = pq.StringArray{}
	}
	return mapErr(s.store.Insert(ctx, v))
}

func (s *store) GetVehicle(ctx context.Context, id int64) (*Vehicle, error) {
	v := &Vehicle{
		VehicleID: id,
	}
	return v, s.store.Select(ctx, v, VehiclesGetByID)
}

func (s *store) ListVehicles(ctx context.Context, f *VehicleFilter, opts *storage.SelectOptions) ([]Vehicle, error) {
	if f == nil {
		f = &VehicleFilter{}
	}
	vehicles := []Vehicle{}
	err := s.store.SelectAll(ctx, f, &vehicles, VehiclesList, opts)
	return vehicles, err
}

func (s *store) UpdateVehicle(ctx context.Context, v *Vehicle) error {
	if v.Photos == nil {
		v.Photos = pq.StringArray{}
	}
	return mapErr(s.store.Update(ctx, v))
}

func (s *store) DeleteVehicle(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, &Vehicle{VehicleID: id})
}
