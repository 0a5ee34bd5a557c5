package service

import (
	"context"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
)

func (s *Service) Dashboard(ctx context.Context) (*store.DashboardStats, error) {
	return s.store.Dashboard(ctx, s.now())
}
