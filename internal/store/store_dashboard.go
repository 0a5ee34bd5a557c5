package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

const (
	leadsPerDayWindow = 14
	recentInquiries   = 5
)

const (
	dashboardConsignmentsByStatus = `SELECT status AS key, COUNT(*) AS count FROM consignments GROUP BY status ORDER BY status`
	dashboardLeadsByStage         = `SELECT stage AS key, COUNT(*) AS count FROM inquiries GROUP BY stage ORDER BY stage`
	dashboardLeadsBySource        = `SELECT source AS key, COUNT(*) AS count FROM inquiries GROUP BY source ORDER BY source`

	dashboardInventory = `SELECT COUNT(*), COALESCE(SUM(price_cents), 0) FROM vehicles WHERE status = 'available'`
	dashboardSold      = `SELECT COUNT(*), COALESCE(SUM(price_cents), 0) FROM vehicles WHERE status = 'sold' AND sold_at >= $1`

	// every day in the window shows up, zero or not
	dashboardLeadsPerDay = `SELECT d::date AS day, COUNT(i.inquiry_id) AS count
FROM generate_series($1::date, $2::date, interval '1 day') AS d
LEFT JOIN inquiries i ON i.created_at::date = d::date
GROUP BY d ORDER BY d`

	dashboardRecentInquiries = `SELECT * FROM inquiries ORDER BY created_at DESC, inquiry_id DESC LIMIT $1`
	dashboardUnread          = `SELECT COUNT(*) FROM notifications WHERE NOT read`
)

// Dashboard runs every aggregate concurrently against the read connection
func (s *store) Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{
		ConsignmentsByStatus: []CountByKey{},
		LeadsByStage:         []CountByKey{},
		LeadsBySource:        []CountByKey{},
		LeadsPerDay:          []DailyCount{},
		RecentInquiries:      []Inquiry{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sqlx.SelectContext(gctx, s.read, &stats.ConsignmentsByStatus, dashboardConsignmentsByStatus)
	})
	g.Go(func() error {
		return sqlx.SelectContext(gctx, s.read, &stats.LeadsByStage, dashboardLeadsByStage)
	})
	g.Go(func() error {
		return sqlx.SelectContext(gctx, s.read, &stats.LeadsBySource, dashboardLeadsBySource)
	})
	g.Go(func() error {
		return s.read.QueryRowxContext(gctx, dashboardInventory).Scan(&stats.AvailableVehicles, &stats.InventoryValueCents)
	})
	g.Go(func() error {
		since := now.AddDate(0, 0, -30)
		return s.read.QueryRowxContext(gctx, dashboardSold, since).Scan(&stats.SoldLast30Days, &stats.RevenueLast30Cents)
	})
	g.Go(func() error {
		from := now.AddDate(0, 0, -(leadsPerDayWindow - 1))
		return sqlx.SelectContext(gctx, s.read, &stats.LeadsPerDay, dashboardLeadsPerDay, from, now)
	})
	g.Go(func() error {
		return sqlx.SelectContext(gctx, s.read, &stats.RecentInquiries, dashboardRecentInquiries, recentInquiries)
	})
	g.Go(func() error {
		return s.read.GetContext(gctx, &stats.PushSubscribers, "SELECT COUNT(*) FROM push_subscriptions")
	})
	g.Go(func() error {
		return s.read.GetContext(gctx, &stats.UnreadNotifications, dashboardUnread)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
