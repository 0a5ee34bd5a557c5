package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	CheckOK   = "ok"
	CheckWarn = "warn"
	CheckFail = "fail"
)

// Check is one line of the system check page
type Check struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	LatencyMS int64  `json:"latency_ms"`
}

type SystemReport struct {
	Status    string    `json:"status"`
	Checks    []Check   `json:"checks"`
	CheckedAt time.Time `json:"checked_at"`
}

var severity = map[string]int{CheckOK: 0, CheckWarn: 1, CheckFail: 2}

// SystemCheck probes the backing services and reports which integrations are set up.
// The report's status is its worst check.
func (s *Service) SystemCheck(ctx context.Context) *SystemReport {
	probes := []struct {
		name string
		fn   func(ctx context.Context) (string, string)
	}{
		{"database", s.checkDatabase},
		{"redis", s.checkRedis},
		{"migrations", s.checkMigrations},
		{"queries", s.checkQueries},
		{"sms", s.checkSMS},
		{"sms_webhook", s.checkWebhook},
		{"web_push", s.checkPush},
		{"crm", s.checkCRM},
	}

	checks := make([]Check, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range probes {
		i, p := i, p
		g.Go(func() error {
			start := time.Now()
			status, msg := p.fn(gctx)
			checks[i] = Check{
				Name:      p.name,
				Status:    status,
				Message:   msg,
				LatencyMS: time.Since(start).Milliseconds(),
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &SystemReport{Status: CheckOK, Checks: checks, CheckedAt: s.now().UTC()}
	for _, c := range checks {
		if severity[c.Status] > severity[report.Status] {
			report.Status = c.Status
		}
	}
	return report
}

func (s *Service) checkDatabase(ctx context.Context) (string, string) {
	if err := s.store.Ping(ctx); err != nil {
		return CheckFail, err.Error()
	}
	return CheckOK, "read and write connections are up"
}

func (s *Service) checkRedis(ctx context.Context) (string, string) {
	if s.redis == nil {
		return CheckWarn, "not configured; sessions and caching are unavailable"
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return CheckFail, err.Error()
	}
	return CheckOK, "reachable"
}

func (s *Service) checkMigrations(ctx context.Context) (string, string) {
	if s.schemaVersion == nil {
		return CheckWarn, "schema version unknown"
	}
	current, latest, err := s.schemaVersion(ctx)
	if err != nil {
		return CheckFail, err.Error()
	}
	if current < latest {
		return CheckWarn, fmt.Sprintf("schema at version %d, %d pending", current, latest-current)
	}
	return CheckOK, fmt.Sprintf("schema at version %d", current)
}

func (s *Service) checkQueries(ctx context.Context) (string, string) {
	if err := s.store.Verify(ctx); err != nil {
		return CheckFail, err.Error()
	}
	return CheckOK, "every query plans against the schema"
}

func (s *Service) checkSMS(ctx context.Context) (string, string) {
	if s.sms == nil || !s.sms.Configured() {
		return CheckWarn, "twilio is not configured; texts are logged and seller verification is off"
	}
	return CheckOK, "twilio configured"
}

func (s *Service) checkWebhook(ctx context.Context) (string, string) {
	if !s.webhookConfigured {
		return CheckWarn, "inbound sms signatures are not validated"
	}
	return CheckOK, "inbound sms signatures are validated"
}

func (s *Service) checkPush(ctx context.Context) (string, string) {
	if s.push == nil || !s.push.Configured() {
		return CheckWarn, "vapid keys are not configured"
	}
	return CheckOK, "vapid keys configured"
}

func (s *Service) checkCRM(ctx context.Context) (string, string) {
	if !s.crmEnabled() {
		return CheckWarn, "crm sync is disabled"
	}
	return CheckOK, "crm sync enabled"
}
