package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/auth"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/crm"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/push"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/ratelimit"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/sms"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/sirupsen/logrus"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrVerificationFailed = errors.New("verification code is invalid or expired")
	ErrRateLimited        = errors.New("too many requests; try again later")
	ErrUnavailable        = errors.New("feature is not configured")
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Pusher delivers web push notifications
type Pusher interface {
	Configured() bool
	PublicKey() string
	Broadcast(ctx context.Context, subs []store.PushSubscription, p push.Payload) (*push.Result, error)
}

// CRM mirrors leads into the CRM
type CRM interface {
	Enabled() bool
	UpsertContact(ctx context.Context, c crm.Contact) (string, error)
	AddNote(ctx context.Context, contactID, body string) error
}

// Sessions issues login sessions
type Sessions interface {
	Create(ctx context.Context, s *auth.Session) (string, error)
	Destroy(ctx context.Context, token string) error
	DestroyUser(ctx context.Context, userID int64) error
}

// SchemaVersion reports the applied and the latest shipped migration
type SchemaVersion func(ctx context.Context) (current, latest int64, err error)

type Config struct {
	Store    store.Store
	SMS      sms.Provider
	Push     Pusher
	CRM      CRM
	Sessions Sessions
	Redis    redis.UniversalClient

	SchemaVersion SchemaVersion

	// codes a phone may request per hour, on top of one every 30s
	VerifyPerHour int
	// WebhookConfigured is true when inbound SMS signatures are checked
	WebhookConfigured bool
	PublicBaseURL     string

	Logger *logrus.Entry
	Now    func() time.Time
}

type Service struct {
	store    store.Store
	sms      sms.Provider
	push     Pusher
	crm      CRM
	sessions Sessions
	redis    redis.UniversalClient

	schemaVersion SchemaVersion

	verifyPerHour     int
	verifyLimiter     *ratelimit.Keyed
	webhookConfigured bool
	publicBaseURL     string

	log *logrus.Entry
	now func() time.Time

	// best-effort side effects (texts, crm sync) run after the request; Wait drains them on shutdown
	background waitGroup
}

func New(conf *Config) *Service {
	log := conf.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	now := conf.Now
	if now == nil {
		now = time.Now
	}
	perHour := conf.VerifyPerHour
	if perHour < 1 {
		perHour = 5
	}

	return &Service{
		store:             conf.Store,
		sms:               conf.SMS,
		push:              conf.Push,
		crm:               conf.CRM,
		sessions:          conf.Sessions,
		redis:             conf.Redis,
		schemaVersion:     conf.SchemaVersion,
		verifyPerHour:     perHour,
		verifyLimiter:     ratelimit.New(30*time.Second, 1),
		webhookConfigured: conf.WebhookConfigured,
		publicBaseURL:     conf.PublicBaseURL,
		log:               log.WithField("component", "service"),
		now:               now,
	}
}

// Wait blocks until background side effects finish or ctx is done
func (s *Service) Wait(ctx context.Context) error {
	return s.background.wait(ctx)
}

// PruneLimiters drops idle per-phone limiters
func (s *Service) PruneLimiters() int {
	return s.verifyLimiter.Prune(time.Hour)
}

// Page is limit/offset paging from a request
type Page struct {
	Limit  int
	Offset int
}

func (p Page) options() *storage.SelectOptions {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return &storage.SelectOptions{Limit: limit, Offset: offset}
}

// goBackground runs fn detached from the request's cancellation
func (s *Service) goBackground(ctx context.Context, name string, fn func(ctx context.Context) error) {
	log := s.log.WithField("task", name)
	bg := context.WithoutCancel(ctx)

	s.background.add()
	go func() {
		defer s.background.done()

		ctx, cancel := context.WithTimeout(bg, 30*time.Second)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.WithError(err).Warn("background task failed")
		}
	}()
}

func int64Ptr(v int64) *int64 {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}
