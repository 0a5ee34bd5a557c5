package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a row doesn't exist
var ErrNotFound = storage.ErrNotFound

// ErrConflict is returned when a write hits a unique constraint
var ErrConflict = errors.New("store: conflicts with an existing row")

type Store interface {
	// Users
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, u *User) error

	// Inventory
	CreateVehicle(ctx context.Context, v *Vehicle) error
	GetVehicle(ctx context.Context, id int64) (*Vehicle, error)
	ListVehicles(ctx context.Context, f *VehicleFilter, opts *storage.SelectOptions) ([]Vehicle, error)
	UpdateVehicle(ctx context.Context, v *Vehicle) error
	DeleteVehicle(ctx context.Context, id int64) error

	// Consignments
	CreateConsignment(ctx context.Context, c *Consignment) error
	GetConsignment(ctx context.Context, id int64) (*Consignment, error)
	ListConsignments(ctx context.Context, f *ConsignmentFilter, opts *storage.SelectOptions) ([]Consignment, error)
	ConsignmentsByOwnerPhone(ctx context.Context, phone string) ([]Consignment, error)
	UpdateConsignment(ctx context.Context, c *Consignment) error
	// SaveConsignmentVehicle writes the consignment and its inventory vehicle in one transaction;
	// a vehicle without an id is created and linked to the consignment
	SaveConsignmentVehicle(ctx context.Context, c *Consignment, v *Vehicle) error

	AddDocument(ctx context.Context, d *ConsignmentDocument) error
	GetDocument(ctx context.Context, id int64) (*ConsignmentDocument, error)
	DocumentsForConsignment(ctx context.Context, consignmentID int64) ([]ConsignmentDocument, error)
	DeleteDocument(ctx context.Context, id int64) error

	// Leads
	CreateInquiry(ctx context.Context, i *Inquiry) error
	GetInquiry(ctx context.Context, id int64) (*Inquiry, error)
	ListInquiries(ctx context.Context, f *InquiryFilter, opts *storage.SelectOptions) ([]Inquiry, error)
	Board(ctx context.Context, f *InquiryFilter) ([]Inquiry, error)
	UpdateInquiry(ctx context.Context, i *Inquiry) error
	// MoveInquiry puts the inquiry at position in stage, shifting the rest of that column down
	MoveInquiry(ctx context.Context, id int64, stage string, position int) (*Inquiry, error)
	LatestInquiryByPhone(ctx context.Context, phone string) (*Inquiry, error)
	// SetInquiryCRMContact stores the CRM contact id without touching the other columns
	SetInquiryCRMContact(ctx context.Context, id int64, contactID string) (*Inquiry, error)
	// CreateCreditApplication writes the inquiry and its application in one transaction
	CreateCreditApplication(ctx context.Context, i *Inquiry, app *CreditApplication) error
	CreditApplicationForInquiry(ctx context.Context, inquiryID int64) (*CreditApplication, error)

	AddActivity(ctx context.Context, a *LeadActivity) error
	ActivitiesForInquiry(ctx context.Context, inquiryID int64, opts *storage.SelectOptions) ([]LeadActivity, error)

	// SMS
	CreateSMS(ctx context.Context, m *SMSMessage) error
	Conversation(ctx context.Context, phone string, opts *storage.SelectOptions) ([]SMSMessage, error)
	Conversations(ctx context.Context) ([]ConversationSummary, error)

	// Push
	UpsertPushSubscription(ctx context.Context, sub *PushSubscription) error
	DeletePushSubscription(ctx context.Context, endpoint string) error
	ListPushSubscriptions(ctx context.Context) ([]PushSubscription, error)
	CountPushSubscriptions(ctx context.Context) (int, error)
	CreateBroadcast(ctx context.Context, b *PushBroadcast) error
	ListBroadcasts(ctx context.Context, opts *storage.SelectOptions) ([]PushBroadcast, error)

	// Admin inbox
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, f *NotificationFilter, opts *storage.SelectOptions) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) (*Notification, error)
	MarkAllNotificationsRead(ctx context.Context) (int, error)

	// Settings
	GetSetting(ctx context.Context, key string) (*Setting, error)
	ListSettings(ctx context.Context) ([]Setting, error)
	PutSetting(ctx context.Context, key, value string) (*Setting, error)

	Dashboard(ctx context.Context, now time.Time) (*DashboardStats, error)

	// Ping checks both database connections
	Ping(ctx context.Context) error
	// ClearCache drops every cached row, e.g. after a migration
	ClearCache(ctx context.Context) error
	// Verify explains every configured query against the schema
	Verify(ctx context.Context) error
}

type store struct {
	read  *sqlx.DB // note: aggregates that don't fit a table query go straight to the db
	write *sqlx.DB
	store storage.Storage
	log   *logrus.Entry
}

type Config struct {
	ReadConn  *sqlx.DB
	WriteConn *sqlx.DB
	Redis     redis.UniversalClient

	DefaultTTL    int // seconds; DefaultTTL when 0
	DoNotUseCache bool
	Debug         bool
	Logger        *logrus.Entry
}

func New(conf *Config) (Store, error) {
	ttl := conf.DefaultTTL
	if ttl == 0 {
		ttl = DefaultTTL
	}

	// instantiate the storage
	c := &storage.Config{
		ReadOnlyDbConn:  conf.ReadConn,
		WriteOnlyDbConn: conf.WriteConn,
		Redis:           conf.Redis,
		Tables:          Tables(),
		ServiceName:     serviceName,
		DefaultTTL:      ttl,
		DoNotUseCache:   conf.DoNotUseCache,
		Debugger:        conf.Debug,
		Logger:          conf.Logger,
	}

	s, err := storage.New(c)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	log := conf.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &store{
		read:  conf.ReadConn,
		write: conf.WriteConn,
		store: s,
		log:   log.WithField("component", "store"),
	}, nil
}

func (s *store) Ping(ctx context.Context) error {
	if err := s.write.PingContext(ctx); err != nil {
		return fmt.Errorf("store: write connection: %w", err)
	}
	if err := s.read.PingContext(ctx); err != nil {
		return fmt.Errorf("store: read connection: %w", err)
	}
	return nil
}

func (s *store) ClearCache(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *store) Verify(ctx context.Context) error {
	return s.store.Verify(ctx)
}

// mapErr turns a unique violation into ErrConflict
func mapErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	return err
}

func all() *storage.SelectOptions {
	return &storage.SelectOptions{}
}
