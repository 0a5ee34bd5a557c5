package store

import (
	"time"

	"github.com/lib/pq"
)

/*
Row structs. The json tag is the column name: storage maps columns with the json tag,
so every column of `select *` needs a field here. Cents are int64 throughout.
*/

type User struct {
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Vehicle is an inventory listing
type Vehicle struct {
	VehicleID     int64          `json:"vehicle_id"`
	ConsignmentID *int64         `json:"consignment_id"`
	Source        string         `json:"source"`
	VIN           string         `json:"vin"`
	Year          int            `json:"year"`
	Make          string         `json:"make"`
	Model         string         `json:"model"`
	Trim          string         `json:"trim"`
	Mileage       int            `json:"mileage"`
	ExteriorColor string         `json:"exterior_color"`
	InteriorColor string         `json:"interior_color"`
	PriceCents    int64          `json:"price_cents"`
	Description   string         `json:"description"`
	Status        string         `json:"status"`
	Featured      bool           `json:"featured"`
	Photos        pq.StringArray `json:"photos"`
	SoldAt        *time.Time     `json:"sold_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Consignment struct {
	ConsignmentID    int64     `json:"consignment_id"`
	OwnerName        string    `json:"owner_name"`
	OwnerEmail       string    `json:"owner_email"`
	OwnerPhone       string    `json:"owner_phone"`
	VIN              string    `json:"vin"`
	Year             int       `json:"year"`
	Make             string    `json:"make"`
	Model            string    `json:"model"`
	Trim             string    `json:"trim"`
	Mileage          int       `json:"mileage"`
	Condition        string    `json:"condition"`
	AskingPriceCents int64     `json:"asking_price_cents"`
	AgreedPriceCents *int64    `json:"agreed_price_cents"`
	SoldPriceCents   *int64    `json:"sold_price_cents"`
	Notes            string    `json:"notes"`
	Status           string    `json:"status"`
	RejectionReason  string    `json:"rejection_reason"`
	VehicleID        *int64    `json:"vehicle_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ConsignmentDocument struct {
	DocumentID    int64     `json:"document_id"`
	ConsignmentID int64     `json:"consignment_id"`
	Kind          string    `json:"kind"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	CreatedAt     time.Time `json:"created_at"`
}

// Inquiry is a lead: a buyer inquiry, credit application, test drive or trade-in request
type Inquiry struct {
	InquiryID      int64     `json:"inquiry_id"`
	Kind           string    `json:"kind"`
	VehicleID      *int64    `json:"vehicle_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Message        string    `json:"message"`
	Source         string    `json:"source"`
	Stage          string    `json:"stage"`
	Position       int       `json:"position"`
	AssignedUserID *int64    `json:"assigned_user_id"`
	CRMContactID   string    `json:"crm_contact_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CreditApplication struct {
	CreditApplicationID int64     `json:"credit_application_id"`
	InquiryID           int64     `json:"inquiry_id"`
	DateOfBirth         time.Time `json:"date_of_birth"`
	Employer            string    `json:"employer"`
	EmploymentYears     int       `json:"employment_years"`
	AnnualIncomeCents   int64     `json:"annual_income_cents"`
	HousingStatus       string    `json:"housing_status"`
	MonthlyHousingCents int64     `json:"monthly_housing_cents"`
	DownPaymentCents    int64     `json:"down_payment_cents"`
	CreatedAt           time.Time `json:"created_at"`
}

type LeadActivity struct {
	ActivityID int64     `json:"activity_id"`
	InquiryID  int64     `json:"inquiry_id"`
	Kind       string    `json:"kind"`
	Body       string    `json:"body"`
	UserID     *int64    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type SMSMessage struct {
	MessageID   int64     `json:"message_id"`
	Phone       string    `json:"phone"`
	Direction   string    `json:"direction"`
	Body        string    `json:"body"`
	ProviderSID string    `json:"provider_sid"`
	Status      string    `json:"status"`
	UserID      *int64    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type PushSubscription struct {
	SubscriptionID int64     `json:"subscription_id"`
	Endpoint       string    `json:"endpoint"`
	P256dh         string    `json:"p256dh"`
	Auth           string    `json:"auth"`
	UserAgent      string    `json:"user_agent"`
	CreatedAt      time.Time `json:"created_at"`
}

type PushBroadcast struct {
	BroadcastID  int64     `json:"broadcast_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	URL          string    `json:"url"`
	SentCount    int       `json:"sent_count"`
	FailedCount  int       `json:"failed_count"`
	RemovedCount int       `json:"removed_count"`
	CreatedBy    *int64    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// Notification is an entry in the admin inbox
type Notification struct {
	NotificationID int64     `json:"notification_id"`
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Link           string    `json:"link"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filters

// VehicleFilter is bound as the named parameters of VehiclesList; zero values don't filter
type VehicleFilter struct {
	Statuses pq.StringArray `json:"statuses"`
	Make     string         `json:"make"`
	MinPrice int64          `json:"min_price"`
	MaxPrice int64          `json:"max_price"`
	MinYear  int            `json:"min_year"`
	MaxYear  int            `json:"max_year"`
	Featured bool           `json:"featured"`
	Search   string         `json:"search"`
}

type ConsignmentFilter struct {
	Status string `json:"status"`
	Search string `json:"search"`
}

type InquiryFilter struct {
	Stage string `json:"stage"`
	Kind  string `json:"kind"`
}

type NotificationFilter struct {
	UnreadOnly bool `json:"unread_only"`
}

// Aggregates

type ConversationSummary struct {
	Phone         string    `json:"phone"`
	LastBody      string    `json:"last_body"`
	LastDirection string    `json:"last_direction"`
	LastAt        time.Time `json:"last_at"`
	MessageCount  int       `json:"message_count"`
	InboundCount  int       `json:"inbound_count"`
	LeadName      string    `json:"lead_name"`
}

type CountByKey struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

type DashboardStats struct {
	ConsignmentsByStatus []CountByKey `json:"consignments_by_status"`
	LeadsByStage         []CountByKey `json:"leads_by_stage"`
	LeadsBySource        []CountByKey `json:"leads_by_source"`
	AvailableVehicles    int          `json:"available_vehicles"`
	InventoryValueCents  int64        `json:"inventory_value_cents"`
	SoldLast30Days       int          `json:"sold_last_30_days"`
	RevenueLast30Cents   int64        `json:"revenue_last_30_days_cents"`
	LeadsPerDay          []DailyCount `json:"leads_per_day"`
	RecentInquiries      []Inquiry    `json:"recent_inquiries"`
	PushSubscribers      int          `json:"push_subscribers"`
	UnreadNotifications  int          `json:"unread_notifications"`
}
