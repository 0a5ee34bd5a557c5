package store

// User ENUMs
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Vehicle ENUMs
const (
	VehicleStatusDraft     = "draft"
	VehicleStatusAvailable = "available"
	VehicleStatusPending   = "pending"
	VehicleStatusSold      = "sold"
)

const (
	VehicleSourceConsignment = "consignment"
	VehicleSourceOwned       = "owned"
)

// Consignment ENUMs
const (
	ConsignmentStatusPending  = "pending"
	ConsignmentStatusApproved = "approved"
	ConsignmentStatusListed   = "listed"
	ConsignmentStatusSold     = "sold"
	ConsignmentStatusRejected = "rejected"
)

const (
	DocumentKindTitle        = "title"
	DocumentKindRegistration = "registration"
	DocumentKindAgreement    = "agreement"
	DocumentKindInspection   = "inspection"
	DocumentKindOther        = "other"
)

// Lead ENUMs
const (
	InquiryKindInquiry           = "inquiry"
	InquiryKindCreditApplication = "credit_application"
	InquiryKindTestDrive         = "test_drive"
	InquiryKindTradeIn           = "trade_in"
)

const (
	StageNew         = "new"
	StageContacted   = "contacted"
	StageQualified   = "qualified"
	StageNegotiating = "negotiating"
	StageSold        = "sold"
	StageLost        = "lost"
)

const (
	SourceWebsite  = "website"
	SourcePhone    = "phone"
	SourceWalkIn   = "walk_in"
	SourceReferral = "referral"
)

const (
	HousingRent  = "rent"
	HousingOwn   = "own"
	HousingOther = "other"
)

const (
	ActivityNote        = "note"
	ActivityStageChange = "stage_change"
	ActivityAssignment  = "assignment"
	ActivitySMS         = "sms"
	ActivityCRMSync     = "crm_sync"
)

// SMS ENUMs
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Notification ENUMs
const (
	NotificationConsignment = "consignment"
	NotificationInquiry     = "inquiry"
	NotificationCredit      = "credit_application"
	NotificationSMS         = "sms"
)
