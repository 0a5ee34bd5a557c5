package service

// Request bodies. Handlers decode and validate these; the service normalizes and stores them.

type VehicleQuery struct {
	Status   string `json:"status" validate:"omitempty,oneof=draft available pending sold"`
	Make     string `json:"make" validate:"max=60"`
	MinPrice int64  `json:"min_price" validate:"cents"`
	MaxPrice int64  `json:"max_price" validate:"cents"`
	MinYear  int    `json:"min_year" validate:"omitempty,modelyear"`
	MaxYear  int    `json:"max_year" validate:"omitempty,modelyear"`
	Featured bool   `json:"featured"`
	Search   string `json:"q" validate:"max=100"`
}

type ConsignmentRequest struct {
	OwnerName        string `json:"owner_name" validate:"required,max=120"`
	OwnerEmail       string `json:"owner_email" validate:"required,email"`
	OwnerPhone       string `json:"owner_phone" validate:"required,phone"`
	VIN              string `json:"vin" validate:"required,vin"`
	Year             int    `json:"year" validate:"required,modelyear"`
	Make             string `json:"make" validate:"required,max=60"`
	Model            string `json:"model" validate:"required,max=60"`
	Trim             string `json:"trim" validate:"max=60"`
	Mileage          int    `json:"mileage" validate:"gte=0,lte=2000000"`
	Condition        string `json:"condition" validate:"max=2000"`
	AskingPriceCents int64  `json:"asking_price_cents" validate:"required,cents"`
	Notes            string `json:"notes" validate:"max=4000"`
}

// ConsignmentUpdate is the admin edit; nil fields are left alone
type ConsignmentUpdate struct {
	OwnerName        *string `json:"owner_name" validate:"omitempty,max=120"`
	OwnerEmail       *string `json:"owner_email" validate:"omitempty,email"`
	OwnerPhone       *string `json:"owner_phone" validate:"omitempty,phone"`
	Trim             *string `json:"trim" validate:"omitempty,max=60"`
	Mileage          *int    `json:"mileage" validate:"omitempty,gte=0,lte=2000000"`
	Condition        *string `json:"condition" validate:"omitempty,max=2000"`
	AskingPriceCents *int64  `json:"asking_price_cents" validate:"omitempty,cents"`
	AgreedPriceCents *int64  `json:"agreed_price_cents" validate:"omitempty,cents"`
	Notes            *string `json:"notes" validate:"omitempty,max=4000"`
}

type ConsignmentTransitionRequest struct {
	Status         string `json:"status" validate:"required,oneof=pending approved listed sold rejected"`
	Reason         string `json:"reason" validate:"max=1000"`
	SoldPriceCents *int64 `json:"sold_price_cents" validate:"omitempty,cents"`
	// PriceCents is the listing price when the consignment is listed; the agreed or asking price otherwise
	PriceCents *int64 `json:"price_cents" validate:"omitempty,cents"`
}

type DocumentRequest struct {
	Kind string `json:"kind" validate:"required,oneof=title registration agreement inspection other"`
	Name string `json:"name" validate:"required,max=200"`
	URL  string `json:"url" validate:"required,url,max=2000"`
}

type InquiryRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=inquiry test_drive trade_in"`
	VehicleID *int64 `json:"vehicle_id" validate:"omitempty,gt=0"`
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required_without=Phone,omitempty,email"`
	Phone     string `json:"phone" validate:"required_without=Email,omitempty,phone"`
	Message   string `json:"message" validate:"max=4000"`
	Source    string `json:"source" validate:"omitempty,oneof=website phone walk_in referral"`
}

type CreditApplicationRequest struct {
	VehicleID           *int64 `json:"vehicle_id" validate:"omitempty,gt=0"`
	Name                string `json:"name" validate:"required,max=120"`
	Email               string `json:"email" validate:"required,email"`
	Phone               string `json:"phone" validate:"required,phone"`
	DateOfBirth         string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Employer            string `json:"employer" validate:"max=120"`
	EmploymentYears     int    `json:"employment_years" validate:"gte=0,lte=80"`
	AnnualIncomeCents   int64  `json:"annual_income_cents" validate:"required,cents"`
	HousingStatus       string `json:"housing_status" validate:"required,oneof=rent own other"`
	MonthlyHousingCents int64  `json:"monthly_housing_cents" validate:"cents"`
	DownPaymentCents    int64  `json:"down_payment_cents" validate:"cents"`
	Message             string `json:"message" validate:"max=4000"`
}

type VehicleRequest struct {
	VIN           string   `json:"vin" validate:"required,vin"`
	Year          int      `json:"year" validate:"required,modelyear"`
	Make          string   `json:"make" validate:"required,max=60"`
	Model         string   `json:"model" validate:"required,max=60"`
	Trim          string   `json:"trim" validate:"max=60"`
	Mileage       int      `json:"mileage" validate:"gte=0,lte=2000000"`
	ExteriorColor string   `json:"exterior_color" validate:"max=60"`
	InteriorColor string   `json:"interior_color" validate:"max=60"`
	PriceCents    int64    `json:"price_cents" validate:"cents"`
	Description   string   `json:"description" validate:"max=10000"`
	Status        string   `json:"status" validate:"omitempty,oneof=draft available pending sold"`
	Featured      bool     `json:"featured"`
	Photos        []string `json:"photos" validate:"max=60,dive,url"`
}

type VehicleStatusRequest struct {
	Status     string `json:"status" validate:"required,oneof=draft available pending sold"`
	PriceCents *int64 `json:"price_cents" validate:"omitempty,cents"`
}

type MoveLeadRequest struct {
	Stage    string `json:"stage" validate:"required,oneof=new contacted qualified negotiating sold lost"`
	Position int    `json:"position" validate:"gte=0"`
}

type AssignLeadRequest struct {
	UserID *int64 `json:"user_id" validate:"omitempty,gt=0"`
}

type NoteRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type SendSMSRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
	Body  string `json:"body" validate:"required,max=1600"`
}

type BroadcastRequest struct {
	Title string `json:"title" validate:"required,max=80"`
	Body  string `json:"body" validate:"required,max=240"`
	URL   string `json:"url" validate:"omitempty,max=2000"`
}

type SubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url,max=2000"`
	Keys     struct {
		P256dh string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys"`
}

type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=120"`
	Role     string `json:"role" validate:"required,oneof=admin staff"`
	Password string `json:"password" validate:"required,min=10,maxbytes=72"`
}

type UserUpdate struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin staff"`
	Active   *bool   `json:"active"`
	Password *string `json:"password" validate:"omitempty,min=10,maxbytes=72"`
}

type VerifyStartRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

type VerifyCheckRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}
