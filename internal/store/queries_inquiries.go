package store

import "github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"

var inquiriesGetByID = &storage.Query{
	Name:     InquiriesGetByID,
	CacheKey: "inquiry_id=%v",

	Query: "select * from inquiries where inquiry_id=:inquiry_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

var inquiriesList = &storage.Query{
	Name:   InquiriesList,
	Params: InquiryFilter{},

	Query: `select * from inquiries
where (:stage = '' OR stage = :stage)
and (:kind = '' OR kind = :kind)
order by created_at desc, inquiry_id desc`,

	InsertAction: storage.CacheNoAction,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheNoAction,
}

// the board is grouped into stage columns by the caller; within a column, position wins
var inquiriesBoard = &storage.Query{
	Name:   InquiriesBoard,
	Params: InquiryFilter{},

	Query: `select * from inquiries
where (:kind = '' OR kind = :kind)
order by stage, position, created_at desc`,

	InsertAction: storage.CacheNoAction,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheNoAction,
}

// used to tie an inbound text to the newest lead from that number
var inquiriesGetLatestByPhone = &storage.Query{
	Name: InquiriesGetLatestByPhone,

	Query: "select * from inquiries where phone=:phone order by created_at desc, inquiry_id desc",

	InsertAction: storage.CacheNoAction,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheNoAction,
}

// new leads go to the top of their column
const inquiriesInsert = `INSERT INTO inquiries (kind, vehicle_id, name, email, phone, message, source, stage, position,
assigned_user_id, crm_contact_id)
VALUES
(:kind, :vehicle_id, :name, lower(:email), :phone, :message, :source, :stage,
(SELECT COALESCE(MIN(position), 1) - 1 FROM inquiries WHERE stage = :stage),
:assigned_user_id, :crm_contact_id) RETURNING *`

const inquiriesUpdate = `UPDATE inquiries SET kind=:kind, vehicle_id=:vehicle_id, name=:name, email=lower(:email), phone=:phone,
message=:message, source=:source, stage=:stage, position=:position, assigned_user_id=:assigned_user_id,
crm_contact_id=:crm_contact_id, updated_at=now()
WHERE inquiry_id=:inquiry_id RETURNING *`

// shifts the rest of a column to make room at a position; returns the rows so their keys can be dropped
const inquiriesShiftColumn = `UPDATE inquiries SET position=position+1, updated_at=now()
WHERE stage=$1 AND position >= $2 AND inquiry_id <> $3 RETURNING *`

var creditApplicationsGetByID = &storage.Query{
	Name:     CreditApplicationsGetByID,
	CacheKey: "credit_application_id=%v",

	Query: "select * from credit_applications where credit_application_id=:credit_application_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

// one application per inquiry
var creditApplicationsGetByInquiryID = &storage.Query{
	Name:     CreditApplicationsGetByInquiryID,
	CacheKey: "inquiry_id=%v",

	Query: "select * from credit_applications where inquiry_id=:inquiry_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

const creditApplicationsInsert = `INSERT INTO credit_applications (inquiry_id, date_of_birth, employer, employment_years,
annual_income_cents, housing_status, monthly_housing_cents, down_payment_cents)
VALUES
(:inquiry_id, :date_of_birth, :employer, :employment_years,
:annual_income_cents, :housing_status, :monthly_housing_cents, :down_payment_cents) RETURNING *`

var activitiesGetByID = &storage.Query{
	Name:     ActivitiesGetByID,
	CacheKey: "activity_id=%v",

	Query: "select * from lead_activities where activity_id=:activity_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

// newest first
var activitiesGetByInquiryID = &storage.Query{
	Name:                    ActivitiesGetByInquiryID,
	CacheKey:                "inquiry_id=%v",
	CachePrimaryQueryStored: ActivitiesGetByID,

	Query: "select * from lead_activities where inquiry_id=:inquiry_id order by created_at desc, activity_id desc",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheLPush,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheRPush,
}

const activitiesInsert = `INSERT INTO lead_activities (inquiry_id, kind, body, user_id)
VALUES
(:inquiry_id, :kind, :body, :user_id) RETURNING *`
