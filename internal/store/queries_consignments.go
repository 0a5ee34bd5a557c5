package store

import "github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"

var consignmentsGetByID = &storage.Query{
	Name:     ConsignmentsGetByID,
	CacheKey: "consignment_id=%v",

	Query: "select * from consignments where consignment_id=:consignment_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

// the seller portal's list; newest first so inserts go on the left
var consignmentsGetByOwnerPhone = &storage.Query{
	Name:                    ConsignmentsGetByOwnerPhone,
	CacheKey:                "owner_phone=%v",
	CachePrimaryQueryStored: ConsignmentsGetByID,

	Query: "select * from consignments where owner_phone=:owner_phone order by created_at desc, consignment_id desc",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheLPush,
	UpdateAction: storage.CacheNoAction, // an update doesn't change which consignments the owner has
	SelectAction: storage.CacheRPush,
}

var consignmentsList = &storage.Query{
	Name:   ConsignmentsList,
	Params: ConsignmentFilter{},

	Query: `select * from consignments
where (:status = '' OR status = :status)
and (:search = '' OR (owner_name || ' ' || owner_email || ' ' || owner_phone || ' ' || vin || ' ' || make || ' ' || model) ILIKE '%' || :search || '%')
order by created_at desc, consignment_id desc`,

	InsertAction: storage.CacheNoAction,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheNoAction,
}

const consignmentsInsert = `INSERT INTO consignments (owner_name, owner_email, owner_phone, vin, year, make, model, trim,
mileage, condition, asking_price_cents, agreed_price_cents, sold_price_cents, notes, status, rejection_reason, vehicle_id)
VALUES
(:owner_name, lower(:owner_email), :owner_phone, upper(:vin), :year, :make, :model, :trim,
:mileage, :condition, :asking_price_cents, :agreed_price_cents, :sold_price_cents, :notes, :status, :rejection_reason, :vehicle_id) RETURNING *`

const consignmentsUpdate = `UPDATE consignments SET owner_name=:owner_name, owner_email=lower(:owner_email), owner_phone=:owner_phone,
vin=upper(:vin), year=:year, make=:make, model=:model, trim=:trim, mileage=:mileage, condition=:condition,
asking_price_cents=:asking_price_cents, agreed_price_cents=:agreed_price_cents, sold_price_cents=:sold_price_cents,
notes=:notes, status=:status, rejection_reason=:rejection_reason, vehicle_id=:vehicle_id, updated_at=now()
WHERE consignment_id=:consignment_id RETURNING *`

var documentsGetByID = &storage.Query{
	Name:     DocumentsGetByID,
	CacheKey: "document_id=%v",

	Query: "select * from consignment_documents where document_id=:document_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

var documentsGetByConsignmentID = &storage.Query{
	Name:                    DocumentsGetByConsignmentID,
	CacheKey:                "consignment_id=%v",
	CachePrimaryQueryStored: DocumentsGetByID,

	Query: "select * from consignment_documents where consignment_id=:consignment_id order by created_at, document_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheRPush,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheRPush,
}

const documentsInsert = `INSERT INTO consignment_documents (consignment_id, kind, name, url)
VALUES
(:consignment_id, :kind, :name, :url) RETURNING *`

const documentsDelete = `DELETE FROM consignment_documents WHERE document_id=:document_id RETURNING *`
