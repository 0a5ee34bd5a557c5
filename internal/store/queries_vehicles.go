package store

import "github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"

var vehiclesGetByID = &storage.Query{
	Name:     VehiclesGetByID,
	CacheKey: "vehicle_id=%v",

	Query: "select * from vehicles where vehicle_id=:vehicle_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

/*
vehiclesList backs both the public catalog and the admin inventory screen.
Filters come from VehicleFilter; a zero value doesn't filter. It isn't cached since
the combinations are endless and prices change.
*/
var vehiclesList = &storage.Query{
	Name:   VehiclesList,
	Params: VehicleFilter{},

	Query: `select * from vehicles
where (COALESCE(cardinality(CAST(:statuses AS text[])), 0) = 0 OR status = ANY(CAST(:statuses AS text[])))
and (:make = '' OR lower(make) = lower(:make))
and (:min_price = 0 OR price_cents >= :min_price)
and (:max_price = 0 OR price_cents <= :max_price)
and (:min_year = 0 OR year >= :min_year)
and (:max_year = 0 OR year <= :max_year)
and (:featured = false OR featured)
and (:search = '' OR (make || ' ' || model || ' ' || vin) ILIKE '%' || :search || '%')
order by featured desc, created_at desc, vehicle_id desc`,

	InsertAction: storage.CacheNoAction,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheNoAction,
}

const vehiclesInsert = `INSERT INTO vehicles (consignment_id, source, vin, year, make, model, trim, mileage,
exterior_color, interior_color, price_cents, description, status, featured, photos, sold_at)
VALUES
(:consignment_id, :source, upper(:vin), :year, :make, :model, :trim, :mileage,
:exterior_color, :interior_color, :price_cents, :description, :status, :featured, :photos, :sold_at) RETURNING *`

const vehiclesUpdate = `UPDATE vehicles SET consignment_id=:consignment_id, source=:source, vin=upper(:vin), year=:year,
make=:make, model=:model, trim=:trim, mileage=:mileage, exterior_color=:exterior_color,
interior_color=:interior_color, price_cents=:price_cents, description=:description, status=:status,
featured=:featured, photos=:photos, sold_at=:sold_at, updated_at=now()
WHERE vehicle_id=:vehicle_id RETURNING *`

const vehiclesDelete = `DELETE FROM vehicles WHERE vehicle_id=:vehicle_id RETURNING *`
