package store

import "github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"

var settingsGetByKey = &storage.Query{
	Name:     SettingsGetByKey,
	CacheKey: "key=%v",

	Query: "select * from site_settings where key=:key",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

var settingsGetAll = &storage.Query{
	Name: SettingsGetAll,

	Query: "select * from site_settings order by key",

	InsertAction: storage.CacheNoAction,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheNoAction,
}

// settings are only ever written through the upsert
const settingsUpsert = `INSERT INTO site_settings (key, value)
VALUES
(:key, :value)
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()
RETURNING *`
