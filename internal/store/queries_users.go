package store

import "github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"

var usersGetByID = &storage.Query{
	Name:     UsersGetByID,
	CacheKey: "user_id=%v",

	Query: "select * from users where user_id=:user_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

// email is unique; the store drops the old key before an update changes it
var usersGetByEmail = &storage.Query{
	Name:     UsersGetByEmail,
	CacheKey: "email=%v",

	Query: "select * from users where lower(email)=lower(:email)",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

var usersGetAll = &storage.Query{
	Name: UsersGetAll,

	Query: "select * from users order by created_at",

	InsertAction: storage.CacheNoAction,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheNoAction,
}

const usersInsert = `INSERT INTO users (email, name, password_hash, role, active)
VALUES
(lower(:email), :name, :password_hash, :role, :active) RETURNING *` // note: make sure it's RETURNING *

const usersUpdate = `UPDATE users SET email=lower(:email), name=:name, password_hash=:password_hash, role=:role,
active=:active, updated_at=now() WHERE user_id=:user_id RETURNING *`
