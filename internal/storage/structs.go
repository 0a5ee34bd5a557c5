package storage

import (
	"fmt"
	"reflect"
)

type actionTypes int32

const (
	actionSelect actionTypes = iota
	actionInsert
	actionUpdate
	actionDelete
)

func (a actionTypes) String() string {
	switch a {
	case actionSelect:
		return "select"
	case actionInsert:
		return "insert"
	case actionUpdate:
		return "update"
	case actionDelete:
		return "delete"
	}
	return "unknown"
}

// CacheAction is what happens to a query's cache key when a row of its table is selected, inserted or updated
type CacheAction int32

const (
	CacheDefault  CacheAction = iota // unset; rejected by validation so every query is explicit
	CacheNoAction                    // do nothing
	CacheDel
	CacheSet
	CacheLPush
	CacheRPush
)

type CacheDataStructure int32

const (
	CacheDataStructureDefault CacheDataStructure = iota
	CacheDataStructureStruct
	CacheDataStructureList
)

const (
	cacheKeyPrefix = "service:%s|%s|"

	limitArg  = "limit"
	offsetArg = "offset"
)

/*
Query is a single named SQL query plus the rules for caching its result.

CacheKey is the part of the key that identifies the rows, e.g. `vehicle_id=%v` or `owner_phone=%v`.
Every `column=%v` segment is filled from the object passed in; segments are separated with `|`.
The full key becomes `service:{service}|{table}|vehicle_id=42`.

A query whose actions are Set/Del caches a single row (struct). A query whose actions are LPush/RPush
caches a list of primary keys; the rows themselves are fetched through CachePrimaryQueryStored, which
must be the primary query of a table (e.g. VehiclesGetByID).
*/
type Query struct {
	Name     string
	CacheKey string
	Query    string

	CacheTTL int // seconds; 0 falls back to Config.DefaultTTL

	CachePrimaryQueryStored string

	// Params is the zero value of the struct bound as named parameters when that isn't the table's struct,
	// e.g. a filter. Verify binds it when explaining the query.
	Params interface{}

	InsertAction CacheAction // action taken on this key when a row is inserted into the table
	UpdateAction CacheAction // action taken on this key when a row is updated
	SelectAction CacheAction // action taken on this key when the query is answered from the db (Set or a push)

	tableName          string
	fullCacheKey       string
	cacheKeyFields     []string
	cacheDataStructure CacheDataStructure
	queryLimitOffset   string
}

// getKeyName fills the query's abstract key with the object's values e.g. `service:acme|vehicles|vehicle_id=1273`
func (q *Query) getKeyName(args map[string]interface{}) string {
	vals := make([]interface{}, 0, len(q.cacheKeyFields))
	for _, field := range q.cacheKeyFields {
		vals = append(vals, args[field])
	}
	return fmt.Sprintf(q.fullCacheKey, vals...)
}

func (q *Query) isList() bool {
	return q.cacheDataStructure == CacheDataStructureList
}

// Table ties a row struct to its SQL table, its write queries and every read query on it
type Table struct {
	Struct interface{} // zero value of the row struct, e.g. Vehicle{}
	Name   string      // sql table name; used in cache keys

	PrimaryKeyField  string // json/column name of the primary key e.g. vehicle_id
	PrimaryQueryName string // query that fetches a row by its primary key e.g. VehiclesGetByID

	// note: all of these must end in `RETURNING *`
	InsertQuery string
	UpdateQuery string
	DeleteQuery string

	Queries []*Query

	structType reflect.Type
}

// SelectOptions pages a SelectAll. A Limit <= 0 returns everything from Offset on.
type SelectOptions struct {
	Limit  int
	Offset int
}

func (o *SelectOptions) limitArg() interface{} {
	if o.Limit <= 0 {
		// LIMIT NULL is the same as no limit in postgres
		return nil
	}
	return o.Limit
}

// window returns the [start, end) slice bounds for n rows
func (o *SelectOptions) window(n int) (int, int) {
	start := o.Offset
	if start > n {
		start = n
	}
	end := n
	if o.Limit > 0 && start+o.Limit < n {
		end = start + o.Limit
	}
	return start, end
}

// stop is the inclusive LRANGE stop index
func (o *SelectOptions) stop() int64 {
	if o.Limit <= 0 {
		return -1
	}
	return int64(o.Offset + o.Limit - 1)
}
