package storage

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
)

// QueryInterface is satisfied by both *sqlx.DB and *sqlx.Tx
type QueryInterface interface {
	sqlx.ExtContext
}

type db struct {
	writeConnection *sqlx.DB
	readConnection  *sqlx.DB
	mapper          *reflectx.Mapper
}

func newDB(conf *Config, mapper *reflectx.Mapper) *db {
	return &db{
		writeConnection: conf.WriteOnlyDbConn,
		readConnection:  conf.ReadOnlyDbConn,
		mapper:          mapper,
	}
}

func (db *db) query(ctx context.Context, conn QueryInterface, query string, args map[string]interface{}) (*sqlx.Rows, error) {
	return sqlx.NamedQueryContext(ctx, conn, query, args)
}

/*
args flattens obj into the named parameters of a query, keyed by json tag.
Pointers are dereferenced so they bind (and print in cache keys) as their values.
*/
func (db *db) args(obj interface{}) (map[string]interface{}, error) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, fmt.Errorf("storage: obj not pointer; is %T", obj)
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("storage: obj must point to a struct; is %T", obj)
	}

	fields := db.mapper.FieldMap(v)
	args := make(map[string]interface{}, len(fields)+2)
	for name, f := range fields {
		// nested struct members aren't columns
		if strings.Contains(name, ".") {
			continue
		}
		args[name] = indirect(f)
	}
	return args, nil
}

// scanOne scans the first row into obj; ErrNotFound when there are no rows
func (db *db) scanOne(rows *sqlx.Rows, obj interface{}) error {
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return ErrNotFound
	}
	if err := rows.StructScan(obj); err != nil {
		return err
	}
	return rows.Close()
}

// scanAll scans every row into new values of t and returns them as pointers
func (db *db) scanAll(rows *sqlx.Rows, t reflect.Type) ([]reflect.Value, error) {
	defer rows.Close()

	res := []reflect.Value{}
	for rows.Next() {
		elem := reflect.New(t)
		if err := rows.StructScan(elem.Interface()); err != nil {
			return nil, err
		}
		res = append(res, elem)
	}
	return res, rows.Err()
}

// primaryKey reads the primary key field off a row
func (db *db) primaryKey(obj reflect.Value, field string) interface{} {
	f := db.mapper.FieldByName(reflect.Indirect(obj), field)
	if !f.IsValid() {
		return nil
	}
	return indirect(f)
}

func (db *db) writeConn() *sqlx.DB {
	return db.writeConnection
}

func (db *db) readConn() *sqlx.DB {
	return db.readConnection
}
