package storage

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx/reflectx"
)

func (t *Table) validate(mapper *reflectx.Mapper) error {
	if t.Struct == nil {
		return errors.New("storage: table Struct must be set")
	}

	t.parseStructType()

	if t.structType.Kind() != reflect.Struct {
		return fmt.Errorf("storage: table Struct must be a struct; is %s", t.structType.Kind())
	}

	if t.Name == "" {
		return fmt.Errorf("storage: table for %s must have a Name", t.structType.Name())
	}

	// you can have no primary key only if you never write through storage
	if t.PrimaryKeyField == "" && (t.InsertQuery != "" || t.UpdateQuery != "" || t.DeleteQuery != "") {
		return fmt.Errorf("storage: table %s: PrimaryKeyField must be set", t.Name)
	}

	if t.PrimaryKeyField != "" && mapper.TypeMap(t.structType).GetByPath(t.PrimaryKeyField) == nil {
		return fmt.Errorf("storage: table %s: PrimaryKeyField %s is not a field of %s", t.Name, t.PrimaryKeyField, t.structType.Name())
	}

	if t.PrimaryQueryName == "" {
		return fmt.Errorf("storage: table %s: PrimaryQueryName must be set", t.Name)
	}

	if len(t.Queries) == 0 {
		return fmt.Errorf("storage: table %s: Queries must be set", t.Name)
	}

	found := false
	for _, q := range t.Queries {
		if q.Name == t.PrimaryQueryName {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("storage: table %s: PrimaryQueryName %s is not one of its queries", t.Name, t.PrimaryQueryName)
	}

	return t.validateWriteQueries()
}

func (t *Table) validateWriteQueries() error {
	// insert, update & delete aren't required e.g. a read-only view
	for name, q := range map[string]string{"InsertQuery": t.InsertQuery, "UpdateQuery": t.UpdateQuery, "DeleteQuery": t.DeleteQuery} {
		if q != "" && !strings.HasSuffix(strings.ToLower(strings.TrimSpace(q)), "returning *") {
			return fmt.Errorf("storage: table %s: %s must end with `returning *`", t.Name, name)
		}
	}
	return nil
}

func (t *Table) parseStructType() {
	// optimization; this is looked up on every call and it's reflection
	t.structType = reflect.TypeOf(t.Struct)
	if t.structType.Kind() == reflect.Ptr {
		t.structType = t.structType.Elem()
	}
}
