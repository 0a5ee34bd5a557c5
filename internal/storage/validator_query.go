package storage

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx/reflectx"
)

func (q *Query) validate(mapper *reflectx.Mapper, structType reflect.Type) error {
	err := q.validateName()
	if err != nil {
		return err
	}

	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("storage: query %s has no sql", q.Name)
	}

	err = q.validateActions()
	if err != nil {
		return err
	}

	err = q.validateAndParseCacheFields(mapper, structType)
	if err != nil {
		return err
	}

	return q.validateAndParseCacheDataStructure()
}

func (q *Query) validateName() error {
	if q.Name == "" {
		return errors.New("storage: query name is required")
	}
	return nil
}

func (q *Query) validateActions() error {
	for name, a := range map[string]CacheAction{"InsertAction": q.InsertAction, "UpdateAction": q.UpdateAction, "SelectAction": q.SelectAction} {
		if a == CacheDefault {
			return fmt.Errorf("storage: query %s must set %s", q.Name, name)
		}
		if a < CacheDefault || a > CacheRPush {
			return fmt.Errorf("storage: query %s has an unknown %s", q.Name, name)
		}
	}
	return nil
}

// validateAndParseCacheDataStructure parses the Insert, Select, and Update actions and sets the cacheDataStructure based off of the actions
func (q *Query) validateAndParseCacheDataStructure() error {
	m := map[string]CacheDataStructure{}

	for name, a := range map[string]CacheAction{"insert": q.InsertAction, "update": q.UpdateAction, "select": q.SelectAction} {
		switch a {
		case CacheLPush, CacheRPush:
			m[name] = CacheDataStructureList
		case CacheSet:
			m[name] = CacheDataStructureStruct
		}
	}

	if len(m) == 0 {
		// everything is CacheNoAction or CacheDel
		q.cacheDataStructure = CacheDataStructureStruct
		return nil
	}

	c := CacheDataStructureDefault
	for _, v := range m {
		// first time through; set c to the first value
		if c == CacheDataStructureDefault {
			c = v
			continue
		}

		if c != v {
			return fmt.Errorf("storage: query %s: all actions must be the same datastructure", q.Name)
		}
	}

	if c == CacheDataStructureList && q.SelectAction != CacheLPush && q.SelectAction != CacheRPush {
		// only a select can build a list
		return fmt.Errorf("storage: query %s: a list query must build its list on select", q.Name)
	}

	q.cacheDataStructure = c
	return nil
}

// validateAndParseCacheFields takes a key e.g. `owner_phone=%v|status=listed` and records owner_phone in cacheKeyFields
func (q *Query) validateAndParseCacheFields(mapper *reflectx.Mapper, structType reflect.Type) error {
	q.cacheKeyFields = []string{}

	if q.CacheKey == "" {
		if q.InsertAction == CacheNoAction && q.UpdateAction == CacheNoAction && q.SelectAction == CacheNoAction {
			return nil
		}
		return fmt.Errorf("storage: query %s caches but has no CacheKey", q.Name)
	}

	sm := mapper.TypeMap(structType)

	for _, key := range strings.Split(q.CacheKey, "|") {
		if !strings.Contains(key, `=%v`) {
			// field doesn't have a placeholder value; continue
			continue
		}

		parts := strings.Split(key, "=")
		if len(parts) != 2 || parts[1] != `%v` {
			return fmt.Errorf("storage: query %s: CacheKey segment %q must be in the format `field=%%v`", q.Name, key)
		}

		if sm.GetByPath(parts[0]) == nil {
			return fmt.Errorf("storage: query %s: CacheKey field %s is not a field of %s", q.Name, parts[0], structType.Name())
		}

		q.cacheKeyFields = append(q.cacheKeyFields, parts[0])
	}

	return nil
}

func (q *Query) parseFullCacheKey(service string, tableName string) {
	q.tableName = tableName
	// escape any stray % so only the placeholders are formatted
	prefix := strings.ReplaceAll(fmt.Sprintf(cacheKeyPrefix, service, tableName), "%", "%%")
	q.fullCacheKey = prefix + q.CacheKey
}

func (q *Query) parseLimitOffsetQuery() {
	q.queryLimitOffset = strings.TrimRight(strings.TrimSpace(q.Query), ";") + " LIMIT :limit OFFSET :offset"
}
