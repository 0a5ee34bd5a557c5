package storage

import (
	"errors"
	"fmt"
)

func (s *storage) validate() error {
	if s.serviceName == "" {
		return errors.New("storage: serviceName must be set")
	}

	err := s.parseTables()
	if err != nil {
		return err
	}

	return s.validatePrimaryQueryStored()
}

func (s *storage) parseTables() error {
	keys := map[string]string{}

	for _, t := range s.tables {
		if err := t.validate(s.db.mapper); err != nil {
			return err
		}

		if _, ok := s.structToTable[t.structType]; ok {
			return fmt.Errorf("storage: struct %s is used by more than one table", t.structType.Name())
		}
		s.structToTable[t.structType] = t

		for _, q := range t.Queries {
			if err := q.validate(s.db.mapper, t.structType); err != nil {
				return err
			}
			if _, ok := s.queries[q.Name]; ok {
				return fmt.Errorf("storage: query name %s is used more than once", q.Name)
			}

			q.parseFullCacheKey(s.serviceName, t.Name)
			q.parseLimitOffsetQuery()

			if q.CacheKey != "" {
				if other, ok := keys[q.fullCacheKey]; ok {
					return fmt.Errorf("storage: queries %s and %s share the CacheKey %s", other, q.Name, q.CacheKey)
				}
				keys[q.fullCacheKey] = q.Name
			}

			s.queries[q.Name] = q
			s.queryToTable[q.Name] = t
		}
	}
	return nil
}

// validatePrimaryQueryStored makes sure that the query in CachePrimaryQueryStored is actually a query that queries based off primary key
func (s *storage) validatePrimaryQueryStored() error {
	for _, q := range s.queries {
		// we're only checking lists
		if !q.isList() {
			continue
		}

		if q.CachePrimaryQueryStored == "" {
			return fmt.Errorf("storage: CachePrimaryQueryStored must be set for list query %s", q.Name)
		}

		t, ok := s.queryToTable[q.CachePrimaryQueryStored]
		if !ok || t.PrimaryQueryName != q.CachePrimaryQueryStored {
			return fmt.Errorf("storage: CachePrimaryQueryStored of %s must be the primary query of a table", q.Name)
		}

		if t != s.queryToTable[q.Name] {
			// the list's rows are the rows of its own table
			return fmt.Errorf("storage: CachePrimaryQueryStored of %s must belong to the same table", q.Name)
		}
	}
	return nil
}
