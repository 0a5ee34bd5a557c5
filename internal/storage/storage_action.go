package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

/*
actionNonSelect applies the insert/update/delete cache actions of every query on the row's table:
 1. struct keys are set or deleted (e.g. a vehicle by vehicle_id)
 2. list keys get the row's primary key pushed with LPushX/RPushX, or removed on delete

Lists are never created here, only a select builds them; that keeps a half-built list out of the cache.
*/
func (s *storage) actionNonSelect(ctx context.Context, t *Table, obj interface{}, action actionTypes) error {
	if action == actionSelect {
		return errors.New("storage: cannot do actionSelect in actionNonSelect")
	}

	args, err := s.db.args(obj)
	if err != nil {
		return err
	}
	pk := args[t.PrimaryKeyField]

	var errs []error
	for _, q := range t.Queries {
		if q.CacheKey == "" {
			// uncached query; nothing to keep up to date
			continue
		}
		keyName := q.getKeyName(args)

		var actionToTake CacheAction
		switch action {
		case actionInsert:
			actionToTake = q.InsertAction
		case actionUpdate:
			actionToTake = q.UpdateAction
		case actionDelete:
			actionToTake = CacheDel
			if q.isList() {
				// remove just this row from the list rather than dropping the list
				s.d("%s: lrem %v from %s", action, pk, keyName)
				if err := s.cache.remove(ctx, keyName, pk); err != nil {
					errs = append(errs, err)
				}
				continue
			}
		}

		s.d("%s: %s on %s", action, actionToTake, keyName)

		var err error
		switch actionToTake {
		case CacheNoAction:
			// don't do anything
		case CacheSet:
			err = s.cache.set(ctx, keyName, obj, s.ttl(q))
		case CacheDel:
			err = s.cache.del(ctx, keyName)
		case CacheLPush:
			err = s.cache.pushX(ctx, keyName, true, pk)
		case CacheRPush:
			err = s.cache.pushX(ctx, keyName, false, pk)
		default:
			err = fmt.Errorf("storage: unknown %s action %d on %s", action, actionToTake, q.Name)
		}

		if err != nil {
			// keep going; we want every other key updated
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// cacheActionSelect caches a single row that came from the db
func (s *storage) cacheActionSelect(ctx context.Context, q *Query, keyName string, obj interface{}) error {
	if q.isList() {
		return nil
	}

	var err error
	switch q.SelectAction {
	case CacheSet:
		err = s.cache.set(ctx, keyName, obj, s.ttl(q))
	case CacheDel:
		err = s.cache.del(ctx, keyName)
	}
	if err != nil {
		// the row is good; a cache failure only costs us the next read
		s.log.warn(err, "cache select action %s", keyName)
	}
	return nil
}

// cacheActionSelectList stores the primary keys of rows under keyName and caches each row on its primary query
func (s *storage) cacheActionSelectList(ctx context.Context, q *Query, keyName string, rows []reflect.Value) error {
	primary := s.queries[q.CachePrimaryQueryStored]
	t := s.queryToTable[q.CachePrimaryQueryStored]

	ids := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, s.db.primaryKey(row, t.PrimaryKeyField))

		if primary.SelectAction == CacheSet {
			args, err := s.db.args(row.Interface())
			if err != nil {
				return err
			}
			if err := s.cache.set(ctx, primary.getKeyName(args), row.Interface(), s.ttl(primary)); err != nil {
				return err
			}
		}
	}

	return s.cache.setList(ctx, keyName, ids, s.ttl(q))
}

func (a CacheAction) String() string {
	switch a {
	case CacheDefault:
		return "default"
	case CacheNoAction:
		return "noaction"
	case CacheDel:
		return "del"
	case CacheSet:
		return "set"
	case CacheLPush:
		return "lpush"
	case CacheRPush:
		return "rpush"
	}
	return fmt.Sprintf("CacheAction(%d)", int32(a))
}
