package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
)

func (s *storage) selectOne(ctx context.Context, obj interface{}, queryName string, conn QueryInterface) error {
	q, ok := s.queries[queryName]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownQuery, queryName)
	}

	if _, err := s.tableFor(obj); err != nil {
		return err
	}

	args, err := s.db.args(obj)
	if err != nil {
		return err
	}

	// get the cache key name
	keyName := q.getKeyName(args)

	if !q.isList() && q.SelectAction == CacheSet {
		// the obj should be of the value that the cache is expecting so we can then just unmarshal into that
		err = s.cache.get(ctx, keyName, obj)
		if err == nil {
			s.d("select %s: cache hit %s", q.Name, keyName)
			return nil
		}
		if !errors.Is(err, redis.Nil) {
			// a broken cache shouldn't take the site down; go to the db
			s.log.warn(err, "cache get %s", keyName)
		}
	}

	// not in the cache: get from the database and then set the cache
	rows, err := s.db.query(ctx, conn, q.Query, args)
	if err != nil {
		return err
	}
	if err := s.db.scanOne(rows, obj); err != nil {
		return err
	}

	return s.cacheActionSelect(ctx, q, keyName, obj)
}

func (s *storage) selectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, opts *SelectOptions, conn QueryInterface, sequential bool) error {
	q, ok := s.queries[queryName]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownQuery, queryName)
	}
	if opts == nil {
		opts = &SelectOptions{}
	}
	if err := opts.validate(); err != nil {
		return err
	}

	t := s.queryToTable[queryName]
	direct, isPointer, err := destSlice(dest, t.structType)
	if err != nil {
		return err
	}

	args, err := s.db.args(obj)
	if err != nil {
		return err
	}

	// there's no list to keep so just do the query and return
	if !q.isList() || !s.cache.enabled {
		args[limitArg] = opts.limitArg()
		args[offsetArg] = opts.Offset

		rows, err := s.db.query(ctx, conn, q.queryLimitOffset, args)
		if err != nil {
			return err
		}
		res, err := s.db.scanAll(rows, t.structType)
		if err != nil {
			return err
		}
		fillDest(direct, isPointer, res)
		return nil
	}

	keyName := q.getKeyName(args)

	ids, ok, err := s.cache.listRange(ctx, keyName, int64(opts.Offset), opts.stop())
	if err != nil {
		s.log.warn(err, "cache lrange %s", keyName)
	}
	if ok && err == nil {
		s.d("selectAll %s: found %d ids in %s", q.Name, len(ids), keyName)
		res, err := s.fetchByIDs(ctx, q.CachePrimaryQueryStored, ids, conn, sequential)
		if err != nil {
			return err
		}
		fillDest(direct, isPointer, res)
		return nil
	}

	// the list isn't cached: run the whole query, remember the ids, hand back the page asked for
	args[limitArg] = nil
	args[offsetArg] = 0
	rows, err := s.db.query(ctx, conn, q.queryLimitOffset, args)
	if err != nil {
		return err
	}
	res, err := s.db.scanAll(rows, t.structType)
	if err != nil {
		return err
	}

	if err := s.cacheActionSelectList(ctx, q, keyName, res); err != nil {
		s.log.warn(err, "cache set list %s", keyName)
	}

	start, end := opts.window(len(res))
	fillDest(direct, isPointer, res[start:end])
	return nil
}

// fetchByIDs loads each row through the table's primary query, keeping the list order
func (s *storage) fetchByIDs(ctx context.Context, primaryQuery string, ids []string, conn QueryInterface, sequential bool) ([]reflect.Value, error) {
	t := s.queryToTable[primaryQuery]

	rows := make([]reflect.Value, len(ids))
	found := make([]bool, len(ids))

	for i, id := range ids {
		row := reflect.New(t.structType)
		pk := s.db.mapper.FieldByName(row.Elem(), t.PrimaryKeyField)
		if err := setFromString(pk, id); err != nil {
			return nil, err
		}
		rows[i] = row
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, row := range rows {
		fetch := func() error {
			err := s.selectOne(gctx, row.Interface(), primaryQuery, conn)
			if errors.Is(err, ErrNotFound) {
				// deleted underneath a stale list; skip it
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = true
			return nil
		}

		if sequential {
			if err := fetch(); err != nil {
				return nil, err
			}
			continue
		}
		g.Go(fetch)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := make([]reflect.Value, 0, len(rows))
	for i, row := range rows {
		if found[i] {
			res = append(res, row)
		}
	}
	return res, nil
}

func (s *storage) insert(ctx context.Context, obj interface{}, conn QueryInterface) (*Table, error) {
	t, err := s.tableFor(obj)
	if err != nil {
		return nil, err
	}
	if t.InsertQuery == "" {
		return nil, fmt.Errorf("storage: table %s has no insert query", t.Name)
	}
	return t, s.write(ctx, obj, t.InsertQuery, conn)
}

func (s *storage) update(ctx context.Context, obj interface{}, conn QueryInterface) (*Table, error) {
	t, err := s.tableFor(obj)
	if err != nil {
		return nil, err
	}
	if t.UpdateQuery == "" {
		return nil, fmt.Errorf("storage: table %s has no update query", t.Name)
	}
	return t, s.write(ctx, obj, t.UpdateQuery, conn)
}

func (s *storage) delete(ctx context.Context, obj interface{}, conn QueryInterface) (*Table, error) {
	t, err := s.tableFor(obj)
	if err != nil {
		return nil, err
	}
	if t.DeleteQuery == "" {
		return nil, fmt.Errorf("storage: table %s has no delete query", t.Name)
	}
	return t, s.write(ctx, obj, t.DeleteQuery, conn)
}

// write runs a RETURNING * statement and scans the row back into obj
func (s *storage) write(ctx context.Context, obj interface{}, query string, conn QueryInterface) error {
	args, err := s.db.args(obj)
	if err != nil {
		return err
	}

	rows, err := s.db.query(ctx, conn, query, args)
	if err != nil {
		return err
	}
	return s.db.scanOne(rows, obj)
}
