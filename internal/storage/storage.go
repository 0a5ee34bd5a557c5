package storage

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"github.com/sirupsen/logrus"
)

// Storage is the cache-aside API over postgres + redis
type Storage interface {
	// TXBegin starts a transaction; cache actions are held until TXEnd commits
	TXBegin(ctx context.Context) (TxInterface, error)

	Insert(ctx context.Context, obj interface{}) error
	Update(ctx context.Context, obj interface{}) error
	Delete(ctx context.Context, obj interface{}) error

	// Select fills out obj with the first row of the query; ErrNotFound when there is none
	Select(ctx context.Context, obj interface{}, queryName string) error

	/*
		SelectAll fills out dest (a pointer to a slice of the table's struct, or of pointers to it)
		obj carries the query's parameters.
	*/
	SelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, opts *SelectOptions) error

	DeleteKeys(ctx context.Context, objs ...interface{}) error // deletes the objects' keys from the cache

	// DeleteQueryKey drops the one key of queryName that obj maps to, list or struct; the next select rebuilds it
	DeleteQueryKey(ctx context.Context, obj interface{}, queryName string) error

	// Clear drops every cache key of this service, e.g. after a migration
	Clear(ctx context.Context) error

	// Verify runs EXPLAIN on every configured query against the read connection
	Verify(ctx context.Context) error
}

type Config struct {
	ReadOnlyDbConn  *sqlx.DB
	WriteOnlyDbConn *sqlx.DB
	Redis           redis.UniversalClient
	Tables          []*Table

	ServiceName string
	DefaultTTL  int // seconds

	DoNotUseCache      bool
	DisableConcurrency bool // fetch list rows one at a time
	Debugger           bool
	Logger             *logrus.Entry
}

type storage struct {
	db    *db
	cache *cache
	log   *logger

	serviceName        string
	defaultTTL         int
	disableConcurrency bool

	tables        []*Table
	queries       map[string]*Query
	queryToTable  map[string]*Table
	structToTable map[reflect.Type]*Table
}

// New validates the table config and returns the Storage
func New(conf *Config) (Storage, error) {
	if conf.ReadOnlyDbConn == nil || conf.WriteOnlyDbConn == nil {
		return nil, fmt.Errorf("storage: read and write db connections must be set")
	}

	// use the json tag instead of the db tag
	mapper := reflectx.NewMapperFunc("json", strings.ToLower)
	conf.ReadOnlyDbConn.Mapper = mapper
	conf.WriteOnlyDbConn.Mapper = mapper

	entry := conf.Logger
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &storage{
		db:                 newDB(conf, mapper),
		cache:              newCache(conf.Redis, !conf.DoNotUseCache),
		log:                &logger{entry: entry.WithField("component", "storage"), debuggerEnabled: conf.Debugger},
		serviceName:        conf.ServiceName,
		defaultTTL:         conf.DefaultTTL,
		disableConcurrency: conf.DisableConcurrency,
		tables:             conf.Tables,
		queries:            make(map[string]*Query),
		queryToTable:       make(map[string]*Table),
		structToTable:      make(map[reflect.Type]*Table),
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *storage) Insert(ctx context.Context, obj interface{}) error {
	t, err := s.insert(ctx, obj, s.db.writeConn())
	if err != nil {
		return err
	}
	return s.actionNonSelect(ctx, t, obj, actionInsert)
}

func (s *storage) Update(ctx context.Context, obj interface{}) error {
	t, err := s.update(ctx, obj, s.db.writeConn())
	if err != nil {
		return err
	}
	return s.actionNonSelect(ctx, t, obj, actionUpdate)
}

func (s *storage) Delete(ctx context.Context, obj interface{}) error {
	t, err := s.delete(ctx, obj, s.db.writeConn())
	if err != nil {
		return err
	}
	return s.actionNonSelect(ctx, t, obj, actionDelete)
}

func (s *storage) Select(ctx context.Context, obj interface{}, queryName string) error {
	return s.selectOne(ctx, obj, queryName, s.db.readConn())
}

func (s *storage) SelectAll(ctx context.Context, obj interface{}, dest interface{}, queryName string, opts *SelectOptions) error {
	return s.selectAll(ctx, obj, dest, queryName, opts, s.db.readConn(), s.disableConcurrency)
}

func (s *storage) DeleteKeys(ctx context.Context, objs ...interface{}) error {
	for _, obj := range objs {
		t, err := s.tableFor(obj)
		if err != nil {
			return err
		}
		if err := s.actionNonSelect(ctx, t, obj, actionDelete); err != nil {
			return err
		}
	}
	return nil
}

func (s *storage) DeleteQueryKey(ctx context.Context, obj interface{}, queryName string) error {
	q, ok := s.queries[queryName]
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownQuery, queryName)
	}
	if q.CacheKey == "" {
		return nil
	}

	args, err := s.db.args(obj)
	if err != nil {
		return err
	}
	keyName := q.getKeyName(args)
	s.d("delete key %s", keyName)
	return s.cache.del(ctx, keyName)
}

func (s *storage) Clear(ctx context.Context) error {
	return s.cache.clear(ctx, fmt.Sprintf("service:%s|*", s.serviceName))
}

func (s *storage) Verify(ctx context.Context) error {
	for _, t := range s.tables {
		for _, q := range t.Queries {
			zero := reflect.New(t.structType).Interface()
			if q.Params != nil {
				zero = reflect.New(reflect.TypeOf(q.Params)).Interface()
			}
			args, err := s.db.args(zero)
			if err != nil {
				return err
			}
			args[limitArg] = 0
			args[offsetArg] = 0

			rows, err := s.db.query(ctx, s.db.readConn(), "EXPLAIN "+q.queryLimitOffset, args)
			if err != nil {
				return fmt.Errorf("storage: query %s: %w", q.Name, err)
			}
			rows.Close()
		}
	}
	return nil
}

func (s *storage) ttl(q *Query) int {
	if q.CacheTTL != 0 {
		return q.CacheTTL
	}
	return s.defaultTTL
}

// tableFor finds the table whose Struct matches obj's type
func (s *storage) tableFor(obj interface{}) (*Table, error) {
	t := reflect.TypeOf(obj)
	if t == nil || t.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("storage: obj not pointer; is %T", obj)
	}
	table, ok := s.structToTable[t.Elem()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownTable, getStructName(obj))
	}
	return table, nil
}
