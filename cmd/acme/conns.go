package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/config"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type conns struct {
	write *sqlx.DB
	read  *sqlx.DB
	redis *redis.Client
}

func (c *conns) Close() {
	if c.read != nil && c.read != c.write {
		c.read.Close()
	}
	if c.write != nil {
		c.write.Close()
	}
	if c.redis != nil {
		c.redis.Close()
	}
}

// connect opens the write and read pools and redis; the read pool is the write pool when there's no replica
func connect(ctx context.Context, cfg *config.Config) (*conns, error) {
	c := &conns{}

	write, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.WriteDSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	write.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	write.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	c.write, c.read = write, write

	if cfg.ReadDSN() != cfg.Database.WriteDSN {
		read, err := sqlx.ConnectContext(ctx, "postgres", cfg.ReadDSN())
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect read replica: %w", err)
		}
		read.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		read.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		c.read = read
	}

	c.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := c.redis.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return c, nil
}

func newStore(cfg *config.Config, c *conns, log *logrus.Entry) (store.Store, error) {
	return store.New(&store.Config{
		ReadConn:      c.read,
		WriteConn:     c.write,
		Redis:         c.redis,
		DefaultTTL:    int(cfg.Storage.CacheTTL.Seconds()),
		DoNotUseCache: cfg.Redis.DisableCache,
		Debug:         cfg.Storage.Debug,
		Logger:        log,
	})
}
