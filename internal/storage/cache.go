package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

type cache struct {
	client  redis.UniversalClient
	enabled bool
}

func newCache(conn redis.UniversalClient, enabled bool) *cache {
	return &cache{
		client:  conn,
		enabled: enabled && conn != nil,
	}
}

// get returns redis.Nil if the key does not exist (or the cache is off)
func (c *cache) get(ctx context.Context, key string, value interface{}) error {
	if !c.enabled {
		return redis.Nil
	}

	str, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(str), value)
}

func (c *cache) set(ctx context.Context, key string, value interface{}, expiration int) error {
	if !c.enabled {
		return nil
	}

	str, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, str, time.Duration(expiration)*time.Second).Err()
}

func (c *cache) del(ctx context.Context, keys ...string) error {
	if !c.enabled || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// listRange returns the ids stored at key; ok is false when the list isn't cached
func (c *cache) listRange(ctx context.Context, key string, start, stop int64) ([]string, bool, error) {
	if !c.enabled {
		return nil, false, nil
	}

	// LRange doesn't error when the key doesn't exist so check first
	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, false, err
	}
	if exists == 0 {
		return nil, false, nil
	}

	ids, err := c.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

// setList replaces the list at key with ids, in order
func (c *cache) setList(ctx context.Context, key string, ids []interface{}, expiration int) error {
	if !c.enabled || len(ids) == 0 {
		// redis has no empty lists; the next read just goes to the db again
		return nil
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, ids...)
	if expiration > 0 {
		pipe.Expire(ctx, key, time.Duration(expiration)*time.Second)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// pushX adds id to an existing list only (note the X: don't push if the key doesn't exist)
func (c *cache) pushX(ctx context.Context, key string, left bool, id interface{}) error {
	if !c.enabled {
		return nil
	}
	if left {
		return c.client.LPushX(ctx, key, id).Err()
	}
	return c.client.RPushX(ctx, key, id).Err()
}

func (c *cache) remove(ctx context.Context, key string, id interface{}) error {
	if !c.enabled {
		return nil
	}
	return c.client.LRem(ctx, key, 0, id).Err()
}

// clear deletes every key matching pattern
func (c *cache) clear(ctx context.Context, pattern string) error {
	if !c.enabled {
		return nil
	}

	iter := c.client.Scan(ctx, 0, pattern, 500).Iterator()
	batch := []string{}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.del(ctx, batch...)
}
