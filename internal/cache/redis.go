// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/keepsake/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// KeyPrefix namespaces every key this package writes.
const KeyPrefix = "keepsake:user:"

// ConnectRedis opens a client for addr/db and pings it.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Directory is the user directory being cached.
type Directory interface {
	FindByNameSubstring(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]models.UserSummary, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UserSummary, error)
	UpsertUser(ctx context.Context, u models.UserSummary) error
}

// CachedDirectory is a read-through cache for FindByIDs. Searches always go to the
// underlying directory. Redis failures degrade to uncached reads and are logged.
type CachedDirectory struct {
	next Directory
	rdb  *redis.Client
	ttl  time.Duration
	log  logrus.FieldLogger
}

// NewCachedDirectory wraps next with a Redis cache whose entries live for ttl.
func NewCachedDirectory(next Directory, rdb *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *CachedDirectory {
	return &CachedDirectory{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  logger.WithField("component", "user_cache"),
	}
}

func userKey(id uuid.UUID) string {
	return KeyPrefix + id.String()
}

func (c *CachedDirectory) FindByNameSubstring(ctx context.Context, query string, excludeID uuid.UUID, limit int) ([]models.UserSummary, error) {
	return c.next.FindByNameSubstring(ctx, query, excludeID, limit)
}

// FindByIDs serves what it can from Redis with one MGET and loads the rest from the
// underlying directory, writing them back in a single pipeline.
func (c *CachedDirectory) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.UserSummary, error) {
	if len(ids) == 0 {
		return []models.UserSummary{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = userKey(id)
	}

	out := make([]models.UserSummary, 0, len(ids))
	var missing []uuid.UUID

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.WithError(err).Warn("user cache read failed")
		missing = ids
	} else {
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			var u models.UserSummary
			if err := json.Unmarshal([]byte(s), &u); err != nil {
				missing = append(missing, ids[i])
				continue
			}
			out = append(out, u)
		}
	}

	if len(missing) == 0 {
		return out, nil
	}

	loaded, err := c.next.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	out = append(out, loaded...)
	c.store(ctx, loaded)
	return out, nil
}

// UpsertUser writes through to the directory and drops the cached entry.
func (c *CachedDirectory) UpsertUser(ctx context.Context, u models.UserSummary) error {
	if err := c.next.UpsertUser(ctx, u); err != nil {
		return err
	}
	if err := c.rdb.Del(ctx, userKey(u.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		c.log.WithError(err).WithField("user_id", u.ID).Warn("user cache invalidation failed")
	}
	return nil
}

func (c *CachedDirectory) store(ctx context.Context, users []models.UserSummary) {
	if len(users) == 0 {
		return
	}
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, u := range users {
			data, err := json.Marshal(u)
			if err != nil {
				return fmt.Errorf("failed to marshal user %v: %w", u.ID, err)
			}
			pipe.Set(ctx, userKey(u.ID), data, c.ttl)
		}
		return nil
	})
	if err != nil {
		c.log.WithError(err).Warn("user cache write failed")
	}
}
