// Package cachekv is a small TTL-keyed value cache. The app builds one
// (redis, or in-process) and holds it as App.Cache; the rules catalog
// and the retrieval semantic cache keep their own in-process state and
// do not read from it. Adapted from the client-construction
// idiom in realtime/bus's redis bus (NewRedisBus: env-driven address,
// dial timeout, ping-on-connect).
package cachekv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
)

// Store is a namespaced get/set/delete surface over arbitrary
// JSON-serializable values with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type redisStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

// NewRedisStore dials REDIS_ADDR and pings it before returning, the
// same construction shape the realtime bus uses.
func NewRedisStore(log *logger.Logger, prefix string) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("cachekv: logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("cachekv: missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cachekv: redis ping: %w", err)
	}

	return &redisStore{
		log:    log.With("service", "RedisCacheStore"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (s *redisStore) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *redisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.rdb.Get(ctx, s.fullKey(key)).Bytes()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cachekv: get %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cachekv: decode %q: %w", key, err)
	}
	return true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cachekv: encode %q: %w", key, err)
	}
	if err := s.rdb.Set(ctx, s.fullKey(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cachekv: set %q: %w", key, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("cachekv: delete %q: %w", key, err)
	}
	return nil
}
