// Package eventbus publishes and subscribes to named events over redis
// pub/sub, adapted from the teacher's single-channel SSE bus
// (internal/realtime/bus). Every event goes out on one channel
// (EVENTBUS_CHANNEL); the event name travels inside each Message.
package eventbus

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

// Message is one published event: a name plus an arbitrary JSON payload.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Bus is the publish/subscribe surface the rules cache and the events
// package depend on.
type Bus interface {
	Publish(ctx context.Context, event string, payload any) error
	Subscribe(ctx context.Context, onMsg func(Message)) error
	Close() error
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisBus connects to redis using REDIS_ADDR / EVENTBUS_CHANNEL,
// mirroring the teacher's NewRedisBus constructor.
func NewRedisBus(log *logger.Logger) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("eventbus: logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("eventbus: missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("EVENTBUS_CHANNEL"))
	if ch == "" {
		ch = "infobar-events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("eventbus: redis ping: %w", err)
	}

	return &redisBus{
		log:     log.With("service", "InfobarEventBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, event string, payload any) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("eventbus: not initialized")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("eventbus: marshal payload: %w", err)
	}
	msg := Message{Event: event, Payload: raw}
	out, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("eventbus: marshal message: %w", err)
	}
	return b.rdb.Publish(ctx, b.channel, out).Err()
}

func (b *redisBus) Subscribe(ctx context.Context, onMsg func(Message)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("eventbus: not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("eventbus: onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("eventbus: redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad eventbus payload", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()

	return nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
