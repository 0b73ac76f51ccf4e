package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

// Envelope is the wire form of an event on the Redis channel.
type Envelope struct {
	Type      string          `json:"type"`
	LearnerID string          `json:"learner_id"`
	EmittedAt time.Time       `json:"emitted_at"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope serialises evt.
func NewEnvelope(evt learning.Event, at time.Time) (Envelope, error) {
	raw, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:      evt.EventType(),
		LearnerID: evt.Learner().String(),
		EmittedAt: at.UTC(),
		Payload:   raw,
	}, nil
}

type RedisConfig struct {
	Addr    string
	Channel string
}

// RedisSink publishes events as JSON envelopes to a Redis pub/sub channel.
type RedisSink struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	now     func() time.Time
}

// NewRedisSink connects to Redis and verifies the connection.
func NewRedisSink(ctx context.Context, log *logger.Logger, cfg RedisConfig) (*RedisSink, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = "scheduler.events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisSink{
		log:     log.With("service", "RedisEventSink"),
		rdb:     rdb,
		channel: ch,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *RedisSink) Publish(ctx context.Context, evt learning.Event) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis event sink not initialized")
	}
	env, err := NewEnvelope(evt, s.now())
	if err != nil {
		return err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.channel, raw).Err()
}

func (s *RedisSink) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
