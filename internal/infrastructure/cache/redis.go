package cache

import (
	"context"
	"time"

	"movapp-backend/internal/config"
	"movapp-backend/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	eventKeyPrefix = "movapp:gateway-event:"
	opTimeout      = 2 * time.Second
)

// NewRedisClient connects to Redis. It returns nil when no address is set or
// the server does not answer a ping; callers run without the cache then.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, gateway event dedupe disabled",
			zap.String("addr", cfg.Addr),
			zap.Error(err),
		)
		_ = client.Close()
		return nil
	}
	return client
}

// EventStore remembers processed gateway event ids for a limited time.
// A nil client turns every call into a no-op.
type EventStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventStore(client *redis.Client, ttl time.Duration) *EventStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EventStore{client: client, ttl: ttl}
}

func (s *EventStore) Seen(ctx context.Context, eventID string) (bool, error) {
	if s == nil || s.client == nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.client.Exists(ctx, eventKeyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *EventStore) MarkProcessed(ctx context.Context, eventID string) error {
	if s == nil || s.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return s.client.SetNX(ctx, eventKeyPrefix+eventID, time.Now().Unix(), s.ttl).Err()
}
