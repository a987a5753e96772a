package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/logger"
)

type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the first configured host.
func NewRedis(cfg config) (*RedisClient, error) {
	logger.Info("redis host", zap.String("addr", cfg.Hosts()[0]))
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Hosts()[0]})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "ping redis")
	}
	return &RedisClient{client: rdb, ttl: cfg.TTL()}, nil
}

func (rc *RedisClient) GetAggregate(ctx context.Context, id uuid.UUID) (*expense.Aggregate, error) {
	raw, err := rc.client.Get(ctx, formatKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, "get aggregate from cache")
	}
	return decode(raw)
}

func (rc *RedisClient) SetAggregate(ctx context.Context, agg *expense.Aggregate) error {
	raw, err := encode(agg)
	if err != nil {
		return err
	}
	return errors.Wrap(rc.client.Set(ctx, formatKey(agg.ID), raw, rc.ttl).Err(), "cache aggregate")
}

func (rc *RedisClient) InvalidateAggregate(ctx context.Context, id uuid.UUID) error {
	logger.Debug("invalidate cache", zap.Stringer("aggregateID", id))
	return errors.Wrap(rc.client.Del(ctx, formatKey(id)).Err(), "invalidate aggregate")
}
