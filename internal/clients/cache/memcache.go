package cache

import (
	"context"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/logger"
)

type MemcacheClient struct {
	client *memcache.Client
	ttl    time.Duration
}

func NewMemcache(cfg config) (*MemcacheClient, error) {
	logger.Info("memcached hosts", zap.Strings("hosts", cfg.Hosts()))
	mc := memcache.New(cfg.Hosts()...)
	return &MemcacheClient{client: mc, ttl: cfg.TTL()}, errors.Wrap(mc.Ping(), "ping memcached")
}

func (mc *MemcacheClient) GetAggregate(_ context.Context, id uuid.UUID) (*expense.Aggregate, error) {
	item, err := mc.client.Get(formatKey(id))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, "get aggregate from cache")
	}
	return decode(item.Value)
}

func (mc *MemcacheClient) SetAggregate(_ context.Context, agg *expense.Aggregate) error {
	raw, err := encode(agg)
	if err != nil {
		return err
	}
	return errors.Wrap(mc.client.Set(&memcache.Item{
		Key:        formatKey(agg.ID),
		Value:      raw,
		Expiration: int32(mc.ttl.Seconds()),
	}), "cache aggregate")
}

func (mc *MemcacheClient) InvalidateAggregate(_ context.Context, id uuid.UUID) error {
	logger.Debug("invalidate cache", zap.Stringer("aggregateID", id))

	err := mc.client.Delete(formatKey(id))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return errors.Wrap(err, "invalidate aggregate")
	}
	return nil
}
