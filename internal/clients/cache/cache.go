package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"max.ks1230/billtracker/internal/entity/expense"
)

const (
	kindMemcached = "memcached"
	kindRedis     = "redis"
)

type config interface {
	Backend() string
	Hosts() []string
	TTL() time.Duration
}

// Cache keeps aggregate projections by id. Failures are reported but
// callers treat them as misses.
type Cache interface {
	GetAggregate(ctx context.Context, id uuid.UUID) (*expense.Aggregate, error)
	SetAggregate(ctx context.Context, agg *expense.Aggregate) error
	InvalidateAggregate(ctx context.Context, id uuid.UUID) error
}

// ErrMiss is returned by GetAggregate when nothing is cached.
var ErrMiss = errors.New("cache miss")

func New(cfg config) (Cache, error) {
	switch cfg.Backend() {
	case kindMemcached:
		return NewMemcache(cfg)
	case kindRedis:
		return NewRedis(cfg)
	}
	return Nop{}, nil
}

func formatKey(id uuid.UUID) string {
	return fmt.Sprintf("aggregate:%s", id)
}

func encode(agg *expense.Aggregate) ([]byte, error) {
	raw, err := json.Marshal(agg)
	return raw, errors.Wrap(err, "encode aggregate")
}

func decode(raw []byte) (*expense.Aggregate, error) {
	var agg expense.Aggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		return nil, errors.Wrap(err, "decode aggregate")
	}
	return &agg, nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) GetAggregate(context.Context, uuid.UUID) (*expense.Aggregate, error) {
	return nil, ErrMiss
}

func (Nop) SetAggregate(context.Context, *expense.Aggregate) error {
	return nil
}

func (Nop) InvalidateAggregate(context.Context, uuid.UUID) error {
	return nil
}
