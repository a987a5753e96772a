package commands

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/entity/event"
	"max.ks1230/billtracker/internal/logger"
	"max.ks1230/billtracker/internal/model/customerr"
	"max.ks1230/billtracker/internal/model/storage"
)

const maxNameLength = 200

var maxAmount = decimal.New(1, 16)

type unitOfWork interface {
	InTx(ctx context.Context, fn func(tx *storage.Tx) error) error
}

type eventPublisher interface {
	Publish(ctx context.Context, ev event.Event) error
}

type aggregateCache interface {
	InvalidateAggregate(ctx context.Context, id uuid.UUID) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, event.Event) error { return nil }

type nopCache struct{}

func (nopCache) InvalidateAggregate(context.Context, uuid.UUID) error { return nil }

// notifier runs the post-commit side effects shared by every command.
// Both are best effort: the write already happened.
type notifier struct {
	publisher eventPublisher
	cache     aggregateCache
}

func newNotifier(publisher eventPublisher, cache aggregateCache) notifier {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if cache == nil {
		cache = nopCache{}
	}
	return notifier{publisher: publisher, cache: cache}
}

func (n notifier) committed(ctx context.Context, ev event.Event) {
	if err := n.cache.InvalidateAggregate(ctx, ev.AggregateID); err != nil {
		logger.Error("failed to invalidate aggregate cache", zap.Error(err), zap.Stringer("aggregateID", ev.AggregateID))
	}
	if err := n.publisher.Publish(ctx, ev); err != nil {
		logger.Error("failed to publish event", zap.Error(err), zap.String("kind", string(ev.Kind)))
	}
}

func startSpan(ctx context.Context, name string) (opentracing.Span, context.Context) {
	return opentracing.StartSpanFromContext(ctx, name)
}

func finishSpan(span opentracing.Span, err error) {
	if err != nil {
		ext.Error.Set(span, true)
	}
	span.Finish()
}

func validateName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", customerr.NewValidationError(field, "must not be empty")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", customerr.NewValidationError(field, "is too long")
	}
	return name, nil
}

func validateAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return customerr.NewValidationError("amount", "must be positive")
	case amount.GreaterThanOrEqual(maxAmount):
		return customerr.NewValidationError("amount", "is out of range")
	case !amount.Equal(amount.Round(2)):
		return customerr.NewValidationError("amount", "must have at most two decimal places")
	}
	return nil
}

func ensureUser(ctx context.Context, tx *storage.Tx, userID uuid.UUID) error {
	exists, err := tx.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return customerr.ErrUserNotExist
	}
	return nil
}

// dateOrNow normalizes t to store precision, defaulting to the current time.
func dateOrNow(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return storage.Normalize(time.Now())
	}
	return storage.Normalize(*t)
}
