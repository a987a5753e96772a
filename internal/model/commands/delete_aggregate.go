package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/entity/event"
	"max.ks1230/billtracker/internal/logger"
	"max.ks1230/billtracker/internal/model/customerr"
	"max.ks1230/billtracker/internal/model/storage"
)

type DeleteExpenseAggregateParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

// DeleteExpenseAggregate removes an aggregate together with its expenses
// and bills.
type DeleteExpenseAggregate struct {
	store unitOfWork
	notifier
}

func NewDeleteExpenseAggregate(store unitOfWork, publisher eventPublisher, cache aggregateCache) *DeleteExpenseAggregate {
	return &DeleteExpenseAggregate{
		store:    store,
		notifier: newNotifier(publisher, cache),
	}
}

func (c *DeleteExpenseAggregate) Handle(ctx context.Context, p DeleteExpenseAggregateParams) (err error) {
	span, ctx := startSpan(ctx, "deleteExpenseAggregate")
	defer func() { finishSpan(span, err) }()

	err = c.store.InTx(ctx, func(tx *storage.Tx) error {
		agg, err := tx.GetAggregate(ctx, p.ID)
		if err != nil {
			return err
		}
		if agg == nil {
			return customerr.ErrAggregateNotFound
		}
		if agg.UserID != p.UserID {
			return customerr.ErrOwnershipMismatch
		}
		return tx.DeleteAggregate(ctx, p.ID)
	})
	if err != nil {
		return errors.Wrap(err, "delete aggregate")
	}

	logger.Info("aggregate deleted", zap.Stringer("userID", p.UserID), zap.Stringer("aggregateID", p.ID))
	c.committed(ctx, event.Event{
		Kind:        event.AggregateDeleted,
		UserID:      p.UserID,
		AggregateID: p.ID,
		OccurredAt:  time.Now().UTC(),
	})
	return nil
}
