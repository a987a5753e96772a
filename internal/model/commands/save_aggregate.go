package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/entity/event"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/logger"
	"max.ks1230/billtracker/internal/model/customerr"
	"max.ks1230/billtracker/internal/model/storage"
)

type SaveExpenseAggregateParams struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	AddedDate time.Time
	IsDraft   bool
}

// SaveExpenseAggregate upserts an aggregate by id. The draft flag may be
// flipped in either direction.
type SaveExpenseAggregate struct {
	store unitOfWork
	notifier
}

func NewSaveExpenseAggregate(store unitOfWork, publisher eventPublisher, cache aggregateCache) *SaveExpenseAggregate {
	return &SaveExpenseAggregate{
		store:    store,
		notifier: newNotifier(publisher, cache),
	}
}

func (c *SaveExpenseAggregate) Handle(ctx context.Context, p SaveExpenseAggregateParams) (res *expense.Aggregate, err error) {
	span, ctx := startSpan(ctx, "saveExpenseAggregate")
	defer func() { finishSpan(span, err) }()

	name, err := validateName("name", p.Name)
	if err != nil {
		return nil, errors.Wrap(err, "save aggregate")
	}

	agg := expense.Aggregate{
		ID:        p.ID,
		UserID:    p.UserID,
		Name:      name,
		AddedDate: dateOrNow(&p.AddedDate),
		IsDraft:   p.IsDraft,
	}
	if agg.ID == uuid.Nil {
		agg.ID = uuid.New()
	}

	var inserted bool
	err = c.store.InTx(ctx, func(tx *storage.Tx) error {
		if err := ensureUser(ctx, tx, p.UserID); err != nil {
			return err
		}
		existing, err := tx.GetAggregate(ctx, agg.ID)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			inserted = true
			err = tx.InsertAggregate(ctx, &agg)
		case existing.UserID != p.UserID:
			return customerr.ErrOwnershipMismatch
		default:
			agg.IsDefault = existing.IsDefault
			err = tx.UpdateAggregate(ctx, &agg)
		}
		if err != nil {
			return err
		}

		loaded := []expense.Aggregate{agg}
		if err = tx.FillAggregates(ctx, loaded); err != nil {
			return err
		}
		agg = loaded[0]
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "save aggregate")
	}

	logger.Info("aggregate saved",
		zap.Stringer("userID", p.UserID),
		zap.Stringer("aggregateID", agg.ID),
		zap.Bool("inserted", inserted),
		zap.Bool("isDraft", agg.IsDraft))

	isDraft := agg.IsDraft
	c.committed(ctx, event.Event{
		Kind:        event.AggregateSaved,
		UserID:      p.UserID,
		AggregateID: agg.ID,
		IsDraft:     &isDraft,
		OccurredAt:  time.Now().UTC(),
	})
	return &agg, nil
}
