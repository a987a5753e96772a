package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/entity/event"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/logger"
	"max.ks1230/billtracker/internal/model/customerr"
	"max.ks1230/billtracker/internal/model/storage"
)

type AddExpenseParams struct {
	UserID        uuid.UUID
	Name          string
	Amount        decimal.Decimal
	ExpenseTypeID *uuid.UUID
	AddedDate     *time.Time
	// AggregateID attaches the expense to an existing aggregate. When nil the
	// expense joins the user's default aggregate for its UTC day, created on
	// first use and named after the expense.
	AggregateID   *uuid.UUID
}

type AddExpense struct {
	store unitOfWork
	notifier
}

func NewAddExpense(store unitOfWork, publisher eventPublisher, cache aggregateCache) *AddExpense {
	return &AddExpense{
		store:    store,
		notifier: newNotifier(publisher, cache),
	}
}

func (c *AddExpense) Handle(ctx context.Context, p AddExpenseParams) (rec *expense.Record, err error) {
	span, ctx := startSpan(ctx, "addExpense")
	defer func() { finishSpan(span, err) }()

	name, err := validateName("name", p.Name)
	if err != nil {
		return nil, errors.Wrap(err, "add expense")
	}
	if err = validateAmount(p.Amount); err != nil {
		return nil, errors.Wrap(err, "add expense")
	}

	created := expense.Record{
		ID:            uuid.New(),
		UserID:        p.UserID,
		Name:          name,
		Amount:        p.Amount,
		ExpenseTypeID: p.ExpenseTypeID,
	}
	err = c.store.InTx(ctx, func(tx *storage.Tx) error {
		if err := ensureUser(ctx, tx, p.UserID); err != nil {
			return err
		}
		if err := ensureExpenseType(ctx, tx, p.UserID, p.ExpenseTypeID); err != nil {
			return err
		}
		agg, err := resolveAggregate(ctx, tx, p, name)
		if err != nil {
			return err
		}
		created.AggregateID = agg.ID
		created.AddedDate = agg.AddedDate
		return tx.InsertExpense(ctx, &created)
	})
	if err != nil {
		return nil, errors.Wrap(err, "add expense")
	}

	logger.Info("expense added",
		zap.Stringer("userID", p.UserID),
		zap.Stringer("expenseID", created.ID),
		zap.Stringer("aggregateID", created.AggregateID))

	c.committed(ctx, event.Event{
		Kind:        event.ExpenseAdded,
		UserID:      p.UserID,
		AggregateID: created.AggregateID,
		ExpenseID:   &created.ID,
		Amount:      &created.Amount,
		OccurredAt:  time.Now().UTC(),
	})
	return &created, nil
}

func ensureExpenseType(ctx context.Context, tx *storage.Tx, userID uuid.UUID, typeID *uuid.UUID) error {
	if typeID == nil {
		return nil
	}
	t, err := tx.GetExpenseType(ctx, *typeID)
	if err != nil {
		return err
	}
	if t == nil {
		return customerr.ErrExpenseTypeNotFound
	}
	if t.UserID != userID {
		return customerr.ErrOwnershipMismatch
	}
	return nil
}

func resolveAggregate(ctx context.Context, tx *storage.Tx, p AddExpenseParams, name string) (*expense.Aggregate, error) {
	if p.AggregateID != nil {
		agg, err := tx.GetAggregate(ctx, *p.AggregateID)
		if err != nil {
			return nil, err
		}
		if agg == nil {
			return nil, customerr.ErrAggregateNotFound
		}
		if agg.UserID != p.UserID {
			return nil, customerr.ErrOwnershipMismatch
		}
		return agg, nil
	}

	added := dateOrNow(p.AddedDate)
	day := now.With(added.UTC()).BeginningOfDay()
	agg, err := tx.FindDefaultAggregate(ctx, p.UserID, day, day.AddDate(0, 0, 1))
	if err != nil || agg != nil {
		return agg, err
	}

	agg = &expense.Aggregate{
		ID:        uuid.New(),
		UserID:    p.UserID,
		Name:      name,
		AddedDate: added,
		IsDefault: true,
	}
	if err = tx.InsertAggregate(ctx, agg); err != nil {
		return nil, err
	}
	return agg, nil
}
