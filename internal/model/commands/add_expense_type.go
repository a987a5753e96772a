package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/model/customerr"
	"max.ks1230/billtracker/internal/model/storage"
)

type AddExpenseTypeParams struct {
	UserID uuid.UUID
	Name   string
}

type AddExpenseType struct {
	store unitOfWork
}

func NewAddExpenseType(store unitOfWork) *AddExpenseType {
	return &AddExpenseType{store: store}
}

func (c *AddExpenseType) Handle(ctx context.Context, p AddExpenseTypeParams) (res *expense.Type, err error) {
	span, ctx := startSpan(ctx, "addExpenseType")
	defer func() { finishSpan(span, err) }()

	name, err := validateName("name", p.Name)
	if err != nil {
		return nil, errors.Wrap(err, "add expense type")
	}

	created := expense.Type{ID: uuid.New(), UserID: p.UserID, Name: name}
	err = c.store.InTx(ctx, func(tx *storage.Tx) error {
		if err := ensureUser(ctx, tx, p.UserID); err != nil {
			return err
		}
		dup, err := tx.GetExpenseTypeByName(ctx, p.UserID, name)
		if err != nil {
			return err
		}
		if dup != nil {
			return customerr.NewValidationError("name", "already exists")
		}
		return tx.CreateExpenseType(ctx, &created)
	})
	if err != nil {
		return nil, errors.Wrap(err, "add expense type")
	}
	return &created, nil
}
