package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	ExpenseAdded     Kind = "expense_added"
	AggregateSaved   Kind = "aggregate_saved"
	AggregateDeleted Kind = "aggregate_deleted"
)

// Event is published after a command commits.
type Event struct {
	Kind        Kind             `json:"kind"`
	UserID      uuid.UUID        `json:"userId"`
	AggregateID uuid.UUID        `json:"aggregateId"`
	ExpenseID   *uuid.UUID       `json:"expenseId,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	IsDraft     *bool            `json:"isDraft,omitempty"`
	OccurredAt  time.Time        `json:"occurredAt"`
}
