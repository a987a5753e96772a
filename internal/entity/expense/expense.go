package expense

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is a single expense. Every expense belongs to exactly one aggregate;
// AddedDate and UserID are read from that aggregate.
type Record struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Name          string
	Amount        decimal.Decimal
	ExpenseTypeID *uuid.UUID
	AggregateID   uuid.UUID
	AddedDate     time.Time
}

// Type is a user-defined category label.
type Type struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Name   string
}

// Bill is a document attached to an aggregate.
type Bill struct {
	ID          uuid.UUID
	AggregateID uuid.UUID
	Name        string
	AddedDate   time.Time
}

// Aggregate groups expenses into a bill that stays a draft until finalized.
// IsDefault marks aggregates created implicitly for expenses added without
// one; they are shared by the expenses of the same day.
type Aggregate struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	AddedDate time.Time
	IsDraft   bool
	IsDefault bool
	Expenses  []Record
	Bills     []Bill
}

// TotalAmount sums the amounts of the contained expenses.
func (a *Aggregate) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, e := range a.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Page is a bounded slice of a filtered, ordered result set.
type Page[T any] struct {
	TotalItems int
	Items      []T
}

// CategoryAmount is an expense amount labelled with its type name.
type CategoryAmount struct {
	Category string
	Amount   decimal.Decimal
}
