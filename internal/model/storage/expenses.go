package storage

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"max.ks1230/billtracker/internal/entity/expense"
)

var expenseColumns = []string{
	"e.id", "a.user_id", "e.name", "e.amount", "e.expense_type_id", "e.aggregate_id", "a.added_date",
}

func (q queries) InsertExpense(ctx context.Context, rec *expense.Record) error {
	typeID := uuid.NullUUID{}
	if rec.ExpenseTypeID != nil {
		typeID = uuid.NullUUID{UUID: *rec.ExpenseTypeID, Valid: true}
	}

	query := q.sb.Insert("expenses").
		Columns("id", "name", "amount", "expense_type_id", "aggregate_id").
		Values(rec.ID, rec.Name, rec.Amount, typeID, rec.AggregateID)

	_, err := query.ExecContext(ctx)
	return errors.Wrap(err, "insert expense")
}

// GetExpense returns nil when the expense does not exist.
func (q queries) GetExpense(ctx context.Context, id uuid.UUID) (*expense.Record, error) {
	query := q.expenses().Where(sq.Eq{"e.id": id})

	rec, err := scanExpense(query.QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get expense")
	}
	return &rec, nil
}

func (q queries) CountExpenses(ctx context.Context, filter Filter) (int, error) {
	query := filter.apply(q.sb.Select("COUNT(*)").
		From("expenses e").
		Join("expense_aggregates a ON a.id = e.aggregate_id"))

	var total int
	err := query.QueryRowContext(ctx).Scan(&total)
	return total, errors.Wrap(err, "count expenses")
}

// ListExpenses returns a page of expenses, newest first.
func (q queries) ListExpenses(ctx context.Context, filter Filter, limit, offset uint64) ([]expense.Record, error) {
	query := filter.apply(q.expenses()).
		OrderBy("a.added_date DESC", "e.id").
		Limit(limit).
		Offset(offset)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	defer closeRows(rows)

	exps := make([]expense.Record, 0)
	for rows.Next() {
		rec, err := scanExpense(rows)
		if err != nil {
			return nil, errors.Wrap(err, "list expenses")
		}
		exps = append(exps, rec)
	}
	return exps, errors.Wrap(rows.Err(), "list expenses")
}

func (q queries) expenses() sq.SelectBuilder {
	return q.sb.Select(expenseColumns...).
		From("expenses e").
		Join("expense_aggregates a ON a.id = e.aggregate_id")
}

func scanExpense(row sq.RowScanner) (expense.Record, error) {
	var (
		rec    expense.Record
		typeID uuid.NullUUID
		added  int64
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Amount, &typeID, &rec.AggregateID, &added)
	if err != nil {
		return expense.Record{}, err
	}
	if typeID.Valid {
		id := typeID.UUID
		rec.ExpenseTypeID = &id
	}
	rec.AddedDate = fromUnix(added)
	return rec, nil
}
