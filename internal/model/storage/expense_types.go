package storage

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"max.ks1230/billtracker/internal/entity/expense"
)

func (q queries) CreateExpenseType(ctx context.Context, rec *expense.Type) error {
	query := q.sb.Insert("expense_types").
		Columns("id", "user_id", "name").
		Values(rec.ID, rec.UserID, rec.Name)

	_, err := query.ExecContext(ctx)
	return errors.Wrap(err, "create expense type")
}

// GetExpenseType returns nil when the type does not exist.
func (q queries) GetExpenseType(ctx context.Context, id uuid.UUID) (*expense.Type, error) {
	return q.getExpenseType(ctx, sq.Eq{"id": id})
}

// GetExpenseTypeByName returns nil when the user has no type with that name.
func (q queries) GetExpenseTypeByName(ctx context.Context, userID uuid.UUID, name string) (*expense.Type, error) {
	return q.getExpenseType(ctx, sq.Eq{"user_id": userID, "name": name})
}

func (q queries) getExpenseType(ctx context.Context, where sq.Eq) (*expense.Type, error) {
	query := q.sb.Select("id", "user_id", "name").
		From("expense_types").
		Where(where)

	var res expense.Type
	err := query.QueryRowContext(ctx).Scan(&res.ID, &res.UserID, &res.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get expense type")
	}
	return &res, nil
}

func (q queries) ListExpenseTypes(ctx context.Context, userID uuid.UUID) ([]expense.Type, error) {
	query := q.sb.Select("id", "user_id", "name").
		From("expense_types").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("name")

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list expense types")
	}
	defer closeRows(rows)

	types := make([]expense.Type, 0)
	for rows.Next() {
		var t expense.Type
		if err = rows.Scan(&t.ID, &t.UserID, &t.Name); err != nil {
			return nil, errors.Wrap(err, "list expense types")
		}
		types = append(types, t)
	}
	return types, errors.Wrap(rows.Err(), "list expense types")
}
