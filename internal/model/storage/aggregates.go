package storage

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"max.ks1230/billtracker/internal/entity/expense"
)

var aggregateColumns = []string{"a.id", "a.user_id", "a.name", "a.added_date", "a.is_draft", "a.is_default"}

func (q queries) InsertAggregate(ctx context.Context, agg *expense.Aggregate) error {
	query := q.sb.Insert("expense_aggregates").
		Columns("id", "user_id", "name", "added_date", "is_draft", "is_default").
		Values(agg.ID, agg.UserID, agg.Name, toUnix(agg.AddedDate), agg.IsDraft, agg.IsDefault)

	_, err := query.ExecContext(ctx)
	return errors.Wrap(err, "insert aggregate")
}

func (q queries) UpdateAggregate(ctx context.Context, agg *expense.Aggregate) error {
	query := q.sb.Update("expense_aggregates").
		Set("name", agg.Name).
		Set("added_date", toUnix(agg.AddedDate)).
		Set("is_draft", agg.IsDraft).
		Where(sq.Eq{"id": agg.ID, "user_id": agg.UserID})

	res, err := query.ExecContext(ctx)
	if err != nil {
		return errors.Wrap(err, "update aggregate")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update aggregate")
	}
	if n == 0 {
		return errors.Wrap(sql.ErrNoRows, "update aggregate")
	}
	return nil
}

// DeleteAggregate removes the aggregate; expenses and bills cascade.
func (q queries) DeleteAggregate(ctx context.Context, id uuid.UUID) error {
	_, err := q.sb.Delete("expense_aggregates").
		Where(sq.Eq{"id": id}).
		ExecContext(ctx)
	return errors.Wrap(err, "delete aggregate")
}

// GetAggregate loads the aggregate header without expenses and bills.
// It returns nil when the aggregate does not exist.
func (q queries) GetAggregate(ctx context.Context, id uuid.UUID) (*expense.Aggregate, error) {
	query := q.sb.Select(aggregateColumns...).
		From("expense_aggregates a").
		Where(sq.Eq{"a.id": id})

	agg, err := scanAggregate(query.QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get aggregate")
	}
	return &agg, nil
}

// FindDefaultAggregate returns the earliest finalized default aggregate of
// userID dated within [from, to), or nil when there is none.
func (q queries) FindDefaultAggregate(ctx context.Context, userID uuid.UUID, from, to time.Time) (*expense.Aggregate, error) {
	query := q.sb.Select(aggregateColumns...).
		From("expense_aggregates a").
		Where(sq.Eq{"a.user_id": userID, "a.is_default": true, "a.is_draft": false}).
		Where(sq.GtOrEq{"a.added_date": toUnix(from)}).
		Where(sq.Lt{"a.added_date": toUnix(to)}).
		OrderBy("a.added_date", "a.id").
		Limit(1)

	agg, err := scanAggregate(query.QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "find default aggregate")
	}
	return &agg, nil
}

func (q queries) CountAggregates(ctx context.Context, filter Filter) (int, error) {
	query := filter.apply(q.sb.Select("COUNT(*)").From("expense_aggregates a"))

	var total int
	err := query.QueryRowContext(ctx).Scan(&total)
	return total, errors.Wrap(err, "count aggregates")
}

// ListAggregates returns aggregate headers, newest first.
func (q queries) ListAggregates(ctx context.Context, filter Filter, limit, offset uint64) ([]expense.Aggregate, error) {
	query := filter.apply(q.sb.Select(aggregateColumns...).From("expense_aggregates a")).
		OrderBy("a.added_date DESC", "a.id").
		Limit(limit).
		Offset(offset)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list aggregates")
	}
	defer closeRows(rows)

	aggs := make([]expense.Aggregate, 0)
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "list aggregates")
		}
		aggs = append(aggs, agg)
	}
	return aggs, errors.Wrap(rows.Err(), "list aggregates")
}

// ListAggregateExpenses groups the expenses of the given aggregates by
// aggregate id.
func (q queries) ListAggregateExpenses(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]expense.Record, error) {
	res := make(map[uuid.UUID][]expense.Record, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	query := q.sb.Select(expenseColumns...).
		From("expenses e").
		Join("expense_aggregates a ON a.id = e.aggregate_id").
		Where(sq.Eq{"e.aggregate_id": ids}).
		OrderBy("e.name", "e.id")

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list aggregate expenses")
	}
	defer closeRows(rows)

	for rows.Next() {
		rec, err := scanExpense(rows)
		if err != nil {
			return nil, errors.Wrap(err, "list aggregate expenses")
		}
		res[rec.AggregateID] = append(res[rec.AggregateID], rec)
	}
	return res, errors.Wrap(rows.Err(), "list aggregate expenses")
}

func scanAggregate(row sq.RowScanner) (expense.Aggregate, error) {
	var (
		agg   expense.Aggregate
		added int64
	)
	if err := row.Scan(&agg.ID, &agg.UserID, &agg.Name, &added, &agg.IsDraft, &agg.IsDefault); err != nil {
		return expense.Aggregate{}, err
	}
	agg.AddedDate = fromUnix(added)
	return agg, nil
}

// FillAggregates loads expenses and bills for every aggregate in place.
func (q queries) FillAggregates(ctx context.Context, aggs []expense.Aggregate) error {
	ids := make([]uuid.UUID, 0, len(aggs))
	for _, agg := range aggs {
		ids = append(ids, agg.ID)
	}

	exps, err := q.ListAggregateExpenses(ctx, ids)
	if err != nil {
		return err
	}
	bills, err := q.ListAggregateBills(ctx, ids)
	if err != nil {
		return err
	}

	for i := range aggs {
		aggs[i].Expenses = exps[aggs[i].ID]
		aggs[i].Bills = bills[aggs[i].ID]
	}
	return nil
}
