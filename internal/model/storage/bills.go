package storage

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"max.ks1230/billtracker/internal/entity/expense"
)

func (q queries) InsertBill(ctx context.Context, bill *expense.Bill) error {
	query := q.sb.Insert("bills").
		Columns("id", "aggregate_id", "name", "added_date").
		Values(bill.ID, bill.AggregateID, bill.Name, toUnix(bill.AddedDate))

	_, err := query.ExecContext(ctx)
	return errors.Wrap(err, "insert bill")
}

// ListAggregateBills groups the bills of the given aggregates by aggregate id.
func (q queries) ListAggregateBills(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]expense.Bill, error) {
	res := make(map[uuid.UUID][]expense.Bill, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	query := q.sb.Select("id", "aggregate_id", "name", "added_date").
		From("bills").
		Where(sq.Eq{"aggregate_id": ids}).
		OrderBy("added_date", "id")

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list aggregate bills")
	}
	defer closeRows(rows)

	for rows.Next() {
		var (
			bill  expense.Bill
			added int64
		)
		if err = rows.Scan(&bill.ID, &bill.AggregateID, &bill.Name, &added); err != nil {
			return nil, errors.Wrap(err, "list aggregate bills")
		}
		bill.AddedDate = fromUnix(added)
		res[bill.AggregateID] = append(res[bill.AggregateID], bill)
	}
	return res, errors.Wrap(rows.Err(), "list aggregate bills")
}
