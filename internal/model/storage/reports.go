package storage

import (
	"context"

	"github.com/pkg/errors"
	"max.ks1230/billtracker/internal/entity/expense"
)

// ListCategorizedAmounts returns the amount and type name of every expense
// matching filter. Untyped expenses have an empty category.
func (q queries) ListCategorizedAmounts(ctx context.Context, filter Filter) ([]expense.CategoryAmount, error) {
	query := filter.apply(q.sb.Select("COALESCE(t.name, '')", "e.amount").
		From("expenses e").
		Join("expense_aggregates a ON a.id = e.aggregate_id").
		LeftJoin("expense_types t ON t.id = e.expense_type_id"))

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categorized amounts")
	}
	defer closeRows(rows)

	res := make([]expense.CategoryAmount, 0)
	for rows.Next() {
		var rec expense.CategoryAmount
		if err = rows.Scan(&rec.Category, &rec.Amount); err != nil {
			return nil, errors.Wrap(err, "list categorized amounts")
		}
		res = append(res, rec)
	}
	return res, errors.Wrap(rows.Err(), "list categorized amounts")
}
