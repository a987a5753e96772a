package reports

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/logger"
	"max.ks1230/billtracker/internal/model/queries"
	"max.ks1230/billtracker/internal/model/storage"
)

// Uncategorized labels expenses that have no type.
const Uncategorized = "uncategorized"

type filterResolver interface {
	Filter(ctx context.Context, userID uuid.UUID, dates queries.DateFilter) (storage.Filter, error)
}

type expensesStorage interface {
	ListCategorizedAmounts(ctx context.Context, filter storage.Filter) ([]expense.CategoryAmount, error)
}

type Record struct {
	Category string
	Amount   decimal.Decimal
}

// Report is spending per expense type, largest first.
type Report struct {
	Records     []Record
	TotalAmount decimal.Decimal
}

type Generator struct {
	resolver filterResolver
	storage  expensesStorage
}

func NewGenerator(resolver filterResolver, storage expensesStorage) *Generator {
	return &Generator{
		resolver: resolver,
		storage:  storage,
	}
}

func (g *Generator) GenerateReport(ctx context.Context, userID uuid.UUID, dates queries.DateFilter) (report *Report, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "generateReport")
	defer func() {
		if err != nil {
			ext.Error.Set(span, true)
		}
		span.Finish()
	}()

	logger.Debug("GenerateReport - start", zap.Stringer("userID", userID), zap.String("period", dates.Period))
	defer logger.Debug("GenerateReport - end")

	filter, err := g.resolver.Filter(ctx, userID, dates)
	if err != nil {
		return nil, errors.Wrap(err, "generate report")
	}

	amounts, err := g.storage.ListCategorizedAmounts(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "generate report")
	}
	return groupExpenses(amounts), nil
}

func groupExpenses(amounts []expense.CategoryAmount) *Report {
	m := make(map[string]decimal.Decimal)
	for _, a := range amounts {
		cat := a.Category
		if cat == "" {
			cat = Uncategorized
		}
		m[cat] = m[cat].Add(a.Amount)
	}

	records := make([]Record, 0, len(m))
	total := decimal.Zero
	for cat, am := range m {
		records = append(records, Record{Category: cat, Amount: am})
		total = total.Add(am)
	}
	sort.Slice(records, func(i, j int) bool {
		if c := records[i].Amount.Cmp(records[j].Amount); c != 0 {
			return c > 0
		}
		return records[i].Category < records[j].Category
	})
	return &Report{
		Records:     records,
		TotalAmount: total,
	}
}
