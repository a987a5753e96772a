package queries

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/billtracker/internal/clients/cache"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/logger"
	"max.ks1230/billtracker/internal/model/customerr"
	"max.ks1230/billtracker/internal/model/storage"
)

const fallbackPageSize = 10

type expenseReader interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	GetExpense(ctx context.Context, id uuid.UUID) (*expense.Record, error)
	CountExpenses(ctx context.Context, filter storage.Filter) (int, error)
	ListExpenses(ctx context.Context, filter storage.Filter, limit, offset uint64) ([]expense.Record, error)
	GetAggregate(ctx context.Context, id uuid.UUID) (*expense.Aggregate, error)
	CountAggregates(ctx context.Context, filter storage.Filter) (int, error)
	ListAggregates(ctx context.Context, filter storage.Filter, limit, offset uint64) ([]expense.Aggregate, error)
	FillAggregates(ctx context.Context, aggs []expense.Aggregate) error
	ListExpenseTypes(ctx context.Context, userID uuid.UUID) ([]expense.Type, error)
}

type aggregateCache interface {
	GetAggregate(ctx context.Context, id uuid.UUID) (*expense.Aggregate, error)
	SetAggregate(ctx context.Context, agg *expense.Aggregate) error
}

type config interface {
	DefaultPageSize() int
	Location() string
}

// ExpensesQuery is the read side: paged, filtered projections of expenses
// and aggregates for a single owner.
type ExpensesQuery struct {
	store       expenseReader
	cache       aggregateCache
	defaultSize int
	location    *time.Location
	nowFunc     func() time.Time
}

func NewExpensesQuery(cfg config, store expenseReader, aggCache aggregateCache) (*ExpensesQuery, error) {
	loc, err := time.LoadLocation(cfg.Location())
	if err != nil {
		return nil, errors.Wrap(err, "load time zone")
	}
	size := cfg.DefaultPageSize()
	if size <= 0 {
		size = fallbackPageSize
	}
	if aggCache == nil {
		aggCache = cache.Nop{}
	}
	return &ExpensesQuery{
		store:       store,
		cache:       aggCache,
		defaultSize: size,
		location:    loc,
		nowFunc:     time.Now,
	}, nil
}

// GetById returns nil when the expense does not exist.
func (q *ExpensesQuery) GetById(ctx context.Context, userID, id uuid.UUID) (rec *expense.Record, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getExpense")
	defer func() { finish(span, err) }()

	rec, err = q.store.GetExpense(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get expense")
	}
	if rec == nil {
		return nil, nil
	}
	if rec.UserID != userID {
		return nil, errors.Wrap(customerr.ErrOwnershipMismatch, "get expense")
	}
	return rec, nil
}

func (q *ExpensesQuery) GetMany(ctx context.Context, userID uuid.UUID, page PageRequest, dates DateFilter) (res *expense.Page[expense.Record], err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getExpenses")
	defer func() { finish(span, err) }()

	filter, win, err := q.prepare(ctx, userID, page, dates)
	if err != nil {
		return nil, errors.Wrap(err, "get expenses")
	}

	total, err := q.store.CountExpenses(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "get expenses")
	}
	items := make([]expense.Record, 0)
	if !win.pastEnd(total) {
		if items, err = q.store.ListExpenses(ctx, filter, win.limit, win.offset); err != nil {
			return nil, errors.Wrap(err, "get expenses")
		}
	}
	return &expense.Page[expense.Record]{TotalItems: total, Items: items}, nil
}

// GetExpensesAggregate returns nil when the aggregate does not exist.
// Projections are served from the cache when present.
func (q *ExpensesQuery) GetExpensesAggregate(ctx context.Context, userID, id uuid.UUID) (agg *expense.Aggregate, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getExpensesAggregate")
	defer func() { finish(span, err) }()

	agg, err = q.cache.GetAggregate(ctx, id)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.Warn("aggregate cache read failed", zap.Error(err), zap.Stringer("aggregateID", id))
		}
		if agg, err = q.loadAggregate(ctx, id); err != nil {
			return nil, errors.Wrap(err, "get aggregate")
		}
	}
	if agg == nil {
		return nil, nil
	}
	if agg.UserID != userID {
		return nil, errors.Wrap(customerr.ErrOwnershipMismatch, "get aggregate")
	}
	return agg, nil
}

func (q *ExpensesQuery) loadAggregate(ctx context.Context, id uuid.UUID) (*expense.Aggregate, error) {
	agg, err := q.store.GetAggregate(ctx, id)
	if err != nil || agg == nil {
		return nil, err
	}
	loaded := []expense.Aggregate{*agg}
	if err = q.store.FillAggregates(ctx, loaded); err != nil {
		return nil, err
	}
	agg = &loaded[0]

	if err = q.cache.SetAggregate(ctx, agg); err != nil {
		logger.Warn("aggregate cache write failed", zap.Error(err), zap.Stringer("aggregateID", id))
	}
	return agg, nil
}

func (q *ExpensesQuery) GetManyExpensesAggregate(ctx context.Context, userID uuid.UUID, page PageRequest, dates DateFilter) (res *expense.Page[expense.Aggregate], err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getExpensesAggregates")
	defer func() { finish(span, err) }()

	filter, win, err := q.prepare(ctx, userID, page, dates)
	if err != nil {
		return nil, errors.Wrap(err, "get aggregates")
	}

	total, err := q.store.CountAggregates(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "get aggregates")
	}
	items := make([]expense.Aggregate, 0)
	if !win.pastEnd(total) {
		if items, err = q.store.ListAggregates(ctx, filter, win.limit, win.offset); err != nil {
			return nil, errors.Wrap(err, "get aggregates")
		}
		if err = q.store.FillAggregates(ctx, items); err != nil {
			return nil, errors.Wrap(err, "get aggregates")
		}
	}
	return &expense.Page[expense.Aggregate]{TotalItems: total, Items: items}, nil
}

func (q *ExpensesQuery) GetExpenseTypes(ctx context.Context, userID uuid.UUID) (res []expense.Type, err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "getExpenseTypes")
	defer func() { finish(span, err) }()

	if err = q.ensureUser(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "get expense types")
	}
	res, err = q.store.ListExpenseTypes(ctx, userID)
	return res, errors.Wrap(err, "get expense types")
}

// Filter validates the owner and resolves dates into a store filter.
func (q *ExpensesQuery) Filter(ctx context.Context, userID uuid.UUID, dates DateFilter) (storage.Filter, error) {
	if err := q.ensureUser(ctx, userID); err != nil {
		return storage.Filter{}, err
	}
	dates, err := dates.Resolve(q.nowFunc().In(q.location))
	if err != nil {
		return storage.Filter{}, err
	}
	if dates.From != nil && dates.To != nil && dates.From.After(*dates.To) {
		return storage.Filter{}, customerr.NewValidationError("fromDate", "is after toDate")
	}
	return storage.Filter{UserID: userID, From: dates.From, To: dates.To}, nil
}

func (q *ExpensesQuery) prepare(ctx context.Context, userID uuid.UUID, page PageRequest, dates DateFilter) (storage.Filter, window, error) {
	if page.Number < 1 {
		return storage.Filter{}, window{}, customerr.NewValidationError("pageNumber", "must be at least 1")
	}
	if page.Size < 0 {
		return storage.Filter{}, window{}, customerr.NewValidationError("pageSize", "must be positive")
	}
	if page.Size == 0 {
		page.Size = q.defaultSize
	}

	filter, err := q.Filter(ctx, userID, dates)
	if err != nil {
		return storage.Filter{}, window{}, err
	}
	return filter, newWindow(page), nil
}

// window is the LIMIT/OFFSET pair of a page. Offsets that do not fit in a
// signed 64-bit SQL integer are marked as overflowing instead of wrapping.
type window struct {
	limit    uint64
	offset   uint64
	overflow bool
}

func newWindow(page PageRequest) window {
	limit := uint64(page.Size)
	skipped := uint64(page.Number - 1)
	if skipped > math.MaxInt64/limit {
		return window{limit: limit, overflow: true}
	}
	return window{limit: limit, offset: skipped * limit}
}

// pastEnd reports whether the page starts after the last of total items.
func (w window) pastEnd(total int) bool {
	return w.overflow || w.offset >= uint64(total)
}

func (q *ExpensesQuery) ensureUser(ctx context.Context, userID uuid.UUID) error {
	exists, err := q.store.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return customerr.ErrUserNotExist
	}
	return nil
}

func finish(span opentracing.Span, err error) {
	if err != nil {
		ext.Error.Set(span, true)
	}
	span.Finish()
}
