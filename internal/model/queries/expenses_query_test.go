package queries

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"max.ks1230/billtracker/internal/clients/cache"
	"max.ks1230/billtracker/internal/entity/expense"
	"max.ks1230/billtracker/internal/model/commands"
	"max.ks1230/billtracker/internal/model/customerr"
	"max.ks1230/billtracker/internal/model/storage"
	"max.ks1230/billtracker/internal/model/storage/storagetest"
)

type testConfig struct{}

func (testConfig) DefaultPageSize() int { return 10 }
func (testConfig) Location() string { return "UTC" }

type fixture struct {
	store *storage.Storage
	query *ExpensesQuery
	add   *commands.AddExpense
	user  uuid.UUID
	typ   uuid.UUID
}

func newFixture(t *testing.T) fixture {
	store := storagetest.New(t)
	query, err := NewExpensesQuery(testConfig{}, store, nil)
	require.NoError(t, err)

	owner := storagetest.CreateUser(t, store)
	return fixture{
		store: store,
		query: query,
		add:   commands.NewAddExpense(store, nil, nil),
		user:  owner.ID,
		typ:   storagetest.CreateExpenseType(t, store, owner.ID, "general").ID,
	}
}

// addDaily adds one expense per amount on consecutive days starting at start.
func (f fixture) addDaily(t *testing.T, start time.Time, amounts ...int64) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(amounts))
	for i, amount := range amounts {
		added := start.AddDate(0, 0, i)
		rec, err := f.add.Handle(context.Background(), commands.AddExpenseParams{
			UserID:        f.user,
			Name:          "name",
			Amount:        decimal.NewFromInt(amount),
			ExpenseTypeID: &f.typ,
			AddedDate:     &added,
		})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	return ids
}

func recordIDs(recs []expense.Record) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids
}

func Test_OnGetMany_ShouldFailForUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.query.GetMany(context.Background(), uuid.New(), PageRequest{Number: 1}, DateFilter{})
	assert.ErrorIs(t, err, customerr.ErrUserNotExist)
}

func Test_OnGetMany_ShouldApplyInclusiveDateFilter(t *testing.T) {
	f := newFixture(t)
	start := time.Now()
	ids := f.addDaily(t, start, 15, 16, 17, 18)

	from, to := start, start.AddDate(0, 0, 2)
	page, err := f.query.GetMany(context.Background(), f.user, PageRequest{Number: 1}, DateFilter{From: &from, To: &to})
	require.NoError(t, err)

	assert.Equal(t, 3, page.TotalItems)
	assert.ElementsMatch(t, ids[:3], recordIDs(page.Items))
}

func Test_OnGetMany_ShouldReturnAllWithoutFilters(t *testing.T) {
	f := newFixture(t)
	ids := f.addDaily(t, time.Now(), 15, 16, 17, 18)

	page, err := f.query.GetMany(context.Background(), f.user, PageRequest{Number: 1}, DateFilter{})
	require.NoError(t, err)

	assert.Equal(t, 4, page.TotalItems)
	assert.ElementsMatch(t, ids, recordIDs(page.Items))
}

func Test_OnGetMany_ShouldPageNewestFirst(t *testing.T) {
	f := newFixture(t)
	ids := f.addDaily(t, time.Now(), 15, 16, 17, 18)

	page, err := f.query.GetMany(context.Background(), f.user, PageRequest{Number: 2, Size: 2}, DateFilter{})
	require.NoError(t, err)

	assert.Equal(t, 4, page.TotalItems)
	assert.Equal(t, []uuid.UUID{ids[1], ids[0]}, recordIDs(page.Items))
}

func Test_OnGetMany_ShouldPartitionPages(t *testing.T) {
	f := newFixture(t)
	ids := f.addDaily(t, time.Now().AddDate(0, 0, -10), 1, 2, 3, 4, 5, 6, 7)

	seen := make(map[uuid.UUID]bool)
	total := 0
	for n := 1; n <= 4; n++ {
		page, err := f.query.GetMany(context.Background(), f.user, PageRequest{Number: n, Size: 3}, DateFilter{})
		require.NoError(t, err)
		assert.Equal(t, len(ids), page.TotalItems)
		for _, id := range recordIDs(page.Items) {
			assert.False(t, seen[id], "expense %s is on two pages", id)
			seen[id] = true
		}
		total += len(page.Items)
	}
	assert.Equal(t, len(ids), total)
}

func Test_OnGetMany_ShouldRejectInvalidPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.query.GetMany(ctx, f.user, PageRequest{Number: 0}, DateFilter{})
	assert.Equal(t, "validation_failed", customerr.Code(err))

	_, err = f.query.GetMany(ctx, f.user, PageRequest{Number: 1, Size: -1}, DateFilter{})
	assert.Equal(t, "validation_failed", customerr.Code(err))

	from, to := time.Now(), time.Now().AddDate(0, 0, -1)
	_, err = f.query.GetMany(ctx, f.user, PageRequest{Number: 1}, DateFilter{From: &from, To: &to})
	assert.Equal(t, "validation_failed", customerr.Code(err))

	_, err = f.query.GetMany(ctx, f.user, PageRequest{Number: 1}, DateFilter{Period: "decade"})
	assert.Equal(t, "validation_failed", customerr.Code(err))
}

func Test_OnGetMany_ShouldReturnEmptyPageBeyondEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addDaily(t, time.Now().AddDate(0, 0, -5), 1, 2, 3)

	for _, number := range []int{3, 1106804644422573098, math.MaxInt64} {
		page, err := f.query.GetMany(ctx, f.user, PageRequest{Number: number, Size: 50}, DateFilter{})
		require.NoError(t, err, "page %d", number)
		assert.Equal(t, 3, page.TotalItems, "page %d", number)
		assert.Empty(t, page.Items, "page %d", number)
		assert.NotNil(t, page.Items, "page %d", number)

		aggs, err := f.query.GetManyExpensesAggregate(ctx, f.user, PageRequest{Number: number, Size: 50}, DateFilter{})
		require.NoError(t, err, "page %d", number)
		assert.Equal(t, 3, aggs.TotalItems, "page %d", number)
		assert.Empty(t, aggs.Items, "page %d", number)
	}
}

func Test_OnNewWindow_ShouldNotWrapOffset(t *testing.T) {
	w := newWindow(PageRequest{Number: 3, Size: 5})
	assert.Equal(t, window{limit: 5, offset: 10}, w)

	w = newWindow(PageRequest{Number: 1106804644422573098, Size: 50})
	assert.True(t, w.overflow)
	assert.True(t, w.pastEnd(1000))

	w = newWindow(PageRequest{Number: math.MaxInt64, Size: 1})
	assert.False(t, w.overflow)
	assert.Equal(t, uint64(math.MaxInt64-1), w.offset)
	assert.True(t, w.pastEnd(1000))
}

func Test_OnGetMany_ShouldResolvePeriod(t *testing.T) {
	f := newFixture(t)
	f.query.nowFunc = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	ids := f.addDaily(t, time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC), 1, 2, 3, 4)

	page, err := f.query.GetMany(context.Background(), f.user, PageRequest{Number: 1}, DateFilter{Period: "month"})
	require.NoError(t, err)
	assert.ElementsMatch(t, ids[2:], recordIDs(page.Items))
}

func Test_OnGetManyExpensesAggregate_ShouldComputeTotals(t *testing.T) {
	f := newFixture(t)
	start := time.Now()
	ids := f.addDaily(t, start, 10, 20, 30, 40)

	from, to := start, start.AddDate(0, 0, 2)
	page, err := f.query.GetManyExpensesAggregate(context.Background(), f.user, PageRequest{Number: 1}, DateFilter{From: &from, To: &to})
	require.NoError(t, err)

	require.Equal(t, 3, page.TotalItems)
	require.Len(t, page.Items, 3)
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, agg := range page.Items {
		require.Len(t, agg.Expenses, 1)
		totals[agg.Expenses[0].ID] = agg.TotalAmount()
	}
	assert.True(t, decimal.NewFromInt(10).Equal(totals[ids[0]]))
	assert.True(t, decimal.NewFromInt(20).Equal(totals[ids[1]]))
	assert.True(t, decimal.NewFromInt(30).Equal(totals[ids[2]]))
	assert.NotContains(t, totals, ids[3])
}

func Test_OnGetExpensesAggregate_ShouldReturnProjection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.add.Handle(ctx, commands.AddExpenseParams{UserID: f.user, Name: "name", Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)

	agg, err := f.query.GetExpensesAggregate(ctx, f.user, rec.AggregateID)
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, "name", agg.Name)
	assert.False(t, agg.IsDraft)
	require.Len(t, agg.Expenses, 1)
	assert.Equal(t, rec.ID, agg.Expenses[0].ID)
	assert.Empty(t, agg.Bills)

	missing, err := f.query.GetExpensesAggregate(ctx, f.user, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	stranger := storagetest.CreateUser(t, f.store)
	_, err = f.query.GetExpensesAggregate(ctx, stranger.ID, rec.AggregateID)
	assert.ErrorIs(t, err, customerr.ErrOwnershipMismatch)
}

func Test_OnGetById_ShouldCheckOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := f.addDaily(t, time.Now(), 7)

	rec, err := f.query.GetById(ctx, f.user, ids[0])
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, decimal.NewFromInt(7).Equal(rec.Amount))
	assert.Equal(t, f.typ, *rec.ExpenseTypeID)

	rec, err = f.query.GetById(ctx, f.user, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = f.query.GetById(ctx, uuid.New(), ids[0])
	assert.ErrorIs(t, err, customerr.ErrOwnershipMismatch)
}

func Test_OnGetExpenseTypes_ShouldListOwnTypes(t *testing.T) {
	f := newFixture(t)

	types, err := f.query.GetExpenseTypes(context.Background(), f.user)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "general", types[0].Name)

	_, err = f.query.GetExpenseTypes(context.Background(), uuid.New())
	assert.ErrorIs(t, err, customerr.ErrUserNotExist)
}

type cacheMock struct {
	mock.Mock
}

func (m *cacheMock) GetAggregate(ctx context.Context, id uuid.UUID) (*expense.Aggregate, error) {
	args := m.Called(ctx, id)
	agg, _ := args.Get(0).(*expense.Aggregate)
	return agg, args.Error(1)
}

func (m *cacheMock) SetAggregate(ctx context.Context, agg *expense.Aggregate) error {
	return m.Called(ctx, agg).Error(0)
}

func Test_OnGetExpensesAggregate_ShouldFillCacheOnMiss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := f.addDaily(t, time.Now(), 3)
	rec, err := f.store.GetExpense(ctx, ids[0])
	require.NoError(t, err)

	aggCache := &cacheMock{}
	aggCache.On("GetAggregate", mock.Anything, rec.AggregateID).Return(nil, cache.ErrMiss).Once()
	aggCache.On("SetAggregate", mock.Anything, mock.MatchedBy(func(agg *expense.Aggregate) bool {
		return agg.ID == rec.AggregateID && len(agg.Expenses) == 1
	})).Return(nil).Once()
	query, err := NewExpensesQuery(testConfig{}, f.store, aggCache)
	require.NoError(t, err)

	_, err = query.GetExpensesAggregate(ctx, f.user, rec.AggregateID)
	require.NoError(t, err)

	cached := &expense.Aggregate{ID: rec.AggregateID, UserID: f.user, Name: "cached"}
	aggCache.On("GetAggregate", mock.Anything, rec.AggregateID).Return(cached, nil).Once()
	agg, err := query.GetExpensesAggregate(ctx, f.user, rec.AggregateID)
	require.NoError(t, err)
	assert.Equal(t, "cached", agg.Name)

	aggCache.AssertExpectations(t)
}
