package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"max.ks1230/billtracker/internal/auth"
	"max.ks1230/billtracker/internal/entity/user"
	"max.ks1230/billtracker/internal/model/commands"
	"max.ks1230/billtracker/internal/model/queries"
	"max.ks1230/billtracker/internal/model/reports"
	"max.ks1230/billtracker/internal/model/storage"
	"max.ks1230/billtracker/internal/model/storage/storagetest"
)

type testConfig struct{}

func (testConfig) Addr() string { return ":0" }
func (testConfig) Timeouts() (time.Duration, time.Duration) { return time.Second, time.Second }
func (testConfig) DefaultPageSize() int { return 10 }
func (testConfig) Location() string { return "UTC" }
func (testConfig) SecretKey() string { return "test-secret" }
func (testConfig) TokenDuration() time.Duration { return time.Hour }

type testEnv struct {
	store   *storage.Storage
	handler http.Handler
	tokens  *auth.JWTManager
	user    user.Record
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	store := storagetest.New(t)
	query, err := queries.NewExpensesQuery(testConfig{}, store, nil)
	require.NoError(t, err)
	tokens := auth.NewJWTManager(testConfig{})

	srv := New(testConfig{}, Deps{
		AddExpense:      commands.NewAddExpense(store, nil, nil),
		SaveAggregate:   commands.NewSaveExpenseAggregate(store, nil, nil),
		DeleteAggregate: commands.NewDeleteExpenseAggregate(store, nil, nil),
		AddExpenseType:  commands.NewAddExpenseType(store),
		Query:           query,
		Reports:         reports.NewGenerator(query, store),
		Tokens:          tokens,
		Health:          store,
	})

	env := &testEnv{store: store, handler: srv.Handler(), tokens: tokens}
	env.user, env.token = env.newUser(t)
	return env
}

func (e *testEnv) newUser(t *testing.T) (user.Record, string) {
	u := storagetest.CreateUser(t, e.store)
	token, err := e.tokens.Generate(&u)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func Test_OnRequest_ShouldRequireToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/expenses?pageNumber=1&pageSize=10", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/expenses?pageNumber=1&pageSize=10", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[errorResponse](t, rec).Error)

	rec = env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_OnPostExpense_ShouldCreateAndLocate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/expenses", env.token, map[string]any{
		"name":    "coffee",
		"amount":  "3.50",
		"addedAt": "2024-05-10T12:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[expenseResponse](t, rec)
	assert.Equal(t, "/expenses/"+created.ID.String(), rec.Header().Get("Location"))
	assert.Equal(t, "3.5", created.Amount.String())

	rec = env.do(t, http.MethodGet, rec.Header().Get("Location"), env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[expenseResponse](t, rec)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC), got.AddedDate.UTC())

	rec = env.do(t, http.MethodGet, "/expenses/aggregates/"+created.AggregateID.String(), env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	agg := decode[aggregateResponse](t, rec)
	assert.Equal(t, "coffee", agg.Name)
	assert.False(t, agg.IsDraft)
	assert.Equal(t, "3.5", agg.TotalAmount.String())
	assert.Len(t, agg.Expenses, 1)
	assert.NotNil(t, agg.Bills)
}

func Test_OnPostExpense_ShouldRejectInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]any{
		"negative amount": map[string]any{"name": "x", "amount": -1},
		"empty name":      map[string]any{"name": "", "amount": 1},
		"bad aggregate":   map[string]any{"name": "x", "amount": 1, "aggregateId": uuid.NewString()},
		"malformed":       "not an object",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/expenses", env.token, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func Test_OnGetExpenses_ShouldValidatePaging(t *testing.T) {
	env := newTestEnv(t)

	for _, query := range []string{
		"",
		"?pageNumber=1",
		"?pageNumber=0&pageSize=10",
		"?pageNumber=1&pageSize=4",
		"?pageNumber=1&pageSize=51",
		"?pageNumber=1&pageSize=10&fromDate=yesterday",
		"?pageNumber=1&pageSize=10&period=decade",
	} {
		rec := env.do(t, http.MethodGet, "/expenses"+query, env.token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func Test_OnGetExpenses_ShouldFilterAndPage(t *testing.T) {
	env := newTestEnv(t)
	for i, day := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06"} {
		rec := env.do(t, http.MethodPost, "/expenses", env.token, map[string]any{
			"name":    "item",
			"amount":  i + 1,
			"addedAt": day + "T10:00:00Z",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/expenses?pageNumber=1&pageSize=5&fromDate=2024-01-02T10:00:00Z&toDate=2024-01-04T10:00:00Z", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[pageResponse[expenseResponse]](t, rec)
	assert.Equal(t, 3, page.TotalItems)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "4", page.Items[0].Amount.String())

	rec = env.do(t, http.MethodGet, "/expenses?pageNumber=2&pageSize=5", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode[pageResponse[expenseResponse]](t, rec)
	assert.Equal(t, 6, page.TotalItems)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "1", page.Items[0].Amount.String())
}

func Test_OnGetPages_ShouldBeEmptyForHugePageNumbers(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/expenses", env.token, map[string]any{
			"name":    "item",
			"amount":  i + 1,
			"addedAt": time.Date(2024, 2, i+1, 10, 0, 0, 0, time.UTC),
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	for _, number := range []string{"1106804644422573098", "9223372036854775807"} {
		query := "?pageNumber=" + number + "&pageSize=50"

		rec := env.do(t, http.MethodGet, "/expenses"+query, env.token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		page := decode[pageResponse[expenseResponse]](t, rec)
		assert.Equal(t, 2, page.TotalItems, query)
		assert.Empty(t, page.Items, query)

		rec = env.do(t, http.MethodGet, "/expenses/aggregates"+query, env.token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		aggs := decode[pageResponse[aggregateResponse]](t, rec)
		assert.Equal(t, 2, aggs.TotalItems, query)
		assert.Empty(t, aggs.Items, query)
	}
}

func Test_OnAggregates_ShouldSaveListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	body := map[string]any{"id": id, "name": "trip", "addedDate": "2024-03-01T00:00:00Z", "isDraft": true}
	rec := env.do(t, http.MethodPut, "/expenses/aggregates", env.token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[aggregateResponse](t, rec).IsDraft)

	rec = env.do(t, http.MethodPost, "/expenses", env.token, map[string]any{"name": "train", "amount": "12.30", "aggregateId": id})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body["isDraft"] = false
	rec = env.do(t, http.MethodPut, "/expenses/aggregates", env.token, body)
	require.Equal(t, http.StatusOK, rec.Code)
	saved := decode[aggregateResponse](t, rec)
	assert.False(t, saved.IsDraft)
	assert.Equal(t, "12.3", saved.TotalAmount.String())

	rec = env.do(t, http.MethodGet, "/expenses/aggregates?pageNumber=1&pageSize=5", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pageResponse[aggregateResponse]](t, rec)
	assert.Equal(t, 1, page.TotalItems)

	_, strangerToken := env.newUser(t)
	rec = env.do(t, http.MethodGet, "/expenses/aggregates/"+id.String(), strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodPut, "/expenses/aggregates", strangerToken, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodDelete, "/expenses/aggregates/"+id.String(), strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/expenses/aggregates/"+id.String(), env.token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/expenses/aggregates/"+id.String(), env.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/expenses/aggregates/"+id.String(), env.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_OnExpenseTypes_ShouldFeedReport(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/expenses/types", env.token, map[string]any{"name": "food"})
	require.Equal(t, http.StatusCreated, rec.Code)
	food := decode[expenseTypeResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/expenses/types", env.token, map[string]any{"name": "food"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/expenses/types", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]expenseTypeResponse](t, rec), 1)

	for _, body := range []map[string]any{
		{"name": "apples", "amount": "2.25", "expenseTypeId": food.ID},
		{"name": "pears", "amount": "1.75", "expenseTypeId": food.ID},
		{"name": "tip", "amount": "1"},
	} {
		rec = env.do(t, http.MethodPost, "/expenses", env.token, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/expenses/report?period=day", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[reportResponse](t, rec)
	assert.Equal(t, "5", report.TotalAmount.String())
	require.Len(t, report.Records, 2)
	assert.Equal(t, "food", report.Records[0].Category)
	assert.Equal(t, "4", report.Records[0].Amount.String())
	assert.Equal(t, reports.Uncategorized, report.Records[1].Category)
}

func Test_OnMetricsHandler_ShouldExposeHistogram(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/healthz", "", nil)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "billtracker_http_histogram_response_time_seconds")
}
