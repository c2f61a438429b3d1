package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/reports"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv   *Server
	store *storage.Store
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	return newTestEnvWithReader(t, opts, nil)
}

// newTestEnvWithReader lets a test put its own reader between the reports
// and the store. A nil wrap uses the store directly.
func newTestEnvWithReader(t *testing.T, opts Options, wrap func(*storage.Store) reports.LedgerReader) *testEnv {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "fintrack.db"))
	require.NoError(t, err)

	if opts.RateLimitPerMinute == 0 {
		opts.RateLimitPerMinute = 1000
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = time.Minute
	}

	ledger := services.NewLedgerService(store, nil)
	var reader reports.LedgerReader = store
	if wrap != nil {
		reader = wrap(store)
	}
	reporter := reports.NewReporter(reader, reports.DefaultConfig())
	srv, err := NewServer(opts, ledger, store, reporter)
	require.NoError(t, err)
	srv.now = func() time.Time { return testNow }

	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		_ = store.Close()
	})
	return &testEnv{srv: srv, store: store}
}

func (e *testEnv) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) category(t *testing.T, name string, kind core.Kind) core.Category {
	t.Helper()
	c, err := e.store.AddCategory(context.Background(), name, kind)
	require.NoError(t, err)
	return c
}

func txFormValues(kind core.Kind, amount string, categoryID int64, date string) url.Values {
	return url.Values{
		"type":        {string(kind)},
		"amount":      {amount},
		"category":    {strconv.FormatInt(categoryID, 10)},
		"description": {"test entry"},
		"date":        {date},
	}
}

func TestDashboardEmptyLedger(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Dashboard")
	assert.Contains(t, body, "₹0.00")
	assert.Contains(t, body, "No transactions yet")
}

func TestUnknownPathAndMethod(t *testing.T) {
	env := newTestEnv(t, Options{})

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/nope", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, http.MethodDelete, "/transactions", nil).Code)
}

func TestCreateTransactionFlow(t *testing.T) {
	env := newTestEnv(t, Options{})
	salary := env.category(t, "Salary", core.KindIncome)
	food := env.category(t, "Food", core.KindExpense)

	// Populate the dashboard cache before writing.
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/", nil).Code)

	rec := env.do(t, http.MethodPost, "/transactions/new", txFormValues(core.KindIncome, "1000", salary.ID, "2024-03-01"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	rec = env.do(t, http.MethodPost, "/transactions/new", txFormValues(core.KindExpense, "250,50", food.ID, "2024-03-02"))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = env.do(t, http.MethodGet, "/", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Transaction added successfully!")
	assert.Contains(t, body, "₹1000.00", "cache purged after write")
	assert.Contains(t, body, "₹250.50")
	assert.Contains(t, body, "₹749.50")

	rec = env.do(t, http.MethodGet, "/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Salary")
	assert.Contains(t, rec.Body.String(), "Food")
}

func TestCreateTransactionRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t, Options{})
	food := env.category(t, "Food", core.KindExpense)

	tests := []struct {
		name   string
		form   url.Values
		status int
		msg    string
	}{
		{"bad amount", txFormValues(core.KindExpense, "abc", food.ID, "2024-03-01"), http.StatusUnprocessableEntity, "invalid amount"},
		{"empty amount", txFormValues(core.KindExpense, "", food.ID, "2024-03-01"), http.StatusUnprocessableEntity, "invalid amount"},
		{"bad kind", txFormValues("transfer", "10", food.ID, "2024-03-01"), http.StatusUnprocessableEntity, "invalid kind"},
		{"missing category", txFormValues(core.KindExpense, "10", 0, "2024-03-01"), http.StatusUnprocessableEntity, "invalid category"},
		{"bad date", txFormValues(core.KindExpense, "10", food.ID, "01/03/2024"), http.StatusUnprocessableEntity, "invalid date"},
		{"unknown category", txFormValues(core.KindExpense, "10", 999, "2024-03-01"), http.StatusNotFound, "999 not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/transactions/new", tt.form)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.msg)
		})
	}

	txs, err := env.store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestNewTransactionForm(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.category(t, "Food", core.KindExpense)

	for _, path := range []string{"/transactions/new", "/add_transaction"} {
		rec := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `value="2024-03-15"`)
		assert.Contains(t, rec.Body.String(), "Food")
	}
}

func TestDeleteTransaction(t *testing.T) {
	env := newTestEnv(t, Options{})
	food := env.category(t, "Food", core.KindExpense)
	tx, err := env.store.AddTransaction(context.Background(), core.Money{Cents: 500}, "lunch", core.KindExpense, food.ID, testNow)
	require.NoError(t, err)

	target := "/transactions/" + strconv.FormatInt(tx.ID, 10) + "/delete"
	rec := env.do(t, http.MethodPost, target, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/transactions", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, target, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/delete_transaction/abc", nil).Code)

	tx2, err := env.store.AddTransaction(context.Background(), core.Money{Cents: 700}, "dinner", core.KindExpense, food.ID, testNow)
	require.NoError(t, err)
	legacy := "/delete_transaction/" + strconv.FormatInt(tx2.ID, 10)

	// A GET on the old link only redirects; the row survives.
	rec = env.do(t, http.MethodGet, legacy, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/transactions", rec.Header().Get("Location"))
	_, err = env.store.GetTransaction(context.Background(), tx2.ID)
	require.NoError(t, err)

	rec = env.do(t, http.MethodPost, legacy, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	txs, err := env.store.ListTransactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/categories", url.Values{"name": {"Gym"}, "type": {"expense"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/categories", rec.Header().Get("Location"))

	rec = env.do(t, http.MethodPost, "/categories", url.Values{"name": {"Gym"}, "type": {"income"}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")

	rec = env.do(t, http.MethodPost, "/add_category", url.Values{"name": {"  "}, "type": {"expense"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodPost, "/categories", url.Values{"name": {"Rent"}, "type": {"other"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "<td>Gym</td>"))
}

func TestReportsPage(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	salary := env.category(t, "Salary", core.KindIncome)
	food := env.category(t, "Food", core.KindExpense)

	_, err := env.store.AddTransaction(ctx, core.Money{Cents: 300000}, "", core.KindIncome, salary.ID, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = env.store.AddTransaction(ctx, core.Money{Cents: 12345}, "", core.KindExpense, food.ID, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/reports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	labels := []string{"Oct 2023", "Nov 2023", "Dec 2023", "Jan 2024", "Feb 2024", "Mar 2024"}
	last := -1
	for _, l := range labels {
		i := strings.Index(body, l)
		require.GreaterOrEqual(t, i, 0, l)
		assert.Greater(t, i, last, "%s out of order", l)
		last = i
	}
	assert.Contains(t, body, "₹3000.00")
	assert.Contains(t, body, "₹123.45")
	assert.Contains(t, body, "Balance: ₹2876.55")

	// Served from cache until the ledger changes.
	_, err = env.store.AddTransaction(ctx, core.Money{Cents: 100}, "", core.KindExpense, food.ID, testNow)
	require.NoError(t, err)
	assert.Contains(t, env.do(t, http.MethodGet, "/reports", nil).Body.String(), "Balance: ₹2876.55")
	hits, _ := env.srv.reportCache.Stats()
	assert.Equal(t, int64(1), hits)
}

func TestReportsAnchorOnUTCMonth(t *testing.T) {
	env := newTestEnv(t, Options{})
	// 1 April 02:00 at UTC+05:30 is still 31 March in UTC.
	ist := time.FixedZone("IST", 5*60*60+30*60)
	env.srv.now = func() time.Time { return time.Date(2024, 4, 1, 2, 0, 0, 0, ist) }

	rec := env.do(t, http.MethodGet, "/reports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Mar 2024")
	assert.Contains(t, body, "Oct 2023")
	assert.NotContains(t, body, "Apr 2024")
}

func TestHealthReadyMetrics(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = env.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	rec = env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total 2")
	assert.Contains(t, rec.Body.String(), `cache_hits_total{cache="summary"} 0`)

	require.NoError(t, env.store.Close())
	rec = env.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestResponseHeaders(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodGet, "/", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = env.do(t, http.MethodGet, "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=3600")
}

func TestSuspiciousRequestBlocked(t *testing.T) {
	env := newTestEnv(t, Options{})
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/.env", nil).Code)
}

func TestRateLimitAppliesToPosts(t *testing.T) {
	env := newTestEnv(t, Options{RateLimitPerMinute: 1})

	form := url.Values{"name": {"Gym"}, "type": {"expense"}}
	assert.Equal(t, http.StatusSeeOther, env.do(t, http.MethodPost, "/categories", form).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodPost, "/categories", form).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/categories", nil).Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(core.ErrInvalidAmount))
	assert.Equal(t, http.StatusNotFound, statusFor(&core.NotFoundError{Entity: "category", ID: 1}))
	assert.Equal(t, http.StatusConflict, statusFor(&core.DuplicateNameError{Name: "Food"}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(core.NewStorageError("op", io.ErrUnexpectedEOF)))
	assert.Equal(t, "Something went wrong, please try again.", userMessage(core.NewStorageError("op", io.ErrUnexpectedEOF)))
}

func TestPopFlash(t *testing.T) {
	rec := httptest.NewRecorder()
	setFlash(rec, "success", "Saved: 10% off")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	out := httptest.NewRecorder()
	f := popFlash(out, req)
	require.NotNil(t, f)
	assert.Equal(t, "success", f.Kind)
	assert.Equal(t, "Saved: 10% off", f.Message)

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Less(t, cleared[0].MaxAge, 0)

	assert.Nil(t, popFlash(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb", sanitizeInput("  a\tb\x00\x07 "))
}

// gatedReader blocks the next income total until released, so a write can
// land while a dashboard read is in flight.
type gatedReader struct {
	*storage.Store
	armed   atomic.Bool
	started chan struct{}
	release chan struct{}
}

func (g *gatedReader) TotalByKind(ctx context.Context, kind core.Kind) (core.Money, error) {
	if kind == core.KindIncome && g.armed.CompareAndSwap(true, false) {
		close(g.started)
		<-g.release
	}
	return g.Store.TotalByKind(ctx, kind)
}

func TestDashboardDoesNotCacheReadOverlappingWrite(t *testing.T) {
	gate := &gatedReader{started: make(chan struct{}), release: make(chan struct{})}
	env := newTestEnvWithReader(t, Options{}, func(s *storage.Store) reports.LedgerReader {
		gate.Store = s
		return gate
	})
	salary := env.category(t, "Salary", core.KindIncome)

	gate.armed.Store(true)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = env.do(t, http.MethodGet, "/", nil)
	}()

	<-gate.started
	rec := env.do(t, http.MethodPost, "/transactions/new", txFormValues(core.KindIncome, "777", salary.ID, "2024-03-10"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	close(gate.release)
	<-done

	afterWrite := env.do(t, http.MethodGet, "/", nil).Body.String()

	env.srv.invalidateCaches()
	fresh := env.do(t, http.MethodGet, "/", nil).Body.String()

	assert.Greater(t, strings.Count(fresh, "777.00"), 1, "totals and recent list should all show the new income")
	assert.Equal(t, strings.Count(fresh, "777.00"), strings.Count(afterWrite, "777.00"),
		"dashboard must not serve totals computed before the write")
}
