// Package http serves the finance tracker web UI: the dashboard, the
// transaction forms, the reports page and category management.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/reports"
	appweb "fintrack/web"
)

// LedgerWriter applies ledger changes and notifies listeners.
type LedgerWriter interface {
	CreateCategory(ctx context.Context, name string, kind core.Kind) (core.Category, error)
	CreateTransaction(ctx context.Context, amount core.Money, description string, kind core.Kind, categoryID int64, date time.Time) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	OnChange(fn func())
}

// LedgerReader lists ledger contents for the pages.
type LedgerReader interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	CacheTTL           time.Duration
	// SecureHeaders enables HSTS and COEP; leave it off for plain HTTP dev setups.
	SecureHeaders bool
}

// reportPage is the cached content of the reports page.
type reportPage struct {
	Trend      []core.TrendEntry
	Categories core.CategoryReport
	Balance    core.Money
}

type Server struct {
	http.Server
	ledger   LedgerWriter
	store    LedgerReader
	reporter *reports.Reporter
	pages    map[string]*template.Template
	logger   *applog.Logger

	summaryCache *cache.LRUCache[core.Summary]
	reportCache  *cache.LRUCache[reportPage]
	caches       *cache.Manager

	tracer      *trace.Middleware
	detector    *security.Detector
	rateLimiter *ratelimit.Limiter

	metrics      appMetrics
	shutdownOnce sync.Once
	now          func() time.Time
}

type appMetrics struct {
	started             time.Time
	transactionsCreated atomic.Int64
	transactionsDeleted atomic.Int64
	categoriesCreated   atomic.Int64
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options, ledger LedgerWriter, store LedgerReader, reporter *reports.Reporter) (*Server, error) {
	pages, err := parsePages(appweb.TemplatesFS)
	if err != nil {
		return nil, err
	}

	logger := applog.Default(applog.ComponentHTTP)
	detector := security.NewDetector()

	s := &Server{
		ledger:       ledger,
		store:        store,
		reporter:     reporter,
		pages:        pages,
		logger:       logger,
		summaryCache: cache.NewLRUCache[core.Summary](16, opts.CacheTTL),
		reportCache:  cache.NewLRUCache[reportPage](4, opts.CacheTTL),
		caches:       cache.NewManager(),
		tracer:       trace.NewMiddleware(applog.Default(applog.ComponentTrace), detector.ExtractClientIP),
		detector:     detector,
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		now:          time.Now,
	}
	s.metrics.started = time.Now()

	s.caches.Register(s.summaryCache)
	s.caches.Register(s.reportCache)
	if opts.CacheTTL > 0 {
		s.caches.StartCleanup(opts.CacheTTL)
	}
	ledger.OnChange(s.invalidateCaches)

	headers := security.DevelopmentHeadersConfig()
	if opts.SecureHeaders {
		headers = security.DefaultHeadersConfig()
	}

	mux := s.routes()
	var h http.Handler = mux
	h = s.rateLimiter.Middleware(detector.ExtractClientIP, nil, http.MethodPost)(h)
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(headers).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("GET /transactions/new", s.handleNewTransaction)
	mux.HandleFunc("POST /transactions/new", s.handleCreateTransaction)
	mux.HandleFunc("POST /transactions/{id}/delete", s.handleDeleteTransaction)
	mux.HandleFunc("GET /reports", s.handleReports)
	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("POST /categories", s.handleCreateCategory)

	// Paths used by links and bookmarks from the first version of the app.
	mux.HandleFunc("GET /add_transaction", s.handleNewTransaction)
	mux.HandleFunc("POST /add_transaction", s.handleCreateTransaction)
	mux.HandleFunc("GET /delete_transaction/{id}", s.handleLegacyDeleteLink)
	mux.HandleFunc("POST /delete_transaction/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /add_category", s.handleCreateCategory)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	return mux
}

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.Format() },
	"date":  func(t time.Time) string { return t.Format(time.DateOnly) },
	"signed": func(t core.Transaction) string {
		v := t.Signed()
		if v.Cents >= 0 {
			return "+" + v.Format()
		}
		return v.Format()
	},
}

// parsePages builds one template set per page so that every page can
// define its own "content" block on top of base.html.
func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	base, err := template.New("base.html").Funcs(templateFuncs).ParseFS(fsys, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}

	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(strings.TrimPrefix(f, "templates/"), ".html")
		if name == "base" {
			continue
		}
		t, err := template.Must(base.Clone()).ParseFS(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", f, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func (s *Server) invalidateCaches() {
	s.summaryCache.Clear()
	s.reportCache.Clear()
	s.logger.Debug("Report caches purged", applog.FieldOperation, applog.OpDelete)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
