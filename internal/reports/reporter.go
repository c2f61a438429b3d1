// Package reports derives summary figures from the ledger: totals, balance,
// category breakdowns, the monthly trend and the dashboard summary.
//
// Every operation is a read; nothing here mutates the ledger.
package reports

import (
	"context"
	"fmt"
	"iter"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// LedgerReader is the part of the store the reports are computed from.
type LedgerReader interface {
	TotalByKind(ctx context.Context, kind core.Kind) (core.Money, error)
	TotalByKindAndMonth(ctx context.Context, kind core.Kind, year int, month time.Month) (core.Money, error)
	BreakdownByCategory(ctx context.Context, kind core.Kind) ([]core.CategoryAmount, error)
	RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
}

// Config holds reporter settings.
type Config struct {
	// TrendMode selects calendar months (default) or 30-day steps.
	TrendMode core.TrendMode
	// TrendMonths is the length of the reports page trend (default: 6).
	TrendMonths int
	// RecentLimit is how many transactions the dashboard lists (default: 10).
	RecentLimit int
}

func DefaultConfig() Config {
	return Config{
		TrendMode:   core.TrendCalendar,
		TrendMonths: 6,
		RecentLimit: 10,
	}
}

type Reporter struct {
	store  LedgerReader
	config Config
	logger *applog.Logger
}

func NewReporter(store LedgerReader, config Config) *Reporter {
	def := DefaultConfig()
	if config.TrendMode == "" {
		config.TrendMode = def.TrendMode
	}
	if config.TrendMonths <= 0 {
		config.TrendMonths = def.TrendMonths
	}
	if config.RecentLimit <= 0 {
		config.RecentLimit = def.RecentLimit
	}
	return &Reporter{
		store:  store,
		config: config,
		logger: applog.Default(applog.ComponentReports),
	}
}

// Config returns the effective configuration.
func (r *Reporter) Config() Config {
	return r.config
}

func (r *Reporter) TotalByKind(ctx context.Context, kind core.Kind) (core.Money, error) {
	return r.store.TotalByKind(ctx, kind)
}

func (r *Reporter) TotalByKindAndMonth(ctx context.Context, kind core.Kind, year int, month time.Month) (core.Money, error) {
	return r.store.TotalByKindAndMonth(ctx, kind, year, month)
}

func (r *Reporter) BreakdownByCategory(ctx context.Context, kind core.Kind) ([]core.CategoryAmount, error) {
	return r.store.BreakdownByCategory(ctx, kind)
}

// Balance is total income minus total expense.
func (r *Reporter) Balance(ctx context.Context) (core.Money, error) {
	income, err := r.store.TotalByKind(ctx, core.KindIncome)
	if err != nil {
		return core.Money{}, fmt.Errorf("income total: %w", err)
	}
	expense, err := r.store.TotalByKind(ctx, core.KindExpense)
	if err != nil {
		return core.Money{}, fmt.Errorf("expense total: %w", err)
	}
	return income.Sub(expense), nil
}

// MonthlyTrend yields count entries ending with the month of anchor, oldest
// first. Nothing is queried until the sequence is ranged over, and each
// entry is computed only when pulled. Iteration stops after the first error.
func (r *Reporter) MonthlyTrend(ctx context.Context, count int, anchor time.Time) iter.Seq2[core.TrendEntry, error] {
	mode := r.config.TrendMode
	return func(yield func(core.TrendEntry, error) bool) {
		for _, m := range core.TrendMonths(anchor, count, mode) {
			entry, err := r.trendEntry(ctx, m)
			if err != nil {
				yield(core.TrendEntry{}, err)
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

func (r *Reporter) trendEntry(ctx context.Context, m time.Time) (core.TrendEntry, error) {
	e := core.TrendEntry{
		Year:  m.Year(),
		Month: m.Month(),
		Label: m.Format(core.TrendLabelLayout),
	}
	var err error
	if e.Income, err = r.store.TotalByKindAndMonth(ctx, core.KindIncome, e.Year, e.Month); err != nil {
		return core.TrendEntry{}, fmt.Errorf("trend %s income: %w", e.Label, err)
	}
	if e.Expense, err = r.store.TotalByKindAndMonth(ctx, core.KindExpense, e.Year, e.Month); err != nil {
		return core.TrendEntry{}, fmt.Errorf("trend %s expense: %w", e.Label, err)
	}
	return e, nil
}

// Trend collects the configured number of trend entries ending at anchor.
func (r *Reporter) Trend(ctx context.Context, anchor time.Time) ([]core.TrendEntry, error) {
	out := make([]core.TrendEntry, 0, r.config.TrendMonths)
	for e, err := range r.MonthlyTrend(ctx, r.config.TrendMonths, anchor) {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Summary gathers the dashboard figures for the month containing now. The
// underlying reads run concurrently and are not a consistent snapshot.
func (r *Reporter) Summary(ctx context.Context, now time.Time) (core.Summary, error) {
	now = now.UTC()
	s := core.Summary{Year: now.Year(), Month: now.Month()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.TotalIncome, err = r.store.TotalByKind(gctx, core.KindIncome)
		return err
	})
	g.Go(func() (err error) {
		s.TotalExpense, err = r.store.TotalByKind(gctx, core.KindExpense)
		return err
	})
	g.Go(func() (err error) {
		s.MonthIncome, err = r.store.TotalByKindAndMonth(gctx, core.KindIncome, s.Year, s.Month)
		return err
	})
	g.Go(func() (err error) {
		s.MonthExpense, err = r.store.TotalByKindAndMonth(gctx, core.KindExpense, s.Year, s.Month)
		return err
	})
	g.Go(func() (err error) {
		s.Recent, err = r.store.RecentTransactions(gctx, r.config.RecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		r.logger.ErrorContext(ctx, "Failed to build dashboard summary",
			applog.FieldOperation, applog.OpAggregate,
			applog.FieldError, err)
		return core.Summary{}, fmt.Errorf("dashboard summary: %w", err)
	}

	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s, nil
}

// CategoryReport returns the expense and income breakdowns.
func (r *Reporter) CategoryReport(ctx context.Context) (core.CategoryReport, error) {
	var rep core.CategoryReport
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rep.Expense, err = r.store.BreakdownByCategory(gctx, core.KindExpense)
		return err
	})
	g.Go(func() (err error) {
		rep.Income, err = r.store.BreakdownByCategory(gctx, core.KindIncome)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.CategoryReport{}, fmt.Errorf("category report: %w", err)
	}
	return rep, nil
}
