package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/reports"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// openLedger opens the store and wraps it in a LedgerService that publishes
// events when AMQP is configured. Closing the service closes the store.
func (a *app) openLedger(ctx context.Context) (*storage.Store, *services.LedgerService, error) {
	store, err := cli.OpenStore(ctx, a.logger, a.cfg)
	if err != nil {
		return nil, nil, err
	}

	var publisher services.EventPublisher
	if a.cfg.AMQPURL != "" {
		client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
		if err != nil {
			// Writes still succeed; the mirror catches up from later events.
			a.logger.Warn("AMQP unavailable, ledger events will not be published", "error", err)
		} else {
			publisher = client
		}
	}

	return store, services.NewLedgerService(store, publisher), nil
}

func (a *app) reporter(store *storage.Store) *reports.Reporter {
	return reports.NewReporter(store, reports.Config{
		TrendMode:   a.cfg.ParsedTrendMode(),
		TrendMonths: a.cfg.TrendMonths,
		RecentLimit: a.cfg.RecentLimit,
	})
}

// tableStyles are the table header and placeholder styles. Colors are
// dropped when the writer is not a terminal.
type tableStyles struct {
	header lipgloss.Style
	muted  lipgloss.Style
}

func stylesFor(w io.Writer) tableStyles {
	r := lipgloss.NewRenderer(w)
	return tableStyles{
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	st := stylesFor(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cells := make([]string, len(headers))
	rules := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = st.header.Render(h)
		rules[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))
	return tw
}

// parseMonth accepts YYYY-MM and returns the first day of that month in UTC.
func parseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return t, nil
}
