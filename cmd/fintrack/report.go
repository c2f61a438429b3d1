package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func reportCmd(a *app) *cobra.Command {
	var (
		months int
		month  string
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print totals, category breakdowns and the monthly trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			anchor := time.Now().UTC()
			if month != "" {
				m, err := parseMonth(month)
				if err != nil {
					return err
				}
				// Last day of the month so thirty_day steps start inside it.
				anchor = m.AddDate(0, 1, -1)
			}
			if mode != "" {
				if _, err := core.ParseTrendMode(mode); err != nil {
					return err
				}
				a.cfg.TrendMode = mode
			}
			if months <= 0 {
				months = a.cfg.TrendMonths
			}

			store, ledger, err := a.openLedger(ctx)
			if err != nil {
				return err
			}
			defer ledger.Close()
			rep := a.reporter(store)

			summary, err := rep.Summary(ctx, anchor)
			if err != nil {
				return err
			}
			cats, err := rep.CategoryReport(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "Totals")
			tw := newTable(out, "", "Income", "Expenses", "Balance")
			fmt.Fprintf(tw, "All time\t%s\t%s\t%s\n", summary.TotalIncome.Format(), summary.TotalExpense.Format(), summary.Balance.Format())
			label := time.Date(summary.Year, summary.Month, 1, 0, 0, 0, 0, time.UTC).Format(core.TrendLabelLayout)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", label,
				summary.MonthIncome.Format(), summary.MonthExpense.Format(), summary.MonthIncome.Sub(summary.MonthExpense).Format())
			if err := tw.Flush(); err != nil {
				return err
			}

			if err := printBreakdown(out, "Expenses by category", cats.Expense); err != nil {
				return err
			}
			if err := printBreakdown(out, "Income by category", cats.Income); err != nil {
				return err
			}

			fmt.Fprintf(out, "\nMonthly trend (%s)\n", a.cfg.ParsedTrendMode())
			tw = newTable(out, "Month", "Income", "Expenses", "Savings")
			for e, err := range rep.MonthlyTrend(ctx, months, anchor) {
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Label, e.Income.Format(), e.Expense.Format(), e.Savings().Format())
			}
			return tw.Flush()
		},
	}

	f := cmd.Flags()
	f.IntVar(&months, "months", 0, "number of months in the trend (default $TREND_MONTHS)")
	f.StringVar(&month, "month", "", "last month of the trend as YYYY-MM (default current month)")
	f.StringVar(&mode, "trend-mode", "", "calendar or thirty_day (default $TREND_MODE)")
	return cmd
}

func printBreakdown(out io.Writer, title string, rows []core.CategoryAmount) error {
	fmt.Fprintf(out, "\n%s\n", title)
	if len(rows) == 0 {
		fmt.Fprintln(out, "  (none)")
		return nil
	}
	tw := newTable(out, "Category", "Total")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r.Name, r.Amount.Format())
	}
	return tw.Flush()
}
