package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// TrendEntry holds income and expense totals for one month of a trend.
type TrendEntry struct {
	Year    int
	Month   time.Month
	Label   string // e.g. "Mar 2024"
	Income  Money
	Expense Money
}

func (e TrendEntry) Savings() Money {
	return e.Income.Sub(e.Expense)
}

// Summary is what the dashboard shows.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
	Year         int
	Month        time.Month
	MonthIncome  Money
	MonthExpense Money
	Recent       []Transaction
}

// CategoryReport groups the per-category breakdowns shown on the reports page.
type CategoryReport struct {
	Expense []CategoryAmount
	Income  []CategoryAmount
}
