package google

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestTransactionRow(t *testing.T) {
	tx := core.Transaction{
		ID:           12,
		Amount:       core.Money{Cents: 123456},
		Description:  "rent",
		Date:         time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC),
		Kind:         core.KindExpense,
		CategoryName: "Utilities",
	}
	row := transactionRow(tx)
	require.Len(t, row, len(Header))
	assert.Equal(t, []any{int64(12), "2024-03-01", "Expense", "Utilities", "rent", 1234.56}, row)
}

func TestTransactionRowKeepsFormulaText(t *testing.T) {
	tx := core.Transaction{
		ID:          3,
		Description: `=HYPERLINK("http://example.com","x")`,
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Kind:        core.KindIncome,
	}
	row := transactionRow(tx)
	assert.Equal(t, `=HYPERLINK("http://example.com","x")`, row[4])
	assert.Equal(t, "RAW", valueInputOption, "cells must not be parsed as formulas")
}

func TestFindRow(t *testing.T) {
	values := [][]any{
		{"ID"},
		{float64(3)},
		{},
		{"7"},
		{int64(9)},
	}
	assert.Equal(t, 1, findRow(values, 3))
	assert.Equal(t, 3, findRow(values, 7))
	assert.Equal(t, 4, findRow(values, 9))
	assert.Equal(t, -1, findRow(values, 4))
	assert.Equal(t, -1, findRow(nil, 1))
}

func TestParseID(t *testing.T) {
	id, ok := parseID(" 42 ")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = parseID(float64(1.5))
	assert.False(t, ok)

	_, ok = parseID("ID")
	assert.False(t, ok)
}

func TestColumnRange(t *testing.T) {
	assert.Equal(t, "Transactions!A:A", columnRange("Transactions"))
	assert.Equal(t, "'My Ledger'!A:A", columnRange("My Ledger"))
	assert.Equal(t, "'Bob''s'!A:A", columnRange("Bob's"))
}

func TestNewValidation(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorContains(t, err, "missing spreadsheet id")

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = New(context.Background(), Config{SpreadsheetID: "abc"})
	assert.ErrorContains(t, err, "missing service account credentials")
}

func TestUninitializedClient(t *testing.T) {
	c := &Client{}
	assert.Error(t, c.AppendTransaction(context.Background(), core.Transaction{ID: 1}))
	assert.Error(t, c.DeleteTransaction(context.Background(), 1))
}
