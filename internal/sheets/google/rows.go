package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// valueInputOption stores cells as sent. A description such as "=SUM(A:A)"
// stays text instead of becoming a formula.
const valueInputOption = "RAW"

// Header is the first row of the mirror sheet.
var Header = []any{"ID", "Date", "Kind", "Category", "Description", "Amount"}

// transactionRow renders t in the column order of Header.
func transactionRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.UTC().Format(time.DateOnly),
		t.Kind.Label(),
		t.CategoryName,
		t.Description,
		t.Amount.Float(),
	}
}

// findRow returns the zero-based index of the row whose first column holds
// id, or -1.
func findRow(values [][]any, id int64) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if rid, ok := parseID(row[0]); ok && rid == id {
			return i
		}
	}
	return -1
}

// parseID reads an id cell, which the API returns as a string or a number
// depending on the render option.
func parseID(cell any) (int64, bool) {
	switch v := cell.(type) {
	case float64:
		return int64(v), v == float64(int64(v))
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		s := strings.TrimSpace(fmt.Sprint(v))
		id, err := strconv.ParseInt(s, 10, 64)
		return id, err == nil
	}
}

// columnRange returns the A1 range covering the whole first column.
func columnRange(sheet string) string {
	return fmt.Sprintf("%s!A:A", quoteSheet(sheet))
}

// quoteSheet quotes sheet names containing spaces or punctuation.
func quoteSheet(name string) string {
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}
