// Package sheets defines the spreadsheet mirror the worker keeps in sync
// with the ledger.
package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound adapters.
type (
	// Mirror keeps one spreadsheet row per transaction. Both operations are
	// idempotent so redelivered events are harmless.
	Mirror interface {
		AppendTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id int64) error
	}
)
