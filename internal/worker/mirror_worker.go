// Package worker applies ledger events to the spreadsheet mirror.
package worker

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
)

// TransactionReader loads the current state of a transaction.
type TransactionReader interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
}

// MirrorWorker keeps a sheets.Mirror in step with the ledger.
type MirrorWorker struct {
	store  TransactionReader
	mirror sheets.Mirror
	logger *applog.Logger
}

func NewMirrorWorker(store TransactionReader, mirror sheets.Mirror) *MirrorWorker {
	return &MirrorWorker{
		store:  store,
		mirror: mirror,
		logger: applog.Default(applog.ComponentWorker),
	}
}

// Handle applies one event. Errors are returned so the consumer requeues the
// message; a created event whose transaction is gone is skipped instead.
func (w *MirrorWorker) Handle(ctx context.Context, evt amqp.LedgerEvent) error {
	switch evt.Type {
	case amqp.EventTransactionCreated:
		return w.handleCreated(ctx, evt.TransactionID)
	case amqp.EventTransactionDeleted:
		if err := w.mirror.DeleteTransaction(ctx, evt.TransactionID); err != nil {
			return fmt.Errorf("delete mirrored transaction %d: %w", evt.TransactionID, err)
		}
		w.logger.InfoContext(ctx, "Mirrored transaction deletion",
			applog.FieldTransactionID, evt.TransactionID,
			applog.FieldOperation, applog.OpMirror)
		return nil
	default:
		w.logger.DebugContext(ctx, "Ignoring ledger event",
			applog.FieldEventType, string(evt.Type))
		return nil
	}
}

func (w *MirrorWorker) handleCreated(ctx context.Context, id int64) error {
	t, err := w.store.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// deleted before the worker caught up; the delete event follows
		w.logger.WarnContext(ctx, "Transaction no longer exists, skipping",
			applog.FieldTransactionID, id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", id, err)
	}

	if err := w.mirror.AppendTransaction(ctx, t); err != nil {
		return fmt.Errorf("append mirrored transaction %d: %w", id, err)
	}
	w.logger.InfoContext(ctx, "Mirrored transaction",
		applog.NewFields().
			WithTransaction(t.ID, string(t.Kind), t.Amount.Cents, t.CategoryID).
			WithOperation(applog.OpMirror).
			ToSlice()...)
	return nil
}
