package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// LedgerStore is the write side of the ledger.
type LedgerStore interface {
	AddCategory(ctx context.Context, name string, kind core.Kind) (core.Category, error)
	AddTransaction(ctx context.Context, amount core.Money, description string, kind core.Kind, categoryID int64, date time.Time) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	Close() error
}

// EventPublisher announces ledger changes to other processes.
type EventPublisher interface {
	Publish(ctx context.Context, evt amqp.LedgerEvent) error
	Close() error
}

// LedgerService applies ledger writes, then publishes an event and notifies
// the OnChange hook. Publishing is best effort: the write has already been
// committed when it runs, so a publish failure is logged and not returned.
type LedgerService struct {
	store     LedgerStore
	publisher EventPublisher
	onChange  func()
	logger    *applog.Logger
}

// NewLedgerService creates the service. publisher may be nil.
func NewLedgerService(store LedgerStore, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		logger:    applog.Default(applog.ComponentLedger),
	}
}

// OnChange registers fn to run after every successful write.
func (s *LedgerService) OnChange(fn func()) {
	s.onChange = fn
}

// CreateCategory stores a new category.
func (s *LedgerService) CreateCategory(ctx context.Context, name string, kind core.Kind) (core.Category, error) {
	c, err := s.store.AddCategory(ctx, name, kind)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.publish(ctx, amqp.NewCategoryCreated(c.ID))
	s.changed()
	return c, nil
}

// CreateTransaction stores a new transaction. A zero date means now.
func (s *LedgerService) CreateTransaction(ctx context.Context, amount core.Money, description string, kind core.Kind, categoryID int64, date time.Time) (core.Transaction, error) {
	t, err := s.store.AddTransaction(ctx, amount, description, kind, categoryID, date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction created",
		applog.NewFields().
			WithTransaction(t.ID, string(t.Kind), t.Amount.Cents, t.CategoryID).
			WithOperation(applog.OpCreate).
			ToSlice()...)

	s.publish(ctx, amqp.NewTransactionCreated(t.ID, t.CategoryID))
	s.changed()
	return t, nil
}

// DeleteTransaction removes a transaction.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldTransactionID, id,
		applog.FieldOperation, applog.OpDelete)

	s.publish(ctx, amqp.NewTransactionDeleted(id))
	s.changed()
	return nil
}

func (s *LedgerService) publish(ctx context.Context, evt amqp.LedgerEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping event",
			applog.FieldEventType, string(evt.Type))
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			applog.FieldEventType, string(evt.Type),
			applog.FieldTransactionID, evt.TransactionID,
			applog.FieldCategoryID, evt.CategoryID,
			applog.FieldOperation, applog.OpPublish,
			applog.FieldError, err)
	}
}

func (s *LedgerService) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Close closes the publisher and the store.
func (s *LedgerService) Close() error {
	var errs []error

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
