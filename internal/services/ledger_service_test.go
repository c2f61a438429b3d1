package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type fakePublisher struct {
	events []amqp.LedgerEvent
	err    error
	closed bool
}

func (p *fakePublisher) Publish(_ context.Context, evt amqp.LedgerEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func newTestService(t *testing.T, pub EventPublisher) (*LedgerService, *storage.Store) {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewLedgerService(s, pub), s
}

func TestLedgerService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, _ := newTestService(t, pub)
	changes := 0
	svc.OnChange(func() { changes++ })

	c, err := svc.CreateCategory(ctx, "Food", core.KindExpense)
	require.NoError(t, err)
	tx, err := svc.CreateTransaction(ctx, core.Money{Cents: 1200}, "lunch", core.KindExpense, c.ID, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, svc.DeleteTransaction(ctx, tx.ID))

	require.Len(t, pub.events, 3)
	assert.Equal(t, amqp.EventCategoryCreated, pub.events[0].Type)
	assert.Equal(t, c.ID, pub.events[0].CategoryID)
	assert.Equal(t, amqp.EventTransactionCreated, pub.events[1].Type)
	assert.Equal(t, tx.ID, pub.events[1].TransactionID)
	assert.Equal(t, amqp.EventTransactionDeleted, pub.events[2].Type)
	assert.Equal(t, 3, changes)
}

func TestLedgerService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("circuit breaker is open")}
	svc, store := newTestService(t, pub)

	c, err := svc.CreateCategory(ctx, "Salary", core.KindIncome)
	require.NoError(t, err)
	_, err = svc.CreateTransaction(ctx, core.Money{Cents: 500}, "", core.KindIncome, c.ID, time.Time{})
	require.NoError(t, err)

	txs, err := store.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestLedgerService_FailedWriteSkipsEventAndHook(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc, _ := newTestService(t, pub)
	changes := 0
	svc.OnChange(func() { changes++ })

	_, err := svc.CreateTransaction(ctx, core.Money{Cents: 500}, "", core.KindIncome, 99, time.Time{})
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = svc.DeleteTransaction(ctx, 42)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.CreateCategory(ctx, "", core.KindIncome)
	assert.ErrorIs(t, err, core.ErrInvalidName)

	assert.Empty(t, pub.events)
	assert.Zero(t, changes)
}

func TestLedgerService_NilPublisher(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.CreateCategory(context.Background(), "Food", core.KindExpense)
	assert.NoError(t, err)
}

func TestLedgerService_Close(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestService(t, pub)
	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)

	empty := &LedgerService{}
	assert.NoError(t, empty.Close())
}
