package storage

import (
	"context"
	"log/slog"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// TotalByKind sums every transaction of kind. It is zero when there are none.
func (s *Store) TotalByKind(ctx context.Context, kind core.Kind) (core.Money, error) {
	var cents int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM "transaction" WHERE kind = ?`, string(kind)).Scan(&cents)
	if err != nil {
		return core.Money{}, core.NewStorageError("total by kind", err)
	}
	return core.Money{Cents: cents}, nil
}

// TotalByKindBetween sums transactions of kind dated in [from, to).
func (s *Store) TotalByKindBetween(ctx context.Context, kind core.Kind, from, to time.Time) (core.Money, error) {
	var cents int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM "transaction" WHERE kind = ? AND date >= ? AND date < ?`,
		string(kind), formatDate(from), formatDate(to)).Scan(&cents)
	if err != nil {
		return core.Money{}, core.NewStorageError("total by kind between", err)
	}
	return core.Money{Cents: cents}, nil
}

// TotalByKindAndMonth sums transactions of kind dated in the given UTC
// calendar month.
func (s *Store) TotalByKindAndMonth(ctx context.Context, kind core.Kind, year int, month time.Month) (core.Money, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	total, err := s.TotalByKindBetween(ctx, kind, from, from.AddDate(0, 1, 0))
	if err != nil {
		return core.Money{}, err
	}

	slog.DebugContext(ctx, "Monthly total computed",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpAggregate,
		applog.FieldKind, string(kind),
		applog.FieldYear, year,
		applog.FieldMonth, int(month),
		applog.FieldAmountCents, total.Cents)
	return total, nil
}

// BreakdownByCategory sums transactions of kind per category name. Categories
// without matching transactions are left out. Rows are ordered by amount,
// largest first, then by name.
func (s *Store) BreakdownByCategory(ctx context.Context, kind core.Kind) ([]core.CategoryAmount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, SUM(t.amount_cents) AS total
		FROM "transaction" t
		JOIN category c ON c.id = t.category_id
		WHERE t.kind = ?
		GROUP BY c.name
		ORDER BY total DESC, c.name ASC`, string(kind))
	if err != nil {
		return nil, core.NewStorageError("breakdown by category", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return nil, core.NewStorageError("scan breakdown", err)
		}
		out = append(out, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("breakdown by category", err)
	}
	return out, nil
}
