package storage

import (
	"context"
	"database/sql"
	"log/slog"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// DefaultCategories is the starter set installed into an empty ledger.
var DefaultCategories = []core.Category{
	{Name: "Salary", Kind: core.KindIncome},
	{Name: "Freelance", Kind: core.KindIncome},
	{Name: "Investment", Kind: core.KindIncome},
	{Name: "Food", Kind: core.KindExpense},
	{Name: "Transport", Kind: core.KindExpense},
	{Name: "Entertainment", Kind: core.KindExpense},
	{Name: "Utilities", Kind: core.KindExpense},
	{Name: "Healthcare", Kind: core.KindExpense},
	{Name: "Shopping", Kind: core.KindExpense},
	{Name: "Other", Kind: core.KindExpense},
}

// SeedDefaultCategories inserts DefaultCategories when the category table is
// empty and returns how many rows were written.
func (s *Store) SeedDefaultCategories(ctx context.Context) (int, error) {
	inserted := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM category`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, c := range DefaultCategories {
			if _, err := tx.ExecContext(ctx, `INSERT INTO category (name, kind) VALUES (?, ?)`, c.Name, string(c.Kind)); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, core.NewStorageError("seed categories", err)
	}

	if inserted > 0 {
		slog.InfoContext(ctx, "Default categories seeded",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldOperation, applog.OpSeed,
			applog.FieldCount, inserted)
	}
	return inserted, nil
}
