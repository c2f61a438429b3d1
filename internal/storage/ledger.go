package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const transactionColumns = `t.id, t.amount_cents, t.description, t.date, t.kind, t.category_id, c.name`

const transactionFrom = `FROM "transaction" t JOIN category c ON c.id = t.category_id`

// AddCategory stores a new category. The name must be unique.
func (s *Store) AddCategory(ctx context.Context, name string, kind core.Kind) (core.Category, error) {
	c, err := core.NewCategory(name, kind)
	if err != nil {
		return core.Category{}, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM category WHERE name = ?`, c.Name).Scan(&exists)
		if err == nil {
			return &core.DuplicateNameError{Name: c.Name}
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO category (name, kind) VALUES (?, ?)`, c.Name, string(c.Kind))
		if err != nil {
			if isUniqueViolation(err) {
				return &core.DuplicateNameError{Name: c.Name}
			}
			return err
		}
		c.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		if !errors.Is(err, core.ErrDuplicateName) {
			slog.ErrorContext(ctx, "Failed to add category",
				applog.NewFields().WithCategory(0, c.Name, string(c.Kind)).WithError(err).WithComponent(applog.ComponentStorage).ToSlice()...)
		}
		return core.Category{}, core.NewStorageError("add category", err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite",
		applog.NewFields().WithCategory(c.ID, c.Name, string(c.Kind)).WithComponent(applog.ComponentStorage).ToSlice()...)
	return c, nil
}

// ListCategories returns every category in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, kind FROM category ORDER BY id`)
	if err != nil {
		return nil, core.NewStorageError("list categories", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var kind string
		if err := rows.Scan(&c.ID, &c.Name, &kind); err != nil {
			return nil, core.NewStorageError("scan category", err)
		}
		c.Kind = core.Kind(kind)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("list categories", err)
	}
	return out, nil
}

// ListCategoriesByKind returns the categories of one kind in insertion order.
func (s *Store) ListCategoriesByKind(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	all, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Category, 0, len(all))
	for _, c := range all {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var kind string
	err := s.db.QueryRowContext(ctx, `SELECT id, name, kind FROM category WHERE id = ?`, id).Scan(&c.ID, &c.Name, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, &core.NotFoundError{Entity: "category", ID: id}
	}
	if err != nil {
		return core.Category{}, core.NewStorageError("get category", err)
	}
	c.Kind = core.Kind(kind)
	return c, nil
}

func (s *Store) CountCategories(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM category`).Scan(&n); err != nil {
		return 0, core.NewStorageError("count categories", err)
	}
	return n, nil
}

// AddTransaction records a transaction against an existing category. A zero
// date means now. The transaction kind is not required to match the
// category kind.
func (s *Store) AddTransaction(ctx context.Context, amount core.Money, description string, kind core.Kind, categoryID int64, date time.Time) (core.Transaction, error) {
	t, err := core.NewTransaction(amount, description, kind, categoryID, date)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = t.Date.Truncate(time.Second)

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT name FROM category WHERE id = ?`, categoryID).Scan(&t.CategoryName)
		if errors.Is(err, sql.ErrNoRows) {
			return &core.NotFoundError{Entity: "category", ID: categoryID}
		}
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO "transaction" (amount_cents, description, date, kind, category_id) VALUES (?, ?, ?, ?, ?)`,
			t.Amount.Cents, t.Description, formatDate(t.Date), string(t.Kind), t.CategoryID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return &core.NotFoundError{Entity: "category", ID: categoryID}
			}
			return err
		}
		t.ID, err = res.LastInsertId()
		return err
	})
	fields := applog.NewFields().
		WithTransaction(t.ID, string(t.Kind), t.Amount.Cents, t.CategoryID).
		WithComponent(applog.ComponentStorage)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.ErrorContext(ctx, "Failed to add transaction", fields.WithError(err).ToSlice()...)
		}
		return core.Transaction{}, core.NewStorageError("add transaction", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite", fields.ToSlice()...)
	return t, nil
}

// DeleteTransaction removes a transaction by id.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM "transaction" WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return &core.NotFoundError{Entity: "transaction", ID: id}
		}
		return nil
	})
	if err != nil {
		return core.NewStorageError("delete transaction", err)
	}

	slog.InfoContext(ctx, "Transaction deleted from SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldTransactionID, id)
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` `+transactionFrom+` WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	if err != nil {
		return core.Transaction{}, core.NewStorageError("get transaction", err)
	}
	return t, nil
}

// ListTransactions returns every transaction, most recent first. Ties on date
// are broken by id, newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.queryTransactions(ctx, "list transactions",
		`SELECT `+transactionColumns+` `+transactionFrom+` ORDER BY t.date DESC, t.id DESC`)
}

// RecentTransactions returns at most limit transactions, most recent first.
func (s *Store) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		return nil, nil
	}
	return s.queryTransactions(ctx, "recent transactions",
		`SELECT `+transactionColumns+` `+transactionFrom+` ORDER BY t.date DESC, t.id DESC LIMIT ?`, limit)
}

func (s *Store) queryTransactions(ctx context.Context, op, query string, args ...any) ([]core.Transaction, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, core.NewStorageError(op, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, core.NewStorageError(op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError(op, err)
	}

	slog.DebugContext(ctx, "Transactions read from SQLite",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, op,
		applog.FieldCount, len(out),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(sc scanner) (core.Transaction, error) {
	var (
		t    core.Transaction
		date string
		kind string
	)
	if err := sc.Scan(&t.ID, &t.Amount.Cents, &t.Description, &date, &kind, &t.CategoryID, &t.CategoryName); err != nil {
		return core.Transaction{}, err
	}
	d, err := parseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	t.Date = d
	t.Kind = core.Kind(kind)
	return t, nil
}
