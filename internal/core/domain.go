package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	MaxCategoryNameLength = 50
	MaxDescriptionLength  = 200
)

type (
	// Kind classifies both categories and transactions.
	Kind string

	Category struct {
		ID   int64
		Name string
		Kind Kind
	}

	Transaction struct {
		ID          int64
		Amount      Money
		Description string
		Date        time.Time
		Kind        Kind
		CategoryID  int64
		// CategoryName is filled in on reads; it is ignored on writes.
		CategoryName string
	}
)

var (
	ErrInvalidKind        = errors.New("invalid kind: must be income or expense")
	ErrInvalidName        = errors.New("invalid category name")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidCategory    = errors.New("invalid category reference")
	ErrInvalidDate        = errors.New("invalid date: expected YYYY-MM-DD")
)

// Kinds returns every kind in display order.
func Kinds() []Kind {
	return []Kind{KindIncome, KindExpense}
}

// ParseKind validates a caller supplied kind string.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	switch k {
	case KindIncome, KindExpense:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}

// Label returns the capitalised form used in tables.
func (k Kind) Label() string {
	switch k {
	case KindIncome:
		return "Income"
	case KindExpense:
		return "Expense"
	default:
		return string(k)
	}
}

// NewCategory trims and validates a category before it is stored.
func NewCategory(name string, kind Kind) (Category, error) {
	c := Category{Name: strings.TrimSpace(name), Kind: kind}
	if err := c.Validate(); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (c Category) Validate() error {
	n := utf8.RuneCountInString(strings.TrimSpace(c.Name))
	if n == 0 {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if n > MaxCategoryNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidName, MaxCategoryNameLength)
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

// NewTransaction builds a transaction ready to be stored. A zero date means now.
func NewTransaction(amount Money, description string, kind Kind, categoryID int64, date time.Time) (Transaction, error) {
	if date.IsZero() {
		date = time.Now()
	}
	t := Transaction{
		Amount:      amount,
		Description: strings.TrimSpace(description),
		Date:        date.UTC(),
		Kind:        kind,
		CategoryID:  categoryID,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (t Transaction) Validate() error {
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Signed returns the amount with expenses negated, for display.
func (t Transaction) Signed() Money {
	if t.Kind == KindExpense {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}

// ParseDate parses the YYYY-MM-DD form used by the entry forms.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}
