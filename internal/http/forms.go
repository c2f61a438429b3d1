package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// transactionForm holds the raw values of the add transaction form so they
// can be shown again after a validation error.
type transactionForm struct {
	Kind        core.Kind
	Amount      string
	CategoryID  int64
	Description string
	Date        string
}

// parsedTransaction is a form that passed validation.
type parsedTransaction struct {
	Amount      core.Money
	Description string
	Kind        core.Kind
	CategoryID  int64
	Date        time.Time
}

func readTransactionForm(r *http.Request) transactionForm {
	f := transactionForm{
		Kind:        core.Kind(strings.ToLower(sanitizeInput(r.PostForm.Get("type")))),
		Amount:      sanitizeInput(r.PostForm.Get("amount")),
		Description: sanitizeInput(r.PostForm.Get("description")),
		Date:        sanitizeInput(r.PostForm.Get("date")),
	}
	if f.Kind == "" {
		f.Kind = core.Kind(strings.ToLower(sanitizeInput(r.PostForm.Get("kind"))))
	}
	f.CategoryID, _ = strconv.ParseInt(sanitizeInput(r.PostForm.Get("category")), 10, 64)
	return f
}

// parse validates the form. An empty date means now.
func (f transactionForm) parse() (parsedTransaction, error) {
	kind, err := core.ParseKind(string(f.Kind))
	if err != nil {
		return parsedTransaction{}, err
	}
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return parsedTransaction{}, err
	}
	if f.CategoryID <= 0 {
		return parsedTransaction{}, fmt.Errorf("%w: category is required", core.ErrInvalidCategory)
	}

	var date time.Time
	if f.Date != "" {
		if date, err = core.ParseDate(f.Date); err != nil {
			return parsedTransaction{}, err
		}
	}

	t, err := core.NewTransaction(amount, f.Description, kind, f.CategoryID, date)
	if err != nil {
		return parsedTransaction{}, err
	}
	return parsedTransaction{
		Amount:      t.Amount,
		Description: t.Description,
		Kind:        t.Kind,
		CategoryID:  t.CategoryID,
		Date:        t.Date,
	}, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	return id, nil
}
