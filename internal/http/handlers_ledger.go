package http

import (
	"fmt"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// handleDashboard renders totals, the current month and recent transactions.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now().UTC()
	key := "summary:" + now.Format("2006-01")

	summary, ok := s.summaryCache.Get(key)
	if !ok {
		gen := s.summaryCache.Generation()
		var err error
		if summary, err = s.reporter.Summary(ctx, now); err != nil {
			s.fail(w, r, applog.OpAggregate, err)
			return
		}
		s.summaryCache.SetAt(gen, key, summary)
	} else {
		applog.FromContext(ctx).DebugContext(ctx, "Summary cache hit", "key", key)
	}

	s.render(w, r, http.StatusOK, "dashboard", page{Title: "Dashboard", Data: summary})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	s.render(w, r, http.StatusOK, "transactions", page{Title: "Transactions", Data: txs})
}

type transactionFormPage struct {
	Form       transactionForm
	Categories []core.Category
}

func (s *Server) handleNewTransaction(w http.ResponseWriter, r *http.Request) {
	form := transactionForm{Kind: core.KindExpense, Date: s.now().UTC().Format("2006-01-02")}
	s.renderTransactionForm(w, r, http.StatusOK, form, "")
}

func (s *Server) renderTransactionForm(w http.ResponseWriter, r *http.Request, status int, form transactionForm, errMsg string) {
	cats, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	s.render(w, r, status, "add_transaction", page{
		Title: "Add Transaction",
		Error: errMsg,
		Data:  transactionFormPage{Form: form, Categories: cats},
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	form := readTransactionForm(r)
	in, err := form.parse()
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Transaction form rejected",
			applog.FieldOperation, applog.OpValidate,
			applog.FieldError, err)
		s.renderTransactionForm(w, r, statusFor(err), form, userMessage(err))
		return
	}

	t, err := s.ledger.CreateTransaction(r.Context(), in.Amount, in.Description, in.Kind, in.CategoryID, in.Date)
	if err != nil {
		if status := statusFor(err); status < http.StatusInternalServerError {
			s.renderTransactionForm(w, r, status, form, userMessage(err))
			return
		}
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	s.metrics.transactionsCreated.Add(1)

	setFlash(w, "success", fmt.Sprintf("Transaction added successfully! (%s %s)", t.Kind.Label(), t.Amount.Format()))
	redirect(w, r, "/")
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		s.fail(w, r, applog.OpDelete, err)
		return
	}
	s.metrics.transactionsDeleted.Add(1)

	setFlash(w, "success", "Transaction deleted successfully!")
	redirect(w, r, "/transactions")
}

// handleLegacyDeleteLink answers old GET delete links without deleting
// anything. Deletes only happen on POST.
func (s *Server) handleLegacyDeleteLink(w http.ResponseWriter, r *http.Request) {
	setFlash(w, "info", "Use the Delete button to remove a transaction.")
	redirect(w, r, "/transactions")
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now().UTC()
	key := "reports:" + now.Format("2006-01-02")

	data, ok := s.reportCache.Get(key)
	if !ok {
		gen := s.reportCache.Generation()
		trend, err := s.reporter.Trend(ctx, now)
		if err != nil {
			s.fail(w, r, applog.OpAggregate, err)
			return
		}
		cats, err := s.reporter.CategoryReport(ctx)
		if err != nil {
			s.fail(w, r, applog.OpAggregate, err)
			return
		}
		balance, err := s.reporter.Balance(ctx)
		if err != nil {
			s.fail(w, r, applog.OpAggregate, err)
			return
		}
		data = reportPage{Trend: trend, Categories: cats, Balance: balance}
		s.reportCache.SetAt(gen, key, data)
	}

	s.render(w, r, http.StatusOK, "reports", page{Title: "Reports", Data: data})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.renderCategories(w, r, http.StatusOK, "")
}

func (s *Server) renderCategories(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	cats, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpList, err)
		return
	}
	s.render(w, r, status, "categories", page{Title: "Categories", Error: errMsg, Data: cats})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	kind, err := core.ParseKind(sanitizeInput(r.PostForm.Get("type")))
	if err == nil {
		var c core.Category
		c, err = s.ledger.CreateCategory(r.Context(), sanitizeInput(r.PostForm.Get("name")), kind)
		if err == nil {
			s.metrics.categoriesCreated.Add(1)
			setFlash(w, "success", fmt.Sprintf("Category %q added successfully!", c.Name))
			redirect(w, r, "/categories")
			return
		}
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.fail(w, r, applog.OpCreate, err)
		return
	}
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Category rejected",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldError, err)
	s.renderCategories(w, r, status, userMessage(err))
}
