package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const flashCookie = "fintrack_flash"

// flash is a one-shot message shown on the next rendered page.
type flash struct {
	Kind    string // "success" or "error"
	Message string
}

// page is the data every template receives.
type page struct {
	Title string
	Flash *flash
	Error string
	Kinds []core.Kind
	Data  any
}

func setFlash(w http.ResponseWriter, kind, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + ":" + msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads the flash cookie and expires it.
func popFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(raw, ":")
	if !ok || msg == "" {
		return nil
	}
	if kind != "success" && kind != "error" {
		kind = "success"
	}
	return &flash{Kind: kind, Message: msg}
}

// statusFor maps a ledger error to the HTTP status reported to the client.
func statusFor(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateName):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// userMessage returns the text shown for err. Storage failures are not
// described to the client.
func userMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "Something went wrong, please try again."
	}
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	var dup *core.DuplicateNameError
	if errors.As(err, &dup) {
		return dup.Error()
	}
	for _, target := range []error{
		core.ErrInvalidKind, core.ErrInvalidName, core.ErrDescriptionTooLong,
		core.ErrInvalidCategory, core.ErrInvalidDate, core.ErrInvalidAmount,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

// render executes a page template. Output is buffered through the
// template engine; on failure a plain 500 is written.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	t, ok := s.pages[name]
	if !ok {
		s.logger.ErrorContext(r.Context(), "Unknown template", "template", name)
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if p.Flash == nil {
		p.Flash = popFlash(w, r)
	}
	p.Kinds = core.Kinds()

	var buf strings.Builder
	if err := t.ExecuteTemplate(&buf, "base", p); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			"template", name,
			applog.FieldOperation, applog.OpRender,
			applog.FieldError, err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// fail logs err and renders the error page with the mapped status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op,
			applog.NewFields().WithHTTPResponse(status, 0, false))
	} else {
		logger.WarnContext(r.Context(), "Request rejected",
			applog.FieldOperation, op, applog.FieldError, err, applog.FieldStatusCode, status)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(userMessage(err)))
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// sanitizeInput removes control characters except tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
