package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wydatki/internal/core"
	"wydatki/internal/services"
)

// handleCategories serves the cached taxonomy. With refresh=1 the persisted
// snapshot is dropped first, forcing a fetch from the gateway.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.URL.Query().Get("refresh") == "1" {
		s.categories.Invalidate()
	}

	tax, err := s.categories.Get(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Taxonomy read failed", "error", err)
		writeError(w, statusForError(err), "failed to load categories")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"groups": tax})
}

// handleDayAmounts serves the snapshot of amounts for one (month, day).
func (s *Server) handleDayAmounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	month := strings.TrimSpace(r.URL.Query().Get("month"))
	if month == "" {
		month = core.CurrentMonth(time.Now())
	}

	day := time.Now().Day()
	if v := strings.TrimSpace(r.URL.Query().Get("day")); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid day")
			return
		}
		day = d
	}
	if day < 1 || day > 31 {
		writeError(w, http.StatusBadRequest, "invalid day")
		return
	}

	forceRefresh := r.URL.Query().Get("refresh") == "1"
	snap, err := s.dayAmounts.Get(r.Context(), month, day, forceRefresh)
	if err != nil {
		slog.ErrorContext(r.Context(), "Day amounts read failed",
			"error", err,
			"month", month,
			"day", day)
		writeError(w, statusForError(err), "failed to load day amounts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month":   month,
		"day":     day,
		"amounts": snap,
	})
}

// handleCreateExpense runs one add-expense submission.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request format")
		return
	}

	day := time.Now().Day()
	if v := strings.TrimSpace(r.Form.Get("day")); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid day")
			return
		}
		day = d
	}

	month := strings.TrimSpace(r.Form.Get("month"))
	if month == "" {
		month = core.CurrentMonth(time.Now())
	}

	req := services.SubmitRequest{
		Category: strings.TrimSpace(r.Form.Get("category")),
		Day:      day,
		RawPrice: r.Form.Get("price"),
		Month:    month,
	}

	result, err := s.expenses.Submit(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense submit failed",
			"error", err,
			"category", req.Category,
			"month", req.Month,
			"day", req.Day)
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRefresh drops every persisted snapshot, taxonomy and day amounts
// alike. The next reads repopulate from the gateway.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.categories.Invalidate()
	s.dayAmounts.InvalidateAll()
	slog.InfoContext(r.Context(), "Caches invalidated")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusForError maps domain errors to HTTP status codes. Unknown errors
// are treated as upstream gateway failures.
func statusForError(err error) int {
	var rejected *core.RejectedError
	switch {
	case errors.Is(err, core.ErrInvalidPrice),
		errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyMonth):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSubmitPending):
		return http.StatusConflict
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}
