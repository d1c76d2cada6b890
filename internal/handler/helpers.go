package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

const maxBodyBytes = 4 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a bounded request body into v. It writes the 400
// response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// parseViewState builds the ledger view state from query parameters:
// search, status, category, projectid, dateFrom, dateTo, minAmount,
// maxAmount, sortBy, desc, page and pageSize.
func parseViewState(r *http.Request) ledger.ViewState {
	q := r.URL.Query()
	actions := []ledger.Action{
		ledger.SetFilters{Filters: parseTransactionFilters(r)},
		ledger.SetSort{Field: ledger.ParseSortField(q.Get("sortBy")), Desc: parseBool(q.Get("desc"))},
	}
	if v, err := strconv.Atoi(q.Get("pageSize")); err == nil {
		actions = append(actions, ledger.SetPageSize{Size: v})
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		actions = append(actions, ledger.SetPage{Page: v})
	}
	return ledger.Reduce(ledger.DefaultViewState(), actions...)
}

func parseTransactionFilters(r *http.Request) ledger.TransactionFilters {
	q := r.URL.Query()
	return ledger.TransactionFilters{
		Search:    q.Get("search"),
		Status:    q.Get("status"),
		Category:  q.Get("category"),
		ProjectID: q.Get("projectid"),
		DateFrom:  q.Get("dateFrom"),
		DateTo:    q.Get("dateTo"),
		MinAmount: parseFloat(q.Get("minAmount")),
		MaxAmount: parseFloat(q.Get("maxAmount")),
	}
}

func parseProjectFilters(r *http.Request) ledger.ProjectFilters {
	q := r.URL.Query()
	return ledger.ProjectFilters{
		Search:      q.Get("search"),
		Status:      q.Get("status"),
		BODCategory: q.Get("bodCategory"),
		Year:        q.Get("year"),
		MinBudget:   parseFloat(q.Get("minBudget")),
		MaxBudget:   parseFloat(q.Get("maxBudget")),
	}
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseBool(s string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(s))
	return v
}

// writeBatch answers 200 when every item was applied and 207 otherwise.
func writeBatch(w http.ResponseWriter, res *domain.BatchResult) {
	status := http.StatusOK
	if len(res.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, res)
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var external *domain.ErrExternalService
	var validation *domain.ErrValidation
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &external):
		logger.Error("document store error", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, "document store unavailable")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
