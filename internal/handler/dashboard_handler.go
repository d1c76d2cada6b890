package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/export"
	"github.com/boddenberg/org-finance-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Dashboard
// ============================================================

func dashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		d, err := svc.Get(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// ============================================================
// CSV export
// ============================================================

func exportTransactionsHandler(svc *service.ExportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}/export.csv")
		defer span.End()

		var buf bytes.Buffer
		name, err := svc.Transactions(ctx, chi.URLParam(r, "accountId"), parseTransactionFilters(r), &buf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeCSV(w, name, &buf)
	}
}

func exportProjectsHandler(svc *service.ExportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/export.csv")
		defer span.End()

		var buf bytes.Buffer
		name, err := svc.Projects(ctx, parseProjectFilters(r), &buf)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeCSV(w, name, &buf)
	}
}

func writeCSV(w http.ResponseWriter, name string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// ============================================================
// Auth
// ============================================================

func loginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := authSvc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
