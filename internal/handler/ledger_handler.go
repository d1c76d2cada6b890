package handler

import (
	"net/http"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Accounts
// ============================================================

func listAccountsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts")
		defer span.End()

		accounts, err := svc.ListAccounts(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

func getAccountHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}")
		defer span.End()

		account, err := svc.GetAccount(ctx, chi.URLParam(r, "accountId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func createAccountHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts")
		defer span.End()

		var req domain.BankAccountRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		account, err := svc.CreateAccount(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	}
}

func updateAccountHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/accounts/{accountId}")
		defer span.End()

		var patch domain.BankAccountPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		account, err := svc.UpdateAccount(ctx, chi.URLParam(r, "accountId"), &patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

// ============================================================
// Transactions
// ============================================================

func transactionViewHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}/transactions")
		defer span.End()

		state := parseViewState(r)
		span.SetAttributes(
			attribute.Int("view.page", state.Page),
			attribute.String("view.sort", string(state.SortBy)),
		)

		view, err := svc.TransactionView(ctx, chi.URLParam(r, "accountId"), state)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func createTransactionHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/{accountId}/transactions")
		defer span.End()

		var req domain.TransactionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		tx, err := svc.CreateTransaction(ctx, chi.URLParam(r, "accountId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func updateTransactionHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/transactions/{id}")
		defer span.End()

		var patch domain.TransactionPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		tx, err := svc.UpdateTransaction(ctx, chi.URLParam(r, "id"), &patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func deleteTransactionHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteTransaction(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "transaction deleted", ID: id})
	}
}

// ============================================================
// Batch operations
// ============================================================

func batchUpdateHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/batch-update")
		defer span.End()

		var req domain.BatchUpdateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.BatchUpdate(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("batch update",
			zap.String("editor", EditorFromContext(ctx)),
			zap.Int("count", len(req.IDs)),
		)
		writeBatch(w, res)
	}
}

func batchDeleteHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/batch-delete")
		defer span.End()

		var req domain.BatchDeleteRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.BatchDelete(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("batch delete",
			zap.String("editor", EditorFromContext(ctx)),
			zap.Int("count", len(req.IDs)),
		)
		writeBatch(w, res)
	}
}

func reorderHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/{accountId}/transactions/reorder")
		defer span.End()

		var req domain.ReorderRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Reorder(ctx, chi.URLParam(r, "accountId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeBatch(w, res)
	}
}

// ============================================================
// Paste import
// ============================================================

func importPreviewHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/{accountId}/import/preview")
		defer span.End()

		var req domain.ImportRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		preview, err := svc.Preview(ctx, chi.URLParam(r, "accountId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, preview)
	}
}

func importCommitHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/{accountId}/import/commit")
		defer span.End()

		var req domain.ImportRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := svc.Commit(ctx, chi.URLParam(r, "accountId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		status := http.StatusOK
		if len(res.Result.Failed) > 0 {
			status = http.StatusMultiStatus
		}
		writeJSON(w, status, res)
	}
}
