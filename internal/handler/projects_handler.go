package handler

import (
	"net/http"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Projects
// ============================================================

func listProjectsHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects")
		defer span.End()

		projects, err := svc.List(ctx, parseProjectFilters(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, projects)
	}
}

func getProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projects/{projectId}")
		defer span.End()

		project, err := svc.Get(ctx, chi.URLParam(r, "projectId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, project)
	}
}

func createProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/projects")
		defer span.End()

		var req domain.ProjectRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		project, err := svc.Create(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, project)
	}
}

func updateProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/projects/{projectId}")
		defer span.End()

		var patch domain.ProjectPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		project, err := svc.Update(ctx, chi.URLParam(r, "projectId"), &patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, project)
	}
}

func deleteProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/projects/{projectId}")
		defer span.End()

		id := chi.URLParam(r, "projectId")
		if err := svc.Delete(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "project deleted", ID: id})
	}
}

// ============================================================
// Merchandise
// ============================================================

func listMerchandiseHandler(svc *service.MerchandiseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/merchandise")
		defer span.End()

		items, err := svc.List(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func createMerchandiseHandler(svc *service.MerchandiseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/merchandise")
		defer span.End()

		var req domain.Merchandise
		if !decodeJSON(w, r, &req) {
			return
		}
		item, err := svc.Create(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func stockCardHandler(svc *service.MerchandiseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/merchandise/{id}/stock-card")
		defer span.End()

		card, err := svc.StockCard(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func addMovementHandler(svc *service.MerchandiseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/merchandise/{id}/movements")
		defer span.End()

		var req domain.MovementRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		m, err := svc.AddMovement(ctx, chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}
