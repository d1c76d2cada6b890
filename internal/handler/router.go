package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/observability"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"
	"github.com/boddenberg/org-finance-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("handler")

// Services are the use cases served by the router.
type Services struct {
	Ledger      *service.LedgerService
	Import      *service.ImportService
	Projects    *service.ProjectService
	Merchandise *service.MerchandiseService
	Dashboard   *service.DashboardService
	Export      *service.ExportService
	Auth        *service.AuthService
}

// Options tune the router's access control.
type Options struct {
	// AuthEnabled requires an editor token on every mutating route.
	AuthEnabled    bool
	AllowedOrigins []string
	ImportRate     rate.Limit
	ImportBurst    int
}

// NewRouter creates the HTTP router with all routes and middleware.
// store is pinged by /healthz and may be nil.
func NewRouter(svc Services, store port.DocumentStore, opts Options, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(observability.MetricsMiddleware(metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	importLimit := opts.ImportRate
	if importLimit <= 0 {
		importLimit = rate.Inf
	}
	limitImports := RateLimit(rate.NewLimiter(importLimit, max(opts.ImportBurst, 1)), logger)

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Auth
		// POST /v1/auth/login
		// =============================================
		r.Post("/auth/login", loginHandler(svc.Auth, logger))

		// =============================================
		// Reads (always open)
		// =============================================
		r.Get("/accounts", listAccountsHandler(svc.Ledger, logger))
		r.Get("/accounts/{accountId}", getAccountHandler(svc.Ledger, logger))
		r.Get("/accounts/{accountId}/transactions", transactionViewHandler(svc.Ledger, logger))
		r.Get("/accounts/{accountId}/export.csv", exportTransactionsHandler(svc.Export, logger))
		r.With(limitImports).Post("/accounts/{accountId}/import/preview", importPreviewHandler(svc.Import, logger))

		r.Get("/projects", listProjectsHandler(svc.Projects, logger))
		r.Get("/projects/export.csv", exportProjectsHandler(svc.Export, logger))
		r.Get("/projects/{projectId}", getProjectHandler(svc.Projects, logger))

		r.Get("/merchandise", listMerchandiseHandler(svc.Merchandise, logger))
		r.Get("/merchandise/{id}/stock-card", stockCardHandler(svc.Merchandise, logger))

		r.Get("/dashboard", dashboardHandler(svc.Dashboard, logger))
		r.Get("/metrics/imports", importMetricsHandler(metrics))

		// =============================================
		// Writes (editor only when auth is enabled)
		// =============================================
		r.Group(func(r chi.Router) {
			if opts.AuthEnabled {
				r.Use(RequireEditor(svc.Auth, logger))
			}

			r.Post("/accounts", createAccountHandler(svc.Ledger, logger))
			r.Patch("/accounts/{accountId}", updateAccountHandler(svc.Ledger, logger))

			r.Post("/accounts/{accountId}/transactions", createTransactionHandler(svc.Ledger, logger))
			r.Post("/accounts/{accountId}/transactions/reorder", reorderHandler(svc.Ledger, logger))
			r.Patch("/transactions/{id}", updateTransactionHandler(svc.Ledger, logger))
			r.Delete("/transactions/{id}", deleteTransactionHandler(svc.Ledger, logger))
			r.Post("/transactions/batch-update", batchUpdateHandler(svc.Ledger, logger))
			r.Post("/transactions/batch-delete", batchDeleteHandler(svc.Ledger, logger))

			r.With(limitImports).Post("/accounts/{accountId}/import/commit", importCommitHandler(svc.Import, logger))

			r.Post("/projects", createProjectHandler(svc.Projects, logger))
			r.Patch("/projects/{projectId}", updateProjectHandler(svc.Projects, logger))
			r.Delete("/projects/{projectId}", deleteProjectHandler(svc.Projects, logger))

			r.Post("/merchandise", createMerchandiseHandler(svc.Merchandise, logger))
			r.Post("/merchandise/{id}/movements", addMovementHandler(svc.Merchandise, logger))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(store port.DocumentStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "ledger-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			start := time.Now()
			err := store.Ping(ctx)
			cancel()
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("health: document store ping failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "document-store", Status: status,
				LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func importMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetImportSnapshot())
	}
}
