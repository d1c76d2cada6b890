package service

import (
	"context"
	"strings"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/observability"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var projectTracer = otel.Tracer("service/projects")

// ProjectService manages budget projects. Spent and remaining amounts are
// derived from the bank transactions on every read.
type ProjectService struct {
	projects port.ProjectStore
	ledger   port.LedgerStore
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewProjectService creates a new project service.
func NewProjectService(projects port.ProjectStore, ledgerStore port.LedgerStore, metrics *observability.Metrics, logger *zap.Logger) *ProjectService {
	return &ProjectService{projects: projects, ledger: ledgerStore, metrics: metrics, logger: logger}
}

// List returns the projects matching f with their spending figures.
func (s *ProjectService) List(ctx context.Context, f ledger.ProjectFilters) ([]domain.ProjectSpending, error) {
	ctx, span := projectTracer.Start(ctx, "ProjectService.List")
	defer span.End()

	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionProjects, err)
	}
	txs, err := s.ledger.ListAllTransactions(ctx)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionTransactions, err)
	}

	// Spending is assigned against the full project list so a filter never
	// moves a transaction to a different project.
	spendings := ledger.ProjectSpendings(projects, txs)
	keep := make(map[string]bool)
	for _, p := range ledger.FilterProjects(projects, f) {
		keep[p.ID] = true
	}
	out := make([]domain.ProjectSpending, 0, len(keep))
	for _, sp := range spendings {
		if keep[sp.ID] {
			out = append(out, sp)
		}
	}
	span.SetAttributes(attribute.Int("projects.count", len(out)))
	return out, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*domain.ProjectSpending, error) {
	ctx, span := projectTracer.Start(ctx, "ProjectService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", id))

	all, err := s.List(ctx, ledger.ProjectFilters{})
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "project", ID: id}
}

func (s *ProjectService) Create(ctx context.Context, req *domain.ProjectRequest) (*domain.Project, error) {
	ctx, span := projectTracer.Start(ctx, "ProjectService.Create")
	defer span.End()

	p, err := newProject(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("project.code", p.ProjectID))

	existing, err := s.projects.ListProjects(ctx)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionProjects, err)
	}
	for _, e := range existing {
		if strings.EqualFold(e.ProjectID, p.ProjectID) {
			return nil, &domain.ErrConflict{Message: "project code already exists: " + p.ProjectID}
		}
	}

	if err := s.projects.CreateProject(ctx, p); err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionProjects, err)
	}
	s.logger.Info("project created", zap.String("project_id", p.ID), zap.String("code", p.ProjectID))
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, id string, patch *domain.ProjectPatch) (*domain.ProjectSpending, error) {
	ctx, span := projectTracer.Start(ctx, "ProjectService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", id))

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if patch.Budget != nil && *patch.Budget < 0 {
		return nil, &domain.ErrValidation{Field: "budget", Message: "must not be negative"}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "must be Active, Completed or On Hold"}
	}
	if patch.EventDate != nil && *patch.EventDate != "" {
		if _, ok := domain.TxDate(*patch.EventDate).Time(); !ok {
			return nil, &domain.ErrValidation{Field: "eventDate", Message: "invalid date"}
		}
	}
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}

	if err := s.projects.UpdateProject(ctx, id, fields); err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionProjects, err)
	}
	return s.Get(ctx, id)
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	ctx, span := projectTracer.Start(ctx, "ProjectService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", id))

	if err := s.projects.DeleteProject(ctx, id); err != nil {
		return observeStoreError(s.metrics, port.CollectionProjects, err)
	}
	s.logger.Info("project deleted", zap.String("project_id", id))
	return nil
}

// newProject validates a create request. Without an explicit code the
// project code is built as year_BODcategory_name.
func newProject(req *domain.ProjectRequest) (*domain.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	bod, ok := domain.ParseBODCategory(string(req.BODCategory))
	if !ok {
		return nil, &domain.ErrValidation{Field: "bodCategory", Message: "unknown BOD category"}
	}
	if req.Budget < 0 {
		return nil, &domain.ErrValidation{Field: "budget", Message: "must not be negative"}
	}
	status := req.Status
	if status == "" {
		status = domain.ProjectActive
	}
	if !status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "must be Active, Completed or On Hold"}
	}

	var eventDate domain.TxDate
	if req.EventDate != "" {
		d := domain.TxDate(req.EventDate)
		if _, ok := d.Time(); !ok {
			return nil, &domain.ErrValidation{Field: "eventDate", Message: "invalid date"}
		}
		eventDate = domain.TxDate(d.Day())
	}

	code := strings.TrimSpace(req.ProjectID)
	if code == "" {
		year := req.Year
		if year == 0 {
			if t, ok := eventDate.Time(); ok {
				year = t.Year()
			}
		}
		if year == 0 {
			return nil, &domain.ErrValidation{Field: "year", Message: "required when projectid is empty"}
		}
		code = domain.ProjectCode{Year: year, BODCategory: bod, Name: name}.String()
	}
	if _, err := domain.ParseProjectCode(code); err != nil {
		return nil, err
	}

	return &domain.Project{
		ProjectID:   code,
		Name:        name,
		BODCategory: bod,
		Budget:      req.Budget,
		Status:      status,
		EventDate:   eventDate,
		Description: req.Description,
	}, nil
}
