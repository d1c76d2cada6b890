package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/boddenberg/org-finance-bfa-go/internal/export"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/observability"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var exportTracer = otel.Tracer("service/export")

// ExportService renders ledgers and project lists as CSV. When an archiver
// is configured every export is also copied there; an archive failure is
// logged and does not fail the export.
type ExportService struct {
	ledger   *LedgerService
	projects *ProjectService
	archiver port.Archiver
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService creates a new export service. archiver may be nil.
func NewExportService(ledgerSvc *LedgerService, projects *ProjectService, archiver port.Archiver, metrics *observability.Metrics, logger *zap.Logger) *ExportService {
	return &ExportService{
		ledger:   ledgerSvc,
		projects: projects,
		archiver: archiver,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Transactions writes the account's transactions matching f, in ledger
// order with running balances taken from the full ledger. It returns the
// download filename.
func (s *ExportService) Transactions(ctx context.Context, accountID string, f ledger.TransactionFilters, w io.Writer) (string, error) {
	ctx, span := exportTracer.Start(ctx, "ExportService.Transactions")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	if err := f.Validate(); err != nil {
		return "", err
	}
	acc, err := s.ledger.GetAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	txs, err := s.ledger.ListTransactions(ctx, accountID)
	if err != nil {
		return "", err
	}
	rows := ledger.RunningBalancesForView(txs, ledger.FilterTransactions(txs, f), acc.Balance)

	var buf bytes.Buffer
	if err := export.WriteTransactions(&buf, rows); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	name := export.TransactionsFilename(accountID, s.now())
	return name, s.deliver(ctx, name, &buf, w)
}

// Projects writes the projects matching f with their spending figures.
func (s *ExportService) Projects(ctx context.Context, f ledger.ProjectFilters, w io.Writer) (string, error) {
	ctx, span := exportTracer.Start(ctx, "ExportService.Projects")
	defer span.End()

	projects, err := s.projects.List(ctx, f)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := export.WriteProjects(&buf, projects); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	name := export.ProjectsFilename(s.now())
	return name, s.deliver(ctx, name, &buf, w)
}

func (s *ExportService) deliver(ctx context.Context, name string, buf *bytes.Buffer, w io.Writer) error {
	if s.archiver != nil {
		location, err := s.archiver.Archive(ctx, name, export.ContentType, bytes.NewReader(buf.Bytes()))
		if err != nil {
			s.logger.Warn("export archive failed", zap.String("file", name), zap.Error(err))
		} else {
			s.logger.Info("export archived", zap.String("file", name), zap.String("location", location))
		}
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}
