package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/importer"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/observability"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var importTracer = otel.Tracer("service/import")

// ImportService runs paste imports against an account's ledger.
type ImportService struct {
	store   port.LedgerStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewImportService creates a new import service.
func NewImportService(store port.LedgerStore, metrics *observability.Metrics, logger *zap.Logger) *ImportService {
	return &ImportService{store: store, metrics: metrics, logger: logger}
}

// ImportPreview is the dry-run outcome of a paste import.
type ImportPreview struct {
	Records []importer.ParsedRecord `json:"records"`
	Valid   int                     `json:"valid"`
	Invalid int                     `json:"invalid"`
	Updates int                     `json:"updates"`
}

// ImportCommit is the outcome of writing a paste import. Skipped holds the
// invalid records, which are never written.
type ImportCommit struct {
	ImportPreview
	Result  *domain.BatchResult     `json:"result"`
	Skipped []importer.ParsedRecord `json:"skipped"`
}

// Preview parses the pasted text without writing anything.
func (s *ImportService) Preview(ctx context.Context, accountID string, req *domain.ImportRequest) (*ImportPreview, error) {
	ctx, span := importTracer.Start(ctx, "ImportService.Preview")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	preview, err := s.parse(ctx, accountID, req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("import.valid", preview.Valid),
		attribute.Int("import.invalid", preview.Invalid),
	)
	return preview, nil
}

// Commit parses the pasted text and writes the valid records one at a time:
// new records are created, update records overwrite the matched transaction.
// Nothing is rolled back when a write fails.
func (s *ImportService) Commit(ctx context.Context, accountID string, req *domain.ImportRequest) (*ImportCommit, error) {
	ctx, span := importTracer.Start(ctx, "ImportService.Commit")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	preview, err := s.parse(ctx, accountID, req)
	if err != nil {
		return nil, err
	}

	out := &ImportCommit{
		ImportPreview: *preview,
		Result:        domain.NewBatchResult("import", preview.Valid),
		Skipped:       []importer.ParsedRecord{},
	}
	for _, rec := range preview.Records {
		if !rec.IsValid {
			out.Skipped = append(out.Skipped, rec)
			continue
		}
		tx := rec.Transaction(accountID)
		if rec.IsUpdate {
			err := s.store.UpdateTransaction(ctx, rec.ExistingID, replacementFields(tx))
			out.Result.Record(rec.ExistingID, observeStoreError(s.metrics, port.CollectionTransactions, err))
			continue
		}
		tx.ID = ""
		if err := s.store.CreateTransaction(ctx, &tx); err != nil {
			out.Result.Record(fmt.Sprintf("line %d", rec.Line), observeStoreError(s.metrics, port.CollectionTransactions, err))
			continue
		}
		out.Result.Record(tx.ID, nil)
	}

	s.metrics.RecordImport(preview.Valid, preview.Invalid, preview.Updates)
	s.metrics.RecordBatch(out.Result)

	s.logger.Info("import committed",
		zap.String("account_id", accountID),
		zap.Int("count", len(out.Result.Succeeded)),
		zap.Int("failed", len(out.Result.Failed)),
		zap.Int("skipped", len(out.Skipped)),
	)
	return out, nil
}

func (s *ImportService) parse(ctx context.Context, accountID string, req *domain.ImportRequest) (*ImportPreview, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &domain.ErrValidation{Field: "text", Message: "required"}
	}
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionAccounts, err)
	}

	opts := importer.OptionsFromRequest(*req)
	var existing []domain.Transaction
	if opts.UpdateExisting {
		txs, err := s.store.ListTransactions(ctx, accountID)
		if err != nil {
			return nil, observeStoreError(s.metrics, port.CollectionTransactions, err)
		}
		existing = txs
	}

	records := importer.Parse(req.Text, opts, existing)
	if records == nil {
		records = []importer.ParsedRecord{}
	}
	preview := &ImportPreview{Records: records}
	for _, r := range records {
		switch {
		case !r.IsValid:
			preview.Invalid++
		case r.IsUpdate:
			preview.Valid++
			preview.Updates++
		default:
			preview.Valid++
		}
	}
	return preview, nil
}

// replacementFields lists every imported field, so an update record fully
// overwrites the matched transaction's values. The id and ledger position
// are kept.
func replacementFields(tx domain.Transaction) map[string]any {
	return map[string]any{
		"date":          string(tx.Date),
		"description":   tx.Description,
		"description2":  tx.Description2,
		"expense":       tx.Expense,
		"income":        tx.Income,
		"status":        string(tx.Status),
		"payer":         tx.Payer,
		"projectid":     tx.ProjectID,
		"projectName":   tx.ProjectName,
		"category":      tx.Category,
		"bankAccountId": tx.BankAccountID,
	}
}
