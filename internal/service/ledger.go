// Package service provides the business logic layer (use cases).
// LedgerService handles bank accounts, their transactions and the batch
// operations the ledger table offers.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/importer"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/observability"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var ledgerTracer = otel.Tracer("service/ledger")

const accountsCacheKey = "accounts"

// LedgerService orchestrates account and transaction use cases.
type LedgerService struct {
	store     port.LedgerStore
	accounts  port.Cache[[]domain.BankAccount]
	tolerance float64
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewLedgerService creates a new ledger service. tolerance bounds the
// accepted difference when cross-checking closing balances.
func NewLedgerService(
	store port.LedgerStore,
	accounts port.Cache[[]domain.BankAccount],
	tolerance float64,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		store:     store,
		accounts:  accounts,
		tolerance: tolerance,
		metrics:   metrics,
		logger:    logger,
	}
}

// ============================================================
// Accounts
// ============================================================

func (s *LedgerService) ListAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListAccounts")
	defer span.End()

	if cached, ok := s.accounts.Get(accountsCacheKey); ok {
		s.metrics.IncrCacheHit(accountsCacheKey)
		return cached, nil
	}
	s.metrics.IncrCacheMiss(accountsCacheKey)

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionAccounts, err)
	}
	s.accounts.Set(accountsCacheKey, accounts)
	return accounts, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, id string) (*domain.BankAccount, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.GetAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", id))

	acc, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionAccounts, err)
	}
	return acc, nil
}

func (s *LedgerService) CreateAccount(ctx context.Context, req *domain.BankAccountRequest) (*domain.BankAccount, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateAccount")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	acc := &domain.BankAccount{
		Name:          name,
		Balance:       req.Balance,
		IsActive:      active,
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		BankName:      strings.TrimSpace(req.BankName),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionAccounts, err)
	}
	s.accounts.Delete(accountsCacheKey)

	s.logger.Info("account created", zap.String("account_id", acc.ID), zap.String("name", acc.Name))
	return acc, nil
}

func (s *LedgerService) UpdateAccount(ctx context.Context, id string, patch *domain.BankAccountPatch) (*domain.BankAccount, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", id))

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}
	if err := s.store.UpdateAccount(ctx, id, fields); err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionAccounts, err)
	}
	s.accounts.Delete(accountsCacheKey)

	return s.GetAccount(ctx, id)
}

// ============================================================
// Transactions
// ============================================================

// TransactionView returns one page of an account's ledger for state. Running
// balances always come from the account's full ledger, so filtering never
// changes the balance shown on a row.
func (s *LedgerService) TransactionView(ctx context.Context, accountID string, state ledger.ViewState) (*ledger.View, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.TransactionView")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	if err := state.Filters.Validate(); err != nil {
		return nil, err
	}
	acc, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionTransactions, err)
	}

	view := ledger.Select(state, txs, acc.Balance)
	view.Check = ledger.CrossCheck(ledger.LedgerRows(txs, acc.Balance), acc.Balance, s.tolerance)
	if !view.Check.OK {
		s.metrics.IncrBalanceMismatch(accountID)
		s.logger.Warn("balance cross-check mismatch",
			zap.String("account_id", accountID),
			zap.Float64("expected", view.Check.Expected),
			zap.Float64("actual", view.Check.Actual),
			zap.Float64("difference", view.Check.Difference),
		)
	}
	return &view, nil
}

// ListTransactions returns every transaction of an account in ledger order.
func (s *LedgerService) ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	txs, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionTransactions, err)
	}
	return ledger.SortForLedger(txs), nil
}

func (s *LedgerService) CreateTransaction(ctx context.Context, accountID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	tx, err := newTransaction(accountID, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionTransactions, err)
	}

	s.logger.Debug("transaction created",
		zap.String("account_id", accountID),
		zap.String("transaction_id", tx.ID),
	)
	return tx, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, patch *domain.TransactionPatch) (*domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	fields, err := patchFields(patch)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateTransaction(ctx, id, fields); err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionTransactions, err)
	}

	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionTransactions, err)
	}
	return tx, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return observeStoreError(s.metrics, port.CollectionTransactions, err)
	}
	return nil
}

// ============================================================
// Batch operations
// ============================================================

// BatchUpdate applies the same patch to every id, one write at a time.
// Items already written stay written when a later one fails.
func (s *LedgerService) BatchUpdate(ctx context.Context, req *domain.BatchUpdateRequest) (*domain.BatchResult, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.BatchUpdate")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(req.IDs)))

	if len(req.IDs) == 0 {
		return nil, &domain.ErrValidation{Field: "ids", Message: "at least one id is required"}
	}
	fields, err := patchFields(&req.Patch)
	if err != nil {
		return nil, err
	}

	res := domain.NewBatchResult("update", len(req.IDs))
	for _, id := range req.IDs {
		err := s.store.UpdateTransaction(ctx, id, fields)
		res.Record(id, observeStoreError(s.metrics, port.CollectionTransactions, err))
	}
	s.finishBatch(res)
	return res, nil
}

// BatchDelete removes every id, one write at a time.
func (s *LedgerService) BatchDelete(ctx context.Context, req *domain.BatchDeleteRequest) (*domain.BatchResult, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.BatchDelete")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(req.IDs)))

	if len(req.IDs) == 0 {
		return nil, &domain.ErrValidation{Field: "ids", Message: "at least one id is required"}
	}

	res := domain.NewBatchResult("delete", len(req.IDs))
	for _, id := range req.IDs {
		err := s.store.DeleteTransaction(ctx, id)
		res.Record(id, observeStoreError(s.metrics, port.CollectionTransactions, err))
	}
	s.finishBatch(res)
	return res, nil
}

// Reorder stores the dragged order of an account's transactions: the
// transaction at position i gets sequenceNumber i+1. Ids that do not belong
// to the account are reported as failures and not written.
func (s *LedgerService) Reorder(ctx context.Context, accountID string, req *domain.ReorderRequest) (*domain.BatchResult, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Reorder")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.id", accountID),
		attribute.Int("batch.size", len(req.IDs)),
	)

	if len(req.IDs) == 0 {
		return nil, &domain.ErrValidation{Field: "ids", Message: "at least one id is required"}
	}
	txs, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionTransactions, err)
	}
	owned := make(map[string]bool, len(txs))
	for _, t := range txs {
		owned[t.ID] = true
	}

	res := domain.NewBatchResult("reorder", len(req.IDs))
	for pos, id := range req.IDs {
		if !owned[id] {
			res.Record(id, &domain.ErrNotFound{Resource: "transaction in account " + accountID, ID: id})
			continue
		}
		err := s.store.UpdateTransaction(ctx, id, map[string]any{"sequenceNumber": pos + 1})
		res.Record(id, observeStoreError(s.metrics, port.CollectionTransactions, err))
	}
	s.finishBatch(res)
	return res, nil
}

func (s *LedgerService) finishBatch(res *domain.BatchResult) {
	s.metrics.RecordBatch(res)
	if len(res.Failed) == 0 {
		s.logger.Info("batch applied",
			zap.String("operation", res.Operation),
			zap.Int("count", len(res.Succeeded)),
		)
		return
	}
	s.logger.Warn("batch partially applied",
		zap.String("operation", res.Operation),
		zap.Int("succeeded", len(res.Succeeded)),
		zap.Int("failed", len(res.Failed)),
	)
}

// ============================================================
// Internal helpers
// ============================================================

func newTransaction(accountID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	day, err := importer.ParseDate(req.Date)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "date", Message: err.Error()}
	}
	desc := strings.TrimSpace(req.Description)
	if desc == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "required"}
	}
	if req.Expense < 0 {
		return nil, &domain.ErrValidation{Field: "expense", Message: "must not be negative"}
	}
	if req.Income < 0 {
		return nil, &domain.ErrValidation{Field: "income", Message: "must not be negative"}
	}
	status := req.Status
	if status == "" {
		status = domain.StatusCompleted
	}
	if !status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "must be Completed, Pending or Draft"}
	}
	projectName := req.ProjectName
	if projectName == "" {
		projectName = req.ProjectID
	}

	return &domain.Transaction{
		Date:          domain.TxDate(day),
		Description:   desc,
		Description2:  req.Description2,
		Expense:       req.Expense,
		Income:        req.Income,
		Status:        status,
		Payer:         req.Payer,
		ProjectID:     req.ProjectID,
		ProjectName:   projectName,
		Category:      req.Category,
		BankAccountID: accountID,
	}, nil
}

// patchFields normalizes a flexible date, validates the patch and returns
// the fields to write.
func patchFields(patch *domain.TransactionPatch) (map[string]any, error) {
	if patch.Date != nil {
		day, err := importer.ParseDate(*patch.Date)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "date", Message: err.Error()}
		}
		patch.Date = &day
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, &domain.ErrValidation{Field: "patch", Message: "no fields to update"}
	}
	return fields, nil
}

// observeStoreError counts backend failures. Not-found and validation
// outcomes are caller errors and are not counted.
func observeStoreError(m *observability.Metrics, collection string, err error) error {
	if err == nil {
		return nil
	}
	var ext *domain.ErrExternalService
	var open *domain.ErrCircuitOpen
	if errors.As(err, &ext) || errors.As(err, &open) {
		m.IncrStoreError(collection)
		return err
	}
	var notFound *domain.ErrNotFound
	var validation *domain.ErrValidation
	var conflict *domain.ErrConflict
	if errors.As(err, &notFound) || errors.As(err, &validation) || errors.As(err, &conflict) {
		return err
	}
	m.IncrStoreError(collection)
	return fmt.Errorf("%s: %w", collection, err)
}
