package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/observability"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// Dashboard is the response of GET /v1/dashboard.
type Dashboard struct {
	Accounts     []domain.AccountCard     `json:"accounts"`
	TotalBalance float64                  `json:"totalBalance"`
	Stats        ledger.Stats             `json:"stats"`
	Projects     []domain.ProjectSpending `json:"projects"`
}

// DashboardService aggregates every account, transaction and project into
// the dashboard cards and charts.
type DashboardService struct {
	ledger    port.LedgerStore
	projects  port.ProjectStore
	tolerance float64
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(
	ledgerStore port.LedgerStore,
	projects port.ProjectStore,
	tolerance float64,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		ledger:    ledgerStore,
		projects:  projects,
		tolerance: tolerance,
		metrics:   metrics,
		logger:    logger,
	}
}

// Get loads accounts, transactions and projects in parallel and derives
// the dashboard. Stats cover every account combined, seeded with the sum
// of the opening balances.
func (s *DashboardService) Get(ctx context.Context) (*Dashboard, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Get")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("dashboard", time.Since(start))
	}()

	var (
		accounts []domain.BankAccount
		txs      []domain.Transaction
		projects []domain.Project
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.ledger.ListAccounts(gCtx)
		if err != nil {
			return fmt.Errorf("accounts: %w", observeStoreError(s.metrics, port.CollectionAccounts, err))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		txs, err = s.ledger.ListAllTransactions(gCtx)
		if err != nil {
			return fmt.Errorf("transactions: %w", observeStoreError(s.metrics, port.CollectionTransactions, err))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		projects, err = s.projects.ListProjects(gCtx)
		if err != nil {
			return fmt.Errorf("projects: %w", observeStoreError(s.metrics, port.CollectionProjects, err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byAccount := make(map[string][]domain.Transaction, len(accounts))
	for _, t := range txs {
		byAccount[t.BankAccountID] = append(byAccount[t.BankAccountID], t)
	}

	d := &Dashboard{Accounts: make([]domain.AccountCard, 0, len(accounts))}
	var opening float64
	var scoped []domain.Transaction
	for _, acc := range accounts {
		own := byAccount[acc.ID]
		rows := ledger.LedgerRows(own, acc.Balance)
		card := domain.AccountCard{
			Account:        acc,
			OpeningBalance: acc.Balance,
			CurrentBalance: ledger.ClosingBalance(rows, acc.Balance),
			Transactions:   len(own),
		}
		for _, t := range own {
			card.TotalIncome += t.Income
			card.TotalExpense += t.Expense
		}
		if check := ledger.CrossCheck(rows, acc.Balance, s.tolerance); !check.OK {
			s.metrics.IncrBalanceMismatch(acc.ID)
			s.logger.Warn("balance cross-check mismatch",
				zap.String("account_id", acc.ID),
				zap.Float64("difference", check.Difference),
			)
		}
		d.Accounts = append(d.Accounts, card)
		d.TotalBalance += card.CurrentBalance
		opening += acc.Balance
		scoped = append(scoped, own...)
	}

	d.Stats = ledger.Summarize(ledger.LedgerRows(scoped, opening), opening)
	d.Projects = ledger.ProjectSpendings(projects, txs)

	span.SetAttributes(
		attribute.Int("dashboard.accounts", len(accounts)),
		attribute.Int("dashboard.transactions", len(txs)),
	)
	return d, nil
}
