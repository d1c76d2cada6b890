package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
	"github.com/boddenberg/org-finance-bfa-go/internal/service"

	"go.uber.org/zap"
)

// failingProjects satisfies port.ProjectStore and fails every read.
type failingProjects struct{ flakyStore }

func (failingProjects) ListProjects(context.Context) ([]domain.Project, error) {
	return nil, &domain.ErrExternalService{Service: "test", Err: errors.New("down")}
}

func TestDashboard_Aggregates(t *testing.T) {
	f := newLedgerFixture(t, 1000)
	ctx := context.Background()

	second, err := f.svc.CreateAccount(ctx, &domain.BankAccountRequest{Name: "Savings", Balance: 500})
	if err != nil {
		t.Fatal(err)
	}
	f.add(t, "2024-01-05", "Venue", 120, 0)
	f.add(t, "2024-01-10", "Dues", 0, 300)
	if _, err := f.svc.CreateTransaction(ctx, second.ID, &domain.TransactionRequest{
		Date: "2024-02-01", Description: "Interest", Income: 5, Category: "Interest",
	}); err != nil {
		t.Fatal(err)
	}

	projects := newProjectService(f)
	if _, err := projects.Create(ctx, &domain.ProjectRequest{Year: 2024, Name: "Fair", BODCategory: "Community", Budget: 100}); err != nil {
		t.Fatal(err)
	}

	svc := service.NewDashboardService(f.store, f.store, ledger.DefaultTolerance, f.metrics, zap.NewNop())
	d, err := svc.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if len(d.Accounts) != 2 {
		t.Fatalf("expected 2 account cards, got %d", len(d.Accounts))
	}
	primary := d.Accounts[0]
	if primary.OpeningBalance != 1000 || primary.CurrentBalance != 1180 || primary.Transactions != 2 {
		t.Errorf("unexpected main card %+v", primary)
	}
	if d.Accounts[1].CurrentBalance != 505 {
		t.Errorf("expected savings balance 505, got %v", d.Accounts[1].CurrentBalance)
	}
	if d.TotalBalance != 1685 {
		t.Errorf("expected total balance 1685, got %v", d.TotalBalance)
	}
	if d.Stats.Count != 3 || d.Stats.EndingBalance != 1685 || d.Stats.TotalIncome != 305 {
		t.Errorf("unexpected combined stats %+v", d.Stats)
	}
	if len(d.Stats.Months) != 2 {
		t.Errorf("expected 2 months, got %d", len(d.Stats.Months))
	}
	if len(d.Projects) != 1 || d.Projects[0].Budget != 100 {
		t.Errorf("unexpected projects %+v", d.Projects)
	}
}

func TestDashboard_StoreFailure(t *testing.T) {
	f := newLedgerFixture(t, 0)

	svc := service.NewDashboardService(f.store, failingProjects{*f.store}, ledger.DefaultTolerance, f.metrics, zap.NewNop())
	_, err := svc.Get(context.Background())
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected external service error, got %v", err)
	}
}
