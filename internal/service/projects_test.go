package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
	"github.com/boddenberg/org-finance-bfa-go/internal/service"

	"go.uber.org/zap"
)

func newProjectService(f *ledgerFixture) *service.ProjectService {
	return service.NewProjectService(f.store, f.store, f.metrics, zap.NewNop())
}

func TestProjectCreate_BuildsCode(t *testing.T) {
	f := newLedgerFixture(t, 0)
	svc := newProjectService(f)
	ctx := context.Background()

	p, err := svc.Create(ctx, &domain.ProjectRequest{
		Year: 2024, Name: "Charity Run", BODCategory: "community", Budget: 1000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.ProjectID != "2024_Community_Charity Run" {
		t.Errorf("unexpected project code %q", p.ProjectID)
	}
	if p.Status != domain.ProjectActive || p.ID == "" {
		t.Errorf("unexpected project %+v", p)
	}

	_, err = svc.Create(ctx, &domain.ProjectRequest{ProjectID: "2024_community_charity run", Name: "Dup", BODCategory: "Community"})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict for duplicate code, got %v", err)
	}
}

func TestProjectCreate_Validation(t *testing.T) {
	f := newLedgerFixture(t, 0)
	svc := newProjectService(f)

	tests := []struct {
		name  string
		req   domain.ProjectRequest
		field string
	}{
		{"no name", domain.ProjectRequest{Year: 2024, BODCategory: "Business"}, "name"},
		{"bad category", domain.ProjectRequest{Year: 2024, Name: "X", BODCategory: "Sports"}, "bodCategory"},
		{"negative budget", domain.ProjectRequest{Year: 2024, Name: "X", BODCategory: "Business", Budget: -5}, "budget"},
		{"no year", domain.ProjectRequest{Name: "X", BODCategory: "Business"}, "year"},
		{"bad code", domain.ProjectRequest{ProjectID: "X_Business", Name: "X", BODCategory: "Business"}, "projectid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), &tt.req)
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestProjectList_DerivesSpending(t *testing.T) {
	f := newLedgerFixture(t, 0)
	svc := newProjectService(f)
	ctx := context.Background()

	fair, err := svc.Create(ctx, &domain.ProjectRequest{Year: 2024, Name: "Fair", BODCategory: "Community", Budget: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, &domain.ProjectRequest{Year: 2023, Name: "Gala", BODCategory: "President", Budget: 500}); err != nil {
		t.Fatal(err)
	}

	for _, req := range []domain.TransactionRequest{
		{Date: "2024-02-01", Description: "Tents", Expense: 300, ProjectID: fair.ProjectID},
		{Date: "2024-02-02", Description: "Posters", Expense: 100, ProjectName: "Fair"},
		{Date: "2024-02-03", Description: "Tickets", Income: 250, ProjectID: fair.ProjectID},
	} {
		if _, err := f.svc.CreateTransaction(ctx, f.account.ID, &req); err != nil {
			t.Fatal(err)
		}
	}

	list, err := svc.List(ctx, ledger.ProjectFilters{Year: "2024"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected only the 2024 project, got %d", len(list))
	}
	got := list[0]
	if got.Spent != 400 || got.Income != 250 || got.Remaining != 600 || got.Transactions != 3 {
		t.Errorf("unexpected spending %+v", got)
	}
	if math.Abs(got.Utilization-0.4) > 1e-9 {
		t.Errorf("expected utilization 0.4, got %v", got.Utilization)
	}
}

func TestProjectUpdateAndDelete(t *testing.T) {
	f := newLedgerFixture(t, 0)
	svc := newProjectService(f)
	ctx := context.Background()

	p, err := svc.Create(ctx, &domain.ProjectRequest{Year: 2024, Name: "Fair", BODCategory: "Community", Budget: 1000})
	if err != nil {
		t.Fatal(err)
	}

	budget := 2000.0
	status := domain.ProjectOnHold
	got, err := svc.Update(ctx, p.ID, &domain.ProjectPatch{Budget: &budget, Status: &status})
	if err != nil {
		t.Fatal(err)
	}
	if got.Budget != 2000 || got.Status != domain.ProjectOnHold || got.Remaining != 2000 {
		t.Errorf("unexpected project after update %+v", got)
	}

	bad := domain.ProjectStatus("Cancelled")
	var ve *domain.ErrValidation
	if _, err := svc.Update(ctx, p.ID, &domain.ProjectPatch{Status: &bad}); !errors.As(err, &ve) {
		t.Errorf("expected validation error, got %v", err)
	}

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	var nf *domain.ErrNotFound
	if _, err := svc.Get(ctx, p.ID); !errors.As(err, &nf) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}
