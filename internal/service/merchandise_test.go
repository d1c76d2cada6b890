package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/collections"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/memory"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/observability"
	"github.com/boddenberg/org-finance-bfa-go/internal/service"

	"go.uber.org/zap"
)

func TestMerchandise_StockCard(t *testing.T) {
	svc := service.NewMerchandiseService(collections.New(memory.New()), observability.NewMetrics(), zap.NewNop())
	ctx := context.Background()

	item, err := svc.Create(ctx, &domain.Merchandise{Name: "T-shirt", UnitPrice: 35, CostPrice: 20, IsActive: true})
	if err != nil {
		t.Fatal(err)
	}

	moves := []domain.MovementRequest{
		{Type: domain.MovementBuy, Quantity: 6, Date: "2024-01-01"},
		{Type: domain.MovementSell, Quantity: 2, Date: "2024-01-10"},
		{Type: domain.MovementSell, Quantity: 1, UnitPrice: 35, Date: "2024-01-05"},
	}
	for _, m := range moves {
		if _, err := svc.AddMovement(ctx, item.ID, &m); err != nil {
			t.Fatalf("AddMovement: %v", err)
		}
	}

	card, err := svc.StockCard(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if card.Item.Stock != 3 || card.Item.Revenue != 105 || card.Item.Cost != 120 {
		t.Errorf("unexpected stock totals %+v", card.Item)
	}
	if len(card.Movements) != 3 {
		t.Fatalf("expected 3 movements, got %d", len(card.Movements))
	}
	balances := []int{card.Movements[0].Balance, card.Movements[1].Balance, card.Movements[2].Balance}
	if balances[0] != 6 || balances[1] != 5 || balances[2] != 3 {
		t.Errorf("expected running stock 6 5 3, got %v", balances)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Stock != 3 {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestMerchandise_MovementValidation(t *testing.T) {
	svc := service.NewMerchandiseService(collections.New(memory.New()), observability.NewMetrics(), zap.NewNop())
	ctx := context.Background()

	item, err := svc.Create(ctx, &domain.Merchandise{Name: "Mug", UnitPrice: 15})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		req   domain.MovementRequest
		field string
	}{
		{"unknown type", domain.MovementRequest{Type: "gift", Quantity: 1, Date: "2024-01-01"}, "type"},
		{"zero quantity", domain.MovementRequest{Type: domain.MovementBuy, Date: "2024-01-01"}, "quantity"},
		{"bad date", domain.MovementRequest{Type: domain.MovementBuy, Quantity: 1, Date: "soon"}, "date"},
		{"oversell", domain.MovementRequest{Type: domain.MovementSell, Quantity: 1, Date: "2024-01-01"}, "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddMovement(ctx, item.ID, &tt.req)
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}

	var nf *domain.ErrNotFound
	if _, err := svc.StockCard(ctx, "missing"); !errors.As(err, &nf) {
		t.Errorf("expected not found, got %v", err)
	}
}
