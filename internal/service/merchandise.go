package service

import (
	"context"
	"strings"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/importer"
	"github.com/boddenberg/org-finance-bfa-go/internal/infra/observability"
	"github.com/boddenberg/org-finance-bfa-go/internal/ledger"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var merchTracer = otel.Tracer("service/merchandise")

// MerchandiseService tracks inventory items and their buy/sell movements.
type MerchandiseService struct {
	store   port.MerchandiseStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewMerchandiseService creates a new merchandise service.
func NewMerchandiseService(store port.MerchandiseStore, metrics *observability.Metrics, logger *zap.Logger) *MerchandiseService {
	return &MerchandiseService{store: store, metrics: metrics, logger: logger}
}

// StockCardResponse is an item with its stock card.
type StockCardResponse struct {
	Item      domain.MerchandiseStock    `json:"item"`
	Movements []domain.StockCardMovement `json:"movements"`
}

// List returns every item with its stock derived from movements.
func (s *MerchandiseService) List(ctx context.Context) ([]domain.MerchandiseStock, error) {
	ctx, span := merchTracer.Start(ctx, "MerchandiseService.List")
	defer span.End()

	items, err := s.store.ListMerchandise(ctx)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionMerchandise, err)
	}
	movements, err := s.store.ListAllMovements(ctx)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionMerchandiseMove, err)
	}

	out := make([]domain.MerchandiseStock, len(items))
	for i, item := range items {
		out[i] = ledger.StockOf(item, movements)
	}
	return out, nil
}

func (s *MerchandiseService) Create(ctx context.Context, req *domain.Merchandise) (*domain.Merchandise, error) {
	ctx, span := merchTracer.Start(ctx, "MerchandiseService.Create")
	defer span.End()

	item := *req
	item.ID = ""
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if item.UnitPrice < 0 {
		return nil, &domain.ErrValidation{Field: "unitPrice", Message: "must not be negative"}
	}
	if item.CostPrice < 0 {
		return nil, &domain.ErrValidation{Field: "costPrice", Message: "must not be negative"}
	}

	if err := s.store.CreateMerchandise(ctx, &item); err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionMerchandise, err)
	}
	s.logger.Info("merchandise created", zap.String("merchandise_id", item.ID), zap.String("name", item.Name))
	return &item, nil
}

// StockCard returns the item's movements in date order with the running
// stock level after each one.
func (s *MerchandiseService) StockCard(ctx context.Context, id string) (*StockCardResponse, error) {
	ctx, span := merchTracer.Start(ctx, "MerchandiseService.StockCard")
	defer span.End()
	span.SetAttributes(attribute.String("merchandise.id", id))

	item, err := s.store.GetMerchandise(ctx, id)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionMerchandise, err)
	}
	movements, err := s.store.ListMovements(ctx, id)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionMerchandiseMove, err)
	}

	return &StockCardResponse{
		Item:      ledger.StockOf(*item, movements),
		Movements: ledger.StockCard(movements),
	}, nil
}

// AddMovement records a buy or sell. A sell larger than the current stock
// is rejected. A zero unit price falls back to the item's cost price for
// buys and its unit price for sells.
func (s *MerchandiseService) AddMovement(ctx context.Context, id string, req *domain.MovementRequest) (*domain.MerchandiseTransaction, error) {
	ctx, span := merchTracer.Start(ctx, "MerchandiseService.AddMovement")
	defer span.End()
	span.SetAttributes(
		attribute.String("merchandise.id", id),
		attribute.String("movement.type", string(req.Type)),
	)

	if req.Type != domain.MovementBuy && req.Type != domain.MovementSell {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be buy or sell"}
	}
	if req.Quantity <= 0 {
		return nil, &domain.ErrValidation{Field: "quantity", Message: "must be positive"}
	}
	if req.UnitPrice < 0 {
		return nil, &domain.ErrValidation{Field: "unitPrice", Message: "must not be negative"}
	}
	day, err := importer.ParseDate(req.Date)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "date", Message: err.Error()}
	}

	item, err := s.store.GetMerchandise(ctx, id)
	if err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionMerchandise, err)
	}

	price := req.UnitPrice
	if req.Type == domain.MovementSell {
		movements, err := s.store.ListMovements(ctx, id)
		if err != nil {
			return nil, observeStoreError(s.metrics, port.CollectionMerchandiseMove, err)
		}
		if stock := ledger.StockOf(*item, movements).Stock; req.Quantity > stock {
			return nil, &domain.ErrValidation{Field: "quantity", Message: "insufficient stock"}
		}
		if price == 0 {
			price = item.UnitPrice
		}
	} else if price == 0 {
		price = item.CostPrice
	}

	m := &domain.MerchandiseTransaction{
		MerchandiseID: id,
		Type:          req.Type,
		Quantity:      req.Quantity,
		UnitPrice:     price,
		Date:          domain.TxDate(day),
		Note:          req.Note,
	}
	if err := s.store.CreateMovement(ctx, m); err != nil {
		return nil, observeStoreError(s.metrics, port.CollectionMerchandiseMove, err)
	}

	s.logger.Debug("merchandise movement recorded",
		zap.String("merchandise_id", id),
		zap.String("type", string(m.Type)),
		zap.Int("quantity", m.Quantity),
	)
	return m, nil
}
