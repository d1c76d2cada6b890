// Package collections maps the finance entities onto a port.DocumentStore,
// one collection per entity type.
package collections

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
	"github.com/boddenberg/org-finance-bfa-go/internal/port"
)

var tracer = otel.Tracer("collections")

// Store implements port.LedgerStore, port.ProjectStore and
// port.MerchandiseStore.
type Store struct {
	docs port.DocumentStore
}

// New wraps a document store.
func New(docs port.DocumentStore) *Store {
	return &Store{docs: docs}
}

// ============================================================
// Bank accounts
// ============================================================

func (s *Store) ListAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	ctx, span := tracer.Start(ctx, "Collections.ListAccounts")
	defer span.End()

	return all[domain.BankAccount](ctx, s.docs, port.CollectionAccounts)
}

func (s *Store) GetAccount(ctx context.Context, id string) (*domain.BankAccount, error) {
	ctx, span := tracer.Start(ctx, "Collections.GetAccount")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", id))

	return one[domain.BankAccount](ctx, s.docs, port.CollectionAccounts, id)
}

func (s *Store) CreateAccount(ctx context.Context, acc *domain.BankAccount) error {
	ctx, span := tracer.Start(ctx, "Collections.CreateAccount")
	defer span.End()

	id, err := add(ctx, s.docs, port.CollectionAccounts, acc)
	if err != nil {
		return err
	}
	acc.ID = id
	return nil
}

func (s *Store) UpdateAccount(ctx context.Context, id string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Collections.UpdateAccount")
	defer span.End()

	return s.docs.Update(ctx, port.CollectionAccounts, id, fields)
}

// ============================================================
// Bank transactions
// ============================================================

func (s *Store) ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Collections.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	return filtered[domain.Transaction](ctx, s.docs, port.CollectionTransactions, "bankAccountId", accountID)
}

func (s *Store) ListAllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Collections.ListAllTransactions")
	defer span.End()

	return all[domain.Transaction](ctx, s.docs, port.CollectionTransactions)
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Collections.GetTransaction")
	defer span.End()

	return one[domain.Transaction](ctx, s.docs, port.CollectionTransactions, id)
}

func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	ctx, span := tracer.Start(ctx, "Collections.CreateTransaction")
	defer span.End()

	id, err := add(ctx, s.docs, port.CollectionTransactions, tx)
	if err != nil {
		return err
	}
	tx.ID = id
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, id string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Collections.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	return s.docs.Update(ctx, port.CollectionTransactions, id, fields)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Collections.DeleteTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id))

	return s.docs.Delete(ctx, port.CollectionTransactions, id)
}

// ============================================================
// Projects
// ============================================================

func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Collections.ListProjects")
	defer span.End()

	return all[domain.Project](ctx, s.docs, port.CollectionProjects)
}

func (s *Store) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	ctx, span := tracer.Start(ctx, "Collections.GetProject")
	defer span.End()

	return one[domain.Project](ctx, s.docs, port.CollectionProjects, id)
}

func (s *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	ctx, span := tracer.Start(ctx, "Collections.CreateProject")
	defer span.End()

	id, err := add(ctx, s.docs, port.CollectionProjects, p)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, id string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "Collections.UpdateProject")
	defer span.End()

	return s.docs.Update(ctx, port.CollectionProjects, id, fields)
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Collections.DeleteProject")
	defer span.End()

	return s.docs.Delete(ctx, port.CollectionProjects, id)
}

// ============================================================
// Merchandise
// ============================================================

func (s *Store) ListMerchandise(ctx context.Context) ([]domain.Merchandise, error) {
	ctx, span := tracer.Start(ctx, "Collections.ListMerchandise")
	defer span.End()

	return all[domain.Merchandise](ctx, s.docs, port.CollectionMerchandise)
}

func (s *Store) GetMerchandise(ctx context.Context, id string) (*domain.Merchandise, error) {
	ctx, span := tracer.Start(ctx, "Collections.GetMerchandise")
	defer span.End()

	return one[domain.Merchandise](ctx, s.docs, port.CollectionMerchandise, id)
}

func (s *Store) CreateMerchandise(ctx context.Context, m *domain.Merchandise) error {
	ctx, span := tracer.Start(ctx, "Collections.CreateMerchandise")
	defer span.End()

	id, err := add(ctx, s.docs, port.CollectionMerchandise, m)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func (s *Store) ListMovements(ctx context.Context, merchandiseID string) ([]domain.MerchandiseTransaction, error) {
	ctx, span := tracer.Start(ctx, "Collections.ListMovements")
	defer span.End()

	return filtered[domain.MerchandiseTransaction](ctx, s.docs, port.CollectionMerchandiseMove, "merchandiseId", merchandiseID)
}

func (s *Store) ListAllMovements(ctx context.Context) ([]domain.MerchandiseTransaction, error) {
	ctx, span := tracer.Start(ctx, "Collections.ListAllMovements")
	defer span.End()

	return all[domain.MerchandiseTransaction](ctx, s.docs, port.CollectionMerchandiseMove)
}

func (s *Store) CreateMovement(ctx context.Context, m *domain.MerchandiseTransaction) error {
	ctx, span := tracer.Start(ctx, "Collections.CreateMovement")
	defer span.End()

	id, err := add(ctx, s.docs, port.CollectionMerchandiseMove, m)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

// ============================================================
// Generic helpers
// ============================================================

func all[T any](ctx context.Context, docs port.DocumentStore, coll string) ([]T, error) {
	raws, err := docs.GetAll(ctx, coll)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](coll, raws)
}

func filtered[T any](ctx context.Context, docs port.DocumentStore, coll, field, value string) ([]T, error) {
	raws, err := docs.GetFiltered(ctx, coll, field, value)
	if err != nil {
		return nil, err
	}
	return decodeAll[T](coll, raws)
}

func one[T any](ctx context.Context, docs port.DocumentStore, coll, id string) (*T, error) {
	raw, err := docs.Get(ctx, coll, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", coll, id, err)
	}
	return &v, nil
}

func decodeAll[T any](coll string, raws []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", coll, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func add(ctx context.Context, docs port.DocumentStore, coll string, v any) (string, error) {
	doc, err := toDocument(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", coll, err)
	}
	return docs.Add(ctx, coll, doc)
}

// toDocument converts an entity to the field map stored by backends, using
// the entity's JSON names.
func toDocument(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if id, ok := doc["id"].(string); ok && id == "" {
		delete(doc, "id")
	}
	return doc, nil
}
