// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"encoding/json"
	"io"

	"github.com/boddenberg/org-finance-bfa-go/internal/domain"
)

// Collection names shared by every document store backend.
const (
	CollectionAccounts        = "bank_accounts"
	CollectionTransactions    = "bank_transactions"
	CollectionProjects        = "projects"
	CollectionMerchandise     = "merchandise"
	CollectionMerchandiseMove = "merchandise_transactions"
)

// Collections lists every collection a backend must provision.
var Collections = []string{
	CollectionAccounts,
	CollectionTransactions,
	CollectionProjects,
	CollectionMerchandise,
	CollectionMerchandiseMove,
}

// DocumentStore is the persistence boundary: schemaless JSON documents
// grouped in named collections. Every document carries a string "id".
// Backends never sort; callers receive whole lists and derive views in memory.
type DocumentStore interface {
	// Add inserts doc and returns its id. A missing id is generated.
	Add(ctx context.Context, collection string, doc map[string]any) (string, error)
	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	GetAll(ctx context.Context, collection string) ([]json.RawMessage, error)
	// GetFiltered returns documents whose top-level field equals value.
	GetFiltered(ctx context.Context, collection, field, value string) ([]json.RawMessage, error)
	Ping(ctx context.Context) error
}

// LedgerStore persists bank accounts and their transactions.
type LedgerStore interface {
	ListAccounts(ctx context.Context) ([]domain.BankAccount, error)
	GetAccount(ctx context.Context, id string) (*domain.BankAccount, error)
	CreateAccount(ctx context.Context, acc *domain.BankAccount) error
	UpdateAccount(ctx context.Context, id string, fields map[string]any) error

	ListTransactions(ctx context.Context, accountID string) ([]domain.Transaction, error)
	ListAllTransactions(ctx context.Context) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateTransaction(ctx context.Context, id string, fields map[string]any) error
	DeleteTransaction(ctx context.Context, id string) error
}

// ProjectStore persists budget projects.
type ProjectStore interface {
	ListProjects(ctx context.Context) ([]domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	CreateProject(ctx context.Context, p *domain.Project) error
	UpdateProject(ctx context.Context, id string, fields map[string]any) error
	DeleteProject(ctx context.Context, id string) error
}

// MerchandiseStore persists inventory items and their movements.
type MerchandiseStore interface {
	ListMerchandise(ctx context.Context) ([]domain.Merchandise, error)
	GetMerchandise(ctx context.Context, id string) (*domain.Merchandise, error)
	CreateMerchandise(ctx context.Context, m *domain.Merchandise) error
	ListMovements(ctx context.Context, merchandiseID string) ([]domain.MerchandiseTransaction, error)
	ListAllMovements(ctx context.Context) ([]domain.MerchandiseTransaction, error)
	CreateMovement(ctx context.Context, m *domain.MerchandiseTransaction) error
}

// Archiver keeps a copy of generated exports outside the service.
type Archiver interface {
	// Archive stores the content under name and returns its location.
	Archive(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
