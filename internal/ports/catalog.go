package ports

import (
	"context"

	"intelstack/internal/domain"
)

// Catalog is the persistent plugin record store.
// Reads outside a transaction see committed data only.
type Catalog interface {
	// Lifecycle
	Open(path string) error
	Close() error

	// Queries
	List(ctx context.Context, filter domain.Filter) ([]*domain.Plugin, error)
	GetByHandle(ctx context.Context, handle string) (*domain.Plugin, error)

	// Batch updates, committed once
	BeginTx(ctx context.Context) (CatalogTx, error)
}

// CatalogTx is a unit of catalog mutations. It is not safe for concurrent
// use; callers serialize access.
type CatalogTx interface {
	// Lookups by partition key
	FindInternal(filename string) (*domain.Plugin, error)
	FindExternal(identifier string) (*domain.Plugin, error)
	FindByHandle(handle string) (*domain.Plugin, error)
	List(filter domain.Filter) ([]*domain.Plugin, error)

	// Record operations
	Insert(p *domain.Plugin) error
	Update(p *domain.Plugin) error
	Delete(handle string) error
	DeleteExternal() (int, error)

	// Transaction control
	Commit() error
	Rollback() error
}
