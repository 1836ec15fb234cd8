package catalog

import (
	"context"

	"github.com/mekedron/grocer-cli/internal/domain"
)

// Reader is the read side of a catalog source.
type Reader interface {
	Stores(ctx context.Context) (domain.Batch[domain.Store], error)
	StoreByID(ctx context.Context, storeID string) (domain.Store, error)
	Products(ctx context.Context) (domain.Batch[domain.Product], error)
	ProductsByStore(ctx context.Context, storeID string) (domain.Batch[domain.Product], error)
}

// Writer manages catalog records.
type Writer interface {
	CreateStore(ctx context.Context, store domain.Store) (domain.Store, error)
	UpdateStore(ctx context.Context, storeID string, store domain.Store) (domain.Store, error)
	DeleteStore(ctx context.Context, storeID string) error
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, productID string, changes domain.ProductChanges) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

// API describes every catalog REST operation.
type API interface {
	Reader
	Writer
	ProductByID(ctx context.Context, productID string) (domain.Product, error)
}

var _ API = (*Client)(nil)
