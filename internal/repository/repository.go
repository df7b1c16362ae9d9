package repository

import (
	"context"

	"product-service/internal/model"
)

// ProductRepository defines the engine-agnostic data access operations for
// products. Every method runs in its own transaction.
type ProductRepository interface {
	// Create assigns an id and creation time, then persists the product.
	// Name and Price must be set. Returns a conflict error when the name is taken.
	Create(ctx context.Context, fields model.ProductFields) (*model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByName retrieves a single product by its exact name. Returns nil when absent.
	GetByName(ctx context.Context, name string) (*model.Product, error)

	// List retrieves all products in id order.
	List(ctx context.Context) ([]model.Product, error)

	// Update overwrites the supplied fields of an existing product.
	// Returns nil when the product does not exist.
	Update(ctx context.Context, id int64, fields model.ProductFields) (*model.Product, error)

	// Delete removes a product and returns it. Returns nil when absent.
	Delete(ctx context.Context, id int64) (*model.Product, error)

	// Ping checks that the underlying store is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection pool.
	Close()
}

// sequenceName identifies the product id counter row.
const sequenceName = "products"
