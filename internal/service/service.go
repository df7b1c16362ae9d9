package service

import (
	"context"

	"product-service/internal/model"
)

// ProductService defines operations for product management. Every error it
// returns is a *model.Error.
type ProductService interface {
	// Create validates payload and stores a new product.
	Create(ctx context.Context, payload model.Payload) (*model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByName retrieves a single product by its exact name.
	GetByName(ctx context.Context, name string) (*model.Product, error)

	// List retrieves all products in id order.
	List(ctx context.Context) ([]model.Product, error)

	// Update applies a partial update to the product with the given ID.
	Update(ctx context.Context, id int64, payload model.Payload) (*model.Product, error)

	// UpdateByName applies a partial update to the product with the given name.
	UpdateByName(ctx context.Context, name string, payload model.Payload) (*model.Product, error)

	// Delete removes a product and returns what was removed.
	Delete(ctx context.Context, id int64) (*model.Product, error)
}
