package service

import (
	"context"

	"product-service/internal/model"
	"product-service/internal/repository"
	"product-service/internal/validation"

	"github.com/rs/zerolog"
)

// PayloadValidator checks raw product payloads.
type PayloadValidator interface {
	Validate(payload model.Payload, mode validation.Mode) (*model.ProductFields, error)
}

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	validator   PayloadValidator
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, validator PayloadValidator, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		validator:   validator,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// Create validates payload and stores a new product.
func (s *productService) Create(ctx context.Context, payload model.Payload) (*model.Product, error) {
	fields, err := s.validator.Validate(payload, validation.ModeCreate)
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejected product payload")
		return nil, err
	}

	product, err := s.productRepo.Create(ctx, *fields)
	if err != nil {
		return nil, s.storeError(err, "failed to create product")
	}

	s.logger.Info().
		Int64("product_id", product.ID).
		Str("product_name", product.Name).
		Msg("product created")

	return product, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "failed to get product")
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, model.NewNotFoundError(id)
	}

	return product, nil
}

// GetByName retrieves a single product by its exact name.
func (s *productService) GetByName(ctx context.Context, name string) (*model.Product, error) {
	product, err := s.productRepo.GetByName(ctx, name)
	if err != nil {
		return nil, s.storeError(err, "failed to get product")
	}

	if product == nil {
		s.logger.Debug().Str("product_name", name).Msg("product not found")
		return nil, model.NewNameNotFoundError(name)
	}

	return product, nil
}

// List retrieves all products in id order. The result is never nil.
func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, s.storeError(err, "failed to list products")
	}

	if products == nil {
		products = []model.Product{}
	}

	s.logger.Debug().Int("count", len(products)).Msg("retrieved products")

	return products, nil
}

// Update applies a partial update to the product with the given ID. A
// missing product is reported before the payload is validated.
func (s *productService) Update(ctx context.Context, id int64, payload model.Payload) (*model.Product, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, existing, payload)
}

// UpdateByName applies a partial update to the product with the given name.
func (s *productService) UpdateByName(ctx context.Context, name string, payload model.Payload) (*model.Product, error) {
	existing, err := s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, existing, payload)
}

func (s *productService) update(ctx context.Context, existing *model.Product, payload model.Payload) (*model.Product, error) {
	fields, err := s.validator.Validate(payload, validation.ModeUpdate)
	if err != nil {
		s.logger.Debug().Err(err).Int64("product_id", existing.ID).Msg("rejected product payload")
		return nil, err
	}

	if fields.Empty() {
		return existing, nil
	}

	product, err := s.productRepo.Update(ctx, existing.ID, *fields)
	if err != nil {
		return nil, s.storeError(err, "failed to update product")
	}

	// Deleted between the existence check and the update.
	if product == nil {
		return nil, model.NewNotFoundError(existing.ID)
	}

	s.logger.Info().Int64("product_id", product.ID).Msg("product updated")

	return product, nil
}

// Delete removes a product and returns what was removed.
func (s *productService) Delete(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "failed to delete product")
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, model.NewNotFoundError(id)
	}

	s.logger.Info().Int64("product_id", id).Msg("product deleted")

	return product, nil
}

// storeError passes domain errors from the repository through and wraps
// anything else as a persistence failure.
func (s *productService) storeError(err error, op string) error {
	if model.KindOf(err) != 0 {
		return err
	}
	s.logger.Error().Err(err).Msg(op)
	return model.NewPersistenceError(op, err)
}
