package seed

import (
	"context"
	"fmt"

	"product-service/internal/model"

	"github.com/rs/zerolog"
)

// ProductCreator is the part of the product service the seeder drives.
type ProductCreator interface {
	Create(ctx context.Context, payload model.Payload) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
}

// Result summarises a seeding run.
type Result struct {
	Skipped bool
	Loaded  int
	Created int
	Failed  int
}

// Seeder loads a seed source into an empty store.
type Seeder struct {
	loader   Loader
	products ProductCreator
	logger   zerolog.Logger
}

// NewSeeder creates a new seeder.
func NewSeeder(loader Loader, products ProductCreator, logger zerolog.Logger) *Seeder {
	return &Seeder{
		loader:   loader,
		products: products,
		logger:   logger.With().Str("component", "seeder").Logger(),
	}
}

// Run creates every product in source when the store holds none. Each entry
// goes through normal validation; rejected entries are logged and counted.
func (s *Seeder) Run(ctx context.Context, source string) (Result, error) {
	existing, err := s.products.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to list existing products: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info().
			Int("existing", len(existing)).
			Msg("store already populated, skipping seed")
		return Result{Skipped: true}, nil
	}

	payloads, err := s.loader.Load(ctx, source)
	if err != nil {
		return Result{}, err
	}

	result := Result{Loaded: len(payloads)}
	for i, payload := range payloads {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		product, err := s.products.Create(ctx, payload)
		if err != nil {
			result.Failed++
			s.logger.Warn().
				Err(err).
				Int("entry", i).
				Msg("seed entry rejected")
			continue
		}

		result.Created++
		s.logger.Debug().
			Int64("product_id", product.ID).
			Str("name", product.Name).
			Msg("seeded product")
	}

	s.logger.Info().
		Str("source", source).
		Int("loaded", result.Loaded).
		Int("created", result.Created).
		Int("failed", result.Failed).
		Msg("seed completed")

	return result, nil
}
