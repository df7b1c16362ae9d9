package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"product-service/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		description TEXT NULL,
		price_cents BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS product_sequence (
		name VARCHAR(64) PRIMARY KEY,
		next_id BIGINT NOT NULL
	)`,
}

const pgUniqueViolation = "23505"

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresProductRepository creates a new PostgreSQL-backed product
// repository and makes sure its tables exist.
func NewPostgresProductRepository(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) (ProductRepository, error) {
	r := &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Str("driver", "postgres").Logger(),
	}
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *productRepository) ensureSchema(ctx context.Context) error {
	for _, stmt := range pgSchema {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			r.logger.Error().Err(err).Msg("failed to create schema")
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	query := `
		INSERT INTO product_sequence (name, next_id)
		SELECT $1, COALESCE(MAX(id), 0) + 1 FROM products
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, sequenceName); err != nil {
		r.logger.Error().Err(err).Msg("failed to initialise product sequence")
		return fmt.Errorf("failed to initialise product sequence: %w", err)
	}
	return nil
}

// Create assigns an id and creation time, then persists the product.
func (r *productRepository) Create(ctx context.Context, fields model.ProductFields) (*model.Product, error) {
	if fields.Name == nil || fields.Price == nil {
		return nil, fmt.Errorf("name and price are required to create a product")
	}

	product := model.Product{
		Name:        *fields.Name,
		Description: fields.Description,
		Price:       *fields.Price,
		CreatedAt:   now(),
	}

	err := withPgTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := r.checkNameFree(ctx, tx, product.Name, 0); err != nil {
			return err
		}

		id, err := r.nextID(ctx, tx)
		if err != nil {
			return err
		}
		product.ID = id

		query := `
			INSERT INTO products (id, name, description, price_cents, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		_, err = tx.Exec(ctx, query,
			product.ID,
			product.Name,
			product.Description,
			model.PriceToCents(product.Price),
			product.CreatedAt,
		)
		if err != nil {
			if isPgUniqueViolation(err) {
				return model.NewConflictError(product.Name)
			}
			return fmt.Errorf("failed to insert product: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logFailure(err, "failed to create product")
		return nil, err
	}

	r.logger.Debug().Int64("product_id", product.ID).Msg("product created")

	return &product, nil
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product *model.Product
	err := withPgTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		product, err = r.findByID(ctx, tx, id)
		return err
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, err
	}
	if product == nil {
		r.logger.Debug().Int64("product_id", id).Msg("product not found")
	}
	return product, nil
}

// GetByName retrieves a single product by its exact name.
func (r *productRepository) GetByName(ctx context.Context, name string) (*model.Product, error) {
	var product *model.Product
	err := withPgTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			SELECT id, name, description, price_cents, created_at
			FROM products
			WHERE name = $1
		`
		p, err := scanProduct(tx.QueryRow(ctx, query, name))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to query product by name: %w", err)
		}
		product = p
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("product_name", name).Msg("failed to query product by name")
		return nil, err
	}
	return product, nil
}

// List retrieves all products in id order.
func (r *productRepository) List(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}
	err := withPgTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			SELECT id, name, description, price_cents, created_at
			FROM products
			ORDER BY id
		`
		rows, err := tx.Query(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to query products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return fmt.Errorf("failed to scan product: %w", err)
			}
			products = append(products, *p)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("error iterating products: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list products")
		return nil, err
	}
	return products, nil
}

// Update overwrites the supplied fields of an existing product.
func (r *productRepository) Update(ctx context.Context, id int64, fields model.ProductFields) (*model.Product, error) {
	var updated *model.Product
	err := withPgTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := r.findByID(ctx, tx, id)
		if err != nil || current == nil {
			return err
		}

		if fields.Name != nil && *fields.Name != current.Name {
			if err := r.checkNameFree(ctx, tx, *fields.Name, id); err != nil {
				return err
			}
		}

		merged := fields.Apply(*current)
		query := `
			UPDATE products
			SET name = $1, description = $2, price_cents = $3
			WHERE id = $4
		`
		_, err = tx.Exec(ctx, query,
			merged.Name,
			merged.Description,
			model.PriceToCents(merged.Price),
			id,
		)
		if err != nil {
			if isPgUniqueViolation(err) {
				return model.NewConflictError(merged.Name)
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		updated = &merged
		return nil
	})
	if err != nil {
		r.logFailure(err, "failed to update product")
		return nil, err
	}
	return updated, nil
}

// Delete removes a product and returns it.
func (r *productRepository) Delete(ctx context.Context, id int64) (*model.Product, error) {
	var deleted *model.Product
	err := withPgTx(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := r.findByID(ctx, tx, id)
		if err != nil || current == nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		deleted = current
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return nil, err
	}
	return deleted, nil
}

// Ping checks that the database is reachable.
func (r *productRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool.
func (r *productRepository) Close() {
	r.pool.Close()
}

func (r *productRepository) findByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error) {
	query := `
		SELECT id, name, description, price_cents, created_at
		FROM products
		WHERE id = $1
	`
	p, err := scanProduct(tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return p, nil
}

func (r *productRepository) checkNameFree(ctx context.Context, tx pgx.Tx, name string, exceptID int64) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE name = $1 AND id <> $2)`
	if err := tx.QueryRow(ctx, query, name, exceptID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check product name: %w", err)
	}
	if exists {
		return model.NewConflictError(name)
	}
	return nil
}

func (r *productRepository) nextID(ctx context.Context, tx pgx.Tx) (int64, error) {
	var next int64
	query := `
		UPDATE product_sequence
		SET next_id = next_id + 1
		WHERE name = $1
		RETURNING next_id - 1
	`
	if err := tx.QueryRow(ctx, query, sequenceName).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to advance product sequence: %w", err)
	}
	return next, nil
}

func (r *productRepository) logFailure(err error, msg string) {
	if model.KindOf(err) == model.KindConflict {
		r.logger.Debug().Err(err).Msg(msg)
		return
	}
	r.logger.Error().Err(err).Msg(msg)
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p          model.Product
		priceCents int64
		createdAt  time.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &priceCents, &createdAt); err != nil {
		return nil, err
	}
	p.Price = model.PriceFromCents(priceCents)
	p.CreatedAt = createdAt.UTC()
	return &p, nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
