package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"product-service/internal/model"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Name column per driver. MySQL's default collation ignores case, so the
// column is bound to a binary no-pad collation there to match SQLite and
// PostgreSQL.
const (
	defaultNameColumn = `name VARCHAR(255) NOT NULL UNIQUE`
	mysqlNameColumn   = `name VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_0900_bin NOT NULL UNIQUE`
)

// sqlSchema returns the DDL for SQLite or MySQL. Ids are allocated from
// product_sequence rather than engine autoincrement.
func sqlSchema(driverName string) []string {
	nameColumn := defaultNameColumn
	if driverName == "mysql" {
		nameColumn = mysqlNameColumn
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS products (
		id BIGINT NOT NULL PRIMARY KEY,
		` + nameColumn + `,
		description TEXT NULL,
		price_cents BIGINT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
		`CREATE TABLE IF NOT EXISTS product_sequence (
		name VARCHAR(64) NOT NULL PRIMARY KEY,
		next_id BIGINT NOT NULL
	)`,
	}
}

// productRow is the storage shape of a product in the database/sql engines.
type productRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	PriceCents  int64          `db:"price_cents"`
	CreatedAt   int64          `db:"created_at"` // unix microseconds, UTC
}

func (r productRow) toModel() model.Product {
	p := model.Product{
		ID:        r.ID,
		Name:      r.Name,
		Price:     model.PriceFromCents(r.PriceCents),
		CreatedAt: time.UnixMicro(r.CreatedAt).UTC(),
	}
	if r.Description.Valid {
		desc := r.Description.String
		p.Description = &desc
	}
	return p
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

const selectProductColumns = `SELECT id, name, description, price_cents, created_at FROM products`

// sqlProductRepository implements ProductRepository over database/sql for
// the SQLite and MySQL engines.
type sqlProductRepository struct {
	db     *sqlx.DB
	echo   bool
	logger zerolog.Logger
}

// NewSQLProductRepository creates a database/sql-backed product repository
// and makes sure its tables exist.
func NewSQLProductRepository(ctx context.Context, db *sqlx.DB, echo bool, logger zerolog.Logger) (ProductRepository, error) {
	r := &sqlProductRepository{
		db:     db,
		echo:   echo,
		logger: logger.With().Str("repository", "product").Str("driver", db.DriverName()).Logger(),
	}
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *sqlProductRepository) ensureSchema(ctx context.Context) error {
	for _, stmt := range sqlSchema(r.db.DriverName()) {
		r.logStatement(stmt)
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			r.logger.Error().Err(err).Msg("failed to create schema")
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return withSQLTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var count int
		if err := r.get(ctx, tx, &count, `SELECT COUNT(*) FROM product_sequence WHERE name = ?`, sequenceName); err != nil {
			return fmt.Errorf("failed to read product sequence: %w", err)
		}
		if count > 0 {
			return nil
		}

		var maxID int64
		if err := r.get(ctx, tx, &maxID, `SELECT COALESCE(MAX(id), 0) FROM products`); err != nil {
			return fmt.Errorf("failed to read max product id: %w", err)
		}
		if err := r.exec(ctx, tx, `INSERT INTO product_sequence (name, next_id) VALUES (?, ?)`, sequenceName, maxID+1); err != nil {
			return fmt.Errorf("failed to initialise product sequence: %w", err)
		}
		return nil
	})
}

// Create assigns an id and creation time, then persists the product.
func (r *sqlProductRepository) Create(ctx context.Context, fields model.ProductFields) (*model.Product, error) {
	if fields.Name == nil || fields.Price == nil {
		return nil, fmt.Errorf("name and price are required to create a product")
	}

	product := model.Product{
		Name:        *fields.Name,
		Description: fields.Description,
		Price:       *fields.Price,
		CreatedAt:   now(),
	}

	err := withSQLTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.checkNameFree(ctx, tx, product.Name, 0); err != nil {
			return err
		}

		id, err := r.nextID(ctx, tx)
		if err != nil {
			return err
		}
		product.ID = id

		query := `INSERT INTO products (id, name, description, price_cents, created_at) VALUES (?, ?, ?, ?, ?)`
		err = r.exec(ctx, tx, query,
			product.ID,
			product.Name,
			nullString(product.Description),
			model.PriceToCents(product.Price),
			product.CreatedAt.UnixMicro(),
		)
		if err != nil {
			if isUniqueViolation(err) {
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
func (r *sqlProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product *model.Product
	err := withSQLTx(ctx, r.db, func(tx *sqlx.Tx) error {
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
func (r *sqlProductRepository) GetByName(ctx context.Context, name string) (*model.Product, error) {
	var product *model.Product
	err := withSQLTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var row productRow
		err := r.get(ctx, tx, &row, selectProductColumns+` WHERE name = ?`, name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to query product by name: %w", err)
		}
		p := row.toModel()
		product = &p
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Str("product_name", name).Msg("failed to query product by name")
		return nil, err
	}
	return product, nil
}

// List retrieves all products in id order.
func (r *sqlProductRepository) List(ctx context.Context) ([]model.Product, error) {
	var rows []productRow
	err := withSQLTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := selectProductColumns + ` ORDER BY id`
		r.logStatement(query)
		if err := tx.SelectContext(ctx, &rows, tx.Rebind(query)); err != nil {
			return fmt.Errorf("failed to query products: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to list products")
		return nil, err
	}

	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toModel())
	}
	return products, nil
}

// Update overwrites the supplied fields of an existing product.
func (r *sqlProductRepository) Update(ctx context.Context, id int64, fields model.ProductFields) (*model.Product, error) {
	var updated *model.Product
	err := withSQLTx(ctx, r.db, func(tx *sqlx.Tx) error {
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
		query := `UPDATE products SET name = ?, description = ?, price_cents = ? WHERE id = ?`
		err = r.exec(ctx, tx, query,
			merged.Name,
			nullString(merged.Description),
			model.PriceToCents(merged.Price),
			id,
		)
		if err != nil {
			if isUniqueViolation(err) {
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
func (r *sqlProductRepository) Delete(ctx context.Context, id int64) (*model.Product, error) {
	var deleted *model.Product
	err := withSQLTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := r.findByID(ctx, tx, id)
		if err != nil || current == nil {
			return err
		}
		if err := r.exec(ctx, tx, `DELETE FROM products WHERE id = ?`, id); err != nil {
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
func (r *sqlProductRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database handle.
func (r *sqlProductRepository) Close() {
	if err := r.db.Close(); err != nil {
		r.logger.Warn().Err(err).Msg("failed to close database")
	}
}

func (r *sqlProductRepository) findByID(ctx context.Context, tx *sqlx.Tx, id int64) (*model.Product, error) {
	var row productRow
	err := r.get(ctx, tx, &row, selectProductColumns+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	p := row.toModel()
	return &p, nil
}

// checkNameFree returns a conflict error when another product already uses name.
func (r *sqlProductRepository) checkNameFree(ctx context.Context, tx *sqlx.Tx, name string, exceptID int64) error {
	var count int
	err := r.get(ctx, tx, &count, `SELECT COUNT(*) FROM products WHERE name = ? AND id <> ?`, name, exceptID)
	if err != nil {
		return fmt.Errorf("failed to check product name: %w", err)
	}
	if count > 0 {
		return model.NewConflictError(name)
	}
	return nil
}

// nextID allocates the next product id. The counter only ever moves forward,
// so ids are never reused after a delete.
func (r *sqlProductRepository) nextID(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	if err := r.exec(ctx, tx, `UPDATE product_sequence SET next_id = next_id + 1 WHERE name = ?`, sequenceName); err != nil {
		return 0, fmt.Errorf("failed to advance product sequence: %w", err)
	}
	var next int64
	if err := r.get(ctx, tx, &next, `SELECT next_id FROM product_sequence WHERE name = ?`, sequenceName); err != nil {
		return 0, fmt.Errorf("failed to read product sequence: %w", err)
	}
	return next - 1, nil
}

func (r *sqlProductRepository) get(ctx context.Context, tx *sqlx.Tx, dest interface{}, query string, args ...interface{}) error {
	r.logStatement(query, args...)
	return tx.GetContext(ctx, dest, tx.Rebind(query), args...)
}

func (r *sqlProductRepository) exec(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) error {
	r.logStatement(query, args...)
	_, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	return err
}

func (r *sqlProductRepository) logStatement(query string, args ...interface{}) {
	if !r.echo {
		return
	}
	r.logger.Debug().Str("sql", query).Interface("args", args).Msg("sql echo")
}

// logFailure logs infrastructure failures; conflicts are expected outcomes.
func (r *sqlProductRepository) logFailure(err error, msg string) {
	if model.KindOf(err) == model.KindConflict {
		r.logger.Debug().Err(err).Msg(msg)
		return
	}
	r.logger.Error().Err(err).Msg(msg)
}

// isUniqueViolation recognises a lost race on the unique name index.
func isUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
