package database

import (
	"context"
	"fmt"
	"time"

	"product-service/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// NewPool creates a new PostgreSQL connection pool from a resolved descriptor.
func NewPool(ctx context.Context, desc config.ConnectionDescriptor, logger zerolog.Logger) (*pgxpool.Pool, error) {
	if desc.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("descriptor driver %q is not postgres", desc.Driver)
	}

	poolConfig, err := pgxpool.ParseConfig(desc.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Configure pool settings
	poolConfig.MaxConns = int32(maxConnections(desc))
	poolConfig.MaxConnLifetime = desc.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	if desc.Echo {
		poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   echoLogger(logger),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	logger.Info().
		Str("driver", string(desc.Driver)).
		Str("dsn", desc.Redacted()).
		Int("pool_size", desc.PoolSize).
		Int("max_overflow", desc.MaxOverflow).
		Bool("echo", desc.Echo).
		Msg("creating database connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("database connection pool created successfully")

	return pool, nil
}

// echoLogger routes pgx statement traces into zerolog at debug level.
func echoLogger(logger zerolog.Logger) tracelog.Logger {
	l := logger.With().Str("component", "sql-echo").Logger()
	return tracelog.LoggerFunc(func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		l.Debug().Fields(data).Str("pgx_level", level.String()).Msg(msg)
	})
}

func maxConnections(desc config.ConnectionDescriptor) int {
	if n := desc.MaxConnections(); n > 0 {
		return n
	}
	return 1
}
