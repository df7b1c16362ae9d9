package config

import (
	"net/url"
	"strings"
	"time"

	"product-service/internal/model"
)

// Environment classifies the deployment the process runs in.
type Environment string

const (
	EnvLocal       Environment = "local"
	EnvDevelopment Environment = "development"
	EnvTest        Environment = "test"
	EnvProduction  Environment = "production"
)

// EngineKind is the class of backing store.
type EngineKind string

const (
	EngineEmbeddedFile EngineKind = "embedded-file"
	EngineInMemory     EngineKind = "in-memory"
	EngineNetworked    EngineKind = "networked"
)

// Driver names the database driver family behind an engine.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Pool defaults applied to networked engines outside production.
const (
	DefaultPoolSize     = 10
	DefaultMaxOverflow  = 20
	DefaultPoolRecycle  = time.Hour
	DefaultSQLitePath   = "product_management.db"
	InMemorySQLiteDSN   = ":memory:"
	defaultEnvironment  = EnvLocal
	environmentVariable = "ENVIRONMENT"
)

// DatabaseSettings are the raw persistence settings read from the environment.
type DatabaseSettings struct {
	Environment string
	TestMode    bool
	PostgresURI string // primary networked engine
	MySQLURI    string // alternate networked engine
	SQLitePath  string
	PoolSize    *int
	MaxOverflow *int
	Echo        bool
	PoolRecycle time.Duration
}

// ConnectionDescriptor is the resolved, immutable description of the store
// the process uses for its whole lifetime.
type ConnectionDescriptor struct {
	Environment     Environment
	Kind            EngineKind
	Driver          Driver
	DSN             string
	PoolSize        int
	MaxOverflow     int
	Echo            bool
	ConnMaxLifetime time.Duration
}

// MaxConnections is the hard ceiling on open connections: the steady pool
// plus the overflow allowance.
func (d ConnectionDescriptor) MaxConnections() int {
	return d.PoolSize + d.MaxOverflow
}

// Redacted returns the DSN with any password masked, for logging.
func (d ConnectionDescriptor) Redacted() string {
	u, err := url.Parse(d.DSN)
	if err != nil || u.User == nil {
		return d.DSN
	}
	return u.Redacted()
}

// DatabaseSettingsFromEnv reads the persistence settings from the environment.
func DatabaseSettingsFromEnv() DatabaseSettings {
	s := DatabaseSettings{
		Environment: getEnv(environmentVariable, string(defaultEnvironment)),
		TestMode:    getEnvAsBool("TEST_MODE", false),
		PostgresURI: getEnv("POSTGRES_URI", ""),
		MySQLURI:    getEnv("MYSQL_URI", ""),
		SQLitePath:  getEnv("SQLITE_PATH", DefaultSQLitePath),
		Echo:        getEnvAsBool("DB_ECHO", false),
		PoolRecycle: time.Duration(getEnvAsInt("DB_POOL_RECYCLE", int(DefaultPoolRecycle/time.Second))) * time.Second,
	}
	if v, ok := getEnvAsOptionalInt("DB_POOL_SIZE"); ok {
		s.PoolSize = &v
	}
	if v, ok := getEnvAsOptionalInt("DB_MAX_OVERFLOW"); ok {
		s.MaxOverflow = &v
	}
	return s
}

// ResolveDatabase turns the settings into exactly one connection descriptor.
// It never opens a connection.
func ResolveDatabase(s DatabaseSettings) (ConnectionDescriptor, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(s.Environment)))
	if s.TestMode {
		env = EnvTest
	}

	switch env {
	case EnvLocal:
		path := s.SQLitePath
		if path == "" {
			path = DefaultSQLitePath
		}
		return ConnectionDescriptor{
			Environment: env,
			Kind:        EngineEmbeddedFile,
			Driver:      DriverSQLite,
			DSN:         path,
			PoolSize:    1,
			Echo:        s.Echo,
		}, nil

	case EnvTest:
		return ConnectionDescriptor{
			Environment: env,
			Kind:        EngineInMemory,
			Driver:      DriverSQLite,
			DSN:         InMemorySQLiteDSN,
			PoolSize:    1,
			Echo:        s.Echo,
		}, nil

	case EnvDevelopment:
		driver, uri, err := networkedURI(env, s)
		if err != nil {
			return ConnectionDescriptor{}, err
		}
		if err := checkPoolBounds(s); err != nil {
			return ConnectionDescriptor{}, err
		}
		return ConnectionDescriptor{
			Environment:     env,
			Kind:            EngineNetworked,
			Driver:          driver,
			DSN:             uri,
			PoolSize:        intOrDefault(s.PoolSize, DefaultPoolSize),
			MaxOverflow:     intOrDefault(s.MaxOverflow, DefaultMaxOverflow),
			Echo:            s.Echo,
			ConnMaxLifetime: recycleOrDefault(s.PoolRecycle),
		}, nil

	case EnvProduction:
		driver, uri, err := networkedURI(env, s)
		if err != nil {
			return ConnectionDescriptor{}, err
		}
		if s.PoolSize == nil || s.MaxOverflow == nil {
			return ConnectionDescriptor{}, model.NewConfigurationError(
				"DB_POOL_SIZE and DB_MAX_OVERFLOW are required in %s", env)
		}
		if err := checkPoolBounds(s); err != nil {
			return ConnectionDescriptor{}, err
		}
		return ConnectionDescriptor{
			Environment:     env,
			Kind:            EngineNetworked,
			Driver:          driver,
			DSN:             uri,
			PoolSize:        *s.PoolSize,
			MaxOverflow:     *s.MaxOverflow,
			Echo:            false,
			ConnMaxLifetime: recycleOrDefault(s.PoolRecycle),
		}, nil

	default:
		return ConnectionDescriptor{}, model.NewConfigurationError(
			"unrecognised environment %q (must be local, development, test, or production)", s.Environment)
	}
}

// checkPoolBounds rejects pool settings that were supplied out of range.
func checkPoolBounds(s DatabaseSettings) error {
	if s.PoolSize != nil && *s.PoolSize < 1 {
		return model.NewConfigurationError("DB_POOL_SIZE must be at least 1")
	}
	if s.MaxOverflow != nil && *s.MaxOverflow < 0 {
		return model.NewConfigurationError("DB_MAX_OVERFLOW cannot be negative")
	}
	return nil
}

// networkedURI picks the primary URI when present, otherwise the alternate.
func networkedURI(env Environment, s DatabaseSettings) (Driver, string, error) {
	var (
		driver Driver
		uri    string
	)
	switch {
	case strings.TrimSpace(s.PostgresURI) != "":
		driver, uri = DriverPostgres, strings.TrimSpace(s.PostgresURI)
	case strings.TrimSpace(s.MySQLURI) != "":
		driver, uri = DriverMySQL, strings.TrimSpace(s.MySQLURI)
	default:
		return "", "", model.NewConfigurationError(
			"no database URI configured for %s (set POSTGRES_URI or MYSQL_URI)", env)
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", "", model.NewConfigurationError("malformed %s URI: %v", driver, err)
	}
	if !schemeMatches(driver, u.Scheme) {
		return "", "", model.NewConfigurationError("unexpected scheme %q for %s URI", u.Scheme, driver)
	}
	if u.Host == "" {
		return "", "", model.NewConfigurationError("%s URI has no host", driver)
	}
	return driver, uri, nil
}

func schemeMatches(driver Driver, scheme string) bool {
	switch driver {
	case DriverPostgres:
		return scheme == "postgres" || scheme == "postgresql"
	case DriverMySQL:
		return scheme == "mysql"
	}
	return false
}

func intOrDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func recycleOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultPoolRecycle
	}
	return d
}
