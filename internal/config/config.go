package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type AppConfig struct {
	Port            string
	Env             string
	LogLevel        string
	CatalogPath     string
	ShutdownTimeout time.Duration
}

// Development reports whether logs should be human readable.
func (a AppConfig) Development() bool {
	return a.Env == "development" || a.Env == "dev" || a.Env == "local"
}

type StorageConfig struct {
	Driver string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrationsPath  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type PaymentConfig struct {
	Delay         time.Duration
	Jitter        time.Duration
	SuccessRate   float64
	EWalletWindow time.Duration
}

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Payment  PaymentConfig
	TaxRate  decimal.Decimal
}

// NewConfig reads the configuration from the environment. A .env file in the
// working directory (or at ENV_FILE) is loaded first when present; variables
// already set in the environment win.
func NewConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	r := &reader{}
	cfg := &Config{}

	cfg.App.Port = r.str("APP_PORT", "8080")
	cfg.App.Env = r.str("APP_ENV", "development")
	cfg.App.LogLevel = r.str("LOG_LEVEL", "info")
	cfg.App.CatalogPath = r.str("CATALOG_PATH", "")
	cfg.App.ShutdownTimeout = r.duration("SHUTDOWN_TIMEOUT", 15*time.Second)

	cfg.Storage.Driver = strings.ToLower(r.str("STORAGE_DRIVER", DriverMemory))
	switch cfg.Storage.Driver {
	case DriverMemory, DriverPostgres, DriverRedis:
	default:
		r.fail("STORAGE_DRIVER", fmt.Errorf("unknown driver %q", cfg.Storage.Driver))
	}

	cfg.Postgres.Host = r.str("DB_HOST", "localhost")
	cfg.Postgres.Port = r.str("DB_PORT", "5432")
	cfg.Postgres.User = r.str("DB_USER", "")
	cfg.Postgres.Password = r.str("DB_PASSWORD", "")
	cfg.Postgres.DBName = r.str("DB_NAME", "")
	cfg.Postgres.SSLMode = r.str("DB_SSLMODE", "disable")
	cfg.Postgres.MaxConns = int32(r.integer("DB_MAX_CONNS", 10))
	cfg.Postgres.MinConns = int32(r.integer("DB_MIN_CONNS", 1))
	cfg.Postgres.MaxConnLifetime = r.duration("DB_MAX_CONN_LIFETIME", time.Hour)
	cfg.Postgres.MigrationsPath = r.str("DB_MIGRATIONS_PATH", "migrations")
	if cfg.Storage.Driver == DriverPostgres {
		r.required("DB_USER", cfg.Postgres.User)
		r.required("DB_PASSWORD", cfg.Postgres.Password)
		r.required("DB_NAME", cfg.Postgres.DBName)
	}

	cfg.Redis.Addr = r.str("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = r.str("REDIS_PASSWORD", "")
	cfg.Redis.DB = r.integer("REDIS_DB", 0)
	cfg.Redis.TTL = r.duration("REDIS_TTL", 0)

	cfg.Payment.Delay = r.duration("PAYMENT_DELAY", 3*time.Second)
	cfg.Payment.Jitter = r.duration("PAYMENT_JITTER", 500*time.Millisecond)
	cfg.Payment.SuccessRate = r.float("PAYMENT_SUCCESS_RATE", 0.9)
	if cfg.Payment.SuccessRate < 0 || cfg.Payment.SuccessRate > 1 {
		r.fail("PAYMENT_SUCCESS_RATE", errors.New("must be between 0 and 1"))
	}
	cfg.Payment.EWalletWindow = r.duration("EWALLET_WINDOW", 5*time.Minute)

	cfg.TaxRate = r.decimal("TAX_RATE", "0.12")
	if cfg.TaxRate.IsNegative() {
		r.fail("TAX_RATE", errors.New("must not be negative"))
	}

	if err := errors.Join(r.errs...); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// reader collects every bad variable instead of stopping at the first one.
type reader struct {
	errs []error
}

func (r *reader) fail(name string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s: %w", name, err))
}

func (r *reader) required(name, value string) {
	if value == "" {
		r.fail(name, errors.New("is required"))
	}
}

func (r *reader) str(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) integer(name string, def int) int {
	v := r.str(name, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(name, err)
		return def
	}
	return n
}

func (r *reader) float(name string, def float64) float64 {
	v := r.str(name, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(name, err)
		return def
	}
	return f
}

func (r *reader) duration(name string, def time.Duration) time.Duration {
	v := r.str(name, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(name, err)
		return def
	}
	return d
}

func (r *reader) decimal(name, def string) decimal.Decimal {
	d, err := decimal.NewFromString(r.str(name, def))
	if err != nil {
		r.fail(name, err)
		return decimal.RequireFromString(def)
	}
	return d
}
