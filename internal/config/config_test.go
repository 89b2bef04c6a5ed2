package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/config"
)

// isolate points ENV_FILE at a missing file so a developer's .env does not leak in.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestNewConfig_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.True(t, cfg.App.Development())
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 3*time.Second, cfg.Payment.Delay)
	assert.Equal(t, 500*time.Millisecond, cfg.Payment.Jitter)
	assert.Equal(t, 0.9, cfg.Payment.SuccessRate)
	assert.Equal(t, 5*time.Minute, cfg.Payment.EWalletWindow)
	assert.True(t, decimal.RequireFromString("0.12").Equal(cfg.TaxRate))
}

func TestNewConfig_FromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("APP_PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DB_USER", "storefront")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "storefront")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("PAYMENT_DELAY", "0s")
	t.Setenv("TAX_RATE", "0.10")

	cfg, err := config.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.False(t, cfg.App.Development())
	assert.Equal(t, config.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, int32(25), cfg.Postgres.MaxConns)
	assert.Zero(t, cfg.Payment.Delay)
	assert.Equal(t, "0.1", cfg.TaxRate.String())
}

func TestNewConfig_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CATALOG_PATH=/etc/storefront/catalog.yaml\nREDIS_DB=2\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("REDIS_DB", "")
	// godotenv only fills variables that are not set; drop the empty ones above.
	require.NoError(t, os.Unsetenv("CATALOG_PATH"))
	require.NoError(t, os.Unsetenv("REDIS_DB"))

	cfg, err := config.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "/etc/storefront/catalog.yaml", cfg.App.CatalogPath)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestNewConfig_Invalid(t *testing.T) {
	isolate(t)
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("PAYMENT_SUCCESS_RATE", "1.5")
	t.Setenv("EWALLET_WINDOW", "five minutes")
	t.Setenv("TAX_RATE", "twelve")

	_, err := config.NewConfig()
	require.Error(t, err)

	for _, name := range []string{"DB_USER", "DB_PASSWORD", "DB_NAME", "PAYMENT_SUCCESS_RATE", "EWALLET_WINDOW", "TAX_RATE"} {
		assert.Contains(t, err.Error(), name)
	}

	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err = config.NewConfig()
	require.ErrorContains(t, err, "STORAGE_DRIVER")
}
