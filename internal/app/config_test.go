package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aurelius.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, ".aurelius", cfg.Storage.Dir)
	assert.Equal(t, "aurelius", cfg.Storage.RedisNamespace)
	assert.Equal(t, 2*time.Second, cfg.Checkout.Delay)
	assert.Equal(t, "AUR-", cfg.Checkout.OrderPrefix)
	assert.Equal(t, 1500*time.Millisecond, cfg.Newsletter.Delay)
	assert.Empty(t, cfg.Catalog.File)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
checkout:
  delay: 10ms
  order_prefix: TST-
newsletter:
  delay: 5ms
`)

	cfg, err := loadConfig([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 10*time.Millisecond, cfg.Checkout.Delay)
	assert.Equal(t, "TST-", cfg.Checkout.OrderPrefix)
	assert.Equal(t, 5*time.Millisecond, cfg.Newsletter.Delay)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("AUR_STORAGE_DRIVER", "memory")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestLoadConfig_PlatformURLs(t *testing.T) {
	t.Setenv("AUR_STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/aurelius")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/aurelius", cfg.Storage.PostgresURL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		driver string
	}{
		{"unknown driver", "sqlite"},
		{"redis without url", "redis"},
		{"postgres without url", "postgres"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUR_STORAGE_DRIVER", tt.driver)
			t.Setenv("REDIS_URL", "")
			t.Setenv("DATABASE_URL", "")

			_, err := loadConfig(nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}
