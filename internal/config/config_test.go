package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/rentalhub.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, 30, cfg.API.RateLimit.Requests)
	assert.Equal(t, 60, cfg.API.RateLimit.Window)
	assert.Equal(t, 365, cfg.Rentals.MaxAdvanceDays)
	assert.Equal(t, "00:05", cfg.Sweep.ActivationTime)
	assert.Equal(t, 5, cfg.Notifications.MaxRetries)
	assert.Equal(t, "exports", cfg.Exports.Path)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
app:
  name: rentalhub
  environment: test
database:
  path: /tmp/rentalhub.db
redis:
  enabled: true
  address: localhost:6379
api:
  http:
    port: 9000
  rate_limit:
    requests: 10
    window: 30
rentals:
  max_advance_days: 90
sweep:
  activation_time: "06:30"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "rentalhub", cfg.App.Name)
	assert.Equal(t, 9000, cfg.API.HTTP.Port)
	assert.Equal(t, 10, cfg.API.RateLimit.Requests)
	assert.Equal(t, 90, cfg.Rentals.MaxAdvanceDays)
	assert.Equal(t, "06:30", cfg.Sweep.ActivationTime)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/tmp/from-env.db")
	path := writeConfig(t, `
database:
  path: "${TEST_DB_PATH}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env.db", cfg.Database.Path)
}

func TestValidation(t *testing.T) {
	t.Run("MissingDatabasePath", func(t *testing.T) {
		_, err := Load(writeConfig(t, `app: {name: x}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database path")
	})

	t.Run("RedisEnabledWithoutAddress", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
database:
  path: /tmp/x.db
redis:
  enabled: true
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis address")
	})

	t.Run("TelegramEnabledWithoutToken", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
database:
  path: /tmp/x.db
notifications:
  telegram_enabled: true
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telegram token")
	})

	t.Run("NegativeMaxAdvanceDays", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
database:
  path: /tmp/x.db
rentals:
  max_advance_days: -1
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_advance_days")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
