package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openaria/ariad/internal/protocol/aria"
	"github.com/openaria/ariad/pkg/store"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "kg", cfg.WeightUnit)
	assert.Equal(t, 80, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, store.DatabaseTypeSQLite, cfg.Database.Type)
	assert.NotEmpty(t, cfg.Database.SQLitePath)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadEnvAliases(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://ariad:secret@db:5432/ariad")
	t.Setenv("WEIGHT_UNIT", "lbs")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, store.DatabaseTypePostgres, cfg.Database.Type)
	assert.Equal(t, "postgres://ariad:secret@db:5432/ariad", cfg.Database.URL)
	assert.Equal(t, "lbs", cfg.WeightUnit)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestLoadSQLiteURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "/var/lib/ariad/ariad.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, store.DatabaseTypeSQLite, cfg.Database.Type)
	assert.Equal(t, "/var/lib/ariad/ariad.db", cfg.Database.SQLitePath)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ariad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: warn
  format: json
server:
  port: 8080
weight_unit: stones
metrics:
  enabled: true
  port: 9200
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "stones", cfg.WeightUnit)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9200, cfg.Metrics.Port)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("WEIGHT_UNIT", "bananas")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WeightUnit")
}

func TestUnitMapping(t *testing.T) {
	tests := []struct {
		unit string
		want aria.Unit
	}{
		{"kg", aria.UnitKilograms},
		{"lbs", aria.UnitPounds},
		{"stones", aria.UnitStones},
	}
	for _, tt := range tests {
		cfg := &Config{WeightUnit: tt.unit}
		assert.Equal(t, tt.want, cfg.Unit())
	}
}
