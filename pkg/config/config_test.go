package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/narwhalmedia/querykit/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := GetDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "pushdown", cfg.Query.EvaluationMode)
}

func TestLoadConfig(t *testing.T) {
	t.Run("file then environment", func(t *testing.T) {
		path := writeFile(t, "querykit.yaml", `
database:
  driver: postgres
  host: db.internal
  max_connections: 8
  slow_threshold: 1s
pagination:
  default_page_size: 20
query:
  evaluation_mode: client
`)
		t.Setenv("QUERYKIT_DATABASE_MAX_CONNECTIONS", "12")
		t.Setenv("QUERYKIT_LOGGER_LEVEL", "debug")

		cfg := GetDefaults()
		m, err := LoadServiceConfig("querykit", cfg, path)
		require.NoError(t, err)

		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 12, cfg.Database.MaxConnections)
		assert.Equal(t, time.Second, cfg.Database.SlowThreshold)
		assert.Equal(t, DefaultPostgresPort, cfg.Database.Port)
		assert.Equal(t, 20, cfg.Pagination.DefaultPageSize)
		assert.Equal(t, "client", cfg.Query.EvaluationMode)
		assert.Equal(t, "debug", cfg.Logger.Level)

		assert.Equal(t, "db.internal", m.Get("database.host"))
		assert.Equal(t, "12", m.Get("database.max_connections"), "environment values stay strings")
		assert.Nil(t, m.Get("database.missing"))
	})

	t.Run("json files are supported", func(t *testing.T) {
		path := writeFile(t, "querykit.json", `{"service": {"name": "reports"}}`)
		cfg := GetDefaults()
		_, err := LoadServiceConfig("querykit", cfg, path)
		require.NoError(t, err)
		assert.Equal(t, "reports", cfg.Service.Name)
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		_, err := LoadServiceConfig("querykit", GetDefaults(), filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("unsupported evaluation mode", func(t *testing.T) {
		t.Setenv("QUERYKIT_QUERY_EVALUATION_MODE", "eager")
		_, err := LoadServiceConfig("querykit", GetDefaults())
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidArgument(err))
		assert.Contains(t, err.Error(), `"eager"`)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*BaseConfig)
		wantErr string
	}{
		{"missing service name", func(c *BaseConfig) { c.Service.Name = "" }, "service name"},
		{"sqlite without dsn", func(c *BaseConfig) { c.Database.DSN = "" }, "dsn"},
		{"postgres without host", func(c *BaseConfig) {
			c.Database.Driver = "postgres"
			c.Database.DSN = ""
		}, "dsn or host"},
		{"postgres bad port", func(c *BaseConfig) {
			c.Database.Driver = "postgres"
			c.Database.DSN = ""
			c.Database.Host = "db"
			c.Database.Port = 70000
		}, "invalid database port"},
		{"short cursor key", func(c *BaseConfig) { c.Pagination.CursorEncryptionKey = "short" }, "32 bytes"},
		{"page sizes", func(c *BaseConfig) { c.Pagination.MaxPageSize = 5 }, "invalid page sizes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	cfg := GetDefaults()
	cfg.Pagination.CursorEncryptionKey = strings.Repeat("k", CursorKeySize)
	assert.NoError(t, cfg.Validate())
}

func TestConversions(t *testing.T) {
	cfg := GetDefaults()
	cfg.Database.LogLevel = "silent"
	db := cfg.Database.ToDatabaseConfig()
	assert.Equal(t, "sqlite", db.Driver)
	assert.Equal(t, gormlogger.Silent, db.LogLevel)

	cfg.Logger.Development = true
	cfg.Logger.Format = ""
	log := cfg.Logger.ToLoggerConfig()
	assert.Equal(t, "console", log.Encoding)
	assert.Equal(t, []string{"stderr"}, log.OutputPaths)

	assert.Equal(t, "dev", GetServiceVersion(&cfg.Service))
	assert.False(t, IsProduction(&cfg.Service))

	t.Setenv("QUERYKIT_VERSION", "1.4.0")
	assert.Equal(t, "1.4.0", GetServiceVersion(&cfg.Service))
	cfg.Service.Version = "2.0.0"
	cfg.Service.Environment = "prod"
	assert.Equal(t, "2.0.0", GetServiceVersion(&cfg.Service))
	assert.True(t, IsProduction(&cfg.Service))
}
