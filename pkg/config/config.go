package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/narwhalmedia/querykit/pkg/database"
	apperrors "github.com/narwhalmedia/querykit/pkg/errors"
	"github.com/narwhalmedia/querykit/pkg/query"
)

// Config is the interface that all loadable configs must implement.
type Config interface {
	Validate() error
}

// BaseConfig contains the configuration shared by every querykit binary.
type BaseConfig struct {
	Service    ServiceConfig    `koanf:"service"`
	Database   DatabaseConfig   `koanf:"database"`
	Logger     LoggerConfig     `koanf:"logger"`
	Pagination PaginationConfig `koanf:"pagination"`
	Query      QueryConfig      `koanf:"query"`
}

// ServiceConfig contains service metadata.
type ServiceConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // dev, staging, production
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // sqlite or postgres
	DSN             string        `koanf:"dsn"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Database        string        `koanf:"database"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxConnections  int           `koanf:"max_connections"`
	MinConnections  int           `koanf:"min_connections"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	SlowThreshold   time.Duration `koanf:"slow_threshold"`
	LogLevel        string        `koanf:"log_level"` // silent, error, warn, info
}

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level       string `koanf:"level"`  // debug, info, warn, error
	Format      string `koanf:"format"` // json, console
	Development bool   `koanf:"development"`
	OutputPath  string `koanf:"output_path"` // stdout, stderr, or file path
}

// PaginationConfig contains pagination configuration.
type PaginationConfig struct {
	CursorEncryptionKey string        `koanf:"cursor_encryption_key"`
	MaxPageSize         int           `koanf:"max_page_size"`
	DefaultPageSize     int           `koanf:"default_page_size"`
	CursorExpiration    time.Duration `koanf:"cursor_expiration"`
}

// QueryConfig contains query execution settings.
type QueryConfig struct {
	EvaluationMode string `koanf:"evaluation_mode"` // pushdown or client
	Metrics        bool   `koanf:"metrics"`
}

// Manager handles configuration loading and parsing.
type Manager struct {
	k           *koanf.Koanf
	serviceName string
	configPaths []string
	required    map[string]bool
}

// NewManager creates a new configuration manager.
func NewManager(serviceName string) *Manager {
	return &Manager{
		k:           koanf.New("."),
		serviceName: serviceName,
		configPaths: getDefaultConfigPaths(serviceName),
		required:    map[string]bool{},
	}
}

// WithPaths puts explicit config files ahead of the default search paths.
// Explicit files must exist.
func (m *Manager) WithPaths(paths ...string) *Manager {
	m.configPaths = append(append([]string(nil), paths...), m.configPaths...)
	for _, path := range paths {
		m.required[path] = true
	}
	return m
}

// LoadConfig loads configuration from all sources.
func (m *Manager) LoadConfig(cfg Config) error {
	// 1. Load defaults from the struct itself
	if err := m.loadDefaults(cfg); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load from config files (in order of precedence)
	for _, path := range m.configPaths {
		if err := m.loadFromFile(path); err != nil {
			// Skip if file doesn't exist, error on parse failures
			if m.required[path] || !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		}
	}

	// 3. Load from environment variables
	if err := m.loadFromEnv(); err != nil {
		return fmt.Errorf("failed to load from environment: %w", err)
	}

	// 4. Unmarshal into the config struct
	if err := m.k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate the configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the merged value for a dotted key, or nil when it is unset.
func (m *Manager) Get(key string) any {
	return m.k.Get(key)
}

func (m *Manager) loadDefaults(cfg Config) error {
	return m.k.Load(structs.Provider(cfg, "koanf"), nil)
}

func (m *Manager) loadFromFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	return m.k.Load(file.Provider(path), parser)
}

// loadFromEnv maps QUERYKIT_DATABASE_MAX_CONNECTIONS to
// database.max_connections: the first segment names the section.
func (m *Manager) loadFromEnv() error {
	prefix := strings.ToUpper(m.serviceName) + "_"

	return m.k.Load(env.Provider(prefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, prefix))
		section, field, found := strings.Cut(key, "_")
		if !found {
			return key
		}
		return section + "." + field
	}), nil)
}

func getDefaultConfigPaths(serviceName string) []string {
	paths := []string{
		fmt.Sprintf("%s.yaml", serviceName),
		fmt.Sprintf("%s.json", serviceName),
		fmt.Sprintf("configs/%s.yaml", serviceName),
		fmt.Sprintf("configs/%s.json", serviceName),
		fmt.Sprintf("configs/%s.%s.yaml", serviceName, getEnvironment(serviceName)),
	}

	if configPath := os.Getenv(strings.ToUpper(serviceName) + "_CONFIG_PATH"); configPath != "" {
		paths = append([]string{configPath}, paths...)
	}

	return paths
}

func getEnvironment(serviceName string) string {
	if env := os.Getenv(strings.ToUpper(serviceName) + "_ENVIRONMENT"); env != "" {
		return env
	}
	return "dev"
}

// Validate validates the base configuration.
func (c *BaseConfig) Validate() error {
	if c.Service.Name == "" {
		return errors.New("service name is required")
	}

	switch c.Database.Driver {
	case database.DriverSQLite:
		if c.Database.DSN == "" {
			return errors.New("sqlite database requires a dsn")
		}
	case database.DriverPostgres:
		if c.Database.DSN == "" && c.Database.Host == "" {
			return errors.New("postgres database requires a dsn or host")
		}
		if c.Database.DSN == "" && (c.Database.Port <= 0 || c.Database.Port > 65535) {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
	default:
		return apperrors.UnsupportedMode("database driver", c.Database.Driver)
	}

	if _, err := query.ParseEvaluationMode(c.Query.EvaluationMode); err != nil {
		return err
	}

	if key := c.Pagination.CursorEncryptionKey; key != "" && len(key) != CursorKeySize {
		return fmt.Errorf("cursor encryption key must be %d bytes, got %d", CursorKeySize, len(key))
	}
	if c.Pagination.DefaultPageSize < 1 || c.Pagination.MaxPageSize < c.Pagination.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default %d, max %d",
			c.Pagination.DefaultPageSize, c.Pagination.MaxPageSize)
	}

	return nil
}

// GetDefaults returns default configuration values.
func GetDefaults() *BaseConfig {
	return &BaseConfig{
		Service: ServiceConfig{
			Name:        DefaultServiceName,
			Environment: "dev",
		},
		Database: DatabaseConfig{
			Driver:          database.DriverSQLite,
			DSN:             DefaultSQLiteDSN,
			Port:            DefaultPostgresPort,
			SSLMode:         "disable",
			MaxConnections:  1,
			MinConnections:  1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: DefaultMaxConnIdleTime,
			SlowThreshold:   DefaultSlowThreshold,
			LogLevel:        "warn",
		},
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "json",
			Development: false,
			OutputPath:  "stderr",
		},
		Pagination: PaginationConfig{
			MaxPageSize:      DefaultMaxPageSize,
			DefaultPageSize:  DefaultPageSize,
			CursorExpiration: DefaultCursorExpiration,
		},
		Query: QueryConfig{
			EvaluationMode: string(query.ModePushdown),
		},
	}
}
