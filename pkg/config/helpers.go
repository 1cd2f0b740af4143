package config

import (
	"os"

	"github.com/narwhalmedia/querykit/pkg/database"
	"github.com/narwhalmedia/querykit/pkg/logger"
)

// LoadServiceConfig is a generic helper to load service configuration. The
// returned manager keeps the merged values for lookups by key.
func LoadServiceConfig[T Config](serviceName string, cfg T, paths ...string) (*Manager, error) {
	m := NewManager(serviceName).WithPaths(paths...)
	if err := m.LoadConfig(cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// ToDatabaseConfig converts config to database package config
func (c DatabaseConfig) ToDatabaseConfig() *database.Config {
	return &database.Config{
		Driver:          c.Driver,
		DSN:             c.DSN,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Database,
		SSLMode:         c.SSLMode,
		MaxConnections:  c.MaxConnections,
		MinConnections:  c.MinConnections,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
		SlowThreshold:   c.SlowThreshold,
		LogLevel:        database.ParseLogLevel(c.LogLevel),
	}
}

// ToLoggerConfig converts config to logger package config
func (c LoggerConfig) ToLoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if c.Development {
		cfg = logger.DevelopmentConfig()
	}
	if c.Level != "" {
		cfg.Level = c.Level
	}
	if c.Format != "" {
		cfg.Encoding = c.Format
	}
	if c.OutputPath != "" {
		cfg.OutputPaths = []string{c.OutputPath}
	}
	return cfg
}

// GetServiceVersion returns the service version from config or environment
func GetServiceVersion(cfg *ServiceConfig) string {
	if cfg.Version != "" {
		return cfg.Version
	}
	if version := os.Getenv("QUERYKIT_VERSION"); version != "" {
		return version
	}
	return "dev"
}

// IsProduction returns true if running in production environment
func IsProduction(cfg *ServiceConfig) bool {
	return cfg.Environment == "production" || cfg.Environment == "prod"
}
