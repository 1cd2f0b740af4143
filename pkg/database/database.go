package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/narwhalmedia/querykit/pkg/errors"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds database connection configuration
type Config struct {
	Driver          string
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	SlowThreshold   time.Duration
	LogLevel        gormlogger.LogLevel
}

// DefaultConfig returns a configuration for a private in-memory SQLite database
func DefaultConfig() *Config {
	return &Config{
		Driver:          DriverSQLite,
		DSN:             "file::memory:",
		MaxConnections:  1,
		MinConnections:  1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		SlowThreshold:   200 * time.Millisecond,
		LogLevel:        gormlogger.Warn,
	}
}

// Dialector returns the gorm dialector for the configured driver
func (c *Config) Dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case DriverSQLite:
		dsn := c.DSN
		if dsn == "" {
			dsn = "file::memory:"
		}
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		dsn := c.DSN
		if dsn == "" {
			sslMode := c.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
				c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
		}
		return postgres.Open(dsn), nil
	default:
		return nil, errors.UnsupportedMode("database driver", c.Driver)
	}
}

// Open creates a new GORM database connection
func Open(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := cfg.Dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(log, cfg.LogLevel, cfg.SlowThreshold),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	if cfg.MaxConnections > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MinConnections > 0 {
		sqlDB.SetMaxIdleConns(cfg.MinConnections)
	}
	sqlDB.SetConnMaxLifetime(cfg.MaxConnLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
