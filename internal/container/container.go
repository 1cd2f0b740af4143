// Package container assembles the querykit runtime from configuration.
package container

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/narwhalmedia/querykit/pkg/config"
	"github.com/narwhalmedia/querykit/pkg/database"
	"github.com/narwhalmedia/querykit/pkg/logger"
	"github.com/narwhalmedia/querykit/pkg/models"
	"github.com/narwhalmedia/querykit/pkg/pagination"
	gormprovider "github.com/narwhalmedia/querykit/pkg/persistence/gorm"
	"github.com/narwhalmedia/querykit/pkg/query"
)

// Container holds the runtime dependencies of a querykit binary.
type Container struct {
	Config     *config.BaseConfig
	Logger     *logger.ZapLogger
	DB         *gorm.DB
	Registry   *prometheus.Registry
	Provider   *gormprovider.Provider
	Pagination *Pagination
}

// Pagination bundles page size limits with the optional page token encoder.
// Encoder is nil when no cursor key is configured.
type Pagination struct {
	Config   pagination.Config
	Encoder  *pagination.CursorEncoder
	TokenTTL time.Duration
}

// ProvideLogger builds the application logger.
func ProvideLogger(cfg *config.BaseConfig) (*logger.ZapLogger, func(), error) {
	lc := cfg.Logger.ToLoggerConfig()
	lc.InitialFields = map[string]any{"service": cfg.Service.Name}
	log, err := lc.Build()
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

// ProvideDatabase opens the configured database.
func ProvideDatabase(cfg *config.BaseConfig, log *logger.ZapLogger) (*gorm.DB, func(), error) {
	db, err := database.Open(cfg.Database.ToDatabaseConfig(), log.Zap())
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := database.Close(db); err != nil {
			log.Error("failed to close database", logger.Error(err))
		}
	}
	return db, cleanup, nil
}

// ProvideRegistry creates the metrics registry.
func ProvideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// ProvideMetrics registers provider metrics when they are enabled.
func ProvideMetrics(cfg *config.BaseConfig, reg *prometheus.Registry) *gormprovider.Metrics {
	if !cfg.Query.Metrics {
		return nil
	}
	return gormprovider.NewMetrics(reg)
}

// ProvideQueryProvider creates the database query provider. Blogs are
// loaded with their posts.
func ProvideQueryProvider(cfg *config.BaseConfig, db *gorm.DB, log *logger.ZapLogger, metrics *gormprovider.Metrics) (*gormprovider.Provider, error) {
	mode, err := query.ParseEvaluationMode(cfg.Query.EvaluationMode)
	if err != nil {
		return nil, err
	}
	return gormprovider.NewProvider(db,
		gormprovider.WithLogger(log),
		gormprovider.WithEvaluationMode(mode),
		gormprovider.WithMetrics(metrics),
		gormprovider.WithPreload(query.EntityOf[models.Blog](), "Posts"),
	), nil
}

// ProvidePagination builds page limits and the page token encoder.
func ProvidePagination(cfg *config.BaseConfig) (*Pagination, error) {
	p := &Pagination{
		Config: pagination.Config{
			DefaultPageSize: int32(cfg.Pagination.DefaultPageSize),
			MaxPageSize:     int32(cfg.Pagination.MaxPageSize),
		},
		TokenTTL: cfg.Pagination.CursorExpiration,
	}
	if key := cfg.Pagination.CursorEncryptionKey; key != "" {
		encoder, err := pagination.NewCursorEncoder([]byte(key))
		if err != nil {
			return nil, err
		}
		p.Encoder = encoder
	}
	return p, nil
}
