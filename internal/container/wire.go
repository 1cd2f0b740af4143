//go:build wireinject
// +build wireinject

package container

import (
	"github.com/google/wire"

	"github.com/narwhalmedia/querykit/pkg/config"
)

// ProviderSet provides every runtime dependency from a loaded configuration.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideDatabase,
	ProvideRegistry,
	ProvideMetrics,
	ProvideQueryProvider,
	ProvidePagination,
)

// InitializeContainer builds the runtime container for cfg.
func InitializeContainer(cfg *config.BaseConfig) (*Container, func(), error) {
	wire.Build(
		ProviderSet,
		wire.Struct(new(Container), "*"),
	)

	return nil, nil, nil
}
