//go:build wireinject
// +build wireinject

package di

import (
	"RetScan/pkg/config"
	"RetScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideLockCache,
		ProvideBytesCache,

		// Repositories
		ProvideBarStore,
		ProvideResultStore,
		ProvideAnomalyPublisher,
		ProvideBarSource,
		ProvideSeriesSource,

		// Use cases
		ProvideScanUseCase,
		ProvideClusterUseCase,
		ProvideIngestUseCase,
		ProvideScanRequestHandler,

		// HTTP layer
		ProvideDetectionHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
