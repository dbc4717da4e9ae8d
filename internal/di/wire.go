//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,

		// Repositories and sinks
		ProvideSignalStore,
		ProvideAlertSink,
		ProvideKafkaSignalsHandler,
		ProvideCandleSource,
		ProvidePageCache,
		ProvideBytesCache,

		// Core engine
		ProvideGenerator,
		ProvideSimulator,
		ProvideBacktester,
		ProvideDebouncer,
		ProvidePredictionSource,
		ProvideAnalyzer,

		// Workers and transport
		ProvideBacktestJob,
		ProvideJobQueue,
		ProvideLiveCollector,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
