//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinSignal/pkg/config"
	"FinSignal/pkg/server"
)

var infraSet = wire.NewSet(
	ProvideRegistry,
	ProvideMetrics,
	ProvideHTTPCollectors,
	ProvideRedisClient,
	ProvideKafkaProducer,
	ProvideWarningsPublisher,
	ProvideLogger,
	ProvideClickHouseClient,
)

var repositorySet = wire.NewSet(
	ProvideSignalStore,
	ProvideSignalPublisher,
	ProvideHistoryStore,
	ProvideTemporalCache,
	ProvideMarketContext,
)

var scoringSet = wire.NewSet(
	ProvideCalibration,
	ProvideEngine,
	ProvideAnalyzer,
	ProvideDecider,
	ProvideSinkRetry,
	ProvidePipeline,
)

var transportSet = wire.NewSet(
	ProvideHub,
	ProvideLimiter,
	ProvideSignalsHandler,
	ProvideHTTPServer,
	ProvideKafkaConsumer,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		infraSet,
		repositorySet,
		scoringSet,
		transportSet,
		ProvideApp,
	)
	return &server.App{}, nil
}
