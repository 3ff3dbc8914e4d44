//go:build wireinject
// +build wireinject

package di

import (
	"TuniCast/pkg/config"
	"TuniCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,

		// Repositories
		ProvideHistoryStore,
		ProvideAnomalySink,
		ProvideSentimentSource,
		ProvideCache,
		ProvideResolver,

		// Use cases
		ProvideForecastUseCase,
		ProvideAnomalyUseCase,
		ProvideRecommendUseCase,
		ProvideKafkaBarsHandler,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
