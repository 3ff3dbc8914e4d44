package di

import (
	"context"
	"fmt"
	"time"

	"TuniCast/internal/domain/repository"
	"TuniCast/internal/handler/api"
	internalrepo "TuniCast/internal/repository"
	"TuniCast/internal/services/anomaly"
	"TuniCast/internal/services/decision"
	"TuniCast/internal/services/symbols"
	"TuniCast/internal/usecase"
	xcache "TuniCast/pkg/cache"
	pkgch "TuniCast/pkg/clickhouse"
	"TuniCast/pkg/config"
	xhttp "TuniCast/pkg/http"
	pkgkafka "TuniCast/pkg/kafka"
	applogger "TuniCast/pkg/logger"
	"TuniCast/pkg/metrics"
	"TuniCast/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the
// bars schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := cfg.ClickHouse.Table
	if table == "" {
		table = "daily_bars"
	}
	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database, table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideHistoryStore creates the ClickHouse-backed bar store.
func ProvideHistoryStore(chClient *pkgch.Client, cfg *config.Config) repository.HistoryStore {
	return internalrepo.NewClickHouseHistoryStore(chClient.DB(), cfg.BarsTable())
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAnomalySink creates the anomaly event publisher. Events are
// discarded when Kafka is disabled.
func ProvideAnomalySink(producer *pkgkafka.Producer, cfg *config.Config) repository.AnomalySink {
	if producer == nil {
		return internalrepo.NewNoopAnomalySink()
	}
	return internalrepo.NewKafkaAnomalySink(producer, cfg.Kafka.AnomalyTopic)
}

// ProvideKafkaConsumer creates the bars topic consumer, or nil when Kafka
// is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaBarsHandler registers the handler for the bars topic.
func ProvideKafkaBarsHandler(store repository.HistoryStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.BarsTopic, store, m)
}

// ProvideRedisClient creates a Redis client, or nil when Redis is disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideSentimentSource creates the sentiment score reader. Falls back to
// neutral when Redis is disabled.
func ProvideSentimentSource(client *redis.Client, cfg *config.Config) repository.SentimentSource {
	if client == nil {
		return internalrepo.NewNeutralSentimentSource()
	}
	return internalrepo.NewRedisSentimentSource(client, cfg.Redis.SentimentPrefix, cfg.Redis.SentimentMaxAge)
}

// ProvideCache creates the response cache: memory-fronted Redis when
// available, otherwise in-memory only.
func ProvideCache(client *redis.Client) xcache.Service {
	if client == nil {
		return xcache.NewMemoryCache(1000)
	}
	return xcache.NewLayeredCache(xcache.NewRedisCache(client, "tunicast"), 1000)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideResolver creates the symbol resolver with config overrides.
func ProvideResolver(cfg *config.Config) *symbols.Resolver {
	return symbols.NewResolver(cfg.Symbols.Overrides)
}

// ProvideForecastUseCase creates the forecast use case.
func ProvideForecastUseCase(
	store repository.HistoryStore,
	resolver *symbols.Resolver,
	m repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(store, resolver, m, log, cfg.Forecast.ArtifactPath)
}

// ProvideAnomalyUseCase creates the anomaly detection use case.
func ProvideAnomalyUseCase(
	store repository.HistoryStore,
	sink repository.AnomalySink,
	resolver *symbols.Resolver,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.AnomalyUseCase {
	return usecase.NewAnomalyUseCase(store, sink, resolver, anomaly.NewDetector(), m, log)
}

// ProvideRecommendUseCase creates the recommendation use case.
func ProvideRecommendUseCase(
	forecast *usecase.ForecastUseCase,
	anomalies *usecase.AnomalyUseCase,
	sentiment repository.SentimentSource,
	resolver *symbols.Resolver,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.RecommendUseCase {
	return usecase.NewRecommendUseCase(forecast, anomalies, sentiment, decision.NewEngine(), resolver, m, log)
}

// ProvideHTTPHandler creates the API handler with caching and rate limiting.
func ProvideHTTPHandler(
	log *applogger.Logger,
	forecast *usecase.ForecastUseCase,
	anomalies *usecase.AnomalyUseCase,
	recommend *usecase.RecommendUseCase,
	store repository.HistoryStore,
	respCache xcache.Service,
	cfg *config.Config,
) xhttp.Handler {
	h := api.NewMarketEchoHandler(log, forecast, anomalies, recommend, store)
	h.SetCache(respCache, cfg.Redis.CacheTTL.Forecast, cfg.Redis.CacheTTL.Validate)
	h.SetRateLimit(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	httpHandler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	barsHandler *usecase.KafkaBarsHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	redisClient *redis.Client,
) *server.App {
	var kh pkgkafka.MessageHandler
	if consumer != nil {
		kh = barsHandler
	}
	return server.New(cfg, log, httpHandler, consumer, kh, producer, chClient, redisClient)
}
