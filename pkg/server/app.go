package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pkgch "TuniCast/pkg/clickhouse"
	"TuniCast/pkg/config"
	xhttp "TuniCast/pkg/http"
	pkgkafka "TuniCast/pkg/kafka"
	applogger "TuniCast/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server

	consumer    *pkgkafka.Consumer
	barsHandler pkgkafka.MessageHandler
	producer    *pkgkafka.Producer
	chClient    *pkgch.Client
	redisClient *redis.Client
}

// New creates a new App instance. consumer, producer and redisClient may be
// nil when the corresponding subsystem is disabled in config.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	httpHandler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	barsHandler pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	redisClient *redis.Client,
) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		httpHandler: httpHandler,
		consumer:    consumer,
		barsHandler: barsHandler,
		producer:    producer,
		chClient:    chClient,
		redisClient: redisClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.consumer != nil && a.barsHandler != nil {
		a.consumer.RegisterHandler(a.barsHandler)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started", applogger.String("topic", a.barsHandler.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("redis close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
