package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"TuniCast/internal/di"
	"TuniCast/internal/domain/models"
	"TuniCast/internal/services/features"
	"TuniCast/internal/services/model"
	"TuniCast/internal/services/sequence"
	"TuniCast/pkg/config"
	applogger "TuniCast/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	outPath := flag.String("out", "", "artifact output path (defaults to forecast.artifact_path)")
	epochs := flag.Int("epochs", 0, "override training epochs")
	seed := flag.Int64("seed", 0, "override training seed")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	chClient, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		log.Fatalf("clickhouse init failed: %v", err)
	}
	defer func() {
		if err := chClient.Close(); err != nil {
			logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}()

	store := di.ProvideHistoryStore(chClient, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh
		logger.Warn("interrupt received, stopping training")
		cancel()
	}()

	codes, err := store.ListInstruments(ctx)
	if err != nil {
		log.Fatalf("list instruments failed: %v", err)
	}
	logger.Info("loading instrument history", applogger.Int("instruments", len(codes)))

	rowsByCode := make(map[string][]models.FeatureRow, len(codes))
	for _, code := range codes {
		bars, err := store.GetHistory(ctx, code)
		if err != nil {
			log.Fatalf("load history for %s failed: %v", code, err)
		}
		rows := features.AddFeatures(features.Resample(bars))
		if len(rows) < sequence.MinRowsPerInstrument {
			logger.Warn("skipping instrument with short history",
				applogger.String("code", code), applogger.Int("rows", len(rows)))
			continue
		}
		rowsByCode[code] = rows
	}

	ds, err := sequence.Build(rowsByCode, sequence.DefaultSeqLen, sequence.DefaultHorizons)
	if err != nil {
		log.Fatalf("dataset build failed: %v", err)
	}
	logger.Info("dataset built",
		applogger.Int("samples", len(ds.Samples)),
		applogger.Int("instruments", len(rowsByCode)),
		applogger.Int("seq_len", ds.SeqLen))

	params := model.DefaultTrainParams()
	if *epochs > 0 {
		params.Epochs = *epochs
	}
	if *seed != 0 {
		params.Seed = *seed
	}

	result, err := model.Train(ctx, ds, params, logger)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	logger.Info("training finished",
		applogger.Int("epochs", result.Epochs),
		applogger.Int("best_epoch", result.BestEpoch),
		applogger.Float64("best_val_loss", result.BestVal))

	path := *outPath
	if path == "" {
		path = cfg.Forecast.ArtifactPath
	}
	artifact := model.NewArtifact(result.Net, ds)
	if err := artifact.Save(path); err != nil {
		log.Fatalf("artifact save failed: %v", err)
	}
	logger.Info("artifact saved", applogger.String("path", path))
}
