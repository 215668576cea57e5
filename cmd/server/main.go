package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Brownie44l1/trash-api/internal/config"
	"github.com/Brownie44l1/trash-api/internal/handlers"
	"github.com/Brownie44l1/trash-api/internal/logger"
	"github.com/Brownie44l1/trash-api/internal/metrics"
	"github.com/Brownie44l1/trash-api/internal/model"
	"github.com/rs/zerolog/log"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := logger.Init(cfg.AppName, cfg.AppLogLevel); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}
	logf := func(format string, args ...interface{}) { log.Debug().Msgf(format, args...) }
	if _, err := maxprocs.Set(maxprocs.Logger(logf)); err != nil {
		log.Warn().Err(err).Msg("Failed to set GOMAXPROCS")
	}

	log.Info().Str("checkpoint", cfg.ModelPath).Str("device", cfg.ModelDevice).Msg("Loading model")

	labels := model.DefaultLabels()
	modelServer := model.Load(model.LoadConfig{
		CheckpointPath: cfg.ModelPath,
		Device:         cfg.ModelDevice,
		LibraryPath:    cfg.OnnxLibraryPath,
		Seed:           cfg.ModelSeed,
	}, labels)
	defer func() {
		if err := modelServer.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to release model")
		}
	}()

	m := metrics.New()
	handler := handlers.NewHandler(modelServer, m, handlers.Options{
		MaxUploadBytes: cfg.UploadMaxBytes,
		MaxImagePixels: cfg.ImageMaxPixels,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: handlers.NewRouter(handler, m),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Msgf("Server starting on port %s", cfg.AppPort)
		log.Info().Bool("modelLoaded", modelServer.Ready()).Str("device", modelServer.Device()).Msg("Model status")
		log.Info().Strs("classes", labels.Classes()).Msg("Classes")
		log.Info().Msg("Endpoints: GET /health, POST /classify, GET /classes, GET /metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
