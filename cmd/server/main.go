// Command server exposes the sentiment model over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mlbridge/mlbridge/internal/config"
	"github.com/mlbridge/mlbridge/pkg/log"
	"github.com/mlbridge/mlbridge/sentiment"
	"github.com/mlbridge/mlbridge/server"
)

func main() {
	cfg := config.Load()
	logger := log.New("server", cfg.LogLevel)

	pipeline, err := sentiment.LoadArtifacts(cfg.ModelDir)
	if err != nil {
		// The server still answers /health without a model so deploys can
		// probe it before training has run.
		logger.Warn().Err(err).Msg("model not loaded, predict endpoints disabled")
		pipeline = nil
	} else {
		logger.Info().Str("model_dir", cfg.ModelDir).Msg("model loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(pipeline, logger)
	if err := srv.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}
