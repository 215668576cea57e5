package model

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

type LoadConfig struct {
	CheckpointPath string
	// Device is "auto", "cpu" or "cuda".
	Device      string
	LibraryPath string
	// Seed for the randomly initialized network used when no checkpoint
	// exists. Zero picks a time based seed.
	Seed int64
}

// Load builds the classifier described by cfg. It never fails: any error is
// logged and yields a Server that reports itself as not ready.
func Load(cfg LoadConfig, labels *Labels) *Server {
	network, err := loadNetwork(cfg, labels)
	if err != nil {
		log.Error().Err(err).Str("checkpoint", cfg.CheckpointPath).Msg("Error loading model")
		return NewServer(nil, labels)
	}
	log.Info().Str("device", network.Device()).Msg("Model loaded successfully")
	return NewServer(network, labels)
}

func loadNetwork(cfg LoadConfig, labels *Labels) (Network, error) {
	if _, err := os.Stat(cfg.CheckpointPath); errors.Is(err, fs.ErrNotExist) {
		if cfg.Device == "cuda" {
			return nil, fmt.Errorf("%w: randomly initialized network runs on cpu only", ErrDeviceUnavailable)
		}
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		log.Warn().Str("checkpoint", cfg.CheckpointPath).
			Msg("No checkpoint found, using randomly initialized weights")
		return newRandomNetwork(labels.Len(), seed), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}

	ckpt, err := readCheckpoint(cfg.CheckpointPath)
	if err != nil {
		return nil, err
	}
	if ckpt.metadata != nil {
		if err := ckpt.metadata.validate(labels); err != nil {
			return nil, err
		}
	}
	log.Debug().Bool("wrapped", ckpt.wrapped).Int("bytes", len(ckpt.graph)).Msg("Checkpoint read")

	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, err
	}
	network, err := newONNXNetwork(ckpt.graph, labels.Len(), cfg.Device)
	if err != nil {
		releaseRuntime()
		return nil, err
	}
	return network, nil
}
