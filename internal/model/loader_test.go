package model

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCheckpoint(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "best_resnet50_model_2.onnx")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadWithoutCheckpointUsesRandomWeights(t *testing.T) {
	cfg := LoadConfig{
		CheckpointPath: filepath.Join(t.TempDir(), "missing.onnx"),
		Device:         "auto",
		Seed:           3,
	}

	server := Load(cfg, DefaultLabels())
	defer server.Close()

	require.True(t, server.Ready())
	assert.Equal(t, "cpu", server.Device())

	resp, err := server.Classify(context.Background(), make([]float32, InputLen))
	require.NoError(t, err)
	assert.Len(t, resp.AllClasses, 10)
	assert.Contains(t, resp.AllClasses, resp.PredictedClass)

	var sum float64
	for _, p := range resp.AllClasses {
		sum += p
	}
	assert.InDelta(t, 100, sum, 0.1)
}

func TestLoadWithoutCheckpointOnCudaIsUnavailable(t *testing.T) {
	cfg := LoadConfig{
		CheckpointPath: filepath.Join(t.TempDir(), "missing.onnx"),
		Device:         "cuda",
	}

	assert.False(t, Load(cfg, DefaultLabels()).Ready())
}

// These checkpoints are rejected before the ONNX runtime is touched.
func TestLoadFailuresLeaveModelUnavailable(t *testing.T) {
	badMeta, err := json.Marshal(Metadata{OutputShape: []int64{1, 1000}})
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty file", []byte{}, ErrEmptyCheckpoint},
		{"missing state dict", wrapCheckpoint(t, map[string][]byte{"epoch": []byte("12")}), ErrMissingStateDict},
		{"metadata mismatch", wrapCheckpoint(t, map[string][]byte{
			"model_state_dict": []byte("graph"),
			"metadata.json":    badMeta,
		}), ErrShapeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig{CheckpointPath: writeCheckpoint(t, tt.data), Device: "cpu"}

			_, err := loadNetwork(cfg, DefaultLabels())
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.False(t, Load(cfg, DefaultLabels()).Ready())
		})
	}
}
