package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrapCheckpoint(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseBareCheckpoint(t *testing.T) {
	graph := []byte("\x08\x07\x12\x0bonnx-graph")

	ckpt, err := parseCheckpoint(graph)
	require.NoError(t, err)

	assert.False(t, ckpt.wrapped)
	assert.Equal(t, graph, ckpt.graph)
	assert.Nil(t, ckpt.metadata)
}

func TestParseWrappedCheckpoint(t *testing.T) {
	meta, err := json.Marshal(Metadata{Classes: categories, ImageSize: 224})
	require.NoError(t, err)

	data := wrapCheckpoint(t, map[string][]byte{
		"model_state_dict": []byte("graph-bytes"),
		"metadata.json":    meta,
		"optimizer":        []byte("ignored"),
	})

	ckpt, err := parseCheckpoint(data)
	require.NoError(t, err)

	assert.True(t, ckpt.wrapped)
	assert.Equal(t, []byte("graph-bytes"), ckpt.graph)
	require.NotNil(t, ckpt.metadata)
	assert.Equal(t, categories, ckpt.metadata.Classes)
	assert.NoError(t, ckpt.metadata.validate(DefaultLabels()))
}

func TestParseWrappedCheckpointWithOnnxSuffix(t *testing.T) {
	data := wrapCheckpoint(t, map[string][]byte{
		"model_state_dict.onnx": []byte("graph-bytes"),
	})

	ckpt, err := parseCheckpoint(data)
	require.NoError(t, err)
	assert.Equal(t, []byte("graph-bytes"), ckpt.graph)
}

func TestParseWrappedCheckpointWithoutStateDict(t *testing.T) {
	data := wrapCheckpoint(t, map[string][]byte{
		"weights.bin": []byte("graph-bytes"),
	})

	_, err := parseCheckpoint(data)
	assert.True(t, errors.Is(err, ErrMissingStateDict))
}

func TestParseCorruptCheckpoints(t *testing.T) {
	_, err := parseCheckpoint(nil)
	assert.Error(t, err)

	_, err = parseCheckpoint([]byte("PK\x03\x04 truncated archive"))
	assert.Error(t, err)

	data := wrapCheckpoint(t, map[string][]byte{
		"model_state_dict": []byte("graph-bytes"),
		"metadata.json":    []byte("{not json"),
	})
	_, err = parseCheckpoint(data)
	assert.Error(t, err)
}

func TestReadCheckpointFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.onnx")
	require.NoError(t, os.WriteFile(path, []byte("graph-bytes"), 0o644))

	ckpt, err := readCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("graph-bytes"), ckpt.graph)
}

func TestMetadataValidate(t *testing.T) {
	labels := DefaultLabels()
	reordered := append([]string{categories[1], categories[0]}, categories[2:]...)

	tests := []struct {
		name    string
		meta    Metadata
		wantErr bool
	}{
		{"empty", Metadata{}, false},
		{"matching", Metadata{Classes: categories, OutputShape: []int64{1, 10}, InputShape: []int64{1, 3, 224, 224}, ImageSize: 224}, false},
		{"dynamic batch", Metadata{InputShape: []int64{-1, 3, 224, 224}}, false},
		{"reordered classes", Metadata{Classes: reordered}, true},
		{"too few classes", Metadata{Classes: categories[:9]}, true},
		{"wrong output", Metadata{OutputShape: []int64{1, 1000}}, true},
		{"wrong image size", Metadata{ImageSize: 48}, true},
		{"grayscale input", Metadata{InputShape: []int64{1, 1, 224, 224}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.validate(labels)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrShapeMismatch), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
