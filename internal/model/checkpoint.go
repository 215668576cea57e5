package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/klauspost/compress/zip"
)

var zipMagic = []byte("PK\x03\x04")

var stateDictEntries = []string{"model_state_dict", "model_state_dict.onnx"}

const metadataEntry = "metadata.json"

type checkpoint struct {
	graph    []byte
	metadata *Metadata
	wrapped  bool
}

func readCheckpoint(path string) (*checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	return parseCheckpoint(data)
}

// parseCheckpoint accepts either a bare serialized graph or a zip wrapper
// holding the graph under model_state_dict and an optional metadata.json.
func parseCheckpoint(data []byte) (*checkpoint, error) {
	if len(data) == 0 {
		return nil, ErrEmptyCheckpoint
	}
	if !bytes.HasPrefix(data, zipMagic) {
		return &checkpoint{graph: data}, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint wrapper: %w", err)
	}

	ckpt := &checkpoint{wrapped: true}
	for _, f := range zr.File {
		switch {
		case slices.Contains(stateDictEntries, f.Name) && ckpt.graph == nil:
			if ckpt.graph, err = readEntry(f); err != nil {
				return nil, err
			}
		case f.Name == metadataEntry:
			raw, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			var meta Metadata
			if err := json.Unmarshal(raw, &meta); err != nil {
				return nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			ckpt.metadata = &meta
		}
	}
	if len(ckpt.graph) == 0 {
		return nil, ErrMissingStateDict
	}
	return ckpt, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}

func (m *Metadata) validate(labels *Labels) error {
	if len(m.Classes) > 0 && !slices.Equal(m.Classes, labels.classes) {
		return fmt.Errorf("%w: classes %v, expected %v", ErrShapeMismatch, m.Classes, labels.classes)
	}
	if n := len(m.OutputShape); n > 0 && m.OutputShape[n-1] != int64(labels.Len()) {
		return fmt.Errorf("%w: output shape %v, expected %d classes", ErrShapeMismatch, m.OutputShape, labels.Len())
	}
	if m.ImageSize != 0 && m.ImageSize != ImageSize {
		return fmt.Errorf("%w: image size %d, expected %d", ErrShapeMismatch, m.ImageSize, ImageSize)
	}
	if len(m.InputShape) > 0 {
		if err := checkInputShape(m.InputShape); err != nil {
			return err
		}
	}
	return nil
}

// checkInputShape accepts [N, 3, 224, 224] where N may be dynamic (<= 0).
func checkInputShape(shape []int64) error {
	want := []int64{Channels, ImageSize, ImageSize}
	if len(shape) != 4 || shape[0] > 1 || !slices.Equal(shape[1:], want) {
		return fmt.Errorf("%w: input shape %v, expected [1 %d %d %d]", ErrShapeMismatch, shape, Channels, ImageSize, ImageSize)
	}
	return nil
}
