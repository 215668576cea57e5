package model

import "errors"

const (
	ImageSize = 224
	Channels  = 3
)

// InputLen is the number of float32 values in one preprocessed image.
const InputLen = Channels * ImageSize * ImageSize

var (
	ErrModelNotLoaded    = errors.New("model not loaded")
	ErrShapeMismatch     = errors.New("checkpoint shape mismatch")
	ErrMissingStateDict  = errors.New("checkpoint wrapper has no model_state_dict entry")
	ErrDeviceUnavailable = errors.New("requested device unavailable")
	ErrEmptyCheckpoint   = errors.New("checkpoint is empty")
	ErrInvalidOutput     = errors.New("network output is not a valid distribution")
)

// Network runs a forward pass over one CHW image tensor and returns the raw
// logits, one per category.
type Network interface {
	Forward(input []float32) ([]float32, error)
	Device() string
	Close() error
}
