package model

import (
	"context"
	"fmt"
	"math"
)

// Server is the process-wide classifier handle. It is read-only once built;
// a nil network means the model is unavailable.
type Server struct {
	network Network
	labels  *Labels
}

func NewServer(network Network, labels *Labels) *Server {
	return &Server{
		network: network,
		labels:  labels,
	}
}

func (s *Server) Ready() bool {
	return s.network != nil
}

// Device reports where inference runs, or "" when the model is unavailable.
func (s *Server) Device() string {
	if s.network == nil {
		return ""
	}
	return s.network.Device()
}

func (s *Server) Labels() *Labels {
	return s.labels
}

// Classify runs one preprocessed image through the network and returns the
// translated top class and distribution, in percent.
func (s *Server) Classify(ctx context.Context, input []float32) (*ClassificationResponse, error) {
	if s.network == nil {
		return nil, ErrModelNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logits, err := s.network.Forward(input)
	if err != nil {
		return nil, err
	}
	if len(logits) != s.labels.Len() {
		return nil, fmt.Errorf("%w: network returned %d outputs, expected %d", ErrShapeMismatch, len(logits), s.labels.Len())
	}

	probs := softmax(logits)
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: non-finite probability for %s (logit %v)", ErrInvalidOutput, s.labels.Name(i), logits[i])
		}
	}
	maxIdx := argmax(probs)

	allClasses := make(map[string]float64, len(probs))
	for i, p := range probs {
		allClasses[s.labels.Translate(s.labels.Name(i))] = percent(p)
	}

	return &ClassificationResponse{
		PredictedClass: s.labels.Translate(s.labels.Name(maxIdx)),
		Confidence:     percent(probs[maxIdx]),
		AllClasses:     allClasses,
	}, nil
}

func (s *Server) Close() error {
	if s.network == nil {
		return nil
	}
	return s.network.Close()
}
