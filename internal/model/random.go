package model

import (
	"fmt"
	"math"
	"math/rand"
)

const poolSize = 7

// randomNetwork stands in for an untrained classifier: the input is average
// pooled to Channels x poolSize x poolSize and fed to a single linear layer
// whose parameters are drawn from U(-1/sqrt(fanIn), 1/sqrt(fanIn)).
type randomNetwork struct {
	weights [][]float32
	bias    []float32
}

func newRandomNetwork(numClasses int, seed int64) *randomNetwork {
	rng := rand.New(rand.NewSource(seed))
	fanIn := Channels * poolSize * poolSize
	bound := 1 / math.Sqrt(float64(fanIn))

	uniform := func() float32 {
		return float32((rng.Float64()*2 - 1) * bound)
	}

	n := &randomNetwork{
		weights: make([][]float32, numClasses),
		bias:    make([]float32, numClasses),
	}
	for i := range n.weights {
		n.weights[i] = make([]float32, fanIn)
		for j := range n.weights[i] {
			n.weights[i][j] = uniform()
		}
		n.bias[i] = uniform()
	}
	return n
}

func (n *randomNetwork) Forward(input []float32) ([]float32, error) {
	if len(input) != InputLen {
		return nil, fmt.Errorf("expected %d input values, got %d", InputLen, len(input))
	}

	features := averagePool(input)
	logits := make([]float32, len(n.weights))
	for i, row := range n.weights {
		acc := n.bias[i]
		for j, w := range row {
			acc += w * features[j]
		}
		logits[i] = acc
	}
	return logits, nil
}

func (n *randomNetwork) Device() string {
	return "cpu"
}

func (n *randomNetwork) Close() error {
	return nil
}

// averagePool reduces each ImageSize x ImageSize plane to poolSize x poolSize.
func averagePool(input []float32) []float32 {
	const cell = ImageSize / poolSize
	plane := ImageSize * ImageSize

	out := make([]float32, Channels*poolSize*poolSize)
	for c := 0; c < Channels; c++ {
		for py := 0; py < poolSize; py++ {
			for px := 0; px < poolSize; px++ {
				var sum float32
				for y := py * cell; y < (py+1)*cell; y++ {
					row := c*plane + y*ImageSize
					for x := px * cell; x < (px+1)*cell; x++ {
						sum += input[row+x]
					}
				}
				out[c*poolSize*poolSize+py*poolSize+px] = sum / (cell * cell)
			}
		}
	}
	return out
}
