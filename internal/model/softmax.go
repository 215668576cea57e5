package model

import "math"

func softmax(logits []float32) []float64 {
	probs := make([]float64, len(logits))
	if len(logits) == 0 {
		return probs
	}

	maxVal := float64(logits[0])
	for _, v := range logits[1:] {
		maxVal = math.Max(maxVal, float64(v))
	}

	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v) - maxVal)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// argmax returns the first index holding the maximum value.
func argmax(values []float64) int {
	maxIdx := 0
	for i, v := range values {
		if v > values[maxIdx] {
			maxIdx = i
		}
	}
	return maxIdx
}

func percent(p float64) float64 {
	return math.Round(p*100*100) / 100
}
