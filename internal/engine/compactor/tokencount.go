package compactor

import (
	"math"
	"strings"
)

const subwordFactor = 1.3

// EstimateTokens returns an approximate token count using a whitespace heuristic.
// Splits on whitespace, applies a 1.3x subword expansion factor (rounded up).
// Not a real tokenizer, but close enough to keep inputs under a provider limit.
func EstimateTokens(s string) int {
	return estimate(len(strings.Fields(s)))
}

func estimate(words int) int {
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) * subwordFactor))
}
