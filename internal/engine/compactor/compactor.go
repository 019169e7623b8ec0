// Package compactor bounds the size of text sent to an embedding provider.
package compactor

import "strings"

// Truncate returns the longest word prefix of s whose estimated token
// count is at most maxTokens. s is returned unchanged when it already fits
// or maxTokens <= 0. A truncated result is re-joined with single spaces.
func Truncate(s string, maxTokens int) string {
	if maxTokens <= 0 || EstimateTokens(s) <= maxTokens {
		return s
	}
	words := strings.Fields(s)
	n := wordsWithin(maxTokens)
	if n > len(words) {
		n = len(words)
	}
	return strings.Join(words[:n], " ")
}

// wordsWithin is the largest word count whose estimate fits maxTokens.
func wordsWithin(maxTokens int) int {
	n := int(float64(maxTokens) / subwordFactor)
	for n > 0 && estimate(n) > maxTokens {
		n--
	}
	for estimate(n+1) <= maxTokens {
		n++
	}
	return n
}
