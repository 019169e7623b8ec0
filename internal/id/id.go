package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for taxonomy entity IDs.
const (
	PrefixKeyword  = "kw"
	PrefixProblem  = "pb"
	PrefixProposal = "prop"
)

// Generate creates a prefixed unique ID using NanoID, e.g.
// "kw-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}
