// Package output delivers command results to operator-facing sinks.
package output

import (
	"context"
	"time"
)

// Record is one command result.
type Record struct {
	Command string    `json:"command"`
	Input   string    `json:"input,omitempty"`
	At      time.Time `json:"at"`
	Result  any       `json:"result"`
}

// Output defines the interface for result destinations.
type Output interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}
