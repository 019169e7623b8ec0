package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hejijunhao/taxon/internal/output"
)

// Output writes JSON-encoded results to a terminal stream.
type Output struct {
	enc       *json.Encoder
	verbosity output.Verbosity
	bare      bool
}

// Option configures a stdout Output.
type Option func(*Output)

// WithWriter replaces os.Stdout as the destination.
func WithWriter(w io.Writer) Option {
	return func(o *Output) { o.enc = json.NewEncoder(w) }
}

// WithBare writes only the result, without the command envelope.
func WithBare() Option {
	return func(o *Output) { o.bare = true }
}

// New creates a stdout Output with verbosity-aware field omission
// and optional pretty-printed JSON.
func New(verbosity output.Verbosity, pretty bool, opts ...Option) *Output {
	o := &Output{enc: json.NewEncoder(os.Stdout), verbosity: verbosity}
	for _, opt := range opts {
		opt(o)
	}
	if pretty {
		o.enc.SetIndent("", "  ")
	}
	return o
}

func (o *Output) Write(_ context.Context, rec output.Record) error {
	formatted := output.FormatRecord(rec, o.verbosity)
	var v any = formatted
	if o.bare {
		v = formatted.Result
	}
	if err := o.enc.Encode(v); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
