// Package pipeline streams feedback fragments through retrieval and into
// an output, one fragment per input line.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hejijunhao/taxon/internal/engine"
	"github.com/hejijunhao/taxon/internal/logging"
	"github.com/hejijunhao/taxon/internal/model"
	"github.com/hejijunhao/taxon/internal/output"
)

const maxLineSize = 1 << 20

// Retriever is the engine surface the pipeline drives.
type Retriever interface {
	RetrieveBatch(ctx context.Context, texts []string, opts ...engine.RetrieveOption) ([]model.ClassificationCandidates, error)
}

// Summary counts what a Run did.
type Summary struct {
	Lines     int `json:"lines"`
	Retrieved int `json:"retrieved"`
	Failed    int `json:"failed"`
	Batches   int `json:"batches"`
}

// Pipeline connects a line source, a retriever and an output.
type Pipeline struct {
	retriever  Retriever
	out        output.Output
	batchSize  int
	skipErrors bool
	opts       []engine.RetrieveOption
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBatchSize sets how many lines are retrieved together. Default: 32.
func WithBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithSkipErrors logs and counts failed batches instead of stopping.
func WithSkipErrors() Option {
	return func(p *Pipeline) { p.skipErrors = true }
}

// WithRetrieveOptions passes opts to every retrieval.
func WithRetrieveOptions(opts ...engine.RetrieveOption) Option {
	return func(p *Pipeline) { p.opts = opts }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline from the given components.
func New(r Retriever, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{retriever: r, out: out, batchSize: 32, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrDefault(p.logger)
	return p
}

// Run reads src until EOF or ctx is done. Blank lines are skipped; every
// other line yields one "retrieve" record, in input order.
func (p *Pipeline) Run(ctx context.Context, src io.Reader) (Summary, error) {
	var sum Summary
	b := newBatch(p.batchSize)

	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		sum.Lines++
		if b.add(line) {
			if err := p.flush(ctx, b, &sum); err != nil {
				return sum, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("pipeline read: %w", err)
	}
	if err := p.flush(ctx, b, &sum); err != nil {
		return sum, err
	}
	return sum, nil
}

func (p *Pipeline) flush(ctx context.Context, b *batch, sum *Summary) error {
	lines, texts := b.drain()
	if len(lines) == 0 {
		return nil
	}
	sum.Batches++

	results, err := p.retriever.RetrieveBatch(ctx, texts, p.opts...)
	if err != nil {
		if !p.skipErrors || ctx.Err() != nil {
			return fmt.Errorf("pipeline retrieve: %w", err)
		}
		sum.Failed += len(lines)
		p.logger.Warn("batch failed, skipping", "lines", len(lines), "err", err)
		return nil
	}

	byText := make(map[string]model.ClassificationCandidates, len(texts))
	for i, t := range texts {
		byText[t] = results[i]
	}
	for _, line := range lines {
		rec := output.Record{Command: "retrieve", Input: line, At: p.now(), Result: byText[line]}
		if err := p.out.Write(ctx, rec); err != nil {
			return fmt.Errorf("pipeline output: %w", err)
		}
		sum.Retrieved++
	}
	return nil
}
