package taxon

import (
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/hejijunhao/taxon/internal/engine"
)

type options struct {
	storePath  string
	syncWrites bool

	embedder  Embedder
	modelDir  string
	openAIKey string
	model     string
	dim       int

	cacheSize int
	cacheTTL  time.Duration

	cfg    engine.Config
	logger *slog.Logger
	tp     trace.TracerProvider
}

// Option configures a Taxon instance.
type Option func(*options)

// WithStorePath persists the taxonomy in a badger directory. Without it the
// taxonomy lives in memory and is lost on Close.
func WithStorePath(dir string) Option {
	return func(o *options) { o.storePath = dir }
}

// WithSyncWrites toggles fsync on every store commit. Default: true.
func WithSyncWrites(on bool) Option {
	return func(o *options) { o.syncWrites = on }
}

// WithEmbedder supplies a caller-owned embedding provider. Close does not
// close it.
func WithEmbedder(e Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithModelDir embeds locally with the ONNX model in dir.
// Expects: model_quantized.onnx, vocab.txt, 2_Dense/model.safetensors.
func WithModelDir(dir string) Option {
	return func(o *options) { o.modelDir = dir }
}

// WithOpenAI embeds with the OpenAI embeddings API.
func WithOpenAI(apiKey, model string, dim int) Option {
	return func(o *options) {
		o.openAIKey = apiKey
		o.model = model
		o.dim = dim
	}
}

// WithEmbeddingCache memoizes embeddings. size 0 disables the cache.
// Default: 5000 entries for 24h.
func WithEmbeddingCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// WithThresholds sets the primary cosine thresholds. Defaults: 0.30, 0.40.
func WithThresholds(keyword, problem float64) Option {
	return func(o *options) {
		o.cfg.Params.KeywordThreshold = keyword
		o.cfg.Params.ProblemThreshold = problem
	}
}

// WithFallbackFloors sets the lower bound of the fallback band.
// Defaults: 0.20, 0.25.
func WithFallbackFloors(keyword, problem float64) Option {
	return func(o *options) {
		o.cfg.Params.KeywordFloor = keyword
		o.cfg.Params.ProblemFloor = problem
	}
}

// WithTopN caps candidates per category. Default: 10.
func WithTopN(n int) Option {
	return func(o *options) { o.cfg.Params.TopN = n }
}

// WithDuplicateThreshold sets the similarity above which a new label is a
// duplicate. Default: 0.75.
func WithDuplicateThreshold(t float64) Option {
	return func(o *options) { o.cfg.DuplicateThreshold = t }
}

// WithCacheTTL sets how long a loaded taxonomy is served. Default: 30m.
func WithCacheTTL(d time.Duration) Option {
	return func(o *options) { o.cfg.CacheTTL = d }
}

// WithCallTimeout bounds each embedding and store call. Default: 10s.
func WithCallTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.CallTimeout = d }
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

func defaultOptions() options {
	return options{
		syncWrites: true,
		cacheSize:  5000,
		cacheTTL:   24 * time.Hour,
		cfg:        engine.DefaultConfig(),
	}
}

// modelPaths returns the ONNX model, vocab, and projection paths under dir.
func modelPaths(dir string) (model, vocab, projection string) {
	return filepath.Join(dir, "model_quantized.onnx"),
		filepath.Join(dir, "vocab.txt"),
		filepath.Join(dir, "2_Dense", "model.safetensors")
}
