package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Version is the taxon release version.
const Version = "0.3.0"

// Config holds all taxon configuration.
type Config struct {
	Engine   EngineConfig
	Embedder EmbedderConfig
	Store    StoreConfig
	Log      LogConfig
}

// EngineConfig holds retrieval, dedup and cache settings.
type EngineConfig struct {
	KeywordThreshold   float64       `env:"TAXON_SIMILARITY_THRESHOLD_KEYWORDS" envDefault:"0.30"`
	ProblemThreshold   float64       `env:"TAXON_SIMILARITY_THRESHOLD_PROBLEMS" envDefault:"0.40"`
	KeywordFloor       float64       `env:"TAXON_FALLBACK_FLOOR_KEYWORDS" envDefault:"0.20"`
	ProblemFloor       float64       `env:"TAXON_FALLBACK_FLOOR_PROBLEMS" envDefault:"0.25"`
	TopN               int           `env:"TAXON_RECALL_TOP_N" envDefault:"10"`
	MinCandidates      int           `env:"TAXON_MIN_CANDIDATES_BEFORE_FALLBACK" envDefault:"3"`
	DuplicateThreshold float64       `env:"TAXON_DUPLICATE_SIMILARITY_THRESHOLD" envDefault:"0.75"`
	CacheTTL           time.Duration `env:"TAXON_CACHE_TTL" envDefault:"30m"`
	CallTimeout        time.Duration `env:"TAXON_CALL_TIMEOUT" envDefault:"10s"`
	BatchConcurrency   int           `env:"TAXON_BATCH_CONCURRENCY" envDefault:"4"`
	MaxInputTokens     int           `env:"TAXON_MAX_INPUT_TOKENS" envDefault:"8000"`
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Provider       string        `env:"TAXON_EMBEDDER" envDefault:"openai"` // "openai", "onnx"
	Model          string        `env:"TAXON_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	Dim            int           `env:"TAXON_EMBEDDING_DIM" envDefault:"1536"`
	APIKey         string        `env:"TAXON_OPENAI_API_KEY"`
	Endpoint       string        `env:"TAXON_OPENAI_ENDPOINT" envDefault:"https://api.openai.com/v1/embeddings"`
	RatePerSecond  float64       `env:"TAXON_EMBEDDER_RPS" envDefault:"20"`
	CacheSize      int           `env:"TAXON_EMBEDDING_CACHE_SIZE" envDefault:"5000"`
	CacheTTL       time.Duration `env:"TAXON_EMBEDDING_CACHE_TTL" envDefault:"24h"`
	ModelPath      string        `env:"TAXON_MODEL_PATH" envDefault:"models/model_quantized.onnx"`
	VocabPath      string        `env:"TAXON_VOCAB_PATH" envDefault:"models/vocab.txt"`
	ProjectionPath string        `env:"TAXON_PROJECTION_PATH" envDefault:"models/2_Dense/model.safetensors"`
}

// StoreConfig holds taxonomy persistence settings. An empty Path selects
// the in-memory store.
type StoreConfig struct {
	Path       string `env:"TAXON_STORE_PATH"`
	SyncWrites bool   `env:"TAXON_STORE_SYNC_WRITES" envDefault:"true"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `env:"TAXON_LOG_LEVEL" envDefault:"info"`
	JSON  bool   `env:"TAXON_LOG_JSON"`
}

// Load reads configuration from environment variables with defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks all config values and returns a joined error describing
// every problem found.
func (c Config) Validate() error {
	var errs []error

	e := c.Engine
	if e.KeywordThreshold <= 0 || e.KeywordThreshold > 1 {
		errs = append(errs, fmt.Errorf("keyword threshold must be in (0,1], got %v", e.KeywordThreshold))
	}
	if e.ProblemThreshold <= 0 || e.ProblemThreshold > 1 {
		errs = append(errs, fmt.Errorf("problem threshold must be in (0,1], got %v", e.ProblemThreshold))
	}
	if e.KeywordFloor < 0 || e.KeywordFloor >= e.KeywordThreshold {
		errs = append(errs, fmt.Errorf("keyword fallback floor must be in [0,%v), got %v", e.KeywordThreshold, e.KeywordFloor))
	}
	if e.ProblemFloor < 0 || e.ProblemFloor >= e.ProblemThreshold {
		errs = append(errs, fmt.Errorf("problem fallback floor must be in [0,%v), got %v", e.ProblemThreshold, e.ProblemFloor))
	}
	if e.TopN <= 0 {
		errs = append(errs, fmt.Errorf("recall top n must be positive, got %d", e.TopN))
	}
	if e.MinCandidates < 0 {
		errs = append(errs, fmt.Errorf("min candidates must be non-negative, got %d", e.MinCandidates))
	}
	if e.DuplicateThreshold <= 0 || e.DuplicateThreshold > 1 {
		errs = append(errs, fmt.Errorf("duplicate threshold must be in (0,1], got %v", e.DuplicateThreshold))
	}
	if e.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %v", e.CacheTTL))
	}
	if e.CallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("call timeout must be positive, got %v", e.CallTimeout))
	}
	if e.BatchConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("batch concurrency must be positive, got %d", e.BatchConcurrency))
	}
	if e.MaxInputTokens < 0 {
		errs = append(errs, fmt.Errorf("max input tokens must be non-negative, got %d", e.MaxInputTokens))
	}

	m := c.Embedder
	switch m.Provider {
	case "openai":
		if m.APIKey == "" {
			errs = append(errs, errors.New("TAXON_OPENAI_API_KEY is required for the openai embedder"))
		}
		if m.Dim <= 0 {
			errs = append(errs, fmt.Errorf("embedding dim must be positive, got %d", m.Dim))
		}
	case "onnx":
		for _, f := range []struct{ name, path string }{
			{"model", m.ModelPath},
			{"vocab", m.VocabPath},
			{"projection", m.ProjectionPath},
		} {
			if _, err := os.Stat(f.path); err != nil {
				errs = append(errs, fmt.Errorf("%s file not found: %s", f.name, f.path))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("embedder must be openai or onnx, got %q", m.Provider))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	return errors.Join(errs...)
}
