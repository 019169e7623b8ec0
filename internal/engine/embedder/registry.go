package embedder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hejijunhao/taxon/internal/config"
)

// Factory builds a provider from configuration.
type Factory func(cfg config.EmbedderConfig) (Embedder, error)

var registry = map[string]Factory{}

// Register adds a provider factory under name.
func Register(name string, f Factory) {
	registry[name] = f
}

// Get returns the factory registered under name.
func Get(name string) (Factory, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown embedding provider %q (available: %s)", name, strings.Join(Providers(), ", "))
	}
	return f, nil
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("openai", func(cfg config.EmbedderConfig) (Embedder, error) {
		return NewOpenAI(OpenAIConfig{
			APIKey:        cfg.APIKey,
			Endpoint:      cfg.Endpoint,
			Model:         cfg.Model,
			Dim:           cfg.Dim,
			RatePerSecond: cfg.RatePerSecond,
		}), nil
	})
	Register("onnx", func(cfg config.EmbedderConfig) (Embedder, error) {
		return NewLocal(LocalConfig{
			ModelPath:      cfg.ModelPath,
			VocabPath:      cfg.VocabPath,
			ProjectionPath: cfg.ProjectionPath,
		})
	})
}

// New builds the configured provider, memoized when CacheSize > 0.
func New(cfg config.EmbedderConfig) (Embedder, error) {
	f, err := Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	e, err := f(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize <= 0 {
		return e, nil
	}
	return NewCached(e, cfg.CacheSize, cfg.CacheTTL)
}
