package embedder

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/hejijunhao/taxon/internal/httpclient"
)

// DefaultOpenAIEndpoint is the OpenAI embeddings URL.
const DefaultOpenAIEndpoint = "https://api.openai.com/v1/embeddings"

// OpenAIConfig configures the OpenAI embeddings provider.
type OpenAIConfig struct {
	APIKey   string
	Endpoint string
	Model    string
	Dim      int
	// RatePerSecond caps outbound requests. Zero means unlimited.
	RatePerSecond float64
}

// OpenAI embeds text with the OpenAI embeddings API.
type OpenAI struct {
	client  *httpclient.Client
	limiter *rate.Limiter
	model   string
	dim     int
}

var _ Embedder = (*OpenAI)(nil)

// NewOpenAI creates the provider. Retries are left to the caller.
func NewOpenAI(cfg OpenAIConfig, opts ...httpclient.Option) *OpenAI {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultOpenAIEndpoint
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &OpenAI{
		client:  httpclient.New(endpoint, cfg.APIKey, opts...),
		limiter: rate.NewLimiter(limit, 1),
		model:   cfg.Model,
		dim:     cfg.Dim,
	}
}

type embeddingsRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed lowercases and trims text before sending it, so equivalent inputs
// share an embedding.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := embeddingsRequest{
		Model:          o.model,
		Input:          []string{strings.ToLower(strings.TrimSpace(text))},
		EncodingFormat: "float",
	}
	var resp embeddingsResponse
	if err := o.client.PostJSON(ctx, "", req, &resp); err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}

	vec := resp.Data[0].Embedding
	if err := Verify(o, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (o *OpenAI) Dim() int      { return o.dim }
func (o *OpenAI) Model() string { return o.model }
