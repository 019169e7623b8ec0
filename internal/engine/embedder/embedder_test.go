package embedder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/taxon/internal/config"
	domainerrors "github.com/hejijunhao/taxon/internal/errors"
)

// countingEmbedder returns a fixed vector and counts calls.
type countingEmbedder struct {
	calls atomic.Int32
	vec   []float32
	err   error
}

func (c *countingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return append([]float32(nil), c.vec...), nil
}

func (c *countingEmbedder) Dim() int      { return len(c.vec) }
func (c *countingEmbedder) Model() string { return "counting" }

func TestVerify(t *testing.T) {
	e := &countingEmbedder{vec: []float32{1, 2, 3}}
	assert.NoError(t, Verify(e, []float32{0, 0, 0}))

	err := Verify(e, []float32{0, 0})
	assert.ErrorIs(t, err, domainerrors.ErrEmbeddingDimensionMismatch)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil))

	err := Classify(fmt.Errorf("call: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, domainerrors.ErrEmbeddingProviderTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = Classify(errors.New("boom"))
	assert.ErrorIs(t, err, domainerrors.ErrEmbeddingProviderError)

	mismatch := domainerrors.DimensionMismatch(3, 2)
	assert.Same(t, mismatch, Classify(mismatch))
}

func openAIServer(t *testing.T, dim int, calls *atomic.Int32, gotInput *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req embeddingsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if gotInput != nil && len(req.Input) > 0 {
			*gotInput = req.Input[0]
		}
		vec := make([]float32, dim)
		vec[0] = 1
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": vec}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIEmbed(t *testing.T) {
	var calls atomic.Int32
	var input string
	srv := openAIServer(t, 4, &calls, &input)

	e := NewOpenAI(OpenAIConfig{APIKey: "sk", Endpoint: srv.URL, Model: "text-embedding-3-small", Dim: 4})
	vec, err := e.Embed(context.Background(), "  Café da Manhã ")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0}, vec)
	assert.Equal(t, "café da manhã", input)
	assert.Equal(t, 4, e.Dim())
	assert.Equal(t, "text-embedding-3-small", e.Model())
}

func TestOpenAIDimensionMismatch(t *testing.T) {
	var calls atomic.Int32
	srv := openAIServer(t, 3, &calls, nil)

	e := NewOpenAI(OpenAIConfig{Endpoint: srv.URL, Model: "m", Dim: 4})
	_, err := e.Embed(context.Background(), "wifi")
	assert.ErrorIs(t, err, domainerrors.ErrEmbeddingDimensionMismatch)
}

func TestOpenAIServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	e := NewOpenAI(OpenAIConfig{Endpoint: srv.URL, Model: "m", Dim: 4})
	_, err := e.Embed(context.Background(), "wifi")
	require.Error(t, err)
	assert.ErrorIs(t, Classify(err), domainerrors.ErrEmbeddingProviderError)
}

func TestOpenAIRateLimiterHonoursContext(t *testing.T) {
	var calls atomic.Int32
	srv := openAIServer(t, 4, &calls, nil)

	e := NewOpenAI(OpenAIConfig{Endpoint: srv.URL, Model: "m", Dim: 4, RatePerSecond: 0.001})
	_, err := e.Embed(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = e.Embed(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedMemoizes(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1, 0}}
	c, err := NewCached(inner, 100, time.Hour)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	v1, err := c.Embed(ctx, "Wifi ruim")
	require.NoError(t, err)
	c.cache.Wait()

	v2, err := c.Embed(ctx, "  wifi RUIM")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int32(1), inner.calls.Load())

	// Callers cannot corrupt the cached vector.
	v2[0] = 42
	v3, err := c.Embed(ctx, "wifi ruim")
	require.NoError(t, err)
	assert.Equal(t, float32(1), v3[0])

	assert.Equal(t, 2, c.Dim())
	assert.Equal(t, "counting", c.Model())
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	inner := &countingEmbedder{vec: []float32{1}, err: errors.New("down")}
	c, err := NewCached(inner, 10, time.Hour)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Embed(context.Background(), "x")
	require.Error(t, err)
	c.cache.Wait()
	_, err = c.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestNewCachedRejectsBadSize(t *testing.T) {
	_, err := NewCached(&countingEmbedder{}, 0, time.Hour)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"onnx", "openai"}, Providers())

	_, err := Get("cohere")
	assert.ErrorContains(t, err, `unknown embedding provider "cohere" (available: onnx, openai)`)
}

func TestNewFromConfig(t *testing.T) {
	var calls atomic.Int32
	srv := openAIServer(t, 4, &calls, nil)

	e, err := New(config.EmbedderConfig{
		Provider:  "openai",
		Endpoint:  srv.URL,
		Model:     "text-embedding-3-small",
		Dim:       4,
		CacheSize: 10,
		CacheTTL:  time.Hour,
	})
	require.NoError(t, err)
	c, ok := e.(*Cached)
	require.True(t, ok, "expected memoized provider")
	defer c.Close()

	_, err = e.Embed(context.Background(), "wifi")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
