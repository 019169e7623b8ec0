package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hejijunhao/taxon/internal/engine/testdata"
	domainerrors "github.com/hejijunhao/taxon/internal/errors"
)

// run executes one CLI invocation and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	auditPath, pretty, minimal, logLevel, envelope = "", false, false, "", false
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	require.NoError(t, rt.close())
	rt = &runtime{}
	return buf.String(), err
}

func TestImportSeedStats(t *testing.T) {
	t.Setenv("TAXON_OPENAI_API_KEY", "test-key")
	dir := t.TempDir()
	storeDir := filepath.Join(dir, "store")
	fixture := filepath.Join(dir, "taxonomy.json")
	require.NoError(t, os.WriteFile(fixture, testdata.Taxonomy(), 0o644))

	out, err := run(t, "import", fixture, "--store", storeDir)
	require.NoError(t, err)
	assert.Contains(t, out, `"bytes"`)

	out, err = run(t, "seed", "--store", storeDir)
	require.NoError(t, err)
	assert.JSONEq(t, `{"seeded":0}`, out, "departments already imported")

	out, err = run(t, "stats", "--store", storeDir)
	require.NoError(t, err)
	var st struct {
		Version        int    `json:"version"`
		EmbeddingModel string `json:"embedding_model"`
		Departments    int    `json:"departments"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 1, st.Version)
	assert.Equal(t, "fixture-4d", st.EmbeddingModel)
	assert.Equal(t, 5, st.Departments)
}

func TestAuditLog(t *testing.T) {
	t.Setenv("TAXON_OPENAI_API_KEY", "test-key")
	dir := t.TempDir()
	audit := filepath.Join(dir, "audit.jsonl")

	_, err := run(t, "seed", "--store", filepath.Join(dir, "store"), "--audit", audit)
	require.NoError(t, err)

	data, err := os.ReadFile(audit)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec))
	assert.Equal(t, "seed", rec["command"])
	assert.Equal(t, map[string]any{"seeded": float64(13)}, rec["result"])
}

func TestEngineNeedsValidConfig(t *testing.T) {
	t.Setenv("TAXON_OPENAI_API_KEY", "")
	_, err := run(t, "stats", "--store", filepath.Join(t.TempDir(), "store"))
	assert.ErrorContains(t, err, "TAXON_OPENAI_API_KEY")
}

func TestImportMissingFile(t *testing.T) {
	_, err := run(t, "import", filepath.Join(t.TempDir(), "nope.json"), "--store", "")
	assert.ErrorContains(t, err, "nope.json")
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not found carries on",
			err:  fmt.Errorf("archive: %w", domainerrors.NotFoundf("keyword %s not found", "kw-x")),
			want: `{"error":{"code":"NOT_FOUND","message":"keyword kw-x not found"},"recoverable":true}` + "\n",
		},
		{
			name: "dimension mismatch stops",
			err:  domainerrors.DimensionMismatch(1536, 384),
			want: `"code":"EMBEDDING_DIMENSION_MISMATCH"`,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "taxon: boom\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tt.err)
			assert.Contains(t, buf.String(), tt.want)
		})
	}

	var buf bytes.Buffer
	reportError(&buf, domainerrors.DimensionMismatch(1536, 384))
	var got struct {
		Recoverable bool `json:"recoverable"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.False(t, got.Recoverable)
}
