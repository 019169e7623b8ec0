package embedder

import (
	"context"
	"fmt"
)

// LocalConfig locates the ONNX model files.
type LocalConfig struct {
	ModelPath string
	VocabPath string
	// ProjectionPath is optional; without it vectors keep the encoder's
	// hidden size.
	ProjectionPath string
	// Model is the name recorded in taxonomy meta. Default: "local-onnx".
	Model   string
	Threads int
}

// Local embeds text in-process with an ONNX sentence encoder:
// tokenize, encode, mean pool, project, L2-normalize.
type Local struct {
	sess  *session
	tok   *tokenizer
	proj  *projection
	model string
}

var _ Embedder = (*Local)(nil)

// NewLocal loads the model, vocabulary and optional projection.
func NewLocal(cfg LocalConfig) (*Local, error) {
	v, err := loadVocab(cfg.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	var proj *projection
	if cfg.ProjectionPath != "" {
		if proj, err = loadProjection(cfg.ProjectionPath); err != nil {
			return nil, fmt.Errorf("embedder: %w", err)
		}
	}

	sess, err := openSession(cfg.ModelPath, cfg.Threads)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	if proj != nil && sess.hiddenDim != proj.inDim {
		sess.close()
		return nil, fmt.Errorf("embedder: ONNX output dim %d != projection input dim %d", sess.hiddenDim, proj.inDim)
	}

	name := cfg.Model
	if name == "" {
		name = "local-onnx"
	}
	return &Local{sess: sess, tok: &tokenizer{vocab: v}, proj: proj, model: name}, nil
}

func (l *Local) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq := l.tok.encode(text)
	hidden, err := l.sess.run(seq)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	return normalize(l.proj.apply(meanPool(hidden, seq.mask, l.sess.hiddenDim))), nil
}

func (l *Local) Dim() int {
	if l.proj != nil {
		return l.proj.outDim
	}
	return l.sess.hiddenDim
}

func (l *Local) Model() string { return l.model }

// Close releases ONNX Runtime resources.
func (l *Local) Close() error {
	if l.sess != nil {
		return l.sess.close()
	}
	return nil
}
