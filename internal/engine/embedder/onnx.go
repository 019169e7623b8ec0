package embedder

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv guards process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

var bertInputs = []string{"input_ids", "attention_mask", "token_type_ids"}

// session runs a BERT-style encoder that emits [batch, seq, hidden] states.
type session struct {
	ort       *ort.DynamicAdvancedSession
	output    string
	hiddenDim int
}

// openSession loads modelPath. The runtime library is expected next to the
// model as libonnxruntime.so.
func openSession(modelPath string, threads int) (*session, error) {
	if err := initORT(filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: read model info: %w", err)
	}
	have := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		have[in.Name] = true
	}
	for _, name := range bertInputs {
		if !have[name] {
			return nil, fmt.Errorf("onnx: model missing input %q", name)
		}
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}
	dims := outputs[0].Dimensions
	if len(dims) != 3 {
		return nil, fmt.Errorf("onnx: expected 3D output tensor, got %v", dims)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: session options: %w", err)
	}
	defer opts.Destroy()
	if threads > 0 {
		opts.SetIntraOpNumThreads(threads)
	}
	opts.SetInterOpNumThreads(1)

	s, err := ort.NewDynamicAdvancedSession(modelPath, bertInputs, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}
	return &session{ort: s, output: outputs[0].Name, hiddenDim: int(dims[2])}, nil
}

// run encodes one tokenized sequence and returns its flat [seq*hidden]
// hidden states.
func (s *session) run(seq sequence) ([]float32, error) {
	n := int64(len(seq.ids))
	shape := ort.NewShape(1, n)

	ids, err := ort.NewTensor(shape, seq.ids)
	if err != nil {
		return nil, fmt.Errorf("onnx: input_ids tensor: %w", err)
	}
	defer ids.Destroy()
	mask, err := ort.NewTensor(shape, seq.mask)
	if err != nil {
		return nil, fmt.Errorf("onnx: attention_mask tensor: %w", err)
	}
	defer mask.Destroy()
	types, err := ort.NewTensor(shape, make([]int64, n))
	if err != nil {
		return nil, fmt.Errorf("onnx: token_type_ids tensor: %w", err)
	}
	defer types.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, n, int64(s.hiddenDim)))
	if err != nil {
		return nil, fmt.Errorf("onnx: output tensor: %w", err)
	}
	defer out.Destroy()

	if err := s.ort.Run([]ort.Value{ids, mask, types}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx: inference: %w", err)
	}

	// Copy out before the tensor is destroyed.
	return append([]float32(nil), out.GetData()...), nil
}

func (s *session) close() error {
	return s.ort.Destroy()
}
