package embedder

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// projection is a bias-free dense layer stored as a safetensors file with a
// single F32 tensor "linear.weight" of shape [out, in].
type projection struct {
	weights []float32 // row-major [outDim, inDim]
	inDim   int
	outDim  int
}

func loadProjection(path string) (*projection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("projection: %w", err)
	}
	return parseProjection(data)
}

func parseProjection(data []byte) (*projection, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("projection: file too small: %d bytes", len(data))
	}
	headerLen := binary.LittleEndian.Uint64(data[:8])
	if uint64(len(data)-8) < headerLen {
		return nil, fmt.Errorf("projection: header length %d exceeds file size", headerLen)
	}
	body := int(8 + headerLen)

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:body], &header); err != nil {
		return nil, fmt.Errorf("projection: parse header: %w", err)
	}
	raw, ok := header["linear.weight"]
	if !ok {
		return nil, fmt.Errorf("projection: tensor linear.weight not found")
	}
	var meta struct {
		Dtype       string `json:"dtype"`
		Shape       []int  `json:"shape"`
		DataOffsets [2]int `json:"data_offsets"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("projection: parse tensor metadata: %w", err)
	}
	if meta.Dtype != "F32" {
		return nil, fmt.Errorf("projection: expected dtype F32, got %s", meta.Dtype)
	}
	if len(meta.Shape) != 2 {
		return nil, fmt.Errorf("projection: expected 2D tensor, got shape %v", meta.Shape)
	}

	p := &projection{outDim: meta.Shape[0], inDim: meta.Shape[1]}
	start, end := body+meta.DataOffsets[0], body+meta.DataOffsets[1]
	if end-start != p.outDim*p.inDim*4 {
		return nil, fmt.Errorf("projection: data size %d doesn't match shape %v", end-start, meta.Shape)
	}
	if end > len(data) {
		return nil, fmt.Errorf("projection: data range [%d:%d] exceeds file size %d", start, end, len(data))
	}

	p.weights = make([]float32, p.outDim*p.inDim)
	for i := range p.weights {
		off := start + i*4
		p.weights[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
	}
	return p, nil
}

// apply projects vec from inDim to outDim. A nil projection is the identity.
func (p *projection) apply(vec []float32) []float32 {
	if p == nil {
		return vec
	}
	out := make([]float32, p.outDim)
	for i := range out {
		row := p.weights[i*p.inDim : (i+1)*p.inDim]
		var sum float32
		for j, w := range row {
			sum += w * vec[j]
		}
		out[i] = sum
	}
	return out
}
