package embedder

import "math"

// meanPool averages the hidden states of the tokens whose mask is 1.
// hidden is flat [seqLen*dim].
func meanPool(hidden []float32, mask []int64, dim int) []float32 {
	out := make([]float32, dim)
	var count float32
	for s, m := range mask {
		if m != 1 {
			continue
		}
		count++
		tok := hidden[s*dim : (s+1)*dim]
		for d, v := range tok {
			out[d] += v
		}
	}
	if count == 0 {
		return out
	}
	for d := range out {
		out[d] /= count
	}
	return out
}

// normalize scales vec to unit length in place. Zero vectors are left alone.
func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
