package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockClient produces deterministic unit vectors derived from the text hash.
// The same text always embeds identically, which is what retrieval tests
// need; no network involved.
type MockClient struct {
	dims int
}

func NewMockClient(dims int) *MockClient {
	if dims <= 0 {
		dims = dimensions
	}
	return &MockClient{dims: dims}
}

func (c *MockClient) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, c.dims)
	var norm float64
	for i := range vec {
		// xorshift over the seed gives a stable pseudo-random component.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float64(int64(seed%2000)-1000) / 1000
		vec[i] = float32(v)
		norm += v * v
	}

	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}
