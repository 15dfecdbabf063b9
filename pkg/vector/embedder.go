package vector

import (
	"context"
	"crypto/sha256"
)

// DefaultDimensions is the embedding dimensionality used when none is
// configured.
const DefaultDimensions = 384

// Embedder converts text into fixed-length embedding vectors.
type Embedder interface {
	// Embed converts a batch of text strings into embedding vectors.
	// The result has one vector per input, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of the embedding vectors.
	Dimensions() int
}

// HashEmbedder produces deterministic embeddings by spreading the
// SHA-256 digest of the text over the leading dimensions of the vector.
//
// The construction is a reproducible content fingerprint, not a learned
// representation: identical text always yields an identical vector, and
// texts sharing no bytes still land in the same non-negative orthant.
// That is enough for the ranking properties the search layer needs and
// keeps the embedder free of network and model dependencies.
type HashEmbedder struct {
	dims int
}

// Compile-time check that HashEmbedder implements Embedder.
var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder creates a HashEmbedder with the given dimensionality.
// Non-positive dims falls back to DefaultDimensions.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashEmbedder{dims: dims}
}

// Embed converts texts into embedding vectors. It never fails.
func (e *HashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

// Dimensions returns the configured dimensionality.
func (e *HashEmbedder) Dimensions() int {
	return e.dims
}

// embed builds one vector: digest bytes scaled into [0, 1] fill the
// leading dimensions, the rest stay zero, then the whole vector is
// normalized to unit length. A vector whose raw norm is zero is
// returned unnormalized rather than dividing by zero.
func (e *HashEmbedder) embed(text string) []float32 {
	digest := sha256.Sum256([]byte(text))

	vec := make([]float32, e.dims)
	n := len(digest)
	if n > e.dims {
		n = e.dims
	}
	for i := 0; i < n; i++ {
		vec[i] = float32(digest[i]) / 255.0
	}

	Normalize(vec)
	return vec
}
