package replay

import (
	"context"
	"hash/fnv"
	"math/rand"

	"github.com/postloop/creative-bandit/internal/bandit"
)

// #region hash-embedder

// HashEmbedder derives a deterministic pseudo-embedding from the text alone.
// Harness runs stay reproducible across processes without calling a real
// embedding provider; the same text always maps to the same vector.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder returns an embedder producing vectors of the standard
// embedding half length.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{Dim: bandit.EmbeddingHalfDim}
}

// Embed maps text to a fixed pseudo-random vector in [-1, 1).
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	hasher := fnv.New64a()
	hasher.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(hasher.Sum64())))

	vec := make([]float32, h.Dim)
	for i := range vec {
		vec[i] = float32(rng.Float64()*2 - 1)
	}
	return vec, nil
}

// #endregion hash-embedder
