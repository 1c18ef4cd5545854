package policy

import (
	"context"
	"fmt"
	"sync"

	"github.com/postloop/creative-bandit/internal/actionspace"
)

// #region weight-store

// ThetaDelta is one elementwise increment to a weight vector.
type ThetaDelta struct {
	Dimension actionspace.Dimension
	Value     string
	Delta     []float32
}

// WeightStore maps each (dimension, value) pair to a learned weight vector
// scored against context vectors by dot product. Never-written keys read as
// the zero vector: a fresh key contributes exactly 0.0 to a score.
type WeightStore interface {
	// Theta returns a copy of the weight vector for (dimension, value).
	Theta(ctx context.Context, dim actionspace.Dimension, value string) ([]float32, error)

	// Add applies a batch of elementwise increments.
	Add(ctx context.Context, deltas []ThetaDelta) error
}

// #endregion weight-store

// #region memory-weights

type weightKey struct {
	dim   actionspace.Dimension
	value string
}

// MemoryWeights is the process-lifetime in-memory weight table.
type MemoryWeights struct {
	mu    sync.RWMutex
	dim   int
	table map[weightKey][]float32
}

// NewMemoryWeights creates an empty weight table for vectors of length dim.
func NewMemoryWeights(dim int) *MemoryWeights {
	return &MemoryWeights{
		dim:   dim,
		table: make(map[weightKey][]float32),
	}
}

// Theta implements WeightStore. Unseen keys return a zero vector.
func (w *MemoryWeights) Theta(_ context.Context, dim actionspace.Dimension, value string) ([]float32, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]float32, w.dim)
	if stored, ok := w.table[weightKey{dim, value}]; ok {
		copy(out, stored)
	}
	return out, nil
}

// Add implements WeightStore. The whole batch applies under one lock.
func (w *MemoryWeights) Add(_ context.Context, deltas []ThetaDelta) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, d := range deltas {
		if len(d.Delta) != w.dim {
			return fmt.Errorf("theta delta for (%s, %s) has %d elements, want %d",
				d.Dimension, d.Value, len(d.Delta), w.dim)
		}
	}
	for _, d := range deltas {
		key := weightKey{d.Dimension, d.Value}
		vec, ok := w.table[key]
		if !ok {
			vec = make([]float32, w.dim)
			w.table[key] = vec
		}
		for i, dv := range d.Delta {
			vec[i] += dv
		}
	}
	return nil
}

// #endregion memory-weights
