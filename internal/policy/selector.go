package policy

import (
	"context"
	"fmt"
	"math"

	"github.com/postloop/creative-bandit/internal/actionspace"
	"github.com/postloop/creative-bandit/internal/bandit"
)

// #region interfaces

// PreferenceReader looks up discrete preference entries. A key never
// observed before must return a zero entry with no error: cold start is the
// exploration-neutral policy, not a failure.
type PreferenceReader interface {
	Preference(ctx context.Context, key bandit.PreferenceKey) (bandit.PreferenceEntry, error)
}

// Sampler is the injected pseudo-random source. *math/rand.Rand satisfies
// it; tests seed it for deterministic categorical draws.
type Sampler interface {
	Float64() float64
}

// #endregion interfaces

// #region config

// Config holds selection parameters.
type Config struct {
	// Temperature scales scores before softmax. 1.0 is neutral; higher
	// flattens the distribution toward uniform exploration.
	Temperature float64 `yaml:"temperature"`
}

// DefaultConfig returns neutral selection parameters.
func DefaultConfig() Config {
	return Config{Temperature: 1.0}
}

// #endregion config

// #region selector

// Selector combines discrete preferences and continuous weights into a
// per-dimension softmax distribution and samples one action.
type Selector struct {
	prefs   PreferenceReader
	weights WeightStore
	rng     Sampler
	config  Config
}

// NewSelector creates a selector. rng must not be shared across goroutines
// unless the caller serializes it.
func NewSelector(prefs PreferenceReader, weights WeightStore, rng Sampler, config Config) *Selector {
	if config.Temperature <= 0 {
		config.Temperature = 1.0
	}
	return &Selector{prefs: prefs, weights: weights, rng: rng, config: config}
}

// Select samples one value per dimension and returns the action together
// with the context vector used to score it, so learning reuses the exact
// same vector.
func (s *Selector) Select(ctx context.Context, c bandit.Context) (actionspace.Action, []float32, error) {
	if err := actionspace.Validate(); err != nil {
		return actionspace.Action{}, nil, fmt.Errorf("%w: %v", bandit.ErrEmptyDimension, err)
	}

	ctxVec, err := c.Vector()
	if err != nil {
		return actionspace.Action{}, nil, err
	}

	var action actionspace.Action
	for _, dim := range actionspace.Dimensions {
		values := actionspace.Values(dim)

		probs, err := s.Distribution(ctx, c, ctxVec, dim)
		if err != nil {
			return actionspace.Action{}, nil, err
		}

		idx := sample(probs, s.rng.Float64())
		action.Set(dim, values[idx])
	}

	return action, ctxVec, nil
}

// Distribution computes the softmax selection probabilities over one
// dimension's values for the given context.
func (s *Selector) Distribution(ctx context.Context, c bandit.Context, ctxVec []float32, dim actionspace.Dimension) ([]float64, error) {
	values := actionspace.Values(dim)
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %q", bandit.ErrEmptyDimension, dim)
	}

	scores := make([]float64, len(values))
	for i, v := range values {
		entry, err := s.prefs.Preference(ctx, c.Key(dim, v))
		if err != nil {
			return nil, fmt.Errorf("preference lookup (%s, %s): %w", dim, v, err)
		}
		theta, err := s.weights.Theta(ctx, dim, v)
		if err != nil {
			return nil, fmt.Errorf("theta lookup (%s, %s): %w", dim, v, err)
		}
		scores[i] = entry.Score + Dot(theta, ctxVec)
	}

	return Softmax(scores, s.config.Temperature), nil
}

// #endregion selector

// #region softmax

// Softmax converts scores into a probability distribution, subtracting the
// max score before exponentiating for numerical stability. Tied scores get
// equal probability mass.
func Softmax(scores []float64, temperature float64) []float64 {
	if temperature <= 0 {
		temperature = 1.0
	}

	maxS := math.Inf(-1)
	for _, s := range scores {
		if s/temperature > maxS {
			maxS = s / temperature
		}
	}

	probs := make([]float64, len(scores))
	var total float64
	for i, s := range scores {
		e := math.Exp(s/temperature - maxS)
		probs[i] = e
		total += e
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}

// sample draws a categorical index from probs given a uniform [0,1) draw.
// Floating-point residue falls through to the last index.
func sample(probs []float64, u float64) int {
	var cum float64
	for i, p := range probs {
		cum += p
		if u < cum {
			return i
		}
	}
	return len(probs) - 1
}

// Dot computes the dot product of a weight vector and a context vector.
// The lengths must match; a mismatch means a weight store was opened with
// the wrong vector dimension and silently truncating would mis-score every
// value.
func Dot(theta []float32, vec []float32) float64 {
	if len(theta) != len(vec) {
		panic(fmt.Sprintf("policy: dot length mismatch: %d vs %d", len(theta), len(vec)))
	}
	var sum float64
	for i := range theta {
		sum += float64(theta[i]) * float64(vec[i])
	}
	return sum
}

// #endregion softmax
