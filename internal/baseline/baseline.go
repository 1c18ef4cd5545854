package baseline

import (
	"context"
	"sync"

	"github.com/postloop/creative-bandit/internal/bandit"
)

// #region ema

// DefaultBeta is the EMA smoothing factor.
const DefaultBeta = 0.1

// EMA computes one exponential-moving-average step:
// b' = (1-beta)*b + beta*r. This is the required baseline primitive; the
// advantage derived from it only centers correctly under a proper EMA.
func EMA(current, reward, beta float64) float64 {
	return (1-beta)*current + beta*reward
}

// #endregion ema

// #region store

// Store persists one baseline scalar per platform. Apply must serialize
// concurrent transforms for the same platform: the EMA step is
// order-sensitive, and losing one of two concurrent updates is not
// acceptable.
type Store interface {
	// Apply atomically transforms the platform's baseline and returns the
	// new value. Unseen platforms start at 0.0.
	Apply(ctx context.Context, platform bandit.Platform, fn func(current float64) float64) (float64, error)

	// Current reads the platform's baseline without modifying it.
	Current(ctx context.Context, platform bandit.Platform) (float64, error)
}

// #endregion store

// #region tracker

// Tracker maintains one independent EMA baseline per platform.
type Tracker struct {
	store Store
	beta  float64
}

// NewTracker creates a tracker over the given store. beta <= 0 falls back
// to DefaultBeta; note beta = 0 as an explicit experiment value must be
// exercised through EMA directly.
func NewTracker(store Store, beta float64) *Tracker {
	if beta <= 0 {
		beta = DefaultBeta
	}
	return &Tracker{store: store, beta: beta}
}

// Step computes one EMA step without touching the store, for callers that
// persist the result inside a transaction of their own.
func (t *Tracker) Step(current, reward float64) float64 {
	return EMA(current, reward, t.beta)
}

// Update folds a realized reward into the platform baseline and returns the
// new baseline.
func (t *Tracker) Update(ctx context.Context, platform bandit.Platform, reward float64) (float64, error) {
	if !platform.Valid() {
		return 0, bandit.ErrUnsupportedPlatform
	}
	return t.store.Apply(ctx, platform, func(current float64) float64 {
		return EMA(current, reward, t.beta)
	})
}

// Baseline reads the current baseline for a platform.
func (t *Tracker) Baseline(ctx context.Context, platform bandit.Platform) (float64, error) {
	return t.store.Current(ctx, platform)
}

// #endregion tracker

// #region memory-store

// MemoryStore is a process-local baseline store guarded by a mutex.
type MemoryStore struct {
	mu     sync.Mutex
	values map[bandit.Platform]float64
}

// NewMemoryStore creates an empty in-memory baseline store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[bandit.Platform]float64)}
}

// Apply implements Store.
func (s *MemoryStore) Apply(_ context.Context, platform bandit.Platform, fn func(current float64) float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.values[platform])
	s.values[platform] = next
	return next, nil
}

// Current implements Store.
func (s *MemoryStore) Current(_ context.Context, platform bandit.Platform) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[platform], nil
}

// #endregion memory-store
