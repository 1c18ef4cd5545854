package learn

import (
	"context"
	"fmt"

	"github.com/postloop/creative-bandit/internal/actionspace"
	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/policy"
)

// #region interfaces

// PreferenceDelta is one additive increment to a discrete preference entry.
// The store bumps the entry's sample counter alongside the score; a key seen
// for the first time is created at the delta with sample count 1.
type PreferenceDelta struct {
	Key   bandit.PreferenceKey
	Delta float64
}

// PreferenceStore applies discrete preference increments. Increment must be
// all-or-nothing across the batch: a learning pass that lands on three of
// six dimensions and then fails corrupts the learned policy.
type PreferenceStore interface {
	Increment(ctx context.Context, deltas []PreferenceDelta) error
}

// PolicyStore applies the two halves of one learning pass as one unit:
// either every preference row and every weight vector commits, or none do.
// A pass that lands on one half but not the other leaves the policy
// permanently skewed, because the caller's once-per-action contract forbids
// replaying it.
type PolicyStore interface {
	// ApplyDeltas commits preference and theta increments atomically.
	ApplyDeltas(ctx context.Context, prefs []PreferenceDelta, thetas []policy.ThetaDelta) error

	// Theta returns a copy of the weight vector for (dimension, value).
	Theta(ctx context.Context, dim actionspace.Dimension, value string) ([]float32, error)
}

// #endregion interfaces

// #region config

// Config holds the two learning rates. Discrete preferences adapt faster:
// the table has few degrees of freedom per context bucket, while theta
// generalizes across embeddings and must move conservatively.
type Config struct {
	LRDiscrete float64 `yaml:"lrDiscrete"`
	LRTheta    float64 `yaml:"lrTheta"`
}

// DefaultConfig returns the calibrated learning rates.
func DefaultConfig() Config {
	return Config{
		LRDiscrete: 0.05,
		LRTheta:    0.01,
	}
}

// #endregion config

// #region metrics

// DimMetric captures one dimension's contribution to an update pass.
type DimMetric struct {
	Dimension      actionspace.Dimension
	Value          string
	PrefDelta      float64
	ThetaDeltaNorm float64
	ThetaNorm      float64 // post-update norm, informational
}

// Result is the telemetry from one update pass.
type Result struct {
	Advantage  float64
	DimMetrics []DimMetric
}

// #endregion metrics

// #region updater

// Updater pushes the discrete preferences and continuous weights toward
// actions that beat the baseline and away from actions that underperform it.
type Updater struct {
	store  PolicyStore
	config Config
}

// NewUpdater creates an updater over the given store.
func NewUpdater(store PolicyStore, config Config) *Updater {
	if config.LRDiscrete == 0 {
		config.LRDiscrete = DefaultConfig().LRDiscrete
	}
	if config.LRTheta == 0 {
		config.LRTheta = DefaultConfig().LRTheta
	}
	return &Updater{store: store, config: config}
}

// Deltas computes one pass's increments without applying them. Callers that
// persist additional rows alongside the pass (the engine's reward journal)
// build the batches here and commit everything inside one transaction of
// their own store. ctxVec must be the vector returned by selection so both
// passes score identically; a nil ctxVec is rebuilt from the context.
//
// The returned Result carries the advantage and per-dimension deltas;
// post-commit theta norms are filled in by FillNorms.
func (u *Updater) Deltas(
	c bandit.Context,
	action actionspace.Action,
	ctxVec []float32,
	reward, baseline float64,
) (Result, []PreferenceDelta, []policy.ThetaDelta, error) {
	if err := action.Validate(); err != nil {
		return Result{}, nil, nil, err
	}
	if ctxVec == nil {
		var err error
		if ctxVec, err = c.Vector(); err != nil {
			return Result{}, nil, nil, err
		}
	} else if err := c.ValidateKeys(); err != nil {
		return Result{}, nil, nil, err
	}
	if len(ctxVec) != bandit.ContextDim {
		return Result{}, nil, nil, fmt.Errorf("%w: context vector has %d elements, want %d",
			bandit.ErrMissingContext, len(ctxVec), bandit.ContextDim)
	}

	advantage := reward - baseline

	pairs := action.Pairs()
	prefDeltas := make([]PreferenceDelta, 0, len(pairs))
	thetaDeltas := make([]policy.ThetaDelta, 0, len(pairs))

	thetaScale := float32(u.config.LRTheta * advantage)
	for _, p := range pairs {
		prefDeltas = append(prefDeltas, PreferenceDelta{
			Key:   c.Key(p.Dimension, p.Value),
			Delta: u.config.LRDiscrete * advantage,
		})

		delta := make([]float32, len(ctxVec))
		for i, v := range ctxVec {
			delta[i] = thetaScale * v
		}
		thetaDeltas = append(thetaDeltas, policy.ThetaDelta{
			Dimension: p.Dimension,
			Value:     p.Value,
			Delta:     delta,
		})
	}

	result := Result{
		Advantage:  advantage,
		DimMetrics: make([]DimMetric, 0, len(pairs)),
	}
	for i, p := range pairs {
		result.DimMetrics = append(result.DimMetrics, DimMetric{
			Dimension:      p.Dimension,
			Value:          p.Value,
			PrefDelta:      prefDeltas[i].Delta,
			ThetaDeltaNorm: VectorNorm(thetaDeltas[i].Delta),
		})
	}
	return result, prefDeltas, thetaDeltas, nil
}

// FillNorms reads back each dimension's post-commit theta norm into the
// result, for the health checks.
func (u *Updater) FillNorms(ctx context.Context, result *Result) error {
	for i, dm := range result.DimMetrics {
		theta, err := u.store.Theta(ctx, dm.Dimension, dm.Value)
		if err != nil {
			return fmt.Errorf("theta readback (%s, %s): %w", dm.Dimension, dm.Value, err)
		}
		result.DimMetrics[i].ThetaNorm = VectorNorm(theta)
	}
	return nil
}

// Update applies one learning pass for a realized reward. Must be called
// exactly once per post: a duplicate call double-counts the sample.
//
// Both delta batches commit through the store's ApplyDeltas as one unit, so
// a store failure never leaves the discrete and continuous halves pulling
// in different directions.
func (u *Updater) Update(
	ctx context.Context,
	c bandit.Context,
	action actionspace.Action,
	ctxVec []float32,
	reward, baseline float64,
) (Result, error) {
	result, prefDeltas, thetaDeltas, err := u.Deltas(c, action, ctxVec, reward, baseline)
	if err != nil {
		return Result{}, err
	}
	if err := u.store.ApplyDeltas(ctx, prefDeltas, thetaDeltas); err != nil {
		return Result{}, fmt.Errorf("apply learning deltas: %w", err)
	}
	if err := u.FillNorms(ctx, &result); err != nil {
		return Result{}, err
	}
	return result, nil
}

// #endregion updater
