package engine

// #region imports
import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/postloop/creative-bandit/internal/actionspace"
	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/baseline"
	"github.com/postloop/creative-bandit/internal/config"
	"github.com/postloop/creative-bandit/internal/learn"
	"github.com/postloop/creative-bandit/internal/policy"
	"github.com/postloop/creative-bandit/internal/reward"
	"github.com/postloop/creative-bandit/internal/store"
)

// #endregion

// #region engine-struct

// Engine is the top-level coordinator: it selects actions for new posts,
// persists the audit trail, and folds realized rewards back into the
// learned policy.
type Engine struct {
	store    *store.Store
	selector *policy.Selector
	updater  *learn.Updater
	tracker  *baseline.Tracker
	calc     *reward.Calculator
	health   learn.HealthConfig
}

// #endregion

// #region constructor

// New creates a fully wired engine over the given store. rng is the
// injected random source used for categorical sampling.
func New(st *store.Store, cfg config.Config, rng policy.Sampler) (*Engine, error) {
	if err := actionspace.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", bandit.ErrEmptyDimension, err)
	}
	return &Engine{
		store:    st,
		selector: policy.NewSelector(st, st, rng, cfg.Selection),
		updater:  learn.NewUpdater(st, cfg.Learning),
		tracker:  baseline.NewTracker(st, cfg.Baseline.Beta),
		calc:     reward.NewCalculator(cfg.Reward),
		health:   cfg.Health,
	}, nil
}

// #endregion

// #region select

// Selection is one chosen action plus the identifiers and context vector
// needed to learn from it later.
type Selection struct {
	ActionID      string
	PostID        string
	Action        actionspace.Action
	ContextVector []float32
}

// SelectAction samples one action for a post and persists it. Called once
// per post, before any content is generated.
func (e *Engine) SelectAction(ctx context.Context, postID string, c bandit.Context) (Selection, error) {
	action, ctxVec, err := e.selector.Select(ctx, c)
	if err != nil {
		return Selection{}, fmt.Errorf("select action: %w", err)
	}

	sel := Selection{
		ActionID:      uuid.New().String(),
		PostID:        postID,
		Action:        action,
		ContextVector: ctxVec,
	}
	rec := store.ActionRecord{
		ActionID:      sel.ActionID,
		PostID:        postID,
		Platform:      c.Platform,
		TimeBucket:    c.TimeBucket,
		DayOfWeek:     c.DayOfWeek,
		Action:        action,
		ContextVector: ctxVec,
		CreatedAt:     time.Now().UTC(),
	}
	if err := e.store.InsertAction(ctx, rec); err != nil {
		return Selection{}, fmt.Errorf("persist action: %w", err)
	}

	log.Info().
		Str("action_id", sel.ActionID).
		Str("post_id", postID).
		Str("platform", string(c.Platform)).
		Str("hook_type", action.HookType).
		Str("tone", action.Tone).
		Str("creativity", action.Creativity).
		Msg("action selected")

	return sel, nil
}

// #endregion

// #region reward-entry

// ComputeReward converts raw metrics into a bounded reward.
func (e *Engine) ComputeReward(platform bandit.Platform, m reward.Metrics, deleted bool, daysSincePost float64) (float64, error) {
	return e.calc.Compute(platform, m, deleted, daysSincePost)
}

// #endregion

// #region learn

// Outcome summarizes one completed learning pass.
type Outcome struct {
	ActionID  string
	Reward    float64
	Baseline  float64
	Advantage float64
	Warnings  []string
}

// Learn folds a realized reward into the policy for a previously selected
// action. The reward guard row (which enforces the once-per-action
// contract), the baseline EMA step, and both policy delta batches commit in
// one store transaction, so a failed pass leaves no trace and can be
// retried whole.
func (e *Engine) Learn(ctx context.Context, actionID string, rewardValue float64, deleted bool, daysToDelete float64) (Outcome, error) {
	rec, err := e.store.GetAction(ctx, actionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load action: %w", err)
	}

	learnCtx := bandit.Context{
		Platform:   rec.Platform,
		TimeBucket: rec.TimeBucket,
		DayOfWeek:  rec.DayOfWeek,
	}

	var result learn.Result
	newBaseline, err := e.store.ApplyLearning(ctx,
		store.RewardRecord{
			ActionID:     actionID,
			Platform:     rec.Platform,
			Reward:       rewardValue,
			Deleted:      deleted,
			DaysToDelete: daysToDelete,
			CreatedAt:    time.Now().UTC(),
		},
		func(current float64) float64 {
			return e.tracker.Step(current, rewardValue)
		},
		func(newBaseline float64) ([]learn.PreferenceDelta, []policy.ThetaDelta, error) {
			var prefs []learn.PreferenceDelta
			var thetas []policy.ThetaDelta
			var err error
			result, prefs, thetas, err = e.updater.Deltas(
				learnCtx, rec.Action, rec.ContextVector, rewardValue, newBaseline)
			return prefs, thetas, err
		})
	if err != nil {
		return Outcome{}, fmt.Errorf("apply learning: %w", err)
	}
	if err := e.updater.FillNorms(ctx, &result); err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		ActionID:  actionID,
		Reward:    rewardValue,
		Baseline:  newBaseline,
		Advantage: result.Advantage,
	}
	for _, check := range e.health.CheckResult(result) {
		if !check.Pass {
			outcome.Warnings = append(outcome.Warnings, check.Detail)
			log.Warn().Str("action_id", actionID).Str("check", check.Name).
				Float64("value", check.Value).Msg(check.Detail)
		}
	}

	log.Info().
		Str("action_id", actionID).
		Str("platform", string(rec.Platform)).
		Float64("reward", rewardValue).
		Float64("baseline", newBaseline).
		Float64("advantage", result.Advantage).
		Msg("policy updated")

	return outcome, nil
}

// LearnFromMetrics computes the reward from raw metrics and applies Learn.
func (e *Engine) LearnFromMetrics(ctx context.Context, actionID string, m reward.Metrics, deleted bool, daysToDelete float64) (Outcome, error) {
	rec, err := e.store.GetAction(ctx, actionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load action: %w", err)
	}
	r, err := e.calc.Compute(rec.Platform, m, deleted, daysToDelete)
	if err != nil {
		return Outcome{}, err
	}
	return e.Learn(ctx, actionID, r, deleted, daysToDelete)
}

// LearnFromSnapshots aggregates the post's stored engagement snapshots into
// a window-weighted reward, then applies Learn.
func (e *Engine) LearnFromSnapshots(ctx context.Context, actionID string, deleted bool, daysToDelete float64) (Outcome, error) {
	rec, err := e.store.GetAction(ctx, actionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load action: %w", err)
	}
	snaps, err := e.store.Snapshots(ctx, rec.PostID, rec.Platform)
	if err != nil {
		return Outcome{}, err
	}
	r, err := e.calc.ComputeFromSnapshots(rec.Platform, snaps, deleted, daysToDelete)
	if err != nil {
		return Outcome{}, err
	}
	return e.Learn(ctx, actionID, r, deleted, daysToDelete)
}

// #endregion

// #region accessors

// Store exposes the backing store for inspection tooling.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Baseline reads the current baseline for a platform.
func (e *Engine) Baseline(ctx context.Context, platform bandit.Platform) (float64, error) {
	return e.tracker.Baseline(ctx, platform)
}

// #endregion
