package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/postloop/creative-bandit/internal/learn"
	"github.com/postloop/creative-bandit/internal/policy"
)

// #region apply-deltas

// ApplyDeltas implements learn.PolicyStore. Both halves of a learning pass
// land in one transaction: the preference UPSERTs and the theta
// read-modify-writes commit together or roll back together.
func (s *Store) ApplyDeltas(ctx context.Context, prefs []learn.PreferenceDelta, thetas []policy.ThetaDelta) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := upsertPreferences(ctx, tx, prefs, now); err != nil {
			return err
		}
		return s.applyThetaDeltas(ctx, tx, thetas, now)
	})
}

// #endregion apply-deltas

// #region apply-learning

// ApplyLearning runs one complete learning pass in a single transaction:
// the reward guard row, the baseline EMA step, and both delta batches
// commit together or not at all. A failure anywhere leaves no trace, so the
// caller can retry the whole pass; a duplicate action ID fails the guard
// insert with ErrDuplicateLearn before anything else lands.
//
// step transforms the current baseline into the new one; build produces the
// delta batches from the new baseline. Both run inside the transaction and
// may be re-invoked by the bounded contention retry, so they must be pure.
func (s *Store) ApplyLearning(
	ctx context.Context,
	rec RewardRecord,
	step func(current float64) float64,
	build func(newBaseline float64) ([]learn.PreferenceDelta, []policy.ThetaDelta, error),
) (float64, error) {
	var next float64
	now := time.Now().UTC()
	nowStr := now.Format(time.RFC3339Nano)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var current float64
		err := tx.QueryRowContext(ctx,
			`SELECT value FROM rl_baselines WHERE platform = ?`, string(rec.Platform),
		).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read baseline: %w", err)
		}
		next = step(current)

		guard := rec
		guard.Baseline = next
		if err := insertRewardTx(ctx, tx, guard); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO rl_baselines (platform, value, num_samples, updated_at)
			 VALUES (?, ?, 1, ?)
			 ON CONFLICT (platform)
			 DO UPDATE SET value = ?, num_samples = num_samples + 1, updated_at = excluded.updated_at`,
			string(rec.Platform), next, nowStr, next,
		)
		if err != nil {
			return fmt.Errorf("write baseline: %w", err)
		}

		prefs, thetas, err := build(next)
		if err != nil {
			return err
		}
		if err := upsertPreferences(ctx, tx, prefs, nowStr); err != nil {
			return err
		}
		return s.applyThetaDeltas(ctx, tx, thetas, nowStr)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// #endregion apply-learning
