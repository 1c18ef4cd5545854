package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/postloop/creative-bandit/internal/bandit"
)

// #region baseline-apply

// Apply implements baseline.Store. The read-modify-write runs inside a
// transaction so two concurrent EMA steps for the same platform serialize;
// the bounded retry in withTx covers lock contention. Out-of-order
// application changes the result and is acceptable, a lost update is not.
func (s *Store) Apply(ctx context.Context, platform bandit.Platform, fn func(current float64) float64) (float64, error) {
	var next float64
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var current float64
		err := tx.QueryRowContext(ctx,
			`SELECT value FROM rl_baselines WHERE platform = ?`, string(platform),
		).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read baseline: %w", err)
		}

		next = fn(current)

		_, err = tx.ExecContext(ctx,
			`INSERT INTO rl_baselines (platform, value, num_samples, updated_at)
			 VALUES (?, ?, 1, ?)
			 ON CONFLICT (platform)
			 DO UPDATE SET value = ?, num_samples = num_samples + 1, updated_at = excluded.updated_at`,
			string(platform), next, now, next,
		)
		if err != nil {
			return fmt.Errorf("write baseline: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// #endregion baseline-apply

// #region baseline-current

// Current implements baseline.Store. Unseen platforms read as 0.0.
func (s *Store) Current(ctx context.Context, platform bandit.Platform) (float64, error) {
	var value float64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM rl_baselines WHERE platform = ?`, string(platform),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read baseline: %w", err)
	}
	return value, nil
}

// #endregion baseline-current
