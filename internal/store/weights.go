package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/postloop/creative-bandit/internal/actionspace"
	"github.com/postloop/creative-bandit/internal/policy"
)

// #region theta-read

// Theta implements policy.WeightStore. Unseen keys return a zero vector.
func (s *Store) Theta(ctx context.Context, dim actionspace.Dimension, value string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT theta FROM rl_weights WHERE dimension = ? AND action_value = ?`,
		string(dim), value,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return make([]float32, s.vecDim), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get theta: %w", err)
	}
	return decodeVector(blob, s.vecDim), nil
}

// #endregion theta-read

// #region theta-add

// Add implements policy.WeightStore. SQLite cannot increment a BLOB in one
// statement, so the read-modify-write runs inside a transaction; the
// write lock serializes concurrent updaters for the same key.
func (s *Store) Add(ctx context.Context, deltas []policy.ThetaDelta) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.applyThetaDeltas(ctx, tx, deltas, now)
	})
}

// applyThetaDeltas applies a theta batch inside an open transaction. The
// length check runs in-transaction so a bad delta rolls back everything the
// transaction already wrote.
func (s *Store) applyThetaDeltas(ctx context.Context, tx *sql.Tx, deltas []policy.ThetaDelta, now string) error {
	for _, d := range deltas {
		if len(d.Delta) != s.vecDim {
			return fmt.Errorf("theta delta for (%s, %s) has %d elements, want %d",
				d.Dimension, d.Value, len(d.Delta), s.vecDim)
		}

		var blob []byte
		err := tx.QueryRowContext(ctx,
			`SELECT theta FROM rl_weights WHERE dimension = ? AND action_value = ?`,
			string(d.Dimension), d.Value,
		).Scan(&blob)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read theta (%s, %s): %w", d.Dimension, d.Value, err)
		}

		vec := decodeVector(blob, s.vecDim)
		for i, dv := range d.Delta {
			vec[i] += dv
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO rl_weights (dimension, action_value, theta, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (dimension, action_value)
			 DO UPDATE SET theta = excluded.theta, updated_at = excluded.updated_at`,
			string(d.Dimension), d.Value, encodeVector(vec), now,
		)
		if err != nil {
			return fmt.Errorf("write theta (%s, %s): %w", d.Dimension, d.Value, err)
		}
	}
	return nil
}

// #endregion theta-add
