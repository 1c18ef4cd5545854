package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/postloop/creative-bandit/internal/actionspace"
	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/learn"
)

// #region preference-read

// Preference implements policy.PreferenceReader. A key never observed
// returns a zero entry: cold start, not an error.
func (s *Store) Preference(ctx context.Context, key bandit.PreferenceKey) (bandit.PreferenceEntry, error) {
	var entry bandit.PreferenceEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT preference_score, num_samples FROM rl_preferences
		 WHERE platform = ? AND time_bucket = ? AND day_of_week = ?
		   AND dimension = ? AND action_value = ?`,
		string(key.Platform), string(key.TimeBucket), key.DayOfWeek,
		string(key.Dimension), key.Value,
	).Scan(&entry.Score, &entry.NumSamples)
	if errors.Is(err, sql.ErrNoRows) {
		return bandit.PreferenceEntry{}, nil
	}
	if err != nil {
		return bandit.PreferenceEntry{}, fmt.Errorf("get preference: %w", err)
	}
	return entry, nil
}

// #endregion preference-read

// #region preference-increment

// Increment implements learn.PreferenceStore. The whole batch lands in one
// transaction, each row through a single atomic UPSERT-with-increment, so a
// learning pass is all-or-nothing. A key seen for the first time is created
// at the delta with sample count 1.
func (s *Store) Increment(ctx context.Context, deltas []learn.PreferenceDelta) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return upsertPreferences(ctx, tx, deltas, now)
	})
}

// upsertPreferences applies a preference batch inside an open transaction.
func upsertPreferences(ctx context.Context, tx *sql.Tx, deltas []learn.PreferenceDelta, now string) error {
	for _, d := range deltas {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO rl_preferences
			   (platform, time_bucket, day_of_week, dimension, action_value,
			    preference_score, num_samples, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, 1, ?)
			 ON CONFLICT (platform, time_bucket, day_of_week, dimension, action_value)
			 DO UPDATE SET
			   preference_score = preference_score + excluded.preference_score,
			   num_samples      = num_samples + 1,
			   updated_at       = excluded.updated_at`,
			string(d.Key.Platform), string(d.Key.TimeBucket), d.Key.DayOfWeek,
			string(d.Key.Dimension), d.Key.Value, d.Delta, now,
		)
		if err != nil {
			return fmt.Errorf("upsert preference (%s, %s): %w", d.Key.Dimension, d.Key.Value, err)
		}
	}
	return nil
}

// #endregion preference-increment

// #region preference-list

// PreferenceRow is one stored preference entry with its full key, for
// inspection tooling.
type PreferenceRow struct {
	Key       bandit.PreferenceKey
	Entry     bandit.PreferenceEntry
	UpdatedAt time.Time
}

// ListPreferences returns stored preference entries for a platform, best
// score first.
func (s *Store) ListPreferences(ctx context.Context, platform bandit.Platform) ([]PreferenceRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT platform, time_bucket, day_of_week, dimension, action_value,
		        preference_score, num_samples, updated_at
		 FROM rl_preferences WHERE platform = ?
		 ORDER BY preference_score DESC`,
		string(platform),
	)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	var out []PreferenceRow
	for rows.Next() {
		var r PreferenceRow
		var plat, bucket, dim, value, updatedStr string
		if err := rows.Scan(&plat, &bucket, &r.Key.DayOfWeek, &dim, &value,
			&r.Entry.Score, &r.Entry.NumSamples, &updatedStr); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		r.Key.Platform = bandit.Platform(plat)
		r.Key.TimeBucket = bandit.TimeBucket(bucket)
		r.Key.Dimension = actionspace.Dimension(dim)
		r.Key.Value = value
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion preference-list
