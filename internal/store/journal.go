package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/postloop/creative-bandit/internal/actionspace"
	"github.com/postloop/creative-bandit/internal/bandit"
	"github.com/postloop/creative-bandit/internal/reward"
)

// #region action-log

// ActionRecord is one selected action with the context that produced it,
// persisted so learning can run long after selection.
type ActionRecord struct {
	ActionID      string
	PostID        string
	Platform      bandit.Platform
	TimeBucket    bandit.TimeBucket
	DayOfWeek     int
	Action        actionspace.Action
	ContextVector []float32
	CreatedAt     time.Time
}

// InsertAction persists a selection.
func (s *Store) InsertAction(ctx context.Context, rec ActionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rl_actions
		   (action_id, post_id, platform, time_bucket, day_of_week,
		    hook_type, hook_length, tone, creativity, text_in_image, visual_style,
		    context_vector, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ActionID, rec.PostID, string(rec.Platform), string(rec.TimeBucket), rec.DayOfWeek,
		rec.Action.HookType, rec.Action.HookLength, rec.Action.Tone,
		rec.Action.Creativity, rec.Action.TextInImage, rec.Action.VisualStyle,
		encodeVector(rec.ContextVector), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert action %s: %w", rec.ActionID, err)
	}
	return nil
}

// GetAction retrieves a persisted selection by action ID.
func (s *Store) GetAction(ctx context.Context, actionID string) (ActionRecord, error) {
	var rec ActionRecord
	var plat, bucket, createdStr string
	var blob []byte

	err := s.db.QueryRowContext(ctx,
		`SELECT action_id, post_id, platform, time_bucket, day_of_week,
		        hook_type, hook_length, tone, creativity, text_in_image, visual_style,
		        context_vector, created_at
		 FROM rl_actions WHERE action_id = ?`, actionID,
	).Scan(&rec.ActionID, &rec.PostID, &plat, &bucket, &rec.DayOfWeek,
		&rec.Action.HookType, &rec.Action.HookLength, &rec.Action.Tone,
		&rec.Action.Creativity, &rec.Action.TextInImage, &rec.Action.VisualStyle,
		&blob, &createdStr)
	if err != nil {
		return ActionRecord{}, fmt.Errorf("get action %s: %w", actionID, err)
	}

	rec.Platform = bandit.Platform(plat)
	rec.TimeBucket = bandit.TimeBucket(bucket)
	rec.ContextVector = decodeVector(blob, s.vecDim)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// #endregion action-log

// #region reward-log

// RewardRecord is the final reward outcome for one action.
type RewardRecord struct {
	ActionID     string
	Platform     bandit.Platform
	Reward       float64
	Baseline     float64
	Deleted      bool
	DaysToDelete float64 // meaningful only when Deleted
	Window       string
	CreatedAt    time.Time
}

// InsertReward persists a reward outcome. One row per action: a second
// insert for the same action ID fails with ErrDuplicateLearn, guarding the
// update-once contract.
func (s *Store) InsertReward(ctx context.Context, rec RewardRecord) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertRewardTx(ctx, tx, rec)
	})
}

// insertRewardTx writes the reward guard row inside an open transaction.
// The UNIQUE constraint on action_id backs the count check, so two
// transactions racing on the same action cannot both commit.
func insertRewardTx(ctx context.Context, tx *sql.Tx, rec RewardRecord) error {
	if rec.Window == "" {
		rec.Window = "24h"
	}

	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rl_rewards WHERE action_id = ?`, rec.ActionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check reward: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: action %s", bandit.ErrDuplicateLearn, rec.ActionID)
	}

	var days interface{}
	if rec.Deleted {
		days = rec.DaysToDelete
	}
	deleted := 0
	if rec.Deleted {
		deleted = 1
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO rl_rewards
		   (action_id, platform, reward_value, baseline, deleted, days_to_delete, reward_window, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ActionID, string(rec.Platform), rec.Reward, rec.Baseline,
		deleted, days, rec.Window, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert reward %s: %w", rec.ActionID, err)
	}
	return nil
}

// HasReward reports whether a reward has already been recorded for an action.
func (s *Store) HasReward(ctx context.Context, actionID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rl_rewards WHERE action_id = ?`, actionID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check reward: %w", err)
	}
	return count > 0, nil
}

// #endregion reward-log

// #region snapshots

// SnapshotRecord is one engagement reading for a post at a fixed window.
type SnapshotRecord struct {
	PostID      string
	Platform    bandit.Platform
	WindowHours int
	Metrics     reward.Metrics
	SnapshotAt  time.Time
}

// InsertSnapshot persists an engagement snapshot.
func (s *Store) InsertSnapshot(ctx context.Context, rec SnapshotRecord) error {
	m := rec.Metrics
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO post_snapshots
		   (post_id, platform, window_hours, likes, comments, shares, saves,
		    replies, retweets, reactions, followers, snapshot_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.PostID, string(rec.Platform), rec.WindowHours,
		m.Likes, m.Comments, m.Shares, m.Saves,
		m.Replies, m.Retweets, m.Reactions, m.Followers,
		rec.SnapshotAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s/%d: %w", rec.PostID, rec.WindowHours, err)
	}
	return nil
}

// Snapshots returns a post's engagement snapshots ordered by window.
func (s *Store) Snapshots(ctx context.Context, postID string, platform bandit.Platform) ([]reward.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT window_hours, likes, comments, shares, saves, replies, retweets, reactions, followers
		 FROM post_snapshots WHERE post_id = ? AND platform = ?
		 ORDER BY window_hours ASC`,
		postID, string(platform),
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []reward.Snapshot
	for rows.Next() {
		var snap reward.Snapshot
		m := &snap.Metrics
		if err := rows.Scan(&snap.WindowHours, &m.Likes, &m.Comments, &m.Shares, &m.Saves,
			&m.Replies, &m.Retweets, &m.Reactions, &m.Followers); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// #endregion snapshots
