package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/postloop/creative-bandit/internal/bandit"
	_ "modernc.org/sqlite"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS rl_preferences (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	platform         TEXT NOT NULL,
	time_bucket      TEXT NOT NULL,
	day_of_week      INTEGER NOT NULL,
	dimension        TEXT NOT NULL,
	action_value     TEXT NOT NULL,
	preference_score REAL NOT NULL DEFAULT 0,
	num_samples      INTEGER NOT NULL DEFAULT 0,
	updated_at       TEXT NOT NULL,
	UNIQUE (platform, time_bucket, day_of_week, dimension, action_value)
);

CREATE TABLE IF NOT EXISTS rl_baselines (
	platform    TEXT PRIMARY KEY,
	value       REAL NOT NULL DEFAULT 0,
	num_samples INTEGER NOT NULL DEFAULT 0,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rl_weights (
	dimension    TEXT NOT NULL,
	action_value TEXT NOT NULL,
	theta        BLOB NOT NULL,
	updated_at   TEXT NOT NULL,
	PRIMARY KEY (dimension, action_value)
);

CREATE TABLE IF NOT EXISTS rl_actions (
	action_id      TEXT PRIMARY KEY,
	post_id        TEXT NOT NULL,
	platform       TEXT NOT NULL,
	time_bucket    TEXT NOT NULL,
	day_of_week    INTEGER NOT NULL,
	hook_type      TEXT NOT NULL,
	hook_length    TEXT NOT NULL,
	tone           TEXT NOT NULL,
	creativity     TEXT NOT NULL,
	text_in_image  TEXT NOT NULL,
	visual_style   TEXT NOT NULL,
	context_vector BLOB NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rl_actions_post
ON rl_actions(post_id, platform);

CREATE TABLE IF NOT EXISTS rl_rewards (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	action_id      TEXT NOT NULL UNIQUE,
	platform       TEXT NOT NULL,
	reward_value   REAL NOT NULL,
	baseline       REAL NOT NULL,
	deleted        INTEGER NOT NULL DEFAULT 0,
	days_to_delete REAL,
	reward_window  TEXT NOT NULL DEFAULT '24h',
	created_at     TEXT NOT NULL,
	FOREIGN KEY (action_id) REFERENCES rl_actions(action_id)
);

CREATE TABLE IF NOT EXISTS post_snapshots (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id      TEXT NOT NULL,
	platform     TEXT NOT NULL,
	window_hours INTEGER NOT NULL,
	likes        REAL NOT NULL DEFAULT 0,
	comments     REAL NOT NULL DEFAULT 0,
	shares       REAL NOT NULL DEFAULT 0,
	saves        REAL NOT NULL DEFAULT 0,
	replies      REAL NOT NULL DEFAULT 0,
	retweets     REAL NOT NULL DEFAULT 0,
	reactions    REAL NOT NULL DEFAULT 0,
	followers    REAL NOT NULL DEFAULT 0,
	snapshot_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_post_snapshots_post
ON post_snapshots(post_id, platform, window_hours);
`

// #endregion schema

// #region store-struct

// Store persists the learned policy and the per-post audit trail in SQLite.
type Store struct {
	db     *sql.DB
	vecDim int
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations. vecDim fixes the
// stored weight/context vector length; pass bandit.ContextDim in production.
func NewStore(dbPath string, vecDim int) (*Store, error) {
	if vecDim <= 0 {
		vecDim = bandit.ContextDim
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=2000"); err != nil {
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, vecDim: vecDim}, nil
}

// #endregion constructor

// #region close

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for ad hoc inspection tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region retry

const maxTxAttempts = 3

// withTx runs fn inside a transaction with a bounded retry on lock
// contention. Exhausting the budget escalates as ErrRetriesExhausted;
// dropping a learning signal silently is not acceptable.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			lastErr = err
			if !isBusy(err) {
				return fmt.Errorf("begin tx: %w", err)
			}
			continue
		}

		if err := fn(tx); err != nil {
			tx.Rollback()
			lastErr = err
			if !isBusy(err) {
				return err
			}
			continue
		}

		if err := tx.Commit(); err != nil {
			lastErr = err
			if !isBusy(err) {
				return fmt.Errorf("commit: %w", err)
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", bandit.ErrRetriesExhausted, lastErr)
}

// isBusy reports whether err is SQLite lock contention.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database is locked")
}

// #endregion retry

// #region vector-codec

// encodeVector packs a float32 vector as little-endian bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a blob into a vector of length dim, zero-padding a
// short blob.
func decodeVector(b []byte, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		if i*4+4 <= len(b) {
			v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		}
	}
	return v
}

// #endregion vector-codec
