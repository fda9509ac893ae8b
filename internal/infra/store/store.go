// Package store persists moderation state in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

// ErrWarnNotFound is returned when a warn index does not exist.
var ErrWarnNotFound = errors.New("warn not found")

// Warn is one recorded warning against a guild member.
type Warn struct {
	ID          int64
	GuildID     string
	UserID      string
	Reason      string
	ModeratorID string
	CreatedAt   time.Time
}

// FeatureState is the per-guild configuration of one detector.
type FeatureState struct {
	Enabled        bool
	TimeoutMinutes int // 0 means the detector default applies
}

// Store wraps the SQLite database holding warns and feature toggles.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS warns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			reason TEXT NOT NULL,
			moderator_id TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_warns_member ON warns (guild_id, user_id)`,
		`CREATE TABLE IF NOT EXISTS guild_features (
			guild_id TEXT NOT NULL,
			feature TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			timeout_minutes INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (guild_id, feature)
		)`,
	}
	for _, q := range schema {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "create schema")
		}
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddWarn records a warning and returns it with its assigned ID.
func (s *Store) AddWarn(ctx context.Context, guildID, userID, reason, moderatorID string) (Warn, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO warns (guild_id, user_id, reason, moderator_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		guildID, userID, reason, moderatorID, now.Format(time.RFC3339))
	if err != nil {
		return Warn{}, errors.Wrap(err, "insert warn")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Warn{}, errors.Wrap(err, "warn id")
	}
	return Warn{
		ID:          id,
		GuildID:     guildID,
		UserID:      userID,
		Reason:      reason,
		ModeratorID: moderatorID,
		CreatedAt:   now,
	}, nil
}

// Warns lists a member's warnings, oldest first.
func (s *Store) Warns(ctx context.Context, guildID, userID string) ([]Warn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reason, moderator_id, created_at FROM warns
		 WHERE guild_id = ? AND user_id = ? ORDER BY id`,
		guildID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "query warns")
	}
	defer rows.Close()

	var warns []Warn
	for rows.Next() {
		w := Warn{GuildID: guildID, UserID: userID}
		var created string
		if err := rows.Scan(&w.ID, &w.Reason, &w.ModeratorID, &created); err != nil {
			return nil, errors.Wrap(err, "scan warn")
		}
		w.CreatedAt, _ = time.Parse(time.RFC3339, created)
		warns = append(warns, w)
	}
	return warns, errors.Wrap(rows.Err(), "iterate warns")
}

// RemoveWarn deletes a member's warning by its 1-based position in the
// list returned by Warns. Returns ErrWarnNotFound when the position
// does not exist.
func (s *Store) RemoveWarn(ctx context.Context, guildID, userID string, index int) error {
	if index < 1 {
		return ErrWarnNotFound
	}
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM warns WHERE guild_id = ? AND user_id = ? ORDER BY id LIMIT 1 OFFSET ?`,
		guildID, userID, index-1).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrWarnNotFound
	}
	if err != nil {
		return errors.Wrap(err, "find warn")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM warns WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "delete warn")
	}
	return nil
}

// SetFeature toggles a detector for a guild, preserving any timeout
// override already stored.
func (s *Store) SetFeature(ctx context.Context, guildID, feature string, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guild_features (guild_id, feature, enabled) VALUES (?, ?, ?)
		 ON CONFLICT (guild_id, feature) DO UPDATE SET enabled = excluded.enabled`,
		guildID, feature, boolToInt(enabled))
	return errors.Wrap(err, "set feature")
}

// SetFeatureTimeout overrides the timeout a detector applies in a
// guild. Minutes must be positive.
func (s *Store) SetFeatureTimeout(ctx context.Context, guildID, feature string, minutes int) error {
	if minutes <= 0 {
		return errors.Newf("timeout must be positive, got %d", minutes)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guild_features (guild_id, feature, timeout_minutes) VALUES (?, ?, ?)
		 ON CONFLICT (guild_id, feature) DO UPDATE SET timeout_minutes = excluded.timeout_minutes`,
		guildID, feature, minutes)
	return errors.Wrap(err, "set feature timeout")
}

// Features returns the stored detector state for a guild. Detectors
// with no row are absent from the map and run with their defaults.
func (s *Store) Features(ctx context.Context, guildID string) (map[string]FeatureState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT feature, enabled, timeout_minutes FROM guild_features WHERE guild_id = ?`,
		guildID)
	if err != nil {
		return nil, errors.Wrap(err, "query features")
	}
	defer rows.Close()

	features := make(map[string]FeatureState)
	for rows.Next() {
		var name string
		var enabled, minutes int
		if err := rows.Scan(&name, &enabled, &minutes); err != nil {
			return nil, errors.Wrap(err, "scan feature")
		}
		features[name] = FeatureState{Enabled: enabled != 0, TimeoutMinutes: minutes}
	}
	return features, errors.Wrap(rows.Err(), "iterate features")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
