package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"regionbank/database"
)

// SessionRepository remembers when each player was last seen leaving the world
type SessionRepository struct {
	q queryable
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{q: db.Pool}
}

// RecordSeen stores the time a player was last present. Older timestamps never
// replace newer ones.
func (r *SessionRepository) RecordSeen(ctx context.Context, player uuid.UUID, at time.Time) error {
	query := `
		INSERT INTO player_sessions (player_id, last_seen_at)
		VALUES ($1, $2)
		ON CONFLICT (player_id) DO UPDATE
		SET last_seen_at = GREATEST(player_sessions.last_seen_at, EXCLUDED.last_seen_at)
	`

	if _, err := r.q.Exec(ctx, query, player, at.UTC()); err != nil {
		return fmt.Errorf("failed to record session for player %s: %w", player, err)
	}
	return nil
}

// LastSeen returns when the player was last present, or the zero time for a
// player never seen
func (r *SessionRepository) LastSeen(ctx context.Context, player uuid.UUID) (time.Time, error) {
	query := `SELECT last_seen_at FROM player_sessions WHERE player_id = $1`

	var lastSeen time.Time
	err := r.q.QueryRow(ctx, query, player).Scan(&lastSeen)
	if errorsIsNoRows(err) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last seen for player %s: %w", player, err)
	}
	return lastSeen, nil
}
