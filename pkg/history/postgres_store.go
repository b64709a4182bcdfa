package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Connection pool limits for the shared database.
const (
	pgMaxOpenConns    = 5
	pgMaxIdleConns    = 2
	pgConnMaxLifetime = 5 * time.Minute
)

const createSessionsTablePostgres = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	ended_at TIMESTAMPTZ NOT NULL,
	focused_ns BIGINT NOT NULL,
	frames INTEGER NOT NULL,
	not_focused_events INTEGER NOT NULL,
	alerts_raised BIGINT NOT NULL,
	alerts_suppressed BIGINT NOT NULL,
	dominant_emotion TEXT,
	suggestion TEXT,
	emotion_counts TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions (ended_at);
`

// PostgresStore implements Store on PostgreSQL, for history shared
// between machines.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn and creates the sessions table if needed.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(pgConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createSessionsTablePostgres); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Save upserts a record.
func (s *PostgresStore) Save(ctx context.Context, r *Record) error {
	if r == nil {
		return ErrNilRecord
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	counts, err := json.Marshal(r.EmotionCounts)
	if err != nil {
		return fmt.Errorf("failed to encode emotion counts: %w", err)
	}

	const query = `INSERT INTO sessions
		(id, started_at, ended_at, focused_ns, frames, not_focused_events,
		 alerts_raised, alerts_suppressed, dominant_emotion, suggestion, emotion_counts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			ended_at = EXCLUDED.ended_at,
			focused_ns = EXCLUDED.focused_ns,
			frames = EXCLUDED.frames,
			not_focused_events = EXCLUDED.not_focused_events,
			alerts_raised = EXCLUDED.alerts_raised,
			alerts_suppressed = EXCLUDED.alerts_suppressed,
			dominant_emotion = EXCLUDED.dominant_emotion,
			suggestion = EXCLUDED.suggestion,
			emotion_counts = EXCLUDED.emotion_counts`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.StartedAt.UTC(), r.EndedAt.UTC(), int64(r.FocusedDuration), r.Frames,
		r.NotFocusedEvents, int64(r.AlertsRaised), int64(r.AlertsSuppressed),
		string(r.DominantEmotion), r.Suggestion, string(counts))
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return r, nil
}

// List returns records newest first.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]*Record, error) {
	query := selectColumns + ` ORDER BY ended_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return out, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
