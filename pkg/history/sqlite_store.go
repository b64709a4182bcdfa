package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/teslashibe/focus-booster/pkg/emotion"
)

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

const createSessionsTableSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	ended_at DATETIME NOT NULL,
	focused_ns INTEGER NOT NULL,
	frames INTEGER NOT NULL,
	not_focused_events INTEGER NOT NULL,
	alerts_raised INTEGER NOT NULL,
	alerts_suppressed INTEGER NOT NULL,
	dominant_emotion TEXT,
	suggestion TEXT,
	emotion_counts TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions (ended_at);
`

// OpenSQLite opens (creating if needed) the database at dbPath.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Single writer connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, createSessionsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Save inserts or replaces a record.
func (s *SQLiteStore) Save(ctx context.Context, r *Record) error {
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

	const query = `INSERT OR REPLACE INTO sessions
		(id, started_at, ended_at, focused_ns, frames, not_focused_events,
		 alerts_raised, alerts_suppressed, dominant_emotion, suggestion, emotion_counts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.StartedAt.UTC(), r.EndedAt.UTC(), int64(r.FocusedDuration), r.Frames,
		r.NotFocusedEvents, r.AlertsRaised, r.AlertsSuppressed,
		string(r.DominantEmotion), r.Suggestion, string(counts))
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, started_at, ended_at, focused_ns, frames, not_focused_events,
	alerts_raised, alerts_suppressed, dominant_emotion, suggestion, emotion_counts FROM sessions`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r         Record
		focusedNs int64
		dominant  sql.NullString
		sugg      sql.NullString
		counts    sql.NullString
	)
	if err := row.Scan(&r.ID, &r.StartedAt, &r.EndedAt, &focusedNs, &r.Frames,
		&r.NotFocusedEvents, &r.AlertsRaised, &r.AlertsSuppressed,
		&dominant, &sugg, &counts); err != nil {
		return nil, err
	}

	r.FocusedDuration = time.Duration(focusedNs)
	r.DominantEmotion = emotion.Label(dominant.String)
	r.Suggestion = sugg.String
	if counts.Valid && counts.String != "" && counts.String != "null" {
		if err := json.Unmarshal([]byte(counts.String), &r.EmotionCounts); err != nil {
			return nil, fmt.Errorf("failed to decode emotion counts: %w", err)
		}
	}
	return &r, nil
}

// Get retrieves a record by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
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
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	query := selectColumns + ` ORDER BY ended_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
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

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
