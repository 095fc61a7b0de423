package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmrelampagos/pagereply/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS subjects (
		subject_id TEXT PRIMARY KEY,
		last_onboarded_at INTEGER,
		last_followup_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_subjects_updated ON subjects(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetState retrieves the engagement state for a subject.
func (s *SQLiteStore) GetState(ctx context.Context, subjectID string) (*domain.EngagementState, error) {
	query := `
		SELECT subject_id, last_onboarded_at, last_followup_at, created_at, updated_at
		FROM subjects WHERE subject_id = ?`

	row := s.db.QueryRowContext(ctx, query, subjectID)

	var state domain.EngagementState
	var lastOnboarded, lastFollowup sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&state.SubjectID, &lastOnboarded, &lastFollowup, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan subject row: %w", err)
	}

	if lastOnboarded.Valid {
		ts := time.Unix(lastOnboarded.Int64, 0)
		state.LastOnboardedAt = &ts
	}
	if lastFollowup.Valid {
		ts := time.Unix(lastFollowup.Int64, 0)
		state.LastFollowupAt = &ts
	}
	state.CreatedAt = time.Unix(createdAt, 0)
	state.UpdatedAt = time.Unix(updatedAt, 0)

	return &state, nil
}

// UpsertState creates or updates a subject's engagement state.
func (s *SQLiteStore) UpsertState(ctx context.Context, state *domain.EngagementState) error {
	query := `
		INSERT INTO subjects (subject_id, last_onboarded_at, last_followup_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(subject_id) DO UPDATE SET
			last_onboarded_at = excluded.last_onboarded_at,
			last_followup_at = excluded.last_followup_at,
			updated_at = excluded.updated_at`

	var lastOnboarded, lastFollowup interface{}
	if state.LastOnboardedAt != nil {
		lastOnboarded = state.LastOnboardedAt.Unix()
	}
	if state.LastFollowupAt != nil {
		lastFollowup = state.LastFollowupAt.Unix()
	}

	createdAt := state.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		state.SubjectID, lastOnboarded, lastFollowup,
		createdAt.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert subject: %w", err)
	}
	return nil
}

// DeleteState removes a subject's engagement state.
func (s *SQLiteStore) DeleteState(ctx context.Context, subjectID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM subjects WHERE subject_id = ?`, subjectID)
	if err != nil {
		return false, fmt.Errorf("delete subject: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Clear removes all engagement state.
func (s *SQLiteStore) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM subjects`)
	if err != nil {
		return 0, fmt.Errorf("clear subjects: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
