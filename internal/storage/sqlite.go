package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vitals-dev/vitals/domain"
)

// SQLiteStore persists fix candidates and their audit trail. It
// implements domain.FixCandidateStore; every failure surfaces as a
// recoverable RECORD_STORE_ERROR so callers can keep their in-memory
// state authoritative.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the fix candidate database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, domain.NewRecordStoreError("failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, domain.NewRecordStoreError("failed to open database", err)
	}

	// SQLite supports one writer at a time; a single connection keeps
	// the store free of SQLITE_BUSY surprises
	db.SetMaxOpenConns(1)

	// WAL mode lets readers proceed while a write is in flight
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, domain.NewRecordStoreError("failed to enable WAL mode", err)
	}

	// Wait instead of immediately returning SQLITE_BUSY
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, domain.NewRecordStoreError("failed to set busy timeout", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, domain.NewRecordStoreError("failed to enable foreign keys", err)
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fix_candidates (
		id TEXT PRIMARY KEY,
		subject_path TEXT NOT NULL DEFAULT '',
		issue_type TEXT NOT NULL,
		severity TEXT NOT NULL,
		confidence REAL NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fix_candidates_status ON fix_candidates(status);

	CREATE TABLE IF NOT EXISTS fix_events (
		id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL,
		event TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (candidate_id) REFERENCES fix_candidates(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_fix_events_candidate ON fix_events(candidate_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return domain.NewRecordStoreError("failed to create tables", err)
	}
	return nil
}

// Save inserts or replaces a candidate
func (s *SQLiteStore) Save(ctx context.Context, candidate domain.FixCandidate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO fix_candidates
			(id, subject_path, issue_type, severity, confidence, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, candidate.ID, candidate.SubjectPath, string(candidate.IssueType), string(candidate.Severity),
		candidate.Confidence, string(candidate.Status), candidate.CreatedAt, candidate.UpdatedAt)
	if err != nil {
		return domain.NewRecordStoreError(fmt.Sprintf("failed to save candidate %s", candidate.ID), err)
	}
	return nil
}

// Get returns the candidate with the given ID, or nil when absent
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.FixCandidate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject_path, issue_type, severity, confidence, status, created_at, updated_at
		FROM fix_candidates
		WHERE id = ?
	`, id)

	candidate, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.NewRecordStoreError(fmt.Sprintf("failed to load candidate %s", id), err)
	}
	return candidate, nil
}

// List returns every stored candidate ordered by creation time
func (s *SQLiteStore) List(ctx context.Context) ([]domain.FixCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_path, issue_type, severity, confidence, status, created_at, updated_at
		FROM fix_candidates
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, domain.NewRecordStoreError("failed to list candidates", err)
	}
	defer rows.Close()

	var candidates []domain.FixCandidate
	for rows.Next() {
		var c domain.FixCandidate
		var issueType, severity, status string
		if err := rows.Scan(&c.ID, &c.SubjectPath, &issueType, &severity,
			&c.Confidence, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, domain.NewRecordStoreError("failed to scan candidate row", err)
		}
		c.IssueType = domain.IssueType(issueType)
		c.Severity = domain.Severity(severity)
		c.Status = domain.FixStatus(status)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRecordStoreError("failed to iterate candidate rows", err)
	}

	return candidates, nil
}

// UpdateStatus transitions a stored candidate to the given status
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status domain.FixStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE fix_candidates
		SET status = ?, updated_at = ?
		WHERE id = ?
	`, string(status), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return domain.NewRecordStoreError(fmt.Sprintf("failed to update candidate %s", id), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.NewRecordStoreError(fmt.Sprintf("failed to update candidate %s", id), err)
	}
	if affected == 0 {
		return domain.NewRecordStoreError(fmt.Sprintf("no candidate with id %s", id), nil)
	}
	return nil
}

// RecordEvent appends one audit entry. Missing IDs and timestamps are
// filled in so callers only describe what happened.
func (s *SQLiteStore) RecordEvent(ctx context.Context, event domain.FixEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt == "" {
		event.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fix_events (id, candidate_id, event, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.ID, event.CandidateID, event.Event, event.Detail, event.CreatedAt)
	if err != nil {
		return domain.NewRecordStoreError(fmt.Sprintf("failed to record event for candidate %s", event.CandidateID), err)
	}
	return nil
}

// ListEvents returns the audit trail for one candidate, oldest first
func (s *SQLiteStore) ListEvents(ctx context.Context, candidateID string) ([]domain.FixEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, candidate_id, event, detail, created_at
		FROM fix_events
		WHERE candidate_id = ?
		ORDER BY created_at, id
	`, candidateID)
	if err != nil {
		return nil, domain.NewRecordStoreError(fmt.Sprintf("failed to list events for candidate %s", candidateID), err)
	}
	defer rows.Close()

	var events []domain.FixEvent
	for rows.Next() {
		var e domain.FixEvent
		if err := rows.Scan(&e.ID, &e.CandidateID, &e.Event, &e.Detail, &e.CreatedAt); err != nil {
			return nil, domain.NewRecordStoreError("failed to scan event row", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewRecordStoreError("failed to iterate event rows", err)
	}

	return events, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file location
func (s *SQLiteStore) Path() string {
	return s.path
}

func scanCandidate(row *sql.Row) (*domain.FixCandidate, error) {
	var c domain.FixCandidate
	var issueType, severity, status string
	if err := row.Scan(&c.ID, &c.SubjectPath, &issueType, &severity,
		&c.Confidence, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.IssueType = domain.IssueType(issueType)
	c.Severity = domain.Severity(severity)
	c.Status = domain.FixStatus(status)
	return &c, nil
}

// Compile-time interface check
var _ domain.FixCandidateStore = (*SQLiteStore)(nil)
