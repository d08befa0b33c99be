package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vitals-dev/vitals/domain"
)

// setupTestStore creates a temporary fix candidate database
func setupTestStore(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "heal.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}

	return store, cleanup
}

func testCandidate(id string) domain.FixCandidate {
	now := time.Now().UTC().Format(time.RFC3339)
	return domain.FixCandidate{
		ID:          id,
		SubjectPath: "src/core/engine.ts",
		IssueType:   domain.IssueTypeComplexityHotspot,
		Severity:    domain.SeverityHigh,
		Confidence:  0.88,
		Status:      domain.FixStatusProposed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "heal.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}
	defer store.Close()

	// Parent directory and database file are created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if store.Path() != dbPath {
		t.Errorf("Expected path '%s', got '%s'", dbPath, store.Path())
	}

	// Verify tables exist
	for _, table := range []string{"fix_candidates", "fix_events"} {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s does not exist: %v", table, err)
		}
	}
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	candidate := testCandidate("complexityHotspot:src/core/engine.ts")

	if err := store.Save(ctx, candidate); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := store.Get(ctx, candidate.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got == nil {
		t.Fatal("Expected candidate, got nil")
	}

	if got.ID != candidate.ID {
		t.Errorf("Expected ID '%s', got '%s'", candidate.ID, got.ID)
	}
	if got.SubjectPath != candidate.SubjectPath {
		t.Errorf("Expected subject '%s', got '%s'", candidate.SubjectPath, got.SubjectPath)
	}
	if got.IssueType != domain.IssueTypeComplexityHotspot {
		t.Errorf("Expected issue type '%s', got '%s'", domain.IssueTypeComplexityHotspot, got.IssueType)
	}
	if got.Severity != domain.SeverityHigh {
		t.Errorf("Expected severity '%s', got '%s'", domain.SeverityHigh, got.Severity)
	}
	if got.Confidence != 0.88 {
		t.Errorf("Expected confidence 0.88, got %g", got.Confidence)
	}
	if got.Status != domain.FixStatusProposed {
		t.Errorf("Expected status '%s', got '%s'", domain.FixStatusProposed, got.Status)
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	got, err := store.Get(context.Background(), "lowDensity:src/no/such.ts")
	if err != nil {
		t.Fatalf("Get for missing candidate should not error, got: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing candidate, got %+v", got)
	}
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	candidate := testCandidate("lowDensity:src/utils/format.ts")

	if err := store.Save(ctx, candidate); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	candidate.Confidence = 0.95
	candidate.Status = domain.FixStatusGenerated
	if err := store.Save(ctx, candidate); err != nil {
		t.Fatalf("Second save returned error: %v", err)
	}

	got, err := store.Get(ctx, candidate.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Confidence != 0.95 {
		t.Errorf("Expected replaced confidence 0.95, got %g", got.Confidence)
	}
	if got.Status != domain.FixStatusGenerated {
		t.Errorf("Expected replaced status '%s', got '%s'", domain.FixStatusGenerated, got.Status)
	}

	candidates, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(candidates) != 1 {
		t.Errorf("Expected 1 candidate after replace, got %d", len(candidates))
	}
}

func TestSQLiteStore_ListOrdersByCreation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	first := testCandidate("refactorNeeded")
	first.CreatedAt = "2026-08-01T10:00:00Z"
	second := testCandidate("lowDensity:src/utils/format.ts")
	second.CreatedAt = "2026-08-02T10:00:00Z"
	third := testCandidate("complexityHotspot:src/core/engine.ts")
	third.CreatedAt = "2026-08-03T10:00:00Z"

	// Insert out of order
	for _, c := range []domain.FixCandidate{third, first, second} {
		if err := store.Save(ctx, c); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}
	}

	candidates, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(candidates))
	}

	if candidates[0].ID != first.ID {
		t.Errorf("Expected first candidate '%s', got '%s'", first.ID, candidates[0].ID)
	}
	if candidates[2].ID != third.ID {
		t.Errorf("Expected last candidate '%s', got '%s'", third.ID, candidates[2].ID)
	}
}

func TestSQLiteStore_UpdateStatus(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	candidate := testCandidate("complexityHotspot:src/core/engine.ts")
	candidate.UpdatedAt = "2026-08-01T10:00:00Z"

	if err := store.Save(ctx, candidate); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if err := store.UpdateStatus(ctx, candidate.ID, domain.FixStatusAutoApplied); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	got, err := store.Get(ctx, candidate.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Status != domain.FixStatusAutoApplied {
		t.Errorf("Expected status '%s', got '%s'", domain.FixStatusAutoApplied, got.Status)
	}
	if got.UpdatedAt == candidate.UpdatedAt {
		t.Error("Expected UpdatedAt to change on status update")
	}
}

func TestSQLiteStore_UpdateStatusMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.UpdateStatus(context.Background(), "lowDensity:src/no/such.ts", domain.FixStatusRejected)
	if err == nil {
		t.Fatal("Expected error for missing candidate")
	}
	if !domain.IsCode(err, domain.ErrCodeRecordStore) {
		t.Errorf("Expected RECORD_STORE_ERROR, got: %v", err)
	}
}

func TestSQLiteStore_RecordAndListEvents(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	candidate := testCandidate("complexityHotspot:src/core/engine.ts")
	if err := store.Save(ctx, candidate); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	events := []domain.FixEvent{
		{CandidateID: candidate.ID, Event: "proposed", CreatedAt: "2026-08-01T10:00:00Z"},
		{CandidateID: candidate.ID, Event: "autoApplied", Detail: "confidence 0.88 met threshold 0.85", CreatedAt: "2026-08-01T10:00:01Z"},
	}
	for _, e := range events {
		if err := store.RecordEvent(ctx, e); err != nil {
			t.Fatalf("RecordEvent returned error: %v", err)
		}
	}

	got, err := store.ListEvents(ctx, candidate.ID)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(got))
	}

	if got[0].Event != "proposed" {
		t.Errorf("Expected first event 'proposed', got '%s'", got[0].Event)
	}
	if got[1].Detail != "confidence 0.88 met threshold 0.85" {
		t.Errorf("Unexpected detail: '%s'", got[1].Detail)
	}

	// IDs are generated when absent
	if got[0].ID == "" || got[1].ID == "" {
		t.Error("Expected generated event IDs")
	}
	if got[0].ID == got[1].ID {
		t.Error("Expected distinct event IDs")
	}
}

func TestSQLiteStore_RecordEventFillsTimestamp(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	candidate := testCandidate("lowDensity:src/utils/format.ts")
	if err := store.Save(ctx, candidate); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	event := domain.FixEvent{CandidateID: candidate.ID, Event: "proposed"}
	if err := store.RecordEvent(ctx, event); err != nil {
		t.Fatalf("RecordEvent returned error: %v", err)
	}

	got, err := store.ListEvents(ctx, candidate.ID)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(got))
	}
	if got[0].CreatedAt == "" {
		t.Error("Expected CreatedAt to be filled in")
	}
	if _, err := time.Parse(time.RFC3339, got[0].CreatedAt); err != nil {
		t.Errorf("Expected RFC3339 timestamp, got '%s': %v", got[0].CreatedAt, err)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "heal.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore returned error: %v", err)
	}

	ctx := context.Background()
	candidate := testCandidate("complexityHotspot:src/core/engine.ts")
	if err := store.Save(ctx, candidate); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Reopen returned error: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, candidate.ID)
	if err != nil {
		t.Fatalf("Get after reopen returned error: %v", err)
	}
	if got == nil {
		t.Fatal("Expected candidate to survive reopen")
	}
	if got.Confidence != candidate.Confidence {
		t.Errorf("Expected confidence %g, got %g", candidate.Confidence, got.Confidence)
	}
}
