package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-feedback-backend/internal/access"
	"github.com/tbourn/go-feedback-backend/internal/domain"
)

func newFeedbackRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("feedback_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func sampleRecord(owner *string) domain.FeedbackRecord {
	return domain.FeedbackRecord{
		CandidateName:   "Ada Lovelace",
		CandidateEmail:  "ada@example.com",
		Position:        "Backend Engineer",
		InterviewDate:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		InterviewerName: "Grace Hopper",
		Overall:         4, Communication: 5, Technical: 4, Process: 4,
		Comments:    "Clear and structured process throughout.",
		Recommend:   true,
		OwnerUserID: owner,
	}
}

func TestCreateFeedback_AssignsIDAndTimestamp(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.FeedbackRecord{})

	start := time.Now().UTC().Add(-time.Minute)
	rec, err := CreateFeedback(context.Background(), db, sampleRecord(nil))
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected a store-assigned id")
	}
	if rec.SubmittedAt.Before(start) {
		t.Fatalf("SubmittedAt seems unset: %v", rec.SubmittedAt)
	}

	// round-trip
	var got domain.FeedbackRecord
	if err := db.First(&got, "id = ?", rec.ID).Error; err != nil {
		t.Fatalf("load created record: %v", err)
	}
	if got.CandidateName != "Ada Lovelace" || got.Overall != 4 || !got.Recommend {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestCreateFeedback_Error_NoTable(t *testing.T) {
	db := newFeedbackRepoDB(t /* no migrations */)
	rec, err := CreateFeedback(context.Background(), db, sampleRecord(nil))
	if err == nil || rec != nil {
		t.Fatalf("expected error creating without table, got rec=%v err=%v", rec, err)
	}
}

func TestGetFeedback_ScopeEnforcement(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.FeedbackRecord{})
	ctx := context.Background()

	owner := "cand-1"
	mine, err := CreateFeedback(ctx, db, sampleRecord(&owner))
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	other := "cand-2"
	theirs, err := CreateFeedback(ctx, db, sampleRecord(&other))
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}

	// Full scope sees both.
	if _, err := GetFeedback(ctx, db, mine.ID, access.ScopeAll()); err != nil {
		t.Fatalf("full scope should see mine: %v", err)
	}
	if _, err := GetFeedback(ctx, db, theirs.ID, access.ScopeAll()); err != nil {
		t.Fatalf("full scope should see theirs: %v", err)
	}

	// Owner scope sees only its own rows; out-of-scope is ErrNotFound, not
	// some distinguishable error.
	if _, err := GetFeedback(ctx, db, mine.ID, access.ScopeOwner(owner)); err != nil {
		t.Fatalf("owner scope should see its own record: %v", err)
	}
	if _, err := GetFeedback(ctx, db, theirs.ID, access.ScopeOwner(owner)); err != ErrNotFound {
		t.Fatalf("out-of-scope read should be ErrNotFound, got %v", err)
	}

	// Empty scope sees nothing.
	if _, err := GetFeedback(ctx, db, mine.ID, access.ScopeNone()); err != ErrNotFound {
		t.Fatalf("empty scope read should be ErrNotFound, got %v", err)
	}
}

func TestDeleteFeedback_Idempotent(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.FeedbackRecord{})
	ctx := context.Background()

	rec, err := CreateFeedback(ctx, db, sampleRecord(nil))
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}

	if err := DeleteFeedback(ctx, db, rec.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	// Second delete of the same id must also succeed.
	if err := DeleteFeedback(ctx, db, rec.ID); err != nil {
		t.Fatalf("second delete should be a no-op success: %v", err)
	}
	// And deleting an id that never existed.
	if err := DeleteFeedback(ctx, db, "00000000-0000-0000-0000-000000000000"); err != nil {
		t.Fatalf("deleting unknown id should succeed: %v", err)
	}

	if _, err := GetFeedback(ctx, db, rec.ID, access.ScopeAll()); err != ErrNotFound {
		t.Fatalf("deleted record still readable: %v", err)
	}
}

func TestListFeedback_ScopesAndCount(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.FeedbackRecord{})
	ctx := context.Background()

	owner := "cand-1"
	for i := 0; i < 3; i++ {
		if _, err := CreateFeedback(ctx, db, sampleRecord(&owner)); err != nil {
			t.Fatalf("CreateFeedback: %v", err)
		}
	}
	if _, err := CreateFeedback(ctx, db, sampleRecord(nil)); err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}

	all, err := ListFeedback(ctx, db, access.ScopeAll())
	if err != nil || len(all) != 4 {
		t.Fatalf("full scope list = %d, err %v", len(all), err)
	}
	own, err := ListFeedback(ctx, db, access.ScopeOwner(owner))
	if err != nil || len(own) != 3 {
		t.Fatalf("owner scope list = %d, err %v", len(own), err)
	}
	none, err := ListFeedback(ctx, db, access.ScopeNone())
	if err != nil || len(none) != 0 {
		t.Fatalf("empty scope list = %d, err %v", len(none), err)
	}

	n, err := CountFeedback(ctx, db, access.ScopeOwner(owner))
	if err != nil || n != 3 {
		t.Fatalf("CountFeedback = %d, err %v", n, err)
	}
}

func TestFeedbackStats_CountAndLatest(t *testing.T) {
	db := newFeedbackRepoDB(t, &domain.FeedbackRecord{})
	ctx := context.Background()

	count, maxTS, err := FeedbackStats(ctx, db, access.ScopeAll())
	if err != nil || count != 0 || maxTS != nil {
		t.Fatalf("empty store stats = (%d, %v, %v)", count, maxTS, err)
	}

	var last *domain.FeedbackRecord
	for i := 0; i < 3; i++ {
		rec, err := CreateFeedback(ctx, db, sampleRecord(nil))
		if err != nil {
			t.Fatalf("CreateFeedback: %v", err)
		}
		last = rec
	}

	count, maxTS, err = FeedbackStats(ctx, db, access.ScopeAll())
	if err != nil {
		t.Fatalf("FeedbackStats: %v", err)
	}
	if count != 3 || maxTS == nil {
		t.Fatalf("stats = (%d, %v)", count, maxTS)
	}
	if maxTS.Before(last.SubmittedAt.Add(-time.Second)) {
		t.Fatalf("max timestamp %v older than last insert %v", maxTS, last.SubmittedAt)
	}
}
