package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
	"github.com/sakif/faceless/internal/repository/repotest"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" creates a fresh database that exists only during the test.
// Each test gets its own, so tests never see each other's rows.
//
// t.Helper() makes failures point at the caller's line instead of this one.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, id string) *model.User {
	t.Helper()
	u := &model.User{ID: id, Email: id + "@example.com"}
	if err := db.UpsertUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// =========================================================================
// CONFORMANCE
// =========================================================================

// The shared suite covers ordering, pagination, toggles and error mapping.
// The tests below only cover what is specific to SQLite.
func TestConformance(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store { return newTestDB(t) })
}

// =========================================================================
// MIGRATION TESTS
// =========================================================================

// Opening the same file twice must not fail: CREATE ... IF NOT EXISTS.
func TestNew_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faceless.db")

	first, err := New(path)
	if err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	createTestUser(t, first, "u1")
	first.Close()

	second, err := New(path)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer second.Close()

	// Data from the first open survives the second migration run.
	if _, err := second.GetUser(context.Background(), "u1"); err != nil {
		t.Errorf("GetUser() after reopen error = %v", err)
	}
}

// =========================================================================
// USER TESTS
// =========================================================================

func TestUpsertUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "u1")

	dup := &model.User{ID: "u2", Email: "u1@example.com"}
	err := db.UpsertUser(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpsertUser() error = %v, want ErrConflict", err)
	}
}

// Users without an email are stored as NULL, so several of them can coexist.
func TestUpsertUser_EmptyEmailsDoNotCollide(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := db.UpsertUser(ctx, &model.User{ID: id}); err != nil {
			t.Fatalf("UpsertUser(%s) error = %v", id, err)
		}
	}

	got, err := db.GetUser(ctx, "b")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if got.Email != "" {
		t.Errorf("Email = %q, want empty", got.Email)
	}
}

func TestUpdateUserProfile_EmptyUpdateTouchesTimestampOnly(t *testing.T) {
	db := newTestDB(t)
	u := createTestUser(t, db, "u1")

	got, err := db.UpdateUserProfile(context.Background(), "u1", model.ProfileUpdate{})
	if err != nil {
		t.Fatalf("UpdateUserProfile() error = %v", err)
	}
	if got.Email != u.Email {
		t.Errorf("Email = %q, want %q", got.Email, u.Email)
	}
	if got.UpdatedAt.Before(u.UpdatedAt) {
		t.Error("UpdatedAt went backwards")
	}
}
