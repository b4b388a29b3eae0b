package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
	"github.com/sakif/faceless/internal/repository/repotest"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// setupMockDB builds a store whose SQL goes to go-sqlmock instead of a server.
// Each test lists the statements it expects; ExpectationsWereMet checks that
// exactly those ran.
func setupMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), GormConfig(quietLogger))
	require.NoError(t, err)

	return New(gdb), mock
}

// =========================================================================
// SQLMOCK TESTS
// =========================================================================

func TestIsPostLiked(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  bool
	}{
		{name: "row present", count: 1, want: true},
		{name: "row absent", count: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "likes" WHERE user_id = $1 AND post_id = $2`)).
				WithArgs("u1", int64(7)).
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(tt.count))

			got, err := db.IsPostLiked(context.Background(), "u1", 7)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLikePost_UsesOnConflictDoNothing(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "likes"`) + `.*` + regexp.QuoteMeta(`ON CONFLICT DO NOTHING`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	assert.NoError(t, db.LikePost(context.Background(), "u1", 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnsavePost(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "saves" WHERE user_id = $1 AND post_id = $2`)).
		WithArgs("u1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, db.UnsavePost(context.Background(), "u1", 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPost_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT p.id, p.user_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := db.GetPost(context.Background(), 99)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := db.GetUser(context.Background(), "ghost")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A 23505 from Postgres must come back as a domain Conflict, not a 500.
func TestUpdateUserProfile_DuplicateUsername(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	name := "taken"
	_, err := db.UpdateUserProfile(context.Background(), "u1", model.ProfileUpdate{Username: &name})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserProfile_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	bio := "hi"
	_, err := db.UpdateUserProfile(context.Background(), "ghost", model.ProfileUpdate{Bio: &bio})
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Driver failures are wrapped, not classified.
func TestListPosts_PropagatesDriverError(t *testing.T) {
	db, mock := setupMockDB(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT p.id, p.user_id`)).WillReturnError(boom)

	_, err := db.ListPosts(context.Background(), repository.ListOptions{})
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, apperror.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPostComments_MapsJoinedColumns(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT c.id, c.user_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "post_id", "content", "username", "profile_image_url"}).
			AddRow(2, "u2", 5, "second", "bob", "").
			AddRow(1, "u3", 5, "first", "", "https://img.test/u3.png"))

	comments, err := db.ListPostComments(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Content)
	assert.Equal(t, "bob", comments[0].Username)
	assert.Equal(t, "https://img.test/u3.png", comments[1].ProfileImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// =========================================================================
// CONFORMANCE (real Postgres)
// =========================================================================

// Runs only when FACELESS_TEST_DATABASE_URL points at a disposable database.
// Every subtest starts from empty tables.
func TestConformance(t *testing.T) {
	url := os.Getenv("FACELESS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FACELESS_TEST_DATABASE_URL not set")
	}

	repotest.Run(t, func(t *testing.T) repository.Store {
		ctx := context.Background()
		db, err := Open(ctx, Config{URL: url, MaxConns: 4}, quietLogger)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		err = db.gorm.WithContext(ctx).
			Exec(`TRUNCATE users, posts, comments, likes, saves, subscriptions RESTART IDENTITY`).Error
		require.NoError(t, err)
		return db
	})
}
