package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/faceless/internal/model"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpen_SQLiteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "faceless.db")

	store, err := Open(context.Background(), Options{Driver: DriverSQLite, SQLitePath: path}, discard)
	require.NoError(t, err)
	defer store.Close()

	u := &model.User{ID: "u1"}
	assert.NoError(t, store.UpsertUser(context.Background(), u))
}

func TestOpen_EmptyDriverMeansSQLite(t *testing.T) {
	store, err := Open(context.Background(), Options{SQLitePath: ":memory:"}, discard)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mongo"}, discard)
	assert.ErrorContains(t, err, `unknown driver "mongo"`)
}

func TestOpen_PostgresBadURL(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: DriverPostgres, DatabaseURL: "::not a url::"}, discard)
	assert.Error(t, err)
}
