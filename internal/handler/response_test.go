package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/repository"
)

// =========================================================================
// ERROR MAPPING TESTS
// =========================================================================

func TestWriteError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "validation",
			err:         apperror.ValidationFailed("content", "comment content is required"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "comment content is required",
		},
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("liking: %w", apperror.NotFound("post", "9")),
			wantStatus:  http.StatusNotFound,
			wantMessage: "post not found with id 9",
		},
		{
			name:        "conflict",
			err:         apperror.Conflict("user", "username"),
			wantStatus:  http.StatusConflict,
			wantMessage: "user with this username already exists",
		},
		{
			name:        "unauthorized",
			err:         apperror.Unauthorized("Unauthorized"),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Unauthorized",
		},
		{
			name:        "storage error hides details",
			err:         errors.New("sqlite: SELECT ... FROM posts: disk I/O error"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Failed to fetch posts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)

			writeError(rec, req, logger, tt.err, "Failed to fetch posts")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, fmt.Sprintf(`{"message":%q}`, tt.wantMessage), rec.Body.String())
		})
	}
}

// =========================================================================
// PARAMETER PARSING TESTS
// =========================================================================

func TestListOptions(t *testing.T) {
	tests := []struct {
		query string
		want  repository.ListOptions
	}{
		{query: "", want: repository.ListOptions{Limit: 20, Offset: 0}},
		{query: "limit=5&offset=10", want: repository.ListOptions{Limit: 5, Offset: 10}},
		{query: "limit=1000", want: repository.ListOptions{Limit: 100, Offset: 0}},
		{query: "limit=0", want: repository.ListOptions{Limit: 1, Offset: 0}},
		{query: "limit=-3", want: repository.ListOptions{Limit: 1, Offset: 0}},
		{query: "offset=-4", want: repository.ListOptions{Limit: 20, Offset: 0}},
		{query: "limit=abc&offset=xyz", want: repository.ListOptions{Limit: 20, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/posts?"+tt.query, nil)
			assert.Equal(t, tt.want, listOptions(req))
		})
	}
}

func TestPathInt64(t *testing.T) {
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("postId", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := pathInt64(withParam("42"), "postId")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-1", "1.5"} {
		_, err := pathInt64(withParam(bad), "postId")
		assert.ErrorIs(t, err, apperror.ErrValidation, "value %q", bad)
	}
}
