// Run with: go test ./internal/apperror/ -v
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// Each case checks that errors.Is() identifies the sentinel behind an AppError.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("post", "42"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("content", "content is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "username"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("login required"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "wrapped twice still matches",
			err:       fmt.Errorf("service: %w", fmt.Errorf("repo: %w", NotFound("user", "u1"))),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("post", "42"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Conflict does NOT match ErrUnauthorized",
			err:       Conflict("user", "username"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("post", "42"),
			wantMessage: "post not found with id 42",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("content", "content is required"),
			wantMessage: "content is required",
		},
		{
			name:        "Conflict message names the field",
			err:         Conflict("user", "username"),
			wantMessage: "user with this username already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("post", "42")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestFieldIsRecorded(t *testing.T) {
	if err := ValidationFailed("mediaUrls", "video posts need a media URL"); err.Field != "mediaUrls" {
		t.Errorf("Field = %q, want %q", err.Field, "mediaUrls")
	}
	if err := Conflict("user", "username"); err.Field != "username" {
		t.Errorf("Field = %q, want %q", err.Field, "username")
	}
}
