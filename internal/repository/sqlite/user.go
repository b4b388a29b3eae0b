package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/model"
)

const userColumns = `id, COALESCE(email, ''), first_name, last_name, profile_image_url,
	COALESCE(username, ''), bio, created_at, updated_at`

// UpsertUser inserts a user by id, or refreshes the identity fields of an
// existing row.
//
// INSERT ... ON CONFLICT(id) DO UPDATE:
// One statement does both cases. On a repeat login only the fields that
// come from the identity provider are overwritten; created_at, username and
// bio keep their stored values because they are not in the SET list.
//
// After the upsert we read the row back so the caller's struct carries the
// canonical createdAt (which may be months old) and the profile fields.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, first_name, last_name, profile_image_url, created_at, updated_at)
		 VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			email             = excluded.email,
			first_name        = excluded.first_name,
			last_name         = excluded.last_name,
			profile_image_url = excluded.profile_image_url,
			updated_at        = excluded.updated_at`,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.ProfileImageURL,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("sqlite: upserting user %s: %w", user.ID, err)
	}

	stored, err := db.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// GetUser retrieves a user by id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (db *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.ProfileImageURL,
		&u.Username,
		&u.Bio,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// UpdateUserProfile changes only the fields named in upd (plus updated_at).
//
// BUILDING THE SET CLAUSE:
// The column names come from this function, never from the caller, so
// assembling the SET list with strings.Join is safe. The VALUES still go
// through ? placeholders.
func (db *DB) UpdateUserProfile(ctx context.Context, id string, upd model.ProfileUpdate) (*model.User, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if upd.Username != nil {
		sets = append(sets, "username = NULLIF(?, '')")
		args = append(args, *upd.Username)
	}
	if upd.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *upd.Bio)
	}
	args = append(args, id)

	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("user", "username")
		}
		return nil, fmt.Errorf("sqlite: updating profile %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("user", id)
	}

	return db.GetUser(ctx, id)
}
