package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/model"
)

// UpsertUser is INSERT ... ON CONFLICT (id) DO UPDATE SET <identity fields>.
// clause.OnConflict is GORM's builder for that statement; the columns not
// listed in DoUpdates (created_at, username, bio) keep their stored values.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	ts := now()
	row := userRow{
		ID:              user.ID,
		Email:           nullable(user.Email),
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		ProfileImageURL: user.ProfileImageURL,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}

	err := db.gorm.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "profile_image_url", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("postgres: upserting user %s: %w", user.ID, err)
	}

	stored, err := db.GetUser(ctx, user.ID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// GetUser uses Take (LIMIT 1, no ORDER BY) which reports a missing row as
// gorm.ErrRecordNotFound.
func (db *DB) GetUser(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	err := db.gorm.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return row.toModel(), nil
}

// UpdateUserProfile updates only the named columns.
//
// Updates(map) is used instead of Updates(struct) because GORM skips zero
// values in a struct, and "" (clear the bio) is a zero value we must write.
func (db *DB) UpdateUserProfile(ctx context.Context, id string, upd model.ProfileUpdate) (*model.User, error) {
	fields := map[string]any{"updated_at": now()}
	if upd.Username != nil {
		fields["username"] = nullable(*upd.Username)
	}
	if upd.Bio != nil {
		fields["bio"] = *upd.Bio
	}

	res := db.gorm.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("user", "username")
		}
		return nil, fmt.Errorf("postgres: updating profile %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("user", id)
	}

	return db.GetUser(ctx, id)
}
