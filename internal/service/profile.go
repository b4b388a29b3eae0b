package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/cache"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
)

const MaxBioLength = 160

// usernamePattern allows letters, digits, underscore and dot, 3 to 30 long.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,30}$`)

type ProfileService struct {
	users       repository.UserRepository
	invalidator *cache.Invalidator
	logger      *slog.Logger
}

func NewProfileService(users repository.UserRepository, store cache.Store, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		users:       users,
		invalidator: cache.NewInvalidator(store, logger),
		logger:      logger,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUser(ctx, userID)
}

// UpdateProfile validates and applies a PATCH.
//
// An empty username clears it. A taken username comes back from the
// repository as apperror.ErrConflict (409). An update naming no fields is
// not an error; it returns the profile unchanged.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.User, error) {
	if upd.Empty() {
		return s.users.GetUser(ctx, userID)
	}

	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username != "" && !usernamePattern.MatchString(username) {
			return nil, apperror.ValidationFailed("username",
				"username must be 3-30 characters: letters, digits, underscore or dot")
		}
		upd.Username = &username
	}

	if upd.Bio != nil {
		bio := cleanText(*upd.Bio)
		if tooLong(bio, MaxBioLength) {
			return nil, apperror.ValidationFailed("bio",
				fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
		}
		upd.Bio = &bio
	}

	user, err := s.users.UpdateUserProfile(ctx, userID, upd)
	if err != nil {
		return nil, err
	}

	s.invalidator.ProfileChanged(ctx, userID)
	s.logger.Info("profile updated", slog.String("userID", userID))
	return user, nil
}
