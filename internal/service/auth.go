package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/auth"
	"github.com/sakif/faceless/internal/cache"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
)

// AuthService turns an identity (from the OIDC provider, or the dev login)
// into a stored user plus a session token.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService (JWT)
//
// It never touches cookies or requests; that is the handler's job.
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenService
	invalidator *cache.Invalidator
	logger      *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, store cache.Store, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		invalidator: cache.NewInvalidator(store, logger),
		logger:      logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// DevLoginInput is the body of POST /api/dev/login.
type DevLoginInput struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginOIDC upserts the user described by the provider's userinfo.
//
// WHY UPSERT?
// The provider's "sub" is stable, so it is the user's primary key. First
// login inserts; later logins refresh email, names and picture in case they
// changed at the provider. Username and bio are ours and are left alone.
func (s *AuthService) LoginOIDC(ctx context.Context, info *auth.OIDCUser) (*AuthResult, error) {
	if info == nil || info.Sub == "" {
		return nil, fmt.Errorf("service/auth: identity has no subject")
	}

	return s.login(ctx, &model.User{
		ID:              info.Sub,
		Email:           info.Email,
		FirstName:       info.GivenName,
		LastName:        info.FamilyName,
		ProfileImageURL: info.Picture,
	})
}

// DevLogin signs in without a provider. The route is only mounted when
// AUTH_DEV_LOGIN is on outside production. An empty ID gets a fresh
// "dev-<xid>" so repeated calls without one create distinct users.
func (s *AuthService) DevLogin(ctx context.Context, in DevLoginInput) (*AuthResult, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = "dev-" + xid.New().String()
	}

	return s.login(ctx, &model.User{
		ID:        id,
		Email:     strings.TrimSpace(in.Email),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
	})
}

// login upserts the user and issues a token. A returning user whose avatar
// changed at the provider gets the same cache invalidation as a profile
// edit, since the avatar is embedded in their posts and comments.
func (s *AuthService) login(ctx context.Context, user *model.User) (*AuthResult, error) {
	prev, err := s.users.GetUser(ctx, user.ID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: loading user %s: %w", user.ID, err)
	}

	if err := s.users.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user %s: %w", user.ID, err)
	}

	if prev != nil && prev.ProfileImageURL != user.ProfileImageURL {
		s.invalidator.ProfileChanged(ctx, user.ID)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated", slog.String("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}
