package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/faceless/internal/auth"
	"github.com/sakif/faceless/internal/cache"
	"github.com/sakif/faceless/internal/model"
)

func newTestAuthService(t *testing.T) (*AuthService, *mockStore, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)
	repo := newMockStore()
	return NewAuthService(repo, tokens, nil, quietLogger()), repo, tokens
}

func TestLoginOIDC_UpsertsAndIssuesToken(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)

	res, err := svc.LoginOIDC(context.Background(), &auth.OIDCUser{
		Sub:        "idp|1",
		Email:      "ada@example.com",
		GivenName:  "Ada",
		FamilyName: "Lovelace",
		Picture:    "https://img.test/ada.png",
	})
	require.NoError(t, err)

	assert.Equal(t, "idp|1", res.User.ID)
	assert.Equal(t, "Ada", res.User.FirstName)
	assert.Equal(t, "Lovelace", res.User.LastName)
	assert.Equal(t, "https://img.test/ada.png", res.User.ProfileImageURL)

	sub, err := tokens.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "idp|1", sub)
}

func TestLoginOIDC_RepeatLoginKeepsProfile(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.LoginOIDC(ctx, &auth.OIDCUser{Sub: "idp|1", Email: "old@example.com"})
	require.NoError(t, err)

	name := "ada"
	_, err = repo.UpdateUserProfile(ctx, "idp|1", model.ProfileUpdate{Username: &name})
	require.NoError(t, err)

	res, err := svc.LoginOIDC(ctx, &auth.OIDCUser{Sub: "idp|1", Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", res.User.Email)
	assert.Equal(t, "ada", res.User.Username)
}

func TestLoginOIDC_RejectsMissingSubject(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	_, err := svc.LoginOIDC(context.Background(), &auth.OIDCUser{Email: "x@example.com"})
	assert.Error(t, err)
	_, err = svc.LoginOIDC(context.Background(), nil)
	assert.Error(t, err)
	assert.Zero(t, repo.count("UpsertUser"))
}

func TestDevLogin(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	t.Run("explicit id", func(t *testing.T) {
		res, err := svc.DevLogin(ctx, DevLoginInput{ID: " tester ", Email: "t@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "tester", res.User.ID)
		assert.NotEmpty(t, res.Token)
	})

	t.Run("generated ids are distinct", func(t *testing.T) {
		a, err := svc.DevLogin(ctx, DevLoginInput{})
		require.NoError(t, err)
		b, err := svc.DevLogin(ctx, DevLoginInput{})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(a.User.ID, "dev-"))
		assert.NotEqual(t, a.User.ID, b.User.ID)
	})
}

func TestLoginOIDC_NewAvatarRefreshesCachedComments(t *testing.T) {
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)
	repo := newMockStore()
	store := cache.NewMemory()
	svc := NewAuthService(repo, tokens, store, quietLogger())
	comments := NewCommentService(repo, repo, store, time.Minute, quietLogger())
	ctx := context.Background()

	_, err = svc.LoginOIDC(ctx, &auth.OIDCUser{Sub: "idp|1", Picture: "https://img.test/old.png"})
	require.NoError(t, err)
	postID := seedTextPost(t, repo, "idp|1", "hi")
	_, err = comments.CreateComment(ctx, "idp|1", postID, "first")
	require.NoError(t, err)

	list, err := comments.ListPostComments(ctx, postID)
	require.NoError(t, err)
	require.Equal(t, "https://img.test/old.png", list[0].ProfileImageURL)

	t.Run("same avatar keeps the cache", func(t *testing.T) {
		_, err := svc.LoginOIDC(ctx, &auth.OIDCUser{Sub: "idp|1", Picture: "https://img.test/old.png"})
		require.NoError(t, err)
		_, err = comments.ListPostComments(ctx, postID)
		require.NoError(t, err)
		assert.Equal(t, 1, repo.count("ListPostComments"))
	})

	t.Run("new avatar drops it", func(t *testing.T) {
		_, err := svc.LoginOIDC(ctx, &auth.OIDCUser{Sub: "idp|1", Picture: "https://img.test/new.png"})
		require.NoError(t, err)
		list, err := comments.ListPostComments(ctx, postID)
		require.NoError(t, err)
		assert.Equal(t, "https://img.test/new.png", list[0].ProfileImageURL)
	})
}
