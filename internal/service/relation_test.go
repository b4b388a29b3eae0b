package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/cache"
	"github.com/sakif/faceless/internal/model"
)

// ===== RELATION TESTS =====

func TestLike_Toggle(t *testing.T) {
	repo := newMockStore()
	seedUser(t, repo, "a", "")
	postID := seedTextPost(t, repo, "a", "hi")
	svc := NewRelationService(repo, repo, repo, quietLogger())
	ctx := context.Background()

	st, err := svc.Like(ctx, "b", postID)
	require.NoError(t, err)
	assert.Equal(t, model.LikeStatus{Success: true, IsLiked: true}, st)

	st, err = svc.Like(ctx, "b", postID)
	require.NoError(t, err, "liking twice is not an error")
	assert.True(t, st.IsLiked)

	st, err = svc.LikeStatus(ctx, "b", postID)
	require.NoError(t, err)
	assert.Equal(t, model.LikeStatus{IsLiked: true}, st)

	st, err = svc.Unlike(ctx, "b", postID)
	require.NoError(t, err)
	assert.Equal(t, model.LikeStatus{Success: true, IsLiked: false}, st)

	st, err = svc.LikeStatus(ctx, "b", postID)
	require.NoError(t, err)
	assert.False(t, st.IsLiked)
}

func TestRelations_MissingTargets(t *testing.T) {
	repo := newMockStore()
	svc := NewRelationService(repo, repo, repo, quietLogger())
	ctx := context.Background()

	_, err := svc.Like(ctx, "b", 99)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = svc.Save(ctx, "b", 99)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = svc.Subscribe(ctx, "b", "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Zero(t, repo.count("LikePost"))
	assert.Zero(t, repo.count("SavePost"))
	assert.Zero(t, repo.count("Subscribe"))

	// Removes and status reads never 404.
	_, err = svc.Unlike(ctx, "b", 99)
	assert.NoError(t, err)
	_, err = svc.Unsave(ctx, "b", 99)
	assert.NoError(t, err)
	_, err = svc.Unsubscribe(ctx, "b", "ghost")
	assert.NoError(t, err)
	st, err := svc.SaveStatus(ctx, "b", 99)
	require.NoError(t, err)
	assert.False(t, st.IsSaved)
}

func TestSubscribe_SelfIsAllowed(t *testing.T) {
	repo := newMockStore()
	seedUser(t, repo, "a", "")
	svc := NewRelationService(repo, repo, repo, quietLogger())
	ctx := context.Background()

	st, err := svc.Subscribe(ctx, "a", "a")
	require.NoError(t, err)
	assert.True(t, st.IsSubscribed)

	got, err := svc.SubscriptionStatus(ctx, "a", "a")
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStatus{IsSubscribed: true}, got)
}

// ===== COMMENT TESTS =====

func TestCreateComment(t *testing.T) {
	repo := newMockStore()
	seedUser(t, repo, "a", "ada")
	postID := seedTextPost(t, repo, "a", "hi")
	svc := NewCommentService(repo, repo, cache.NewMemory(), time.Minute, quietLogger())
	ctx := context.Background()

	t.Run("empty after trim", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, "a", postID, "  \n ")
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("too long", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, "a", postID, strings.Repeat("x", MaxCommentLength+1))
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, "a", 404, "nice")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("valid comment is trimmed and invalidates the list", func(t *testing.T) {
		before, err := svc.ListPostComments(ctx, postID)
		require.NoError(t, err)
		assert.Empty(t, before)

		c, err := svc.CreateComment(ctx, "a", postID, "  nice  ")
		require.NoError(t, err)
		assert.Equal(t, "nice", c.Content)

		after, err := svc.ListPostComments(ctx, postID)
		require.NoError(t, err)
		require.Len(t, after, 1)
		assert.Equal(t, "nice", after[0].Content)
		assert.Equal(t, "ada", after[0].Username)
	})
}

// ===== PROFILE TESTS =====

func TestUpdateProfile(t *testing.T) {
	ptr := func(s string) *string { return &s }

	tests := []struct {
		name    string
		upd     model.ProfileUpdate
		wantErr error
		check   func(t *testing.T, u *model.User)
	}{
		{
			name:  "sets username and bio",
			upd:   model.ProfileUpdate{Username: ptr(" new.name_1 "), Bio: ptr("<i>hello</i>")},
			check: func(t *testing.T, u *model.User) { assert.Equal(t, "new.name_1", u.Username); assert.Equal(t, "hello", u.Bio) },
		},
		{
			name:  "empty username clears",
			upd:   model.ProfileUpdate{Username: ptr("")},
			check: func(t *testing.T, u *model.User) { assert.Empty(t, u.Username) },
		},
		{
			name:  "no fields returns profile unchanged",
			upd:   model.ProfileUpdate{},
			check: func(t *testing.T, u *model.User) { assert.Equal(t, "ada", u.Username) },
		},
		{name: "too short", upd: model.ProfileUpdate{Username: ptr("ab")}, wantErr: apperror.ErrValidation},
		{name: "bad characters", upd: model.ProfileUpdate{Username: ptr("ada lovelace")}, wantErr: apperror.ErrValidation},
		{name: "bio too long", upd: model.ProfileUpdate{Bio: ptr(strings.Repeat("b", MaxBioLength+1))}, wantErr: apperror.ErrValidation},
		{name: "taken username", upd: model.ProfileUpdate{Username: ptr("grace")}, wantErr: apperror.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockStore()
			seedUser(t, repo, "a", "ada")
			seedUser(t, repo, "g", "grace")
			svc := NewProfileService(repo, nil, quietLogger())

			u, err := svc.UpdateProfile(context.Background(), "a", tt.upd)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, u)
		})
	}
}

func TestUpdateProfile_InvalidatesAuthorFeed(t *testing.T) {
	repo := newMockStore()
	seedUser(t, repo, "a", "ada")
	seedTextPost(t, repo, "a", "hi")
	store := cache.NewMemory()
	posts := NewPostService(repo, store, time.Minute, quietLogger())
	profiles := NewProfileService(repo, store, quietLogger())
	ctx := context.Background()

	feed, err := posts.ListUserPosts(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "ada", feed[0].Username)

	name := "ada.l"
	_, err = profiles.UpdateProfile(ctx, "a", model.ProfileUpdate{Username: &name})
	require.NoError(t, err)

	feed, err = posts.ListUserPosts(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "ada.l", feed[0].Username)
}

func TestUpdateProfile_RefreshesCachedComments(t *testing.T) {
	repo := newMockStore()
	seedUser(t, repo, "a", "ada")
	seedUser(t, repo, "b", "bob")
	postID := seedTextPost(t, repo, "b", "hi")
	store := cache.NewMemory()
	comments := NewCommentService(repo, repo, store, time.Minute, quietLogger())
	profiles := NewProfileService(repo, store, quietLogger())
	ctx := context.Background()

	_, err := comments.CreateComment(ctx, "a", postID, "nice")
	require.NoError(t, err)
	list, err := comments.ListPostComments(ctx, postID)
	require.NoError(t, err)
	require.Equal(t, "ada", list[0].Username)

	name := "ada_l"
	_, err = profiles.UpdateProfile(ctx, "a", model.ProfileUpdate{Username: &name})
	require.NoError(t, err)

	list, err = comments.ListPostComments(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, "ada_l", list[0].Username)
	assert.Equal(t, 2, repo.count("ListPostComments"))
}
