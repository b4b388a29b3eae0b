// Package repotest is a conformance suite for repository.Store backends.
//
// Every backend test file calls Run with a constructor for a fresh, empty
// store. The suite checks the behaviour the service layer relies on:
// ordering, pagination, idempotent toggles, NotFound/Conflict mapping and
// the author join. A backend that passes here can be swapped in without the
// service or handler tests noticing.
//
// Usage:
//
//	func TestConformance(t *testing.T) {
//	    repotest.Run(t, func(t *testing.T) repository.Store { return newTestDB(t) })
//	}
package repotest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
)

// Factory returns a fresh, empty store. It should register its own cleanup.
type Factory func(t *testing.T) repository.Store

// Run executes every conformance test as a subtest.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"UpsertUser/InsertsNew", testUpsertInserts},
		{"UpsertUser/PreservesCreatedAtAndProfile", testUpsertPreserves},
		{"GetUser/NotFound", testGetUserNotFound},
		{"UpdateUserProfile/Partial", testUpdateProfilePartial},
		{"UpdateUserProfile/ClearUsername", testUpdateProfileClear},
		{"UpdateUserProfile/DuplicateUsername", testUpdateProfileConflict},
		{"UpdateUserProfile/NotFound", testUpdateProfileNotFound},
		{"CreatePost/UniqueIDs", testCreatePostIDs},
		{"GetPost/JoinsAuthor", testGetPostJoinsAuthor},
		{"GetPost/NotFound", testGetPostNotFound},
		{"ListPosts/NewestFirst", testListPostsOrder},
		{"ListPosts/Pagination", testListPostsPagination},
		{"ListUserPosts", testListUserPosts},
		{"Comments/NewestFirst", testComments},
		{"Likes/Idempotent", testLikesIdempotent},
		{"Saves/ListSavedPosts", testSaves},
		{"Subscriptions/Directional", testSubscriptions},
		{"ForeignKeys/RejectOrphans", testForeignKeys},
		{"Scenario/TextPostLikeComment", testScenario},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

// =========================================================================
// HELPERS
// =========================================================================

func mustUser(t *testing.T, s repository.Store, id string) *model.User {
	t.Helper()
	u := &model.User{
		ID:              id,
		Email:           id + "@example.com",
		FirstName:       "First " + id,
		LastName:        "Last",
		ProfileImageURL: "https://img.example.com/" + id + ".png",
	}
	require.NoError(t, s.UpsertUser(context.Background(), u))
	return u
}

func mustPost(t *testing.T, s repository.Store, userID, content string) *model.Post {
	t.Helper()
	p := &model.Post{UserID: userID, Type: model.PostTypeText, Content: content}
	require.NoError(t, s.CreatePost(context.Background(), p))
	return p
}

func ptr(s string) *string { return &s }

func postIDs(posts []model.FeedPost) []int64 {
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

// =========================================================================
// USERS
// =========================================================================

func testUpsertInserts(t *testing.T, s repository.Store) {
	u := mustUser(t, s, "u1")

	assert.False(t, u.CreatedAt.IsZero(), "CreatedAt should be set")
	assert.False(t, u.UpdatedAt.IsZero(), "UpdatedAt should be set")

	got, err := s.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", got.Email)
	assert.Equal(t, "First u1", got.FirstName)
	assert.Equal(t, "", got.Username)
}

func testUpsertPreserves(t *testing.T, s repository.Store) {
	ctx := context.Background()
	first := mustUser(t, s, "u1")

	_, err := s.UpdateUserProfile(ctx, "u1", model.ProfileUpdate{Username: ptr("alice"), Bio: ptr("hello")})
	require.NoError(t, err)

	again := &model.User{ID: "u1", Email: "new@example.com", FirstName: "Renamed"}
	require.NoError(t, s.UpsertUser(ctx, again))

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, "Renamed", got.FirstName)
	assert.Equal(t, "alice", got.Username, "login must not clobber username")
	assert.Equal(t, "hello", got.Bio, "login must not clobber bio")
	assert.True(t, got.CreatedAt.Equal(first.CreatedAt), "createdAt changed: %v -> %v", first.CreatedAt, got.CreatedAt)
	assert.False(t, got.UpdatedAt.Before(first.UpdatedAt))
}

func testGetUserNotFound(t *testing.T, s repository.Store) {
	_, err := s.GetUser(context.Background(), "ghost")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
}

func testUpdateProfilePartial(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "u1")

	_, err := s.UpdateUserProfile(ctx, "u1", model.ProfileUpdate{Username: ptr("alice"), Bio: ptr("first")})
	require.NoError(t, err)

	// Only bio is named, username must survive.
	got, err := s.UpdateUserProfile(ctx, "u1", model.ProfileUpdate{Bio: ptr("second")})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "second", got.Bio)
}

func testUpdateProfileClear(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "u1")
	mustUser(t, s, "u2")

	_, err := s.UpdateUserProfile(ctx, "u1", model.ProfileUpdate{Username: ptr("alice")})
	require.NoError(t, err)

	got, err := s.UpdateUserProfile(ctx, "u1", model.ProfileUpdate{Username: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "", got.Username)

	// Two users with no username must not collide on the unique index.
	_, err = s.UpdateUserProfile(ctx, "u2", model.ProfileUpdate{Username: ptr("")})
	assert.NoError(t, err)
}

func testUpdateProfileConflict(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "u1")
	mustUser(t, s, "u2")

	_, err := s.UpdateUserProfile(ctx, "u1", model.ProfileUpdate{Username: ptr("taken")})
	require.NoError(t, err)

	_, err = s.UpdateUserProfile(ctx, "u2", model.ProfileUpdate{Username: ptr("taken")})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
}

func testUpdateProfileNotFound(t *testing.T, s repository.Store) {
	_, err := s.UpdateUserProfile(context.Background(), "ghost", model.ProfileUpdate{Bio: ptr("x")})
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
}

// =========================================================================
// POSTS
// =========================================================================

func testCreatePostIDs(t *testing.T, s repository.Store) {
	mustUser(t, s, "u1")

	seen := map[int64]bool{}
	var prev *model.Post
	for i := 0; i < 5; i++ {
		p := mustPost(t, s, "u1", fmt.Sprintf("post %d", i))
		assert.NotZero(t, p.ID)
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
		if prev != nil {
			assert.False(t, p.CreatedAt.Before(prev.CreatedAt), "createdAt went backwards")
		}
		prev = p
	}
}

func testGetPostJoinsAuthor(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "u1")
	_, err := s.UpdateUserProfile(ctx, "u1", model.ProfileUpdate{Username: ptr("alice")})
	require.NoError(t, err)

	p := &model.Post{
		UserID:    "u1",
		Type:      model.PostTypeImage,
		MediaURLs: []string{"https://img.example.com/2.jpg", "https://img.example.com/1.jpg"},
		Category:  "lifestyle",
	}
	require.NoError(t, s.CreatePost(ctx, p))

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PostTypeImage, got.Type)
	assert.Equal(t, []string{"https://img.example.com/2.jpg", "https://img.example.com/1.jpg"}, got.MediaURLs, "media order must be preserved")
	assert.Equal(t, "lifestyle", got.Category)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "https://img.example.com/u1.png", got.ProfileImageURL)

	text := mustPost(t, s, "u1", "no media")
	gotText, err := s.GetPost(ctx, text.ID)
	require.NoError(t, err)
	assert.NotNil(t, gotText.MediaURLs, "mediaUrls must be [] not null")
	assert.Empty(t, gotText.MediaURLs)
}

func testGetPostNotFound(t *testing.T, s repository.Store) {
	_, err := s.GetPost(context.Background(), 424242)
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "got %v", err)
}

func testListPostsOrder(t *testing.T, s repository.Store) {
	mustUser(t, s, "u1")
	a := mustPost(t, s, "u1", "a")
	b := mustPost(t, s, "u1", "b")
	c := mustPost(t, s, "u1", "c")

	posts, err := s.ListPosts(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, postIDs(posts))

	for i := 1; i < len(posts); i++ {
		assert.False(t, posts[i].CreatedAt.After(posts[i-1].CreatedAt), "not newest first at %d", i)
	}
}

func testListPostsPagination(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "u1")
	for i := 0; i < 5; i++ {
		mustPost(t, s, "u1", fmt.Sprintf("p%d", i))
	}

	page1, err := s.ListPosts(ctx, repository.ListOptions{Limit: 2, Offset: 0})
	require.NoError(t, err)
	page2, err := s.ListPosts(ctx, repository.ListOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	page3, err := s.ListPosts(ctx, repository.ListOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)

	assert.Len(t, page1, 2)
	assert.Len(t, page2, 2)
	assert.Len(t, page3, 1)

	seen := map[int64]bool{}
	for _, p := range append(append(page1, page2...), page3...) {
		assert.False(t, seen[p.ID], "post %d appears on two pages", p.ID)
		seen[p.ID] = true
	}

	empty, err := s.ListPosts(ctx, repository.ListOptions{Limit: 2, Offset: 50})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testListUserPosts(t *testing.T, s repository.Store) {
	mustUser(t, s, "u1")
	mustUser(t, s, "u2")
	a := mustPost(t, s, "u1", "mine 1")
	mustPost(t, s, "u2", "theirs")
	b := mustPost(t, s, "u1", "mine 2")

	posts, err := s.ListUserPosts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, a.ID}, postIDs(posts))

	none, err := s.ListUserPosts(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

// =========================================================================
// COMMENTS
// =========================================================================

func testComments(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "u1")
	mustUser(t, s, "u2")
	_, err := s.UpdateUserProfile(ctx, "u2", model.ProfileUpdate{Username: ptr("bob")})
	require.NoError(t, err)
	p := mustPost(t, s, "u1", "hello")

	first := &model.Comment{UserID: "u2", PostID: p.ID, Content: "first"}
	require.NoError(t, s.CreateComment(ctx, first))
	second := &model.Comment{UserID: "u2", PostID: p.ID, Content: "second"}
	require.NoError(t, s.CreateComment(ctx, second))

	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.CreatedAt.IsZero())

	comments, err := s.ListPostComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Content)
	assert.Equal(t, "first", comments[1].Content)
	assert.Equal(t, "bob", comments[0].Username)

	none, err := s.ListPostComments(ctx, 999)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

// =========================================================================
// RELATIONSHIPS
// =========================================================================

func testLikesIdempotent(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "u1")
	p := mustPost(t, s, "u1", "likeable")

	liked, err := s.IsPostLiked(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	// Double like must not fail and must leave exactly one row:
	// a single unlike then brings the status back to false.
	require.NoError(t, s.LikePost(ctx, "u1", p.ID))
	require.NoError(t, s.LikePost(ctx, "u1", p.ID))

	liked, err = s.IsPostLiked(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	require.NoError(t, s.UnlikePost(ctx, "u1", p.ID))
	liked, err = s.IsPostLiked(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	// Unlike with nothing to remove is fine.
	assert.NoError(t, s.UnlikePost(ctx, "u1", p.ID))
}

func testSaves(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "u1")
	older := mustPost(t, s, "u1", "older")
	newer := mustPost(t, s, "u1", "newer")

	// Save the newer post first: saved list follows save time, not post time.
	require.NoError(t, s.SavePost(ctx, "u1", newer.ID))
	require.NoError(t, s.SavePost(ctx, "u1", older.ID))
	require.NoError(t, s.SavePost(ctx, "u1", older.ID))

	saved, err := s.IsPostSaved(ctx, "u1", older.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	list, err := s.ListSavedPosts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{older.ID, newer.ID}, postIDs(list))

	require.NoError(t, s.UnsavePost(ctx, "u1", older.ID))
	list, err = s.ListSavedPosts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{newer.ID}, postIDs(list))
}

func testSubscriptions(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "a")
	mustUser(t, s, "b")

	require.NoError(t, s.Subscribe(ctx, "a", "b"))
	require.NoError(t, s.Subscribe(ctx, "a", "b"))

	ab, err := s.IsSubscribed(ctx, "a", "b")
	require.NoError(t, err)
	ba, err := s.IsSubscribed(ctx, "b", "a")
	require.NoError(t, err)
	assert.True(t, ab)
	assert.False(t, ba, "subscriptions are directional")

	require.NoError(t, s.Unsubscribe(ctx, "a", "b"))
	ab, err = s.IsSubscribed(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ab)

	// Self-subscription is not rejected by storage.
	assert.NoError(t, s.Subscribe(ctx, "a", "a"))
}

// Rows pointing at a missing user or post are refused by the schema, not
// just by the service's existence checks. ON CONFLICT DO NOTHING does not
// cover foreign keys, so the idempotent inserts fail too.
func testForeignKeys(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "u1")
	p := mustPost(t, s, "u1", "real")

	tests := []struct {
		name string
		op   func() error
	}{
		{"post by unknown user", func() error {
			return s.CreatePost(ctx, &model.Post{UserID: "ghost", Type: model.PostTypeText, Content: "boo"})
		}},
		{"comment by unknown user", func() error {
			return s.CreateComment(ctx, &model.Comment{UserID: "ghost", PostID: p.ID, Content: "boo"})
		}},
		{"comment on unknown post", func() error {
			return s.CreateComment(ctx, &model.Comment{UserID: "u1", PostID: p.ID + 100, Content: "boo"})
		}},
		{"like of unknown post", func() error { return s.LikePost(ctx, "u1", p.ID+100) }},
		{"save by unknown user", func() error { return s.SavePost(ctx, "ghost", p.ID) }},
		{"subscribe to unknown user", func() error { return s.Subscribe(ctx, "u1", "ghost") }},
	}
	for _, tt := range tests {
		assert.Error(t, tt.op(), tt.name)
	}

	comments, err := s.ListPostComments(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	liked, err := s.IsPostLiked(ctx, "u1", p.ID+100)
	require.NoError(t, err)
	assert.False(t, liked)
}

// A creates a text post "hi"; it is first in the feed. B likes it, unlikes
// it, then comments "nice".
func testScenario(t *testing.T, s repository.Store) {
	ctx := context.Background()
	mustUser(t, s, "A")
	mustUser(t, s, "B")
	mustPost(t, s, "A", "older post")
	hi := mustPost(t, s, "A", "hi")

	feed, err := s.ListPosts(ctx, repository.ListOptions{Limit: 20})
	require.NoError(t, err)
	require.NotEmpty(t, feed)
	assert.Equal(t, hi.ID, feed[0].ID)
	assert.Equal(t, "hi", feed[0].Content)

	require.NoError(t, s.LikePost(ctx, "B", hi.ID))
	liked, err := s.IsPostLiked(ctx, "B", hi.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	require.NoError(t, s.UnlikePost(ctx, "B", hi.ID))
	liked, err = s.IsPostLiked(ctx, "B", hi.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, s.CreateComment(ctx, &model.Comment{UserID: "B", PostID: hi.ID, Content: "nice"}))
	comments, err := s.ListPostComments(ctx, hi.ID)
	require.NoError(t, err)
	require.NotEmpty(t, comments)
	assert.Equal(t, "nice", comments[0].Content)
	assert.Equal(t, "B", comments[0].UserID)
}
