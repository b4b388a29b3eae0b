package service

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================
//
// mockStore is a hand-written in-memory repository.Store. It keeps just
// enough behaviour for the service rules (existence, idempotent toggles,
// newest-first lists) and counts calls so tests can see whether a request
// reached the "database" at all.

type mockStore struct {
	mu sync.Mutex

	users    map[string]model.User
	posts    []model.Post
	comments []model.Comment
	likes    map[pair]bool
	saves    map[pair]bool
	subs     map[[2]string]bool

	calls map[string]int
	fail  error // returned by every call when set
}

type pair struct {
	user string
	post int64
}

var _ repository.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		users: make(map[string]model.User),
		likes: make(map[pair]bool),
		saves: make(map[pair]bool),
		subs:  make(map[[2]string]bool),
		calls: make(map[string]int),
	}
}

func (m *mockStore) record(name string) error {
	m.calls[name]++
	return m.fail
}

func (m *mockStore) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockStore) GetUser(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetUser"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return &u, nil
}

func (m *mockStore) UpsertUser(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpsertUser"); err != nil {
		return err
	}
	now := time.Now().UTC()
	if existing, ok := m.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
		user.Username = existing.Username
		user.Bio = existing.Bio
	} else {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	m.users[user.ID] = *user
	return nil
}

func (m *mockStore) UpdateUserProfile(_ context.Context, id string, upd model.ProfileUpdate) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UpdateUserProfile"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	if upd.Username != nil {
		for otherID, other := range m.users {
			if otherID != id && *upd.Username != "" && other.Username == *upd.Username {
				return nil, apperror.Conflict("user", "username")
			}
		}
		u.Username = *upd.Username
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	m.users[id] = u
	return &u, nil
}

func (m *mockStore) CreatePost(_ context.Context, post *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreatePost"); err != nil {
		return err
	}
	post.ID = int64(len(m.posts) + 1)
	post.CreatedAt = time.Now().UTC()
	m.posts = append(m.posts, *post)
	return nil
}

func (m *mockStore) feed(p model.Post) model.FeedPost {
	u := m.users[p.UserID]
	return model.FeedPost{Post: p, Username: u.Username, ProfileImageURL: u.ProfileImageURL}
}

func (m *mockStore) GetPost(_ context.Context, id int64) (*model.FeedPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetPost"); err != nil {
		return nil, err
	}
	for _, p := range m.posts {
		if p.ID == id {
			fp := m.feed(p)
			return &fp, nil
		}
	}
	return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
}

// newestFirst relies on ids being assigned in creation order.
func (m *mockStore) newestFirst(keep func(model.Post) bool) []model.FeedPost {
	out := []model.FeedPost{}
	for i := len(m.posts) - 1; i >= 0; i-- {
		if keep(m.posts[i]) {
			out = append(out, m.feed(m.posts[i]))
		}
	}
	return out
}

func (m *mockStore) ListPosts(_ context.Context, opts repository.ListOptions) ([]model.FeedPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListPosts"); err != nil {
		return nil, err
	}
	all := m.newestFirst(func(model.Post) bool { return true })
	if opts.Offset >= len(all) {
		return []model.FeedPost{}, nil
	}
	all = all[opts.Offset:]
	if opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (m *mockStore) ListUserPosts(_ context.Context, userID string) ([]model.FeedPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListUserPosts"); err != nil {
		return nil, err
	}
	return m.newestFirst(func(p model.Post) bool { return p.UserID == userID }), nil
}

func (m *mockStore) ListSavedPosts(_ context.Context, userID string) ([]model.FeedPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListSavedPosts"); err != nil {
		return nil, err
	}
	return m.newestFirst(func(p model.Post) bool { return m.saves[pair{userID, p.ID}] }), nil
}

func (m *mockStore) CreateComment(_ context.Context, c *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateComment"); err != nil {
		return err
	}
	c.ID = int64(len(m.comments) + 1)
	c.CreatedAt = time.Now().UTC()
	m.comments = append(m.comments, *c)
	return nil
}

func (m *mockStore) ListPostComments(_ context.Context, postID int64) ([]model.CommentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListPostComments"); err != nil {
		return nil, err
	}
	out := []model.CommentView{}
	for _, c := range slices.Backward(m.comments) {
		if c.PostID == postID {
			author := m.users[c.UserID]
			out = append(out, model.CommentView{Comment: c, Username: author.Username, ProfileImageURL: author.ProfileImageURL})
		}
	}
	return out, nil
}

func (m *mockStore) toggle(name string, set map[pair]bool, key pair, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(name); err != nil {
		return err
	}
	if on {
		set[key] = true
	} else {
		delete(set, key)
	}
	return nil
}

func (m *mockStore) has(name string, set map[pair]bool, key pair) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(name); err != nil {
		return false, err
	}
	return set[key], nil
}

func (m *mockStore) LikePost(_ context.Context, u string, p int64) error {
	return m.toggle("LikePost", m.likes, pair{u, p}, true)
}
func (m *mockStore) UnlikePost(_ context.Context, u string, p int64) error {
	return m.toggle("UnlikePost", m.likes, pair{u, p}, false)
}
func (m *mockStore) IsPostLiked(_ context.Context, u string, p int64) (bool, error) {
	return m.has("IsPostLiked", m.likes, pair{u, p})
}
func (m *mockStore) SavePost(_ context.Context, u string, p int64) error {
	return m.toggle("SavePost", m.saves, pair{u, p}, true)
}
func (m *mockStore) UnsavePost(_ context.Context, u string, p int64) error {
	return m.toggle("UnsavePost", m.saves, pair{u, p}, false)
}
func (m *mockStore) IsPostSaved(_ context.Context, u string, p int64) (bool, error) {
	return m.has("IsPostSaved", m.saves, pair{u, p})
}

func (m *mockStore) Subscribe(_ context.Context, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Subscribe"); err != nil {
		return err
	}
	m.subs[[2]string{from, to}] = true
	return nil
}

func (m *mockStore) Unsubscribe(_ context.Context, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Unsubscribe"); err != nil {
		return err
	}
	delete(m.subs, [2]string{from, to})
	return nil
}

func (m *mockStore) IsSubscribed(_ context.Context, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("IsSubscribed"); err != nil {
		return false, err
	}
	return m.subs[[2]string{from, to}], nil
}

func (m *mockStore) Close() error { return nil }

// =========================================================================
// TEST HELPERS
// =========================================================================

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUser(t *testing.T, m *mockStore, id, username string) {
	t.Helper()
	m.users[id] = model.User{ID: id, Username: username}
}

func seedTextPost(t *testing.T, m *mockStore, userID, content string) int64 {
	t.Helper()
	p := &model.Post{UserID: userID, Type: model.PostTypeText, Content: content, MediaURLs: []string{}}
	if err := m.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p.ID
}
