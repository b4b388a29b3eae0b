// Package seed fills a store with demo content: users, posts of all three
// types, comments, likes, saves and subscriptions.
//
// Everything goes through repository.Store, so seeding works against
// either backend and exercises the same code paths as the API. Intended
// for development and tests only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
)

// Categories are the ones the create-post screen offers.
var Categories = []string{"real-talk", "creative", "storytime", "lifestyle", "education"}

// Options controls how much is generated. Zero fields take the defaults.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int // negative means none
	// Seed makes runs reproducible. Zero picks a random seed.
	Seed int64
}

func (o Options) withDefaults() Options {
	if o.Users <= 0 {
		o.Users = 10
	}
	if o.PostsPerUser <= 0 {
		o.PostsPerUser = 3
	}
	if o.CommentsPerPost < 0 {
		o.CommentsPerPost = 0
	} else if o.CommentsPerPost == 0 {
		o.CommentsPerPost = 2
	}
	return o
}

// Result summarises what a run created.
type Result struct {
	Users         []model.User
	Posts         []model.Post
	Comments      int
	Likes         int
	Saves         int
	Subscriptions int
}

// Seeder builds entities with gofakeit and persists them.
type Seeder struct {
	store  repository.Store
	faker  *gofakeit.Faker
	opts   Options
	logger *slog.Logger
}

func New(store repository.Store, opts Options, logger *slog.Logger) *Seeder {
	opts = opts.withDefaults()
	return &Seeder{
		store:  store,
		faker:  gofakeit.New(opts.Seed),
		opts:   opts,
		logger: logger,
	}
}

// Run creates everything. It stops at the first storage error; what was
// written before it stays written.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	for i := 0; i < s.opts.Users; i++ {
		u, err := s.createUser(ctx, i)
		if err != nil {
			return res, err
		}
		res.Users = append(res.Users, *u)
	}

	for _, u := range res.Users {
		for j := 0; j < s.opts.PostsPerUser; j++ {
			p := s.BuildPost(u.ID)
			if err := s.store.CreatePost(ctx, p); err != nil {
				return res, fmt.Errorf("seed: creating post for %s: %w", u.ID, err)
			}
			res.Posts = append(res.Posts, *p)
		}
	}

	if err := s.engage(ctx, res); err != nil {
		return res, err
	}

	s.logger.Info("seed complete",
		slog.Int("users", len(res.Users)),
		slog.Int("posts", len(res.Posts)),
		slog.Int("comments", res.Comments),
		slog.Int("likes", res.Likes),
		slog.Int("saves", res.Saves),
		slog.Int("subscriptions", res.Subscriptions),
	)
	return res, nil
}

// createUser upserts a user, then sets a username and bio. The index
// suffix keeps usernames unique even when the faker repeats itself.
func (s *Seeder) createUser(ctx context.Context, i int) (*model.User, error) {
	u := &model.User{
		ID:              "seed-" + s.faker.UUID(),
		Email:           fmt.Sprintf("seed%d.%s", i, strings.ToLower(s.faker.Email())),
		FirstName:       s.faker.FirstName(),
		LastName:        s.faker.LastName(),
		ProfileImageURL: "https://i.pravatar.cc/150?u=" + s.faker.UUID(),
	}
	if err := s.store.UpsertUser(ctx, u); err != nil {
		return nil, fmt.Errorf("seed: creating user: %w", err)
	}

	username := usernameFrom(s.faker.Username(), i)
	bio := s.faker.Sentence(8)
	if len([]rune(bio)) > 160 {
		bio = string([]rune(bio)[:160])
	}
	updated, err := s.store.UpdateUserProfile(ctx, u.ID, model.ProfileUpdate{Username: &username, Bio: &bio})
	if err != nil {
		return nil, fmt.Errorf("seed: setting profile for %s: %w", u.ID, err)
	}
	return updated, nil
}

// usernameFrom keeps only characters the profile rules allow and appends
// the index, staying within 30 characters.
func usernameFrom(raw string, i int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "user"
	}
	suffix := fmt.Sprintf("_%d", i)
	if len(base)+len(suffix) > 30 {
		base = base[:30-len(suffix)]
	}
	return base + suffix
}

// BuildPost returns an unsaved post of a random type, valid by the same
// rules the API enforces.
func (s *Seeder) BuildPost(userID string) *model.Post {
	p := &model.Post{
		UserID:   userID,
		Category: s.faker.RandomString(Categories),
	}

	switch s.faker.Number(0, 2) {
	case 0:
		p.Type = model.PostTypeVideo
		p.Content = s.faker.Sentence(6)
		p.MediaURLs = []string{fmt.Sprintf("https://cdn.faceless.test/videos/%s.mp4", s.faker.UUID())}
	case 1:
		p.Type = model.PostTypeImage
		p.Content = s.faker.Sentence(5)
		n := s.faker.Number(1, 4)
		for k := 0; k < n; k++ {
			p.MediaURLs = append(p.MediaURLs, fmt.Sprintf("https://picsum.photos/seed/%s/800/1200", s.faker.UUID()))
		}
	default:
		p.Type = model.PostTypeText
		p.Content = s.faker.Paragraph(1, 3, 12, " ")
		p.MediaURLs = []string{}
	}

	if r := []rune(p.Content); len(r) > 2200 {
		p.Content = string(r[:2200])
	}
	return p
}

// engage adds comments, then has each user like, save and subscribe at
// random. A user never subscribes to themselves here, though the API
// allows it.
func (s *Seeder) engage(ctx context.Context, res *Result) error {
	if len(res.Users) == 0 {
		return nil
	}

	for _, p := range res.Posts {
		for k := 0; k < s.opts.CommentsPerPost; k++ {
			commenter := res.Users[s.faker.Number(0, len(res.Users)-1)]
			c := &model.Comment{UserID: commenter.ID, PostID: p.ID, Content: s.faker.Sentence(s.faker.Number(3, 12))}
			if err := s.store.CreateComment(ctx, c); err != nil {
				return fmt.Errorf("seed: commenting on post %d: %w", p.ID, err)
			}
			res.Comments++
		}
	}

	for _, u := range res.Users {
		for _, p := range res.Posts {
			if s.faker.Number(1, 3) == 1 {
				if err := s.store.LikePost(ctx, u.ID, p.ID); err != nil {
					return fmt.Errorf("seed: liking post %d: %w", p.ID, err)
				}
				res.Likes++
			}
			if s.faker.Number(1, 6) == 1 {
				if err := s.store.SavePost(ctx, u.ID, p.ID); err != nil {
					return fmt.Errorf("seed: saving post %d: %w", p.ID, err)
				}
				res.Saves++
			}
		}
		for _, other := range res.Users {
			if other.ID != u.ID && s.faker.Bool() {
				if err := s.store.Subscribe(ctx, u.ID, other.ID); err != nil {
					return fmt.Errorf("seed: subscribing %s to %s: %w", u.ID, other.ID, err)
				}
				res.Subscriptions++
			}
		}
	}
	return nil
}
