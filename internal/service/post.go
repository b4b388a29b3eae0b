// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, sanitizes, checks existence, caches
//	Repository (Data layer)  → reads/writes the database
//
// Services accept the repository interfaces, never a concrete backend, so
// the same service runs on SQLite, Postgres, or a test fake.
//
// ERRORS:
// Services return apperror values (ValidationFailed, NotFound, ...) for
// anything the caller did wrong and wrap everything else with %w. The
// handler layer decides which HTTP status each one becomes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/cache"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
)

// Validation limits for posts.
const (
	MaxPostContentLength = 2200
	MaxCategoryLength    = 50
	MaxMediaURLs         = 10
)

// CreatePostInput is the body of POST /api/posts.
type CreatePostInput struct {
	Type      model.PostType `json:"type"`
	Content   string         `json:"content"`
	Category  string         `json:"category"`
	MediaURLs []string       `json:"mediaUrls"`
}

// PostService handles post creation and the feed queries.
//
// CACHING:
// The public list queries (feed pages, a user's posts) go through
// cache.Aside. A nil cache.Store turns caching off without changing any
// code path here.
type PostService struct {
	posts       repository.PostRepository
	cache       cache.Store
	invalidator *cache.Invalidator
	ttl         time.Duration
	logger      *slog.Logger
}

func NewPostService(posts repository.PostRepository, store cache.Store, ttl time.Duration, logger *slog.Logger) *PostService {
	return &PostService{
		posts:       posts,
		cache:       store,
		invalidator: cache.NewInvalidator(store, logger),
		ttl:         ttl,
		logger:      logger,
	}
}

// CreatePost validates the payload against its type and stores it.
//
// PER-TYPE RULES:
//   - text:  content is required, no media
//   - video: at least one media URL; the first one is the video source
//   - image: at least one media URL, shown in order as a carousel
//
// Validation happens once, here. Everything downstream (renderers,
// Post.Body) trusts the stored shape.
func (s *PostService) CreatePost(ctx context.Context, userID string, in CreatePostInput) (*model.Post, error) {
	post, err := buildPost(userID, in)
	if err != nil {
		return nil, err
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.invalidator.PostCreated(ctx, userID)

	s.logger.Info("post created",
		slog.Int64("id", post.ID),
		slog.String("userID", userID),
		slog.String("type", string(post.Type)),
	)

	return post, nil
}

func buildPost(userID string, in CreatePostInput) (*model.Post, error) {
	postType := model.PostType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	if !postType.Valid() {
		return nil, apperror.ValidationFailed("type", "type must be one of video, image, text")
	}

	content := cleanText(in.Content)
	if tooLong(content, MaxPostContentLength) {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxPostContentLength))
	}

	category := strings.ToLower(cleanText(in.Category))
	if tooLong(category, MaxCategoryLength) {
		return nil, apperror.ValidationFailed("category",
			fmt.Sprintf("category must be %d characters or less", MaxCategoryLength))
	}

	media := make([]string, 0, len(in.MediaURLs))
	for _, raw := range in.MediaURLs {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}
		if !isHTTPURL(u) {
			return nil, apperror.ValidationFailed("mediaUrls", "media URLs must be absolute http(s) URLs")
		}
		media = append(media, u)
	}
	if len(media) > MaxMediaURLs {
		return nil, apperror.ValidationFailed("mediaUrls",
			fmt.Sprintf("at most %d media URLs are allowed", MaxMediaURLs))
	}

	switch postType {
	case model.PostTypeText:
		if content == "" {
			return nil, apperror.ValidationFailed("content", "text posts need content")
		}
		media = []string{}
	case model.PostTypeVideo:
		if len(media) == 0 {
			return nil, apperror.ValidationFailed("mediaUrls", "video posts need a video URL")
		}
		media = media[:1]
	case model.PostTypeImage:
		if len(media) == 0 {
			return nil, apperror.ValidationFailed("mediaUrls", "image posts need at least one image URL")
		}
	}

	return &model.Post{
		UserID:    userID,
		Type:      postType,
		Content:   content,
		MediaURLs: media,
		Category:  category,
	}, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// GetPost returns one post with its author fields, or apperror.ErrNotFound.
func (s *PostService) GetPost(ctx context.Context, id int64) (*model.FeedPost, error) {
	return s.posts.GetPost(ctx, id)
}

// ListPosts returns one feed page, newest first.
func (s *PostService) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.FeedPost, error) {
	opts = opts.Normalize()
	fetch := func() ([]model.FeedPost, error) {
		posts, err := s.posts.ListPosts(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("listing posts: %w", err)
		}
		return posts, nil
	}

	if s.cache == nil {
		return fetch()
	}

	gen, err := cache.FeedGeneration(ctx, s.cache)
	if err != nil {
		s.logger.Warn("feed generation unavailable, skipping cache", slog.String("error", err.Error()))
		return fetch()
	}
	return cache.Aside(ctx, s.cache, s.logger, cache.FeedPageKey(gen, opts.Limit, opts.Offset), s.ttl, fetch)
}

// ListUserPosts returns an author's posts, newest first.
func (s *PostService) ListUserPosts(ctx context.Context, userID string) ([]model.FeedPost, error) {
	return cache.Aside(ctx, s.cache, s.logger, cache.UserPostsKey(userID), s.ttl, func() ([]model.FeedPost, error) {
		posts, err := s.posts.ListUserPosts(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("listing posts of %s: %w", userID, err)
		}
		return posts, nil
	})
}

// ListSavedPosts is per-user and changes on every save, so it is not cached.
func (s *PostService) ListSavedPosts(ctx context.Context, userID string) ([]model.FeedPost, error) {
	posts, err := s.posts.ListSavedPosts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing saved posts of %s: %w", userID, err)
	}
	return posts, nil
}
