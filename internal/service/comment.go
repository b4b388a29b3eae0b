package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/cache"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
)

const MaxCommentLength = 1000

type CommentService struct {
	comments    repository.CommentRepository
	posts       repository.PostRepository
	cache       cache.Store
	invalidator *cache.Invalidator
	ttl         time.Duration
	logger      *slog.Logger
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	store cache.Store,
	ttl time.Duration,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{
		comments:    comments,
		posts:       posts,
		cache:       store,
		invalidator: cache.NewInvalidator(store, logger),
		ttl:         ttl,
		logger:      logger,
	}
}

// CreateComment adds a comment to an existing post.
// The content is sanitized, trimmed and must not end up empty.
func (s *CommentService) CreateComment(ctx context.Context, userID string, postID int64, content string) (*model.Comment, error) {
	content = cleanText(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment content is required")
	}
	if tooLong(content, MaxCommentLength) {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	// Checked up front so a missing post is a 404, not a foreign-key error.
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &model.Comment{UserID: userID, PostID: postID, Content: content}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		s.logger.Error("failed to create comment",
			slog.Int64("postID", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.invalidator.CommentCreated(ctx, postID)
	return comment, nil
}

// ListPostComments returns a post's comments, newest first. An unknown post
// simply has no comments.
func (s *CommentService) ListPostComments(ctx context.Context, postID int64) ([]model.CommentView, error) {
	fetch := func() ([]model.CommentView, error) {
		comments, err := s.comments.ListPostComments(ctx, postID)
		if err != nil {
			return nil, fmt.Errorf("listing comments of post %d: %w", postID, err)
		}
		return comments, nil
	}

	if s.cache == nil {
		return fetch()
	}

	gen, err := cache.CommentsGeneration(ctx, s.cache)
	if err != nil {
		s.logger.Warn("comments generation unavailable, skipping cache", slog.String("error", err.Error()))
		return fetch()
	}
	return cache.Aside(ctx, s.cache, s.logger, cache.PostCommentsKey(gen, postID), s.ttl, fetch)
}
