package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// Key inventory. Every cached key is built by one of these helpers so the
// invalidation code below can find them again.
const (
	feedGenerationKey     = "feed:gen"
	feedPageKeyFormat     = "feed:v%d:limit:%d:offset:%d"
	userPostsKeyFormat    = "user:%s:posts"
	commentsGenerationKey = "comments:gen"
	commentsKeyFormat     = "comments:v%d:post:%d"
)

// FEED GENERATIONS:
// A feed page is cached under a key that contains a generation number.
// Creating a post bumps the generation, which makes every old page key
// unreachable at once; the stale entries then age out via their TTL.
// This avoids scanning Redis for "feed:*" keys to delete.

//
// Comment lists work the same way with their own counter. A comment only
// drops its own post's list, but a profile change has to reach every list
// the user ever commented in, and those are not tracked.

// FeedGeneration reads the current feed generation. A missing counter is
// generation 0.
func FeedGeneration(ctx context.Context, store Store) (int64, error) {
	return generation(ctx, store, feedGenerationKey)
}

// CommentsGeneration reads the current comment-list generation.
func CommentsGeneration(ctx context.Context, store Store) (int64, error) {
	return generation(ctx, store, commentsGenerationKey)
}

func generation(ctx context.Context, store Store, key string) (int64, error) {
	var gen int64
	if _, err := store.Get(ctx, key, &gen); err != nil {
		return 0, err
	}
	return gen, nil
}

func FeedPageKey(gen int64, limit, offset int) string {
	return fmt.Sprintf(feedPageKeyFormat, gen, limit, offset)
}

func UserPostsKey(userID string) string {
	return fmt.Sprintf(userPostsKeyFormat, userID)
}

func PostCommentsKey(gen, postID int64) string {
	return fmt.Sprintf(commentsKeyFormat, gen, postID)
}

// Invalidator groups the invalidation rules so the service layer states
// what happened ("a post was created") rather than which keys to drop.
// A nil store makes every method a no-op.
type Invalidator struct {
	store  Store
	logger *slog.Logger
}

func NewInvalidator(store Store, logger *slog.Logger) *Invalidator {
	return &Invalidator{store: store, logger: logger}
}

// PostCreated drops every feed page and the author's post list.
func (i *Invalidator) PostCreated(ctx context.Context, authorID string) {
	if i.store == nil {
		return
	}
	if _, err := i.store.Incr(ctx, feedGenerationKey); err != nil {
		i.warn("bump feed generation", err)
	}
	if err := i.store.Delete(ctx, UserPostsKey(authorID)); err != nil {
		i.warn("delete user posts", err)
	}
}

// ProfileChanged drops everything that embeds the user's username or
// avatar: every feed page, their own post list, and every comment list.
func (i *Invalidator) ProfileChanged(ctx context.Context, userID string) {
	i.PostCreated(ctx, userID)
	if i.store == nil {
		return
	}
	if _, err := i.store.Incr(ctx, commentsGenerationKey); err != nil {
		i.warn("bump comments generation", err)
	}
}

func (i *Invalidator) CommentCreated(ctx context.Context, postID int64) {
	if i.store == nil {
		return
	}
	gen, err := CommentsGeneration(ctx, i.store)
	if err != nil {
		i.warn("read comments generation", err)
		return
	}
	if err := i.store.Delete(ctx, PostCommentsKey(gen, postID)); err != nil {
		i.warn("delete comments", err)
	}
}

func (i *Invalidator) warn(op string, err error) {
	i.logger.Warn("cache invalidation failed", slog.String("op", op), slog.String("error", err.Error()))
}
