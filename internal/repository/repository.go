// Package repository declares the persistence interfaces.
//
// The service layer depends only on these interfaces. Concrete backends live
// in sub-packages (sqlite, postgres) and every one of them is checked by the
// shared conformance suite in repotest.
//
// ERROR CONTRACT:
//   - a lookup that finds nothing returns apperror.ErrNotFound
//   - a unique-key clash on a profile update returns apperror.ErrConflict
//   - everything else is a wrapped storage error (not classified)
//
// Establish operations (Like, Save, Subscribe) and remove operations
// (Unlike, Unsave, Unsubscribe) are idempotent: doing one twice has the same
// effect as doing it once.
package repository

import (
	"context"

	"github.com/sakif/faceless/internal/model"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize applies the default page size and clamps both fields.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

type UserRepository interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	// UpsertUser inserts by id or refreshes the identity fields of an existing
	// row. Username and Bio are never touched by an upsert.
	UpsertUser(ctx context.Context, user *model.User) error
	UpdateUserProfile(ctx context.Context, id string, upd model.ProfileUpdate) (*model.User, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id int64) (*model.FeedPost, error)
	ListPosts(ctx context.Context, opts ListOptions) ([]model.FeedPost, error)
	ListUserPosts(ctx context.Context, userID string) ([]model.FeedPost, error)
	// ListSavedPosts is ordered by when the post was saved, newest first.
	ListSavedPosts(ctx context.Context, userID string) ([]model.FeedPost, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	ListPostComments(ctx context.Context, postID int64) ([]model.CommentView, error)
}

type RelationRepository interface {
	Subscribe(ctx context.Context, subscriberID, subscribedToID string) error
	Unsubscribe(ctx context.Context, subscriberID, subscribedToID string) error
	IsSubscribed(ctx context.Context, subscriberID, subscribedToID string) (bool, error)

	LikePost(ctx context.Context, userID string, postID int64) error
	UnlikePost(ctx context.Context, userID string, postID int64) error
	IsPostLiked(ctx context.Context, userID string, postID int64) (bool, error)

	SavePost(ctx context.Context, userID string, postID int64) error
	UnsavePost(ctx context.Context, userID string, postID int64) error
	IsPostSaved(ctx context.Context, userID string, postID int64) (bool, error)
}

// Store is everything a backend provides. Both sqlite.DB and postgres.DB
// satisfy it.
type Store interface {
	UserRepository
	PostRepository
	CommentRepository
	RelationRepository
	Close() error
}
