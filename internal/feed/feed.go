// Package feed holds the view state of the vertical feed: which post is
// active, how each post type renders, the action bar beside every post and
// the comment overlay. The profile page and the post composer live here
// too, since their writes change what the feed shows.
//
// Nothing here draws anything. Each component is a small state machine a
// front end (cmd/feedctl, or a test) drives by calling methods and reading
// back a View.
package feed

import (
	"context"
	"time"

	"github.com/sakif/faceless/internal/client"
	"github.com/sakif/faceless/internal/model"
)

// API is the subset of *client.Client the feed uses.
type API interface {
	ListPosts(ctx context.Context, limit, offset int) ([]model.FeedPost, error)

	LikeStatus(ctx context.Context, postID int64) (model.LikeStatus, error)
	Like(ctx context.Context, postID int64) (model.LikeStatus, error)
	Unlike(ctx context.Context, postID int64) (model.LikeStatus, error)

	SaveStatus(ctx context.Context, postID int64) (model.SaveStatus, error)
	Save(ctx context.Context, postID int64) (model.SaveStatus, error)
	Unsave(ctx context.Context, postID int64) (model.SaveStatus, error)

	ListComments(ctx context.Context, postID int64) ([]model.CommentView, error)
	CreateComment(ctx context.Context, postID int64, content string) (*model.Comment, error)

	CreatePost(ctx context.Context, in client.NewPost) (*model.Post, error)
	ListUserPosts(ctx context.Context, userID string) ([]model.FeedPost, error)

	CurrentUser(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error)

	SubscriptionStatus(ctx context.Context, userID string) (model.SubscriptionStatus, error)
	Subscribe(ctx context.Context, userID string) (model.SubscriptionStatus, error)
	Unsubscribe(ctx context.Context, userID string) (model.SubscriptionStatus, error)

	PostURL(postID int64) string
}

var _ API = (*client.Client)(nil)

// ShareData is what a native share sheet receives.
type ShareData struct {
	Title string
	Text  string
	URL   string
}

// Sharer is a platform share sheet.
type Sharer interface {
	Share(ShareData) error
}

// Clipboard is the fallback when there is no Sharer.
type Clipboard interface {
	WriteText(string) error
}

// Deps are shared by every component of one feed.
//
// Authenticated gates the action bar and the comment input on the client
// side. The server enforces the same rule with a 401 either way.
type Deps struct {
	API            API
	Cache          *client.QueryCache
	Notifier       client.Notifier
	OnUnauthorized func()
	Authenticated  bool

	Sharer    Sharer    // optional
	Clipboard Clipboard // optional

	// AfterFunc schedules the login redirect after a 401. Nil means
	// time.AfterFunc.
	AfterFunc func(time.Duration, func())
}

func (d Deps) notify(n client.Notice) {
	if d.Notifier != nil {
		d.Notifier.Notify(n)
	}
}

func (d Deps) mutation(failure string) *client.Mutation {
	return client.NewMutation(client.MutationOptions{
		Cache:          d.Cache,
		Notifier:       d.Notifier,
		FailureMessage: failure,
		OnUnauthorized: d.OnUnauthorized,
		AfterFunc:      d.AfterFunc,
	})
}
