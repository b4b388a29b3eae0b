package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/faceless/internal/client"
	"github.com/sakif/faceless/internal/model"
)

// ErrDisabled is returned by actions that need a logged-in user when
// there is none.
var ErrDisabled = errors.New("feed: action requires login")

// Status is the viewer's relationship to a post.
type Status struct {
	Liked bool
	Saved bool
}

// ActionBar is the column of buttons beside a post: like, comments, save,
// share.
//
// TOGGLES:
// A toggle reads the current status from the query cache, sends POST to
// establish or DELETE to remove, then invalidates the status key. The next
// Status call refetches, so the bar always shows what the server says.
type ActionBar struct {
	deps           Deps
	post           model.FeedPost
	onOpenComments func(postID int64)

	like *client.Mutation
	save *client.Mutation
}

func NewActionBar(deps Deps, post model.FeedPost, onOpenComments func(postID int64)) *ActionBar {
	return &ActionBar{
		deps:           deps,
		post:           post,
		onOpenComments: onOpenComments,
		like:           deps.mutation("Failed to update like. Please try again."),
		save:           deps.mutation("Failed to update save status. Please try again."),
	}
}

// Status fetches like and save status through the shared cache. Logged
// out, nothing is fetched and both are false.
func (b *ActionBar) Status(ctx context.Context) (Status, error) {
	if !b.deps.Authenticated {
		return Status{}, nil
	}

	like, err := b.likeStatus(ctx)
	if err != nil {
		return Status{}, err
	}
	save, err := b.saveStatus(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Liked: like.IsLiked, Saved: save.IsSaved}, nil
}

// LikeDisabled and SaveDisabled mirror the buttons' disabled attribute.
func (b *ActionBar) LikeDisabled() bool { return !b.deps.Authenticated || b.like.Pending() }
func (b *ActionBar) SaveDisabled() bool { return !b.deps.Authenticated || b.save.Pending() }

// ToggleLike likes an unliked post and unlikes a liked one.
func (b *ActionBar) ToggleLike(ctx context.Context) error {
	if !b.deps.Authenticated {
		return ErrDisabled
	}
	current, err := b.likeStatus(ctx)
	if err != nil {
		return err
	}

	id := b.post.ID
	return b.like.Run(ctx, func(ctx context.Context) error {
		var err error
		if current.IsLiked {
			_, err = b.deps.API.Unlike(ctx, id)
		} else {
			_, err = b.deps.API.Like(ctx, id)
		}
		return err
	}, client.LikeStatusKey(id))
}

// ToggleSave saves or unsaves the post and confirms with a notice.
func (b *ActionBar) ToggleSave(ctx context.Context) error {
	if !b.deps.Authenticated {
		return ErrDisabled
	}
	current, err := b.saveStatus(ctx)
	if err != nil {
		return err
	}

	id := b.post.ID
	err = b.save.Run(ctx, func(ctx context.Context) error {
		var err error
		if current.IsSaved {
			_, err = b.deps.API.Unsave(ctx, id)
		} else {
			_, err = b.deps.API.Save(ctx, id)
		}
		return err
	}, client.SaveStatusKey(id), client.SavedPostsKey)
	if err != nil {
		return err
	}

	if current.IsSaved {
		b.deps.notify(client.Notice{Title: "Unsaved", Description: "Post removed from saved items."})
	} else {
		b.deps.notify(client.Notice{Title: "Saved", Description: "Post saved successfully."})
	}
	return nil
}

// OpenComments asks the feed to open the overlay for this post. It works
// logged out: reading comments is public.
func (b *ActionBar) OpenComments() {
	if b.onOpenComments != nil {
		b.onOpenComments(b.post.ID)
	}
}

// Share hands the post to the native share sheet, or copies its link
// when there is none.
func (b *ActionBar) Share() error {
	author := "@" + b.post.Username
	if b.post.Username == "" {
		author = "@unknown"
	}
	url := b.deps.API.PostURL(b.post.ID)

	if b.deps.Sharer != nil {
		text := b.post.Content
		if text == "" {
			text = "Check out this post by " + author
		}
		return b.deps.Sharer.Share(ShareData{Title: "Post by " + author, Text: text, URL: url})
	}

	if b.deps.Clipboard == nil {
		return fmt.Errorf("feed: no share target for %s", url)
	}
	if err := b.deps.Clipboard.WriteText(url); err != nil {
		return fmt.Errorf("feed: copying link: %w", err)
	}
	b.deps.notify(client.Notice{Title: "Link copied", Description: "Post link copied to clipboard."})
	return nil
}

func (b *ActionBar) likeStatus(ctx context.Context) (model.LikeStatus, error) {
	id := b.post.ID
	return client.Query(ctx, b.deps.Cache, client.LikeStatusKey(id), func(ctx context.Context) (model.LikeStatus, error) {
		return b.deps.API.LikeStatus(ctx, id)
	})
}

func (b *ActionBar) saveStatus(ctx context.Context) (model.SaveStatus, error) {
	id := b.post.ID
	return client.Query(ctx, b.deps.Cache, client.SaveStatusKey(id), func(ctx context.Context) (model.SaveStatus, error) {
		return b.deps.API.SaveStatus(ctx, id)
	})
}
