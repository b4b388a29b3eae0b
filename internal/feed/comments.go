package feed

import (
	"context"
	"strings"

	"github.com/sakif/faceless/internal/client"
	"github.com/sakif/faceless/internal/model"
)

// CommentOverlay is the comments sheet over the feed.
//
// It only fetches while open: a closed overlay never calls the API, even
// if Comments is called.
type CommentOverlay struct {
	deps   Deps
	open   bool
	postID int64
	input  string
	submit *client.Mutation
}

func NewCommentOverlay(deps Deps) *CommentOverlay {
	return &CommentOverlay{
		deps:   deps,
		submit: deps.mutation("Failed to post comment. Please try again."),
	}
}

func (o *CommentOverlay) Open(postID int64) {
	o.open = true
	o.postID = postID
}

// Close hides the overlay. The draft and the selected post are kept, so
// reopening on the same post picks up where the user left off.
func (o *CommentOverlay) Close() { o.open = false }
func (o *CommentOverlay) IsOpen() bool { return o.open }
func (o *CommentOverlay) PostID() int64 { return o.postID }

// Comments returns the open post's comments, newest first. Closed, it
// returns nil without fetching.
func (o *CommentOverlay) Comments(ctx context.Context) ([]model.CommentView, error) {
	if !o.open || o.postID == 0 {
		return nil, nil
	}
	id := o.postID
	return client.Query(ctx, o.deps.Cache, client.CommentsKey(id), func(ctx context.Context) ([]model.CommentView, error) {
		return o.deps.API.ListComments(ctx, id)
	})
}

func (o *CommentOverlay) SetInput(s string) { o.input = s }
func (o *CommentOverlay) Input() string { return o.input }

// CanSubmit mirrors the Post button: enabled with non-blank input, a
// logged-in user and no submission in flight.
func (o *CommentOverlay) CanSubmit() bool {
	return o.deps.Authenticated && strings.TrimSpace(o.input) != "" && !o.submit.Pending()
}

// HandleKey submits on Enter without Shift. Shift+Enter and every other
// key are left to the input. It reports whether the key was consumed.
func (o *CommentOverlay) HandleKey(ctx context.Context, key string, shift bool) (bool, error) {
	if key != "Enter" || shift {
		return false, nil
	}
	return true, o.Submit(ctx)
}

// Submit posts the trimmed input. Blank input is ignored. On success the
// input is cleared and the comment list invalidated, so the next Comments
// call shows the new comment on top.
func (o *CommentOverlay) Submit(ctx context.Context) error {
	content := strings.TrimSpace(o.input)
	if content == "" || !o.open {
		return nil
	}
	if !o.deps.Authenticated {
		o.deps.notify(client.Notice{
			Title:       "Login required",
			Description: "Please log in to post comments.",
			Destructive: true,
		})
		return ErrDisabled
	}

	id := o.postID
	err := o.submit.Run(ctx, func(ctx context.Context) error {
		_, err := o.deps.API.CreateComment(ctx, id, content)
		return err
	}, client.CommentsKey(id))
	if err != nil {
		return err
	}
	o.input = ""
	return nil
}
