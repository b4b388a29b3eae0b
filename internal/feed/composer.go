package feed

import (
	"context"
	"errors"
	"strings"

	"github.com/sakif/faceless/internal/client"
	"github.com/sakif/faceless/internal/model"
)

// ErrIncompleteDraft is returned by Publish when the draft would be
// rejected by the server anyway. The reason has already been notified.
var ErrIncompleteDraft = errors.New("feed: draft is incomplete")

// Composer is the create-post form.
//
// PUBLISHING:
// The same rules the server enforces are checked first so the user gets
// a specific message instead of a generic failure: text posts need
// content, video and image posts need media. After a successful publish
// the feed and the author's post list are invalidated, which makes an open
// Navigator reload on its next frame.
type Composer struct {
	deps   Deps
	create *client.Mutation

	postType model.PostType
	content  string
	category string
	media    []string
}

func NewComposer(deps Deps) *Composer {
	return &Composer{
		deps:     deps,
		create:   deps.mutation("Failed to create post. Please try again."),
		postType: model.PostTypeVideo,
	}
}

func (c *Composer) SetType(t model.PostType) { c.postType = t }
func (c *Composer) SetContent(s string) { c.content = s }
func (c *Composer) SetCategory(s string) { c.category = s }
func (c *Composer) AddMedia(url string) { c.media = append(c.media, url) }
func (c *Composer) Pending() bool { return c.create.Pending() }

// Draft is the request Publish would send.
func (c *Composer) Draft() client.NewPost {
	return client.NewPost{
		Type:      c.postType,
		Content:   strings.TrimSpace(c.content),
		Category:  c.category,
		MediaURLs: append([]string(nil), c.media...),
	}
}

// Publish creates the post and resets the form. On failure the draft is
// kept.
func (c *Composer) Publish(ctx context.Context) (*model.Post, error) {
	if !c.deps.Authenticated {
		return nil, ErrDisabled
	}

	draft := c.Draft()
	if msg := draftProblem(draft); msg != "" {
		c.deps.notify(client.Notice{Title: "Error", Description: msg, Destructive: true})
		return nil, ErrIncompleteDraft
	}

	var created *model.Post
	err := c.create.Run(ctx, func(ctx context.Context) error {
		var err error
		created, err = c.deps.API.CreatePost(ctx, draft)
		return err
	}, client.FeedKey)
	if err != nil {
		return nil, err
	}

	// The author's ID is only known from the response.
	if c.deps.Cache != nil {
		c.deps.Cache.Invalidate(client.UserPostsKey(created.UserID))
	}

	c.content, c.category, c.media = "", "", nil
	c.deps.notify(client.Notice{Title: "Post created", Description: "Your post has been published successfully."})
	return created, nil
}

func draftProblem(p client.NewPost) string {
	switch p.Type {
	case model.PostTypeText:
		if p.Content == "" {
			return "Please add some content to your post."
		}
	case model.PostTypeVideo:
		if len(p.MediaURLs) == 0 {
			return "Please select a video to upload."
		}
	case model.PostTypeImage:
		if len(p.MediaURLs) == 0 {
			return "Please select images to upload."
		}
	default:
		return "Please choose a post type."
	}
	return ""
}
