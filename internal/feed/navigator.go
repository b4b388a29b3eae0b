package feed

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sakif/faceless/internal/client"
	"github.com/sakif/faceless/internal/model"
)

// Navigator is the vertical feed: one active post at a time out of an
// ordered list.
//
// STATE:
//   - posts: loaded through the query cache under client.FeedKey
//   - index: the active post, always in [0, len(posts)-1] (0 when empty)
//   - the comment overlay: its open flag and selected post id
//
// Each post gets its own Renderer and ActionBar, created on first use and
// kept so carousel position and play/pause survive scrolling away and back.
type Navigator struct {
	deps  Deps
	posts []model.FeedPost
	index int

	overlay   *CommentOverlay
	renderers map[int64]Renderer
	bars      map[int64]*ActionBar

	// stale is set by the cache watcher when the feed key is invalidated
	// (e.g. after creating a post); the next Current reloads.
	stale     atomic.Bool
	stopWatch func()
}

func NewNavigator(deps Deps) *Navigator {
	n := &Navigator{
		deps:      deps,
		overlay:   NewCommentOverlay(deps),
		renderers: make(map[int64]Renderer),
		bars:      make(map[int64]*ActionBar),
	}
	n.stopWatch = deps.Cache.Watch(client.FeedKey, func() { n.stale.Store(true) })
	return n
}

// Close stops watching the cache.
func (n *Navigator) Close() { n.stopWatch() }

// Load fetches the feed (or takes it from the cache). The active index is
// clamped to the new list, so a shorter feed never leaves it dangling.
func (n *Navigator) Load(ctx context.Context) error {
	posts, err := client.Query(ctx, n.deps.Cache, client.FeedKey, func(ctx context.Context) ([]model.FeedPost, error) {
		return n.deps.API.ListPosts(ctx, 0, 0)
	})
	if err != nil {
		return fmt.Errorf("feed: loading posts: %w", err)
	}

	n.stale.Store(false)
	n.posts = posts
	n.index = clamp(n.index, len(posts))
	return nil
}

func (n *Navigator) Posts() []model.FeedPost { return n.posts }
func (n *Navigator) Index() int { return n.index }

// Wheel moves one post per event: positive delta forward, negative back,
// zero nowhere. The ends are hard stops, not wrap-arounds.
func (n *Navigator) Wheel(deltaY float64) {
	switch {
	case deltaY > 0 && n.index < len(n.posts)-1:
		n.index++
	case deltaY < 0 && n.index > 0:
		n.index--
	}
}

// Active returns the active post, or false for an empty feed.
func (n *Navigator) Active() (model.FeedPost, bool) {
	if len(n.posts) == 0 {
		return model.FeedPost{}, false
	}
	return n.posts[n.index], true
}

func (n *Navigator) IsActive(i int) bool { return i == n.index && len(n.posts) > 0 }

// =========================================================================
// COMMENTS
// =========================================================================

func (n *Navigator) OpenComments(postID int64) { n.overlay.Open(postID) }
func (n *Navigator) CloseComments() { n.overlay.Close() }
func (n *Navigator) CommentsOpen() bool { return n.overlay.IsOpen() }
func (n *Navigator) Overlay() *CommentOverlay { return n.overlay }

// SelectedPost is the post the overlay was last opened for.
func (n *Navigator) SelectedPost() (int64, bool) {
	id := n.overlay.PostID()
	return id, id != 0
}

// =========================================================================
// RENDERING
// =========================================================================

// Frame is everything shown for the active post.
type Frame struct {
	View   View
	Status Status
}

// Views renders every post. Exactly one (the active one) is rendered with
// isActive=true, which is what starts its video and stops all others.
func (n *Navigator) Views() ([]View, error) {
	views := make([]View, 0, len(n.posts))
	for i, post := range n.posts {
		r, err := n.Renderer(post)
		if err != nil {
			return nil, err
		}
		views = append(views, r.Render(post, i == n.index))
	}
	return views, nil
}

// Current reloads the feed if it went stale, renders all posts and returns
// the active one's frame. ok is false for an empty feed.
func (n *Navigator) Current(ctx context.Context) (frame Frame, ok bool, err error) {
	if n.posts == nil || n.stale.Load() {
		if err := n.Load(ctx); err != nil {
			return Frame{}, false, err
		}
	}

	views, err := n.Views()
	if err != nil || len(views) == 0 {
		return Frame{}, false, err
	}

	post := n.posts[n.index]
	status, err := n.ActionBar(post).Status(ctx)
	if err != nil {
		return Frame{}, false, err
	}
	return Frame{View: views[n.index], Status: status}, true, nil
}

// Renderer returns the post's renderer, creating it on first use.
func (n *Navigator) Renderer(post model.FeedPost) (Renderer, error) {
	if r, ok := n.renderers[post.ID]; ok {
		return r, nil
	}
	r, err := RendererFor(post)
	if err != nil {
		return nil, fmt.Errorf("feed: post %d: %w", post.ID, err)
	}
	n.renderers[post.ID] = r
	return r, nil
}

// ActionBar returns the post's action bar, creating it on first use.
func (n *Navigator) ActionBar(post model.FeedPost) *ActionBar {
	if b, ok := n.bars[post.ID]; ok {
		return b
	}
	b := NewActionBar(n.deps, post, n.OpenComments)
	n.bars[post.ID] = b
	return b
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
