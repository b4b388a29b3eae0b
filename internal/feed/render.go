package feed

import (
	"unicode"

	"github.com/sakif/faceless/internal/model"
)

// View is the rendered state of one post.
type View struct {
	PostID   int64
	Type     model.PostType
	Author   string // "@username", or "@unknown" for users without one
	Avatar   string // profile image URL, or the author's initial
	Category string // "#travel", empty when the post has none
	Caption  string
	Active   bool

	// Media is the URL currently on screen: the video source, or the
	// carousel's current image. Empty with Placeholder set when missing.
	Media       string
	Placeholder string

	// Carousel position. MediaCount is 0 for text and video posts.
	MediaIndex int
	MediaCount int

	Playing bool // video only
}

// Renderer draws one post. Renderers keep per-post state (play/pause,
// carousel position) between calls, so the feed keeps one per post.
type Renderer interface {
	Render(post model.FeedPost, isActive bool) View
}

// RendererFor picks the renderer variant for the post's type.
//
// The type switch is over model.Body, a sealed interface: the three cases
// below are the only ones that can occur.
func RendererFor(post model.FeedPost) (Renderer, error) {
	body, err := post.Body()
	if err != nil {
		return nil, err
	}
	switch body.(type) {
	case model.VideoBody:
		return &VideoRenderer{}, nil
	case model.ImageBody:
		return &ImageRenderer{}, nil
	default:
		return TextRenderer{}, nil
	}
}

func baseView(post model.FeedPost, isActive bool) View {
	v := View{
		PostID:  post.ID,
		Type:    post.Type,
		Author:  "@unknown",
		Avatar:  post.ProfileImageURL,
		Caption: post.Content,
		Active:  isActive,
	}
	if post.Username != "" {
		v.Author = "@" + post.Username
	}
	if v.Avatar == "" {
		v.Avatar = initial(post.Username)
	}
	if post.Category != "" {
		v.Category = "#" + post.Category
	}
	return v
}

func bodyOf(post model.FeedPost) model.Body {
	body, _ := post.Body()
	return body
}

func initial(username string) string {
	for _, r := range username {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// =========================================================================
// VIDEO
// =========================================================================

// VideoRenderer plays while its post is active and pauses otherwise.
// Toggle flips play/pause, like a click on the video.
type VideoRenderer struct {
	active  bool
	playing bool
}

func (r *VideoRenderer) Render(post model.FeedPost, isActive bool) View {
	// Becoming active starts playback; becoming inactive stops it. In
	// between, the user's Toggle decides.
	if isActive != r.active {
		r.active = isActive
		r.playing = isActive
	}

	v := baseView(post, isActive)
	if body, ok := bodyOf(post).(model.VideoBody); ok {
		v.Media = body.SourceURL
	}
	if v.Media == "" {
		v.Placeholder = "Video not available"
		r.playing = false
	}
	v.Playing = r.playing
	return v
}

// Toggle flips play/pause. It does nothing on an inactive post, which is
// off screen.
func (r *VideoRenderer) Toggle() {
	if r.active {
		r.playing = !r.playing
	}
}

func (r *VideoRenderer) Playing() bool { return r.playing }

// =========================================================================
// IMAGE CAROUSEL
// =========================================================================

// ImageRenderer shows one image at a time; Next and Prev wrap around.
type ImageRenderer struct {
	index int
	count int
}

func (r *ImageRenderer) Render(post model.FeedPost, isActive bool) View {
	v := baseView(post, isActive)

	r.count = len(post.MediaURLs)
	if r.count == 0 {
		r.index = 0
		v.Placeholder = "Images not available"
		return v
	}
	if r.index >= r.count {
		r.index = 0
	}

	v.Media = post.MediaURLs[r.index]
	v.MediaIndex = r.index
	v.MediaCount = r.count
	return v
}

// Next advances to the following image, wrapping from the last to the
// first. With no images it does nothing.
func (r *ImageRenderer) Next() {
	if r.count > 0 {
		r.index = (r.index + 1) % r.count
	}
}

// Prev goes back one image, wrapping from the first to the last.
func (r *ImageRenderer) Prev() {
	if r.count > 0 {
		r.index = (r.index - 1 + r.count) % r.count
	}
}

func (r *ImageRenderer) Index() int { return r.index }

// =========================================================================
// TEXT
// =========================================================================

// TextRenderer is static: caption only, no media.
type TextRenderer struct{}

func (TextRenderer) Render(post model.FeedPost, isActive bool) View {
	return baseView(post, isActive)
}
