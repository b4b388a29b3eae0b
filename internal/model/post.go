package model

import (
	"fmt"
	"time"
)

// PostType is the closed set of post kinds. The type is fixed at creation.
type PostType string

const (
	PostTypeVideo PostType = "video"
	PostTypeImage PostType = "image"
	PostTypeText  PostType = "text"
)

// Valid reports whether t is one of the three known post types.
func (t PostType) Valid() bool {
	switch t {
	case PostTypeVideo, PostTypeImage, PostTypeText:
		return true
	}
	return false
}

// Post is a published item in the feed.
//
// MediaURLs is ordered: for a video the first entry is the source, for an
// image post the order is the carousel order. It is never nil once a Post
// leaves the repository, so it always serialises as [] rather than null.
type Post struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Type      PostType  `json:"type"`
	Content   string    `json:"content"`
	MediaURLs []string  `json:"mediaUrls"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedPost is a Post plus its author's display fields (a LEFT JOIN on users).
//
// EMBEDDING + JSON:
// encoding/json flattens embedded struct fields, so the wire shape is
// {"id":..,"userId":..,...,"username":..,"profileImageUrl":..}. No nesting.
type FeedPost struct {
	Post
	Username        string `json:"username"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// Body is the type-specific payload of a post.
//
// SEALED INTERFACE:
// The unexported isBody method means only this package can add variants.
// A type switch over Body therefore only ever sees the three cases below.
type Body interface {
	isBody()
}

// VideoBody is a single playable source.
type VideoBody struct {
	SourceURL string
}

// ImageBody is an ordered carousel.
type ImageBody struct {
	ImageURLs []string
}

// TextBody is caption-only content with no media.
type TextBody struct {
	Text string
}

func (VideoBody) isBody() {}
func (ImageBody) isBody() {}
func (TextBody) isBody()  {}

// Body returns the variant payload for the post's type.
//
// Payloads are validated when a post is created, so a stored video post
// always has a source. A post that somehow has none still returns a
// VideoBody with an empty SourceURL instead of panicking.
func (p Post) Body() (Body, error) {
	switch p.Type {
	case PostTypeVideo:
		var src string
		if len(p.MediaURLs) > 0 {
			src = p.MediaURLs[0]
		}
		return VideoBody{SourceURL: src}, nil
	case PostTypeImage:
		urls := make([]string, len(p.MediaURLs))
		copy(urls, p.MediaURLs)
		return ImageBody{ImageURLs: urls}, nil
	case PostTypeText:
		return TextBody{Text: p.Content}, nil
	}
	return nil, fmt.Errorf("model: unknown post type %q", p.Type)
}
