// Package client is the headless data layer for Faceless front ends.
//
// It has three parts:
//   - Client: typed calls for every API route
//   - QueryCache: a URL-keyed cache of query results with request
//     de-duplication, watchers and invalidation
//   - Mutation: the idle → pending → settled → idle state machine every
//     write goes through
//
// The feed package builds its view state on top of these, and cmd/feedctl
// drives the whole stack from a terminal.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/faceless/internal/model"
)

// Client talks to the Faceless REST API.
//
// AUTHENTICATION:
// Browsers carry the JWT in the "token" cookie. A headless client has no
// cookie jar by default, so Client sends the token as a Bearer header
// instead. The server accepts either.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken starts the client with an existing session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the session token. An empty token logs the client out.
func (c *Client) SetToken(token string) { c.token = token }

// Authenticated reports whether the client holds a token. It does not
// check the token with the server: an expired token surfaces as a 401 on
// the next protected call.
func (c *Client) Authenticated() bool { return c.token != "" }

// PostURL is the shareable link for a post.
func (c *Client) PostURL(postID int64) string {
	return c.baseURL + "/posts/" + strconv.FormatInt(postID, 10)
}

// LoginURL is where a browser goes to start the OIDC flow.
func (c *Client) LoginURL() string { return c.baseURL + "/api/login" }

// =========================================================================
// SESSION
// =========================================================================

// LoginResult is the body of POST /api/dev/login.
type LoginResult struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// DevLogin creates a session without an identity provider and keeps its
// token. Only works against a server started with AUTH_DEV_LOGIN.
func (c *Client) DevLogin(ctx context.Context, id, email string) (*LoginResult, error) {
	body := map[string]string{"id": id, "email": email}
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/dev/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
	c.token = ""
	return err
}

func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, CurrentUserKey, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodPatch, CurrentUserKey, upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =========================================================================
// POSTS & COMMENTS
// =========================================================================

// NewPost is the body of POST /api/posts.
type NewPost struct {
	Type      model.PostType `json:"type"`
	Content   string         `json:"content,omitempty"`
	Category  string         `json:"category,omitempty"`
	MediaURLs []string       `json:"mediaUrls,omitempty"`
}

// ListPosts fetches a feed page. Zero limit and offset leave the choice
// to the server (20 newest posts).
func (c *Client) ListPosts(ctx context.Context, limit, offset int) ([]model.FeedPost, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := FeedKey
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	return call[[]model.FeedPost](ctx, c, http.MethodGet, path)
}

func (c *Client) GetPost(ctx context.Context, postID int64) (*model.FeedPost, error) {
	var out model.FeedPost
	if err := c.do(ctx, http.MethodGet, postPath(postID, ""), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePost(ctx context.Context, in NewPost) (*model.Post, error) {
	var out model.Post
	if err := c.do(ctx, http.MethodPost, FeedKey, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUserPosts(ctx context.Context, userID string) ([]model.FeedPost, error) {
	return call[[]model.FeedPost](ctx, c, http.MethodGet, UserPostsKey(userID))
}

func (c *Client) ListSavedPosts(ctx context.Context) ([]model.FeedPost, error) {
	return call[[]model.FeedPost](ctx, c, http.MethodGet, SavedPostsKey)
}

func (c *Client) ListComments(ctx context.Context, postID int64) ([]model.CommentView, error) {
	return call[[]model.CommentView](ctx, c, http.MethodGet, CommentsKey(postID))
}

func (c *Client) CreateComment(ctx context.Context, postID int64, content string) (*model.Comment, error) {
	var out model.Comment
	if err := c.do(ctx, http.MethodPost, CommentsKey(postID), map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =========================================================================
// RELATIONSHIPS
// =========================================================================

func (c *Client) Like(ctx context.Context, postID int64) (model.LikeStatus, error) {
	return call[model.LikeStatus](ctx, c, http.MethodPost, postPath(postID, "/like"))
}

func (c *Client) Unlike(ctx context.Context, postID int64) (model.LikeStatus, error) {
	return call[model.LikeStatus](ctx, c, http.MethodDelete, postPath(postID, "/like"))
}

func (c *Client) LikeStatus(ctx context.Context, postID int64) (model.LikeStatus, error) {
	return call[model.LikeStatus](ctx, c, http.MethodGet, LikeStatusKey(postID))
}

func (c *Client) Save(ctx context.Context, postID int64) (model.SaveStatus, error) {
	return call[model.SaveStatus](ctx, c, http.MethodPost, postPath(postID, "/save"))
}

func (c *Client) Unsave(ctx context.Context, postID int64) (model.SaveStatus, error) {
	return call[model.SaveStatus](ctx, c, http.MethodDelete, postPath(postID, "/save"))
}

func (c *Client) SaveStatus(ctx context.Context, postID int64) (model.SaveStatus, error) {
	return call[model.SaveStatus](ctx, c, http.MethodGet, SaveStatusKey(postID))
}

func (c *Client) Subscribe(ctx context.Context, userID string) (model.SubscriptionStatus, error) {
	return call[model.SubscriptionStatus](ctx, c, http.MethodPost, userPath(userID, "/subscribe"))
}

func (c *Client) Unsubscribe(ctx context.Context, userID string) (model.SubscriptionStatus, error) {
	return call[model.SubscriptionStatus](ctx, c, http.MethodDelete, userPath(userID, "/subscribe"))
}

func (c *Client) SubscriptionStatus(ctx context.Context, userID string) (model.SubscriptionStatus, error) {
	return call[model.SubscriptionStatus](ctx, c, http.MethodGet, SubscriptionStatusKey(userID))
}

// call is do for bodiless requests that return a small value type.
func call[T any](ctx context.Context, c *Client, method, path string) (T, error) {
	var out T
	err := c.do(ctx, method, path, nil, &out)
	return out, err
}

// =========================================================================
// TRANSPORT
// =========================================================================

// do sends one request. body (if non-nil) is sent as JSON; a 2xx response
// is decoded into out (if non-nil); anything else becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding %s %s: %w", method, path, err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("client: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decoding %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if json.Unmarshal(raw, &envelope) == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
