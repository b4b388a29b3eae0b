package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/faceless/internal/service"
)

// PostHandler serves the feed and post creation.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

// HandleList returns one feed page, newest first.
//
// HTTP: GET /api/posts?limit=20&offset=0
//
// RESPONSE FORMAT (flat, author fields joined in):
//
//	[{"id":3,"userId":"u1","type":"text","content":"hi","mediaUrls":[],
//	  "category":"","createdAt":"...","username":"ada","profileImageUrl":"..."}]
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListPosts(r.Context(), listOptions(r))
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGet returns a single post.
//
// HTTP: GET /api/posts/{postId}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	postID, err := pathInt64(r, "postId")
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch post")
		return
	}

	post, err := h.posts.GetPost(r.Context(), postID)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleCreate creates a post owned by the caller.
//
// HTTP: POST /api/posts (RequireAuth)
// REQUEST BODY: {"type":"image","content":"","category":"travel","mediaUrls":["https://..."]}
//
// The author always comes from the token; a userId in the body is ignored.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to create post")
		return
	}

	var in service.CreatePostInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err, "Failed to create post")
		return
	}

	post, err := h.posts.CreatePost(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to create post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleListUserPosts returns an author's posts.
//
// HTTP: GET /api/users/{userId}/posts
func (h *PostHandler) HandleListUserPosts(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch user posts")
		return
	}

	posts, err := h.posts.ListUserPosts(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch user posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleListSaved returns the caller's saved posts, most recently saved first.
//
// HTTP: GET /api/auth/user/saved-posts (RequireAuth)
func (h *PostHandler) HandleListSaved(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch saved posts")
		return
	}

	posts, err := h.posts.ListSavedPosts(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch saved posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}
