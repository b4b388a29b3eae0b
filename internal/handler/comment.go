package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/faceless/internal/service"
)

type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

// HandleList: GET /api/posts/{postId}/comments
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	postID, err := pathInt64(r, "postId")
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch comments")
		return
	}

	comments, err := h.comments.ListPostComments(r.Context(), postID)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch comments")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

type createCommentRequest struct {
	Content string `json:"content"`
}

// HandleCreate: POST /api/posts/{postId}/comments {"content":"nice"} (RequireAuth)
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to create comment")
		return
	}

	postID, err := pathInt64(r, "postId")
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to create comment")
		return
	}

	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err, "Failed to create comment")
		return
	}

	comment, err := h.comments.CreateComment(r.Context(), userID, postID, req.Content)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to create comment")
		return
	}
	writeJSON(w, http.StatusOK, comment)
}
