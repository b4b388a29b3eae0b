package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/faceless/internal/service"
)

// RelationHandler serves the like, save and subscribe routes. They all
// share one shape: caller from the token, target from the URL, a small
// status object back.
type RelationHandler struct {
	relations *service.RelationService
	logger    *slog.Logger
}

func NewRelationHandler(relations *service.RelationService, logger *slog.Logger) *RelationHandler {
	return &RelationHandler{relations: relations, logger: logger}
}

// postAction adapts a (user, post) service method into a handler.
//
// GENERICS:
// S is the status type (model.LikeStatus, model.SaveStatus). One adapter
// covers all six post routes instead of six near-identical handlers.
func postAction[S any](h *RelationHandler, fallback string, op func(ctx context.Context, userID string, postID int64) (S, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := sessionUser(r)
		if err != nil {
			writeError(w, r, h.logger, err, fallback)
			return
		}

		postID, err := pathInt64(r, "postId")
		if err != nil {
			writeError(w, r, h.logger, err, fallback)
			return
		}

		status, err := op(r.Context(), userID, postID)
		if err != nil {
			writeError(w, r, h.logger, err, fallback)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// userAction is postAction for the {userId} subscription routes.
func userAction[S any](h *RelationHandler, fallback string, op func(ctx context.Context, subscriberID, targetID string) (S, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subscriberID, err := sessionUser(r)
		if err != nil {
			writeError(w, r, h.logger, err, fallback)
			return
		}
		targetID, err := pathUserID(r)
		if err != nil {
			writeError(w, r, h.logger, err, fallback)
			return
		}

		status, err := op(r.Context(), subscriberID, targetID)
		if err != nil {
			writeError(w, r, h.logger, err, fallback)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// POST /api/posts/{postId}/like → {"success":true,"isLiked":true}
func (h *RelationHandler) HandleLike() http.HandlerFunc {
	return postAction(h, "Failed to like post", h.relations.Like)
}

// DELETE /api/posts/{postId}/like → {"success":true,"isLiked":false}
func (h *RelationHandler) HandleUnlike() http.HandlerFunc {
	return postAction(h, "Failed to unlike post", h.relations.Unlike)
}

// GET /api/posts/{postId}/like-status → {"isLiked":bool}
func (h *RelationHandler) HandleLikeStatus() http.HandlerFunc {
	return postAction(h, "Failed to check like status", h.relations.LikeStatus)
}

func (h *RelationHandler) HandleSave() http.HandlerFunc {
	return postAction(h, "Failed to save post", h.relations.Save)
}

func (h *RelationHandler) HandleUnsave() http.HandlerFunc {
	return postAction(h, "Failed to unsave post", h.relations.Unsave)
}

func (h *RelationHandler) HandleSaveStatus() http.HandlerFunc {
	return postAction(h, "Failed to check save status", h.relations.SaveStatus)
}

// POST /api/users/{userId}/subscribe → {"success":true,"isSubscribed":true}
func (h *RelationHandler) HandleSubscribe() http.HandlerFunc {
	return userAction(h, "Failed to subscribe", h.relations.Subscribe)
}

func (h *RelationHandler) HandleUnsubscribe() http.HandlerFunc {
	return userAction(h, "Failed to unsubscribe", h.relations.Unsubscribe)
}

// GET /api/users/{userId}/subscription-status → {"isSubscribed":bool}
func (h *RelationHandler) HandleSubscriptionStatus() http.HandlerFunc {
	return userAction(h, "Failed to check subscription", h.relations.SubscriptionStatus)
}
