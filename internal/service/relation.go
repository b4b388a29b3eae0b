package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
)

// RelationService handles likes, saves and subscriptions.
//
// IDEMPOTENT TOGGLES:
// The repository's establish/remove operations are idempotent, so the
// service never reads the current state before writing. Liking twice
// returns {success:true,isLiked:true} both times.
//
// EXISTENCE:
// Establishing a relation with a missing post or user is a 404. Removing one
// and reading a status never are: "not liked" is the honest answer for a
// post that does not exist.
type RelationService struct {
	relations repository.RelationRepository
	posts     repository.PostRepository
	users     repository.UserRepository
	logger    *slog.Logger
}

func NewRelationService(
	relations repository.RelationRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *RelationService {
	return &RelationService{relations: relations, posts: posts, users: users, logger: logger}
}

// =========================================================================
// LIKES
// =========================================================================

func (s *RelationService) Like(ctx context.Context, userID string, postID int64) (model.LikeStatus, error) {
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return model.LikeStatus{}, err
	}
	if err := s.relations.LikePost(ctx, userID, postID); err != nil {
		return model.LikeStatus{}, fmt.Errorf("liking post %d: %w", postID, err)
	}
	s.logger.Debug("post liked", slog.String("userID", userID), slog.Int64("postID", postID))
	return model.LikeStatus{Success: true, IsLiked: true}, nil
}

func (s *RelationService) Unlike(ctx context.Context, userID string, postID int64) (model.LikeStatus, error) {
	if err := s.relations.UnlikePost(ctx, userID, postID); err != nil {
		return model.LikeStatus{}, fmt.Errorf("unliking post %d: %w", postID, err)
	}
	return model.LikeStatus{Success: true, IsLiked: false}, nil
}

func (s *RelationService) LikeStatus(ctx context.Context, userID string, postID int64) (model.LikeStatus, error) {
	liked, err := s.relations.IsPostLiked(ctx, userID, postID)
	if err != nil {
		return model.LikeStatus{}, fmt.Errorf("checking like on post %d: %w", postID, err)
	}
	return model.LikeStatus{IsLiked: liked}, nil
}

// =========================================================================
// SAVES
// =========================================================================

func (s *RelationService) Save(ctx context.Context, userID string, postID int64) (model.SaveStatus, error) {
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return model.SaveStatus{}, err
	}
	if err := s.relations.SavePost(ctx, userID, postID); err != nil {
		return model.SaveStatus{}, fmt.Errorf("saving post %d: %w", postID, err)
	}
	return model.SaveStatus{Success: true, IsSaved: true}, nil
}

func (s *RelationService) Unsave(ctx context.Context, userID string, postID int64) (model.SaveStatus, error) {
	if err := s.relations.UnsavePost(ctx, userID, postID); err != nil {
		return model.SaveStatus{}, fmt.Errorf("unsaving post %d: %w", postID, err)
	}
	return model.SaveStatus{Success: true, IsSaved: false}, nil
}

func (s *RelationService) SaveStatus(ctx context.Context, userID string, postID int64) (model.SaveStatus, error) {
	saved, err := s.relations.IsPostSaved(ctx, userID, postID)
	if err != nil {
		return model.SaveStatus{}, fmt.Errorf("checking save on post %d: %w", postID, err)
	}
	return model.SaveStatus{IsSaved: saved}, nil
}

// =========================================================================
// SUBSCRIPTIONS
// =========================================================================

// Subscribe does not reject subscriberID == targetID.
func (s *RelationService) Subscribe(ctx context.Context, subscriberID, targetID string) (model.SubscriptionStatus, error) {
	if _, err := s.users.GetUser(ctx, targetID); err != nil {
		return model.SubscriptionStatus{}, err
	}
	if err := s.relations.Subscribe(ctx, subscriberID, targetID); err != nil {
		return model.SubscriptionStatus{}, fmt.Errorf("subscribing to %s: %w", targetID, err)
	}
	return model.SubscriptionStatus{Success: true, IsSubscribed: true}, nil
}

func (s *RelationService) Unsubscribe(ctx context.Context, subscriberID, targetID string) (model.SubscriptionStatus, error) {
	if err := s.relations.Unsubscribe(ctx, subscriberID, targetID); err != nil {
		return model.SubscriptionStatus{}, fmt.Errorf("unsubscribing from %s: %w", targetID, err)
	}
	return model.SubscriptionStatus{Success: true, IsSubscribed: false}, nil
}

func (s *RelationService) SubscriptionStatus(ctx context.Context, subscriberID, targetID string) (model.SubscriptionStatus, error) {
	subscribed, err := s.relations.IsSubscribed(ctx, subscriberID, targetID)
	if err != nil {
		return model.SubscriptionStatus{}, fmt.Errorf("checking subscription to %s: %w", targetID, err)
	}
	return model.SubscriptionStatus{IsSubscribed: subscribed}, nil
}
