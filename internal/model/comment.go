package model

import "time"

// Comment is a piece of text attached to a post.
type Comment struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	PostID    int64     `json:"postId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentView is a Comment plus the commenter's display fields.
type CommentView struct {
	Comment
	Username        string `json:"username"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// Status responses for the relationship toggles.
// The field names are part of the API contract used by the client.
type (
	LikeStatus struct {
		Success bool `json:"success,omitempty"`
		IsLiked bool `json:"isLiked"`
	}
	SaveStatus struct {
		Success bool `json:"success,omitempty"`
		IsSaved bool `json:"isSaved"`
	}
	SubscriptionStatus struct {
		Success      bool `json:"success,omitempty"`
		IsSubscribed bool `json:"isSubscribed"`
	}
)
