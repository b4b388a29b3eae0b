package postgres

import (
	"context"
	"fmt"

	"github.com/sakif/faceless/internal/model"
)

func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	row := commentRow{
		UserID:    comment.UserID,
		PostID:    comment.PostID,
		Content:   comment.Content,
		CreatedAt: now(),
	}
	if err := db.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("postgres: creating comment on post %d: %w", comment.PostID, err)
	}
	comment.ID = row.ID
	comment.CreatedAt = row.CreatedAt
	return nil
}

func (db *DB) ListPostComments(ctx context.Context, postID int64) ([]model.CommentView, error) {
	var rows []commentViewRow
	err := db.gorm.WithContext(ctx).
		Table("comments AS c").
		Select(`c.id, c.user_id, c.post_id, c.content, c.created_at,
			COALESCE(u.username, '') AS username, COALESCE(u.profile_image_url, '') AS profile_image_url`).
		Joins("LEFT JOIN users u ON u.id = c.user_id").
		Where("c.post_id = ?", postID).
		Order("c.created_at DESC, c.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: listing comments for post %d: %w", postID, err)
	}

	comments := make([]model.CommentView, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, model.CommentView{
			Comment: model.Comment{
				ID:        r.ID,
				UserID:    r.UserID,
				PostID:    r.PostID,
				Content:   r.Content,
				CreatedAt: r.CreatedAt,
			},
			Username:        r.Username,
			ProfileImageURL: r.ProfileImageURL,
		})
	}
	return comments, nil
}
