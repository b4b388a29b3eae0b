package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/faceless/internal/model"
)

// CreateComment inserts a comment and fills in its ID and CreatedAt.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	comment.CreatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (user_id, post_id, content, created_at) VALUES (?, ?, ?, ?)`,
		comment.UserID,
		comment.PostID,
		comment.Content,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating comment on post %d: %w", comment.PostID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading comment id: %w", err)
	}
	comment.ID = id
	return nil
}

// ListPostComments returns a post's comments with commenter fields, newest first.
// A post with no comments (or no such post) yields an empty, non-nil slice.
func (db *DB) ListPostComments(ctx context.Context, postID int64) ([]model.CommentView, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT c.id, c.user_id, c.post_id, c.content, c.created_at,
		        COALESCE(u.username, ''), COALESCE(u.profile_image_url, '')
		 FROM comments c
		 LEFT JOIN users u ON u.id = c.user_id
		 WHERE c.post_id = ?
		 ORDER BY c.created_at DESC, c.id DESC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for post %d: %w", postID, err)
	}
	defer rows.Close()

	comments := []model.CommentView{}
	for rows.Next() {
		var c model.CommentView
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.PostID, &c.Content, &c.CreatedAt,
			&c.Username, &c.ProfileImageURL,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	return comments, nil
}
