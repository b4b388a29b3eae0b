package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
)

const feedColumns = `p.id, p.user_id, p.type, p.content, p.media_urls, p.category, p.created_at,
	COALESCE(u.username, '') AS username, COALESCE(u.profile_image_url, '') AS profile_image_url`

// feedQuery starts every FeedPost query: posts LEFT JOIN users.
func (db *DB) feedQuery(ctx context.Context) *gorm.DB {
	return db.gorm.WithContext(ctx).
		Table("posts AS p").
		Select(feedColumns).
		Joins("LEFT JOIN users u ON u.id = p.user_id")
}

func scanFeed(q *gorm.DB, op string) ([]model.FeedPost, error) {
	var rows []feedRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}

	posts := make([]model.FeedPost, 0, len(rows))
	for _, r := range rows {
		fp, err := r.toModel()
		if err != nil {
			return nil, fmt.Errorf("postgres: decoding media_urls for post %d: %w", r.ID, err)
		}
		posts = append(posts, fp)
	}
	return posts, nil
}

func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}
	media, err := json.Marshal(post.MediaURLs)
	if err != nil {
		return fmt.Errorf("postgres: encoding media urls: %w", err)
	}

	row := postRow{
		UserID:    post.UserID,
		Type:      string(post.Type),
		Content:   post.Content,
		MediaURLs: string(media),
		Category:  post.Category,
		CreatedAt: now(),
	}
	// GORM adds RETURNING "id" and writes the generated key back into row.ID.
	if err := db.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("postgres: creating post: %w", err)
	}

	post.ID = row.ID
	post.CreatedAt = row.CreatedAt
	return nil
}

func (db *DB) GetPost(ctx context.Context, id int64) (*model.FeedPost, error) {
	posts, err := scanFeed(db.feedQuery(ctx).Where("p.id = ?", id).Limit(1), "getting post")
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
	}
	return &posts[0], nil
}

func (db *DB) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.FeedPost, error) {
	opts = opts.Normalize()
	return scanFeed(db.feedQuery(ctx).
		Order("p.created_at DESC, p.id DESC").
		Limit(opts.Limit).
		Offset(opts.Offset),
		"listing posts")
}

func (db *DB) ListUserPosts(ctx context.Context, userID string) ([]model.FeedPost, error) {
	return scanFeed(db.feedQuery(ctx).
		Where("p.user_id = ?", userID).
		Order("p.created_at DESC, p.id DESC"),
		"listing user posts")
}

// ListSavedPosts joins through saves and orders by the save time.
func (db *DB) ListSavedPosts(ctx context.Context, userID string) ([]model.FeedPost, error) {
	return scanFeed(db.feedQuery(ctx).
		Joins("JOIN saves s ON s.post_id = p.id").
		Where("s.user_id = ?", userID).
		Order("s.created_at DESC, s.id DESC"),
		"listing saved posts")
}
