package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"
)

// establish inserts a relationship row, ignoring a duplicate pair.
// clause.OnConflict{DoNothing: true} renders ON CONFLICT DO NOTHING, which
// the composite unique index on each table turns into an idempotent insert.
func (db *DB) establish(ctx context.Context, table string, row any) error {
	err := db.gorm.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
	if err != nil {
		return fmt.Errorf("postgres: inserting into %s: %w", table, err)
	}
	return nil
}

func (db *DB) remove(ctx context.Context, table string, model any, where string, args ...any) error {
	if err := db.gorm.WithContext(ctx).Where(where, args...).Delete(model).Error; err != nil {
		return fmt.Errorf("postgres: deleting from %s: %w", table, err)
	}
	return nil
}

func (db *DB) exists(ctx context.Context, table string, model any, where string, args ...any) (bool, error) {
	var n int64
	if err := db.gorm.WithContext(ctx).Model(model).Where(where, args...).Count(&n).Error; err != nil {
		return false, fmt.Errorf("postgres: checking %s: %w", table, err)
	}
	return n > 0, nil
}

const (
	pairUserPost     = "user_id = ? AND post_id = ?"
	pairSubscription = "subscriber_id = ? AND subscribed_to_id = ?"
)

func (db *DB) Subscribe(ctx context.Context, subscriberID, subscribedToID string) error {
	return db.establish(ctx, "subscriptions", &subscriptionRow{
		SubscriberID: subscriberID, SubscribedToID: subscribedToID, CreatedAt: now(),
	})
}

func (db *DB) Unsubscribe(ctx context.Context, subscriberID, subscribedToID string) error {
	return db.remove(ctx, "subscriptions", &subscriptionRow{}, pairSubscription, subscriberID, subscribedToID)
}

func (db *DB) IsSubscribed(ctx context.Context, subscriberID, subscribedToID string) (bool, error) {
	return db.exists(ctx, "subscriptions", &subscriptionRow{}, pairSubscription, subscriberID, subscribedToID)
}

func (db *DB) LikePost(ctx context.Context, userID string, postID int64) error {
	return db.establish(ctx, "likes", &likeRow{UserID: userID, PostID: postID, CreatedAt: now()})
}

func (db *DB) UnlikePost(ctx context.Context, userID string, postID int64) error {
	return db.remove(ctx, "likes", &likeRow{}, pairUserPost, userID, postID)
}

func (db *DB) IsPostLiked(ctx context.Context, userID string, postID int64) (bool, error) {
	return db.exists(ctx, "likes", &likeRow{}, pairUserPost, userID, postID)
}

func (db *DB) SavePost(ctx context.Context, userID string, postID int64) error {
	return db.establish(ctx, "saves", &saveRow{UserID: userID, PostID: postID, CreatedAt: now()})
}

func (db *DB) UnsavePost(ctx context.Context, userID string, postID int64) error {
	return db.remove(ctx, "saves", &saveRow{}, pairUserPost, userID, postID)
}

func (db *DB) IsPostSaved(ctx context.Context, userID string, postID int64) (bool, error) {
	return db.exists(ctx, "saves", &saveRow{}, pairUserPost, userID, postID)
}
