package sqlite

import (
	"context"
	"fmt"
	"time"
)

// The three relationship tables (likes, saves, subscriptions) have the same
// shape: a pair of ids, a timestamp, and a UNIQUE index on the pair. The
// helpers below implement establish / remove / exists once, and the public
// methods only choose the table and column names.
//
// IDEMPOTENT TOGGLES:
//   - establish = INSERT ... ON CONFLICT DO NOTHING (second call is a no-op)
//   - remove    = DELETE (deleting nothing is not an error)
//
// Two concurrent "like" clicks therefore leave exactly one row, with no
// read-then-write race.

type relation struct {
	table, left, right string
}

var (
	likes         = relation{table: "likes", left: "user_id", right: "post_id"}
	saves         = relation{table: "saves", left: "user_id", right: "post_id"}
	subscriptions = relation{table: "subscriptions", left: "subscriber_id", right: "subscribed_to_id"}
)

func (db *DB) establish(ctx context.Context, r relation, left, right any) error {
	_, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, %s, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			r.table, r.left, r.right),
		left, right, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting into %s: %w", r.table, err)
	}
	return nil
}

func (db *DB) remove(ctx context.Context, r relation, left, right any) error {
	_, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = ? AND %s = ?`, r.table, r.left, r.right),
		left, right,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting from %s: %w", r.table, err)
	}
	return nil
}

// exists uses SELECT EXISTS(...) which always returns exactly one row (0 or 1),
// so there is no sql.ErrNoRows case to handle.
func (db *DB) exists(ctx context.Context, r relation, left, right any) (bool, error) {
	var found bool
	err := db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ? AND %s = ?)`, r.table, r.left, r.right),
		left, right,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking %s: %w", r.table, err)
	}
	return found, nil
}

func (db *DB) Subscribe(ctx context.Context, subscriberID, subscribedToID string) error {
	return db.establish(ctx, subscriptions, subscriberID, subscribedToID)
}

func (db *DB) Unsubscribe(ctx context.Context, subscriberID, subscribedToID string) error {
	return db.remove(ctx, subscriptions, subscriberID, subscribedToID)
}

func (db *DB) IsSubscribed(ctx context.Context, subscriberID, subscribedToID string) (bool, error) {
	return db.exists(ctx, subscriptions, subscriberID, subscribedToID)
}

func (db *DB) LikePost(ctx context.Context, userID string, postID int64) error {
	return db.establish(ctx, likes, userID, postID)
}

func (db *DB) UnlikePost(ctx context.Context, userID string, postID int64) error {
	return db.remove(ctx, likes, userID, postID)
}

func (db *DB) IsPostLiked(ctx context.Context, userID string, postID int64) (bool, error) {
	return db.exists(ctx, likes, userID, postID)
}

func (db *DB) SavePost(ctx context.Context, userID string, postID int64) error {
	return db.establish(ctx, saves, userID, postID)
}

func (db *DB) UnsavePost(ctx context.Context, userID string, postID int64) error {
	return db.remove(ctx, saves, userID, postID)
}

func (db *DB) IsPostSaved(ctx context.Context, userID string, postID int64) (bool, error) {
	return db.exists(ctx, saves, userID, postID)
}
