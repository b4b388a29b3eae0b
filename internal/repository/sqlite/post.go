package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository"
)

// feedPostSelect is shared by every query that returns FeedPosts.
//
// LEFT JOIN (not INNER JOIN):
// A post whose author row is missing still shows up, just with empty
// username/profileImageUrl. COALESCE turns the NULLs from the join into "".
const feedPostSelect = `
	SELECT p.id, p.user_id, p.type, p.content, p.media_urls, p.category, p.created_at,
	       COALESCE(u.username, ''), COALESCE(u.profile_image_url, '')
	FROM posts p
	LEFT JOIN users u ON u.id = p.user_id`

// rowScanner is the one method *sql.Row and *sql.Rows share.
// Accepting it lets scanFeedPost serve both QueryRow and Query loops.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedPost(s rowScanner) (model.FeedPost, error) {
	var (
		fp    model.FeedPost
		media string
	)
	if err := s.Scan(
		&fp.ID, &fp.UserID, &fp.Type, &fp.Content, &media, &fp.Category, &fp.CreatedAt,
		&fp.Username, &fp.ProfileImageURL,
	); err != nil {
		return fp, err
	}
	urls, err := decodeMedia(media)
	if err != nil {
		return fp, fmt.Errorf("decoding media_urls for post %d: %w", fp.ID, err)
	}
	fp.MediaURLs = urls
	return fp, nil
}

// CreatePost inserts a post and fills in the generated ID and CreatedAt.
//
// LastInsertId returns the INTEGER PRIMARY KEY that SQLite assigned.
// Times are stored in UTC so ordering never depends on the server's zone.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	media, err := encodeMedia(post.MediaURLs)
	if err != nil {
		return fmt.Errorf("sqlite: encoding media urls: %w", err)
	}

	post.CreatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (user_id, type, content, media_urls, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.UserID,
		post.Type,
		post.Content,
		media,
		post.Category,
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading post id: %w", err)
	}
	post.ID = id
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}

	return nil
}

// GetPost retrieves one post with its author fields.
func (db *DB) GetPost(ctx context.Context, id int64) (*model.FeedPost, error) {
	fp, err := scanFeedPost(db.conn.QueryRowContext(ctx, feedPostSelect+` WHERE p.id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}
	return &fp, nil
}

// ListPosts returns one page of the feed, newest first.
//
// ORDER BY created_at DESC, id DESC:
// Two posts created in the same instant would otherwise come back in an
// undefined order, and a page boundary between them could show one post
// twice or not at all. The id tie-break makes the order total.
func (db *DB) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.FeedPost, error) {
	opts = opts.Normalize()
	return db.queryFeedPosts(ctx, "listing posts", opts.Limit,
		feedPostSelect+` ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
}

// ListUserPosts returns every post by one author, newest first.
func (db *DB) ListUserPosts(ctx context.Context, userID string) ([]model.FeedPost, error) {
	return db.queryFeedPosts(ctx, "listing user posts", 0,
		feedPostSelect+` WHERE p.user_id = ? ORDER BY p.created_at DESC, p.id DESC`,
		userID,
	)
}

// ListSavedPosts returns the posts a user saved, most recently saved first.
// The extra JOIN goes through saves, so the order is the save time, not
// the post time.
func (db *DB) ListSavedPosts(ctx context.Context, userID string) ([]model.FeedPost, error) {
	return db.queryFeedPosts(ctx, "listing saved posts", 0, `
		SELECT p.id, p.user_id, p.type, p.content, p.media_urls, p.category, p.created_at,
		       COALESCE(u.username, ''), COALESCE(u.profile_image_url, '')
		FROM saves s
		JOIN posts p ON p.id = s.post_id
		LEFT JOIN users u ON u.id = p.user_id
		WHERE s.user_id = ?
		ORDER BY s.created_at DESC, s.id DESC`,
		userID,
	)
}

// queryFeedPosts runs a multi-row FeedPost query.
// sizeHint pre-allocates the result slice when the caller knows the page size.
func (db *DB) queryFeedPosts(ctx context.Context, op string, sizeHint int, query string, args ...any) ([]model.FeedPost, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	// CRITICAL: always close rows, or the connection never returns to the pool.
	defer rows.Close()

	posts := make([]model.FeedPost, 0, sizeHint)
	for rows.Next() {
		fp, err := scanFeedPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, fp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}
