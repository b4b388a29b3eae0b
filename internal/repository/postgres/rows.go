package postgres

import (
	"encoding/json"
	"time"

	"github.com/sakif/faceless/internal/model"
)

// Row structs are the GORM view of each table. They stay private to this
// package so GORM tags never leak into internal/model.
//
// Column names are spelled out with `column:` so they match the SQLite
// schema exactly instead of depending on GORM's naming of initialisms.
//
// Nullable unique columns (email, username) are *string: nil → NULL, and
// Postgres UNIQUE indexes ignore NULLs, so "no username" never collides.
//
// FOREIGN KEYS:
// AutoMigrate only emits a REFERENCES constraint for a declared relation,
// so each row carries nil-pointer belongs-to fields (User, Post, ...) that
// exist just for the constraint. They are never loaded, and a nil pointer
// is skipped on Create, so inserts stay single-table.

type userRow struct {
	ID              string    `gorm:"column:id;primaryKey"`
	Email           *string   `gorm:"column:email;uniqueIndex"`
	FirstName       string    `gorm:"column:first_name;not null;default:''"`
	LastName        string    `gorm:"column:last_name;not null;default:''"`
	ProfileImageURL string    `gorm:"column:profile_image_url;not null;default:''"`
	Username        *string   `gorm:"column:username;uniqueIndex"`
	Bio             string    `gorm:"column:bio;not null;default:''"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time `gorm:"column:updated_at;not null"`
}

func (userRow) TableName() string { return "users" }

type postRow struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;not null;index"`
	Type      string    `gorm:"column:type;not null"`
	Content   string    `gorm:"column:content;not null;default:''"`
	MediaURLs string    `gorm:"column:media_urls;type:text;not null;default:'[]'"`
	Category  string    `gorm:"column:category;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;not null;index"`

	User *userRow `gorm:"foreignKey:UserID"`
}

func (postRow) TableName() string { return "posts" }

type commentRow struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;not null"`
	PostID    int64     `gorm:"column:post_id;not null;index"`
	Content   string    `gorm:"column:content;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`

	User *userRow `gorm:"foreignKey:UserID"`
	Post *postRow `gorm:"foreignKey:PostID"`
}

func (commentRow) TableName() string { return "comments" }

// COMPOSITE UNIQUE INDEX:
// Giving two fields the same uniqueIndex name makes GORM create one index
// over both columns, e.g. UNIQUE (user_id, post_id).

type likeRow struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:idx_likes_user_post"`
	PostID    int64     `gorm:"column:post_id;not null;uniqueIndex:idx_likes_user_post"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`

	User *userRow `gorm:"foreignKey:UserID"`
	Post *postRow `gorm:"foreignKey:PostID"`
}

func (likeRow) TableName() string { return "likes" }

type saveRow struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:idx_saves_user_post"`
	PostID    int64     `gorm:"column:post_id;not null;uniqueIndex:idx_saves_user_post"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`

	User *userRow `gorm:"foreignKey:UserID"`
	Post *postRow `gorm:"foreignKey:PostID"`
}

func (saveRow) TableName() string { return "saves" }

type subscriptionRow struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	SubscriberID   string    `gorm:"column:subscriber_id;not null;uniqueIndex:idx_subscriptions_pair"`
	SubscribedToID string    `gorm:"column:subscribed_to_id;not null;uniqueIndex:idx_subscriptions_pair"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`

	Subscriber   *userRow `gorm:"foreignKey:SubscriberID"`
	SubscribedTo *userRow `gorm:"foreignKey:SubscribedToID"`
}

func (subscriptionRow) TableName() string { return "subscriptions" }

// feedRow is the shape of the posts ⟕ users join. It is a scan target only,
// never migrated.
type feedRow struct {
	ID              int64     `gorm:"column:id"`
	UserID          string    `gorm:"column:user_id"`
	Type            string    `gorm:"column:type"`
	Content         string    `gorm:"column:content"`
	MediaURLs       string    `gorm:"column:media_urls"`
	Category        string    `gorm:"column:category"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	Username        string    `gorm:"column:username"`
	ProfileImageURL string    `gorm:"column:profile_image_url"`
}

func (r feedRow) toModel() (model.FeedPost, error) {
	urls := []string{}
	if r.MediaURLs != "" {
		if err := json.Unmarshal([]byte(r.MediaURLs), &urls); err != nil {
			return model.FeedPost{}, err
		}
		if urls == nil {
			urls = []string{}
		}
	}
	return model.FeedPost{
		Post: model.Post{
			ID:        r.ID,
			UserID:    r.UserID,
			Type:      model.PostType(r.Type),
			Content:   r.Content,
			MediaURLs: urls,
			Category:  r.Category,
			CreatedAt: r.CreatedAt,
		},
		Username:        r.Username,
		ProfileImageURL: r.ProfileImageURL,
	}, nil
}

type commentViewRow struct {
	ID              int64     `gorm:"column:id"`
	UserID          string    `gorm:"column:user_id"`
	PostID          int64     `gorm:"column:post_id"`
	Content         string    `gorm:"column:content"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	Username        string    `gorm:"column:username"`
	ProfileImageURL string    `gorm:"column:profile_image_url"`
}

func (u userRow) toModel() *model.User {
	m := &model.User{
		ID:              u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
		Bio:             u.Bio,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if u.Email != nil {
		m.Email = *u.Email
	}
	if u.Username != nil {
		m.Username = *u.Username
	}
	return m
}

// nullable maps "" to nil so the column is written as NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// now is truncated to Postgres' microsecond precision so the value a
// caller gets back equals the value a later read returns.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
