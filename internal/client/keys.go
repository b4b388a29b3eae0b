package client

import (
	"net/url"
	"strconv"
)

// QUERY KEYS ARE URLS:
// Every cached query is keyed by the path it is fetched from. A mutation
// then invalidates exactly the paths whose answer it changed, e.g. POST
// /api/posts/7/like invalidates LikeStatusKey(7).
const (
	FeedKey        = "/api/posts"
	CurrentUserKey = "/api/auth/user"
	SavedPostsKey  = "/api/auth/user/saved-posts"
)

func CommentsKey(postID int64) string { return postPath(postID, "/comments") }
func LikeStatusKey(postID int64) string { return postPath(postID, "/like-status") }
func SaveStatusKey(postID int64) string { return postPath(postID, "/save-status") }

func UserPostsKey(userID string) string { return userPath(userID, "/posts") }

func SubscriptionStatusKey(userID string) string {
	return userPath(userID, "/subscription-status")
}

func postPath(postID int64, suffix string) string {
	return "/api/posts/" + strconv.FormatInt(postID, 10) + suffix
}

// User IDs come from the identity provider and may contain '|' or '/'.
func userPath(userID, suffix string) string {
	return "/api/users/" + url.PathEscape(userID) + suffix
}
