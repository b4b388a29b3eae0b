// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data. There is no inheritance;
// read models like FeedPost are built by embedding the base struct.
package model

import "time"

// User represents an account created from an identity-provider login.
//
// WHY IS ID A STRING?
// The ID is the provider's "sub" claim, copied verbatim. We never generate
// user IDs ourselves, so a login from the same person always lands on the
// same row (see UpsertUser in the repository layer).
//
// EMPTY STRING = UNSET:
// Email, Username and the name fields may be empty. The storage layer writes
// empty Email/Username as NULL so the UNIQUE constraints only apply to
// values that are actually set.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	ProfileImageURL string    `json:"profileImageUrl"`
	Username        string    `json:"username"`
	Bio             string    `json:"bio"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the user-editable profile fields.
//
// POINTER FIELDS = "WAS IT SENT?":
// A nil pointer means "leave this column alone". A pointer to "" means
// "clear it". Without pointers we could not tell those two cases apart
// in a PATCH body.
type ProfileUpdate struct {
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
}

// Empty reports whether the update names no fields at all.
func (u ProfileUpdate) Empty() bool {
	return u.Username == nil && u.Bio == nil
}
