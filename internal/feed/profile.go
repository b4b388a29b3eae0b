package feed

import (
	"context"
	"errors"

	"github.com/sakif/faceless/internal/client"
	"github.com/sakif/faceless/internal/model"
)

// ErrOwnProfile is returned by ToggleSubscribe on the viewer's own profile,
// where the button is not shown.
var ErrOwnProfile = errors.New("feed: cannot subscribe from your own profile")

// Profile is a user's page: their posts, the subscribe button and, on the
// viewer's own page, the edit form.
//
// An empty userID means the logged-in user's own profile. There is no
// route for another user's record, so only the own profile has one.
type Profile struct {
	deps   Deps
	userID string

	subscribe *client.Mutation
	update    *client.Mutation

	editing  bool
	username string
	bio      string
}

func NewProfile(deps Deps, userID string) *Profile {
	return &Profile{
		deps:      deps,
		userID:    userID,
		subscribe: deps.mutation("Failed to update subscription. Please try again."),
		update:    deps.mutation("Failed to update profile. Please try again."),
	}
}

func (p *Profile) Own() bool { return p.userID == "" }

// User returns the logged-in user through the cache.
func (p *Profile) User(ctx context.Context) (*model.User, error) {
	if !p.deps.Authenticated {
		return nil, ErrDisabled
	}
	return client.Query(ctx, p.deps.Cache, client.CurrentUserKey, p.deps.API.CurrentUser)
}

// UserID resolves whose profile this is.
func (p *Profile) UserID(ctx context.Context) (string, error) {
	if !p.Own() {
		return p.userID, nil
	}
	u, err := p.User(ctx)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// Posts lists the profile's posts, newest first.
func (p *Profile) Posts(ctx context.Context) ([]model.FeedPost, error) {
	id, err := p.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return client.Query(ctx, p.deps.Cache, client.UserPostsKey(id), func(ctx context.Context) ([]model.FeedPost, error) {
		return p.deps.API.ListUserPosts(ctx, id)
	})
}

// Subscribed reports whether the viewer follows this user. It is always
// false on the own profile and when logged out, without a request.
func (p *Profile) Subscribed(ctx context.Context) (bool, error) {
	if p.Own() || !p.deps.Authenticated {
		return false, nil
	}
	status, err := p.subscriptionStatus(ctx)
	if err != nil {
		return false, err
	}
	return status.IsSubscribed, nil
}

func (p *Profile) SubscribeDisabled() bool {
	return p.Own() || !p.deps.Authenticated || p.subscribe.Pending()
}

// ToggleSubscribe follows or unfollows the user, the same way the action
// bar toggles likes.
func (p *Profile) ToggleSubscribe(ctx context.Context) error {
	switch {
	case p.Own():
		return ErrOwnProfile
	case !p.deps.Authenticated:
		return ErrDisabled
	}
	current, err := p.subscriptionStatus(ctx)
	if err != nil {
		return err
	}

	id := p.userID
	err = p.subscribe.Run(ctx, func(ctx context.Context) error {
		var err error
		if current.IsSubscribed {
			_, err = p.deps.API.Unsubscribe(ctx, id)
		} else {
			_, err = p.deps.API.Subscribe(ctx, id)
		}
		return err
	}, client.SubscriptionStatusKey(id))
	if err != nil {
		return err
	}

	if current.IsSubscribed {
		p.deps.notify(client.Notice{Title: "Unsubscribed", Description: "You have unsubscribed from this user."})
	} else {
		p.deps.notify(client.Notice{Title: "Subscribed", Description: "You are now subscribed to this user."})
	}
	return nil
}

// =========================================================================
// EDIT FORM
// =========================================================================

// StartEdit opens the form prefilled with the stored username and bio.
func (p *Profile) StartEdit(ctx context.Context) error {
	if !p.Own() {
		return ErrDisabled
	}
	u, err := p.User(ctx)
	if err != nil {
		return err
	}
	p.editing = true
	p.username = u.Username
	p.bio = u.Bio
	return nil
}

func (p *Profile) Editing() bool { return p.editing }
func (p *Profile) SetUsername(s string) { p.username = s }
func (p *Profile) SetBio(s string) { p.bio = s }
func (p *Profile) Form() (username, bio string) { return p.username, p.bio }
func (p *Profile) CancelEdit() { p.editing = false }

// SaveEdit sends both fields. On success the form closes, and every query
// that shows the username (the user record, the feed, the user's own
// posts) is invalidated. On failure the form stays open with its input.
func (p *Profile) SaveEdit(ctx context.Context) error {
	if !p.editing {
		return nil
	}
	id, err := p.UserID(ctx)
	if err != nil {
		return err
	}

	username, bio := p.username, p.bio
	err = p.update.Run(ctx, func(ctx context.Context) error {
		_, err := p.deps.API.UpdateProfile(ctx, model.ProfileUpdate{Username: &username, Bio: &bio})
		return err
	}, client.CurrentUserKey, client.FeedKey, client.UserPostsKey(id))
	if err != nil {
		return err
	}

	p.editing = false
	p.deps.notify(client.Notice{Title: "Profile updated", Description: "Your profile has been updated successfully."})
	return nil
}

func (p *Profile) subscriptionStatus(ctx context.Context) (model.SubscriptionStatus, error) {
	id := p.userID
	return client.Query(ctx, p.deps.Cache, client.SubscriptionStatusKey(id), func(ctx context.Context) (model.SubscriptionStatus, error) {
		return p.deps.API.SubscriptionStatus(ctx, id)
	})
}
