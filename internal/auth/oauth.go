package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// OIDCUser is the portion of the OpenID Connect userinfo response we store.
// Claim names are the standard ones from OpenID Connect Core §5.1, so any
// compliant provider (Google, Auth0, Keycloak, ...) fills them.
type OIDCUser struct {
	Sub        string `json:"sub"` // stable subject identifier, becomes users.id
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

// OIDCConfig lists the provider endpoints and the registered client.
// Endpoints are explicit rather than discovered so the server never makes a
// network call at startup.
type OIDCConfig struct {
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OIDCProvider wraps golang.org/x/oauth2 for the Authorization Code flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
//  1. The server redirects the user to the provider's authorization
//     endpoint with our ClientID and the requested scopes.
//  2. The user approves on the provider's site.
//  3. The provider redirects back to RedirectURL with a short-lived "code".
//  4. The server exchanges the code for an access token (server-to-server,
//     authenticated with ClientSecret).
//  5. The server calls the userinfo endpoint with that access token.
//
// The provider's access token never reaches the browser; only our own JWT does.
type OIDCProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewOIDCProvider creates an OIDCProvider.
//
// Scopes:
//   - "openid"  marks this as an OIDC request (yields "sub")
//   - "email"   email claim
//   - "profile" name and picture claims
func NewOIDCProvider(cfg OIDCConfig) *OIDCProvider {
	return &OIDCProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// STATE PARAMETER:
// The state is a random xid stored in a cookie before redirecting. The
// callback verifies the returned state matches the cookie, which stops a
// CSRF attacker from completing a login flow into their own account.
func (p *OIDCProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for the user's profile.
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*OIDCUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds
	// "Authorization: Bearer <token>" to every request.
	client := p.config.Client(ctx, oauthToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: userinfo endpoint returned status %d", resp.StatusCode)
	}

	var user OIDCUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("auth: decoding userinfo response: %w", err)
	}

	if user.Sub == "" {
		return nil, errors.New("auth: userinfo response has no sub claim")
	}

	return &user, nil
}
