package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/faceless/internal/auth"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/service"
)

const stateCookieName = "oauth_state"

// IdentityProvider is what the login flow needs from the OIDC provider.
// *auth.OIDCProvider satisfies it; tests pass a fake.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.OIDCUser, error)
}

// AuthHandler manages the login flow, the session cookie and the current
// user's profile.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin      → redirect the browser to the provider
//   - HandleCallback   → receive the code, exchange it, issue the JWT cookie
//   - HandleLogout     → clear the JWT cookie
//   - HandleDevLogin   → issue a token without a provider (dev only)
//   - HandleGetUser    → return the logged-in user's profile
//   - HandleUpdateUser → PATCH username and bio
type AuthHandler struct {
	provider      IdentityProvider // nil when OIDC is not configured
	auth          *service.AuthService
	profiles      *service.ProfileService
	tokens        *auth.TokenService
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(
	provider IdentityProvider,
	authService *service.AuthService,
	profiles *service.ProfileService,
	tokens *auth.TokenService,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider:      provider,
		auth:          authService,
		profiles:      profiles,
		tokens:        tokens,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HandleLogin redirects the user to the provider's authorization page.
//
// HTTP: GET /api/login
//
// CSRF PROTECTION VIA STATE:
// A random xid goes into a short-lived cookie and into the redirect URL.
// HandleCallback only proceeds when the two match.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Login is not configured")
		return
	}

	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the login flow.
//
// HTTP: GET /api/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for the provider's userinfo
//  3. Upsert the user (AuthService)
//  4. Set the JWT cookie
//  5. Redirect to the app home page
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Login is not configured")
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeMessage(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeMessage(w, http.StatusBadRequest, "Missing OAuth code")
		return
	}

	identity, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: exchange failed", slog.String("error", err.Error()))
		writeMessage(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	result, err := h.auth.LoginOIDC(r.Context(), identity)
	if err != nil {
		writeError(w, r, h.logger, err, "Authentication failed")
		return
	}

	h.setTokenCookie(w, result.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the JWT cookie.
//
// HTTP: POST /api/logout → {"message":"Logged out"}
//
//	GET  /api/logout → redirect to /
//
// The JWT itself stays valid until it expires; without the cookie the
// browser simply stops sending it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	if r.Method == http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out")
}

// HandleDevLogin issues a session for an arbitrary user ID.
//
// HTTP: POST /api/dev/login {"id":"tester","email":"t@example.com"}
// Only mounted when AUTH_DEV_LOGIN is on outside production. The response
// carries the token too, so non-browser clients (feedctl) can send it as a
// bearer header.
func (h *AuthHandler) HandleDevLogin(w http.ResponseWriter, r *http.Request) {
	var in service.DevLoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err, "Failed to log in")
		return
	}

	result, err := h.auth.DevLogin(r.Context(), in)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to log in")
		return
	}

	h.setTokenCookie(w, result.Token)
	writeJSON(w, http.StatusOK, result)
}

// HandleGetUser returns the current user.
//
// HTTP: GET /api/auth/user (RequireAuth)
func (h *AuthHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch user")
		return
	}

	user, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateUser applies {"username": ..., "bio": ...}. Omitted fields
// are left alone.
//
// HTTP: PATCH /api/auth/user (RequireAuth)
func (h *AuthHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := sessionUser(r)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to update profile")
		return
	}

	var upd model.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, h.logger, err, "Failed to update profile")
		return
	}

	user, err := h.profiles.UpdateProfile(r.Context(), userID, upd)
	if err != nil {
		writeError(w, r, h.logger, err, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// setTokenCookie stores the JWT in an HttpOnly cookie that expires together
// with the token. HttpOnly keeps it away from JavaScript; SameSite=Lax keeps
// it off cross-site POSTs.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
