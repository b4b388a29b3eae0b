package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIdP is a minimal OIDC provider: a token endpoint that accepts one
// code and a userinfo endpoint that checks the bearer token.
func fakeIdP(t *testing.T, userinfo map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(idp *httptest.Server) *OIDCProvider {
	return NewOIDCProvider(OIDCConfig{
		AuthURL:      idp.URL + "/authorize",
		TokenURL:     idp.URL + "/token",
		UserInfoURL:  idp.URL + "/userinfo",
		ClientID:     "faceless",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/api/callback",
	})
}

func TestOIDCProvider_AuthURL(t *testing.T) {
	p := newTestProvider(fakeIdP(t, nil))

	u, err := url.Parse(p.AuthURL("state-xyz"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "/authorize", u.Path)
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "faceless", q.Get("client_id"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "http://localhost:8080/api/callback", q.Get("redirect_uri"))
}

func TestOIDCProvider_Exchange(t *testing.T) {
	idp := fakeIdP(t, map[string]any{
		"sub":         "idp|42",
		"email":       "ada@example.com",
		"given_name":  "Ada",
		"family_name": "Lovelace",
		"picture":     "https://img.example.com/ada.png",
	})
	p := newTestProvider(idp)

	user, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, &OIDCUser{
		Sub:        "idp|42",
		Email:      "ada@example.com",
		GivenName:  "Ada",
		FamilyName: "Lovelace",
		Picture:    "https://img.example.com/ada.png",
	}, user)
}

func TestOIDCProvider_Exchange_BadCode(t *testing.T) {
	p := newTestProvider(fakeIdP(t, map[string]any{"sub": "idp|42"}))

	_, err := p.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestOIDCProvider_Exchange_MissingSub(t *testing.T) {
	p := newTestProvider(fakeIdP(t, map[string]any{"email": "x@example.com"}))

	_, err := p.Exchange(context.Background(), "good-code")
	assert.ErrorContains(t, err, "no sub")
}
