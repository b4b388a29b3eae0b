package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// echoUser writes the context user ID (or "anonymous") and records that it ran.
func echoUser(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		id, ok := UserIDFromContext(r.Context())
		if !ok {
			id = "anonymous"
		}
		_, _ = w.Write([]byte(id))
	})
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	valid, _ := ts.Generate("user-1")

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
		wantBody   string
		wantCalled bool
	}{
		{
			name:       "cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: valid}) },
			wantStatus: http.StatusOK,
			wantBody:   "user-1",
			wantCalled: true,
		},
		{
			name:       "bearer header",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) },
			wantStatus: http.StatusOK,
			wantBody:   "user-1",
			wantCalled: true,
		},
		{
			name:       "no credentials",
			prepare:    func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"message":"Unauthorized"}` + "\n",
		},
		{
			name:       "invalid cookie",
			prepare:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "nope"}) },
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"message":"Unauthorized"}` + "\n",
		},
		{
			name:       "basic auth is not a bearer",
			prepare:    func(r *http.Request) { r.Header.Set("Authorization", "Basic "+valid) },
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"message":"Unauthorized"}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := RequireAuth(ts)(echoUser(&called))

			req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}
