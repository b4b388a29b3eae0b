package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/faceless/internal/apperror"
	"github.com/sakif/faceless/internal/auth"
	"github.com/sakif/faceless/internal/repository"
)

// maxBodyBytes caps every JSON request body. The largest legitimate body is
// a post with 2200 characters of content and a handful of URLs.
const maxBodyBytes = 64 << 10

// pathInt64 reads a numeric chi URL parameter such as {postId}.
// A non-number is a 400, not a 404: the client sent a malformed URL.
func pathInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(name, "invalid "+name)
	}
	return id, nil
}

// pathUserID reads the {userId} URL parameter.
//
// ESCAPED IDS:
// Provider subjects such as "google-oauth2/abc" arrive as "google-oauth2%2Fabc".
// chi matches on the raw path whenever it differs from the decoded one, so
// URLParam hands back the escaped form and it has to be decoded here.
func pathUserID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "userId")
	id, err := url.PathUnescape(raw)
	if err != nil || id == "" {
		return "", apperror.ValidationFailed("userId", "invalid userId")
	}
	return id, nil
}

// sessionUser returns the caller set by auth.RequireAuth. A protected
// handler mounted without it answers 401 instead of acting as user "".
func sessionUser(r *http.Request) (string, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthorized("Unauthorized")
	}
	return id, nil
}

// listOptions reads ?limit=&offset=.
//
// Missing or unparsable values take the defaults (20 and 0); the result is
// clamped by repository.ListOptions.Normalize, so limit ends up in [1,100]
// and a negative offset becomes 0.
func listOptions(r *http.Request) repository.ListOptions {
	q := r.URL.Query()
	opts := repository.ListOptions{Limit: repository.DefaultListLimit}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = v
		if v <= 0 {
			opts.Limit = 1
		}
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = v
	}
	return opts.Normalize()
}

// decodeJSON reads a size-limited JSON body into dst. A malformed body is a
// validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}
