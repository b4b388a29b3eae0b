package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/faceless/internal/auth"
	"github.com/sakif/faceless/internal/client"
	"github.com/sakif/faceless/internal/model"
	"github.com/sakif/faceless/internal/repository/sqlite"
	"github.com/sakif/faceless/internal/server"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("feedctl-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	srv := server.New(server.Config{DevLogin: true}, server.Deps{
		Store:  db,
		Tokens: tokens,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestRun_BrowseLikeAndComment(t *testing.T) {
	ts := newAPI(t)
	ctx := context.Background()

	author := client.New(ts.URL)
	_, err := author.DevLogin(ctx, "grace", "grace@example.com")
	require.NoError(t, err)
	_, err = author.CreatePost(ctx, client.NewPost{Type: model.PostTypeText, Content: "first words"})
	require.NoError(t, err)

	in := strings.NewReader("l\nc\nsay hello there\nc\nshare\nbogus\nq\n")
	var out bytes.Buffer
	require.NoError(t, run(ctx, ts.URL, "ada", "", in, &out))

	got := out.String()
	assert.Contains(t, got, "logged in as ada")
	assert.Contains(t, got, "[1/1]")
	assert.Contains(t, got, "first words")
	assert.Contains(t, got, "liked=false saved=false")
	assert.Contains(t, got, "liked=true saved=false")
	assert.Contains(t, got, "no comments yet")
	assert.Contains(t, got, ": hello there")
	assert.Contains(t, got, ts.URL+"/posts/")
	assert.Contains(t, got, `unknown command "bogus"`)
}

func TestRun_EmptyFeed(t *testing.T) {
	ts := newAPI(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), ts.URL, "", "", strings.NewReader("j\nq\n"), &out))

	assert.Contains(t, out.String(), "no posts yet")
	assert.Contains(t, out.String(), "the feed is empty")
}

func TestRun_PublishProfileAndSubscribe(t *testing.T) {
	ts := newAPI(t)
	ctx := context.Background()

	author := client.New(ts.URL)
	_, err := author.DevLogin(ctx, "grace", "grace@example.com")
	require.NoError(t, err)
	_, err = author.CreatePost(ctx, client.NewPost{Type: model.PostTypeText, Content: "grace here"})
	require.NoError(t, err)

	in := strings.NewReader("post text hello from ada\nme\nname ada_l\nme\nj\nsub\npost video\nq\n")
	var out bytes.Buffer
	require.NoError(t, run(ctx, ts.URL, "ada", "", in, &out))

	got := out.String()
	assert.Contains(t, got, "* Post created:")
	assert.Contains(t, got, "[1/2] @unknown text")
	assert.Contains(t, got, "hello from ada")
	assert.Contains(t, got, "1 posts")
	assert.Contains(t, got, "* Profile updated:")
	assert.Contains(t, got, "[1/2] @ada_l text", "the feed reloads with the new username")
	assert.Contains(t, got, "@ada_l (ada)")
	assert.Contains(t, got, "* Subscribed:")
	assert.Contains(t, got, "! Error: Please select a video to upload.")
}

func TestSession_ExpiredLoginIsPrintedByTheLoop(t *testing.T) {
	var out bytes.Buffer
	s := &session{client: client.New("http://faceless.test"), out: &out, expired: make(chan struct{}, 1)}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.loginExpired()
		s.loginExpired()
	}()
	wg.Wait()

	s.prompt()
	s.prompt()
	assert.Equal(t, "session expired, log in at http://faceless.test/api/login\n> > ", out.String())
}
