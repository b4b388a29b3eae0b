// Command feedctl browses a Faceless feed from the terminal.
//
// It drives the same feed package a graphical client would: one command
// per line stands in for a wheel tick, a tap or a key press.
//
//	j / k        next / previous post
//	n / p        next / previous image in a carousel
//	space        play or pause the active video
//	l / s        toggle like / save
//	c            open the comments of the active post
//	say <text>   post a comment (comments must be open)
//	x            close the comments
//	share        copy the post link
//	sub          subscribe to / unsubscribe from the active post's author
//	me           show your profile and posts
//	name <name>  change your username
//	bio <text>   change your bio
//	post text <content...>
//	post image <url> [url...]
//	post video <url>
//	q            quit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sakif/faceless/internal/client"
	"github.com/sakif/faceless/internal/feed"
	"github.com/sakif/faceless/internal/model"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	user := flag.String("user", "", "log in through the dev login route as this user id")
	token := flag.String("token", "", "use an existing session token")
	flag.Parse()

	if err := run(context.Background(), *baseURL, *user, *token, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "feedctl:", err)
		os.Exit(1)
	}
}

// printer is the terminal's clipboard and notifier.
type printer struct{ out io.Writer }

func (p printer) Notify(n client.Notice) {
	prefix := "*"
	if n.Destructive {
		prefix = "!"
	}
	fmt.Fprintf(p.out, "%s %s: %s\n", prefix, n.Title, n.Description)
}

func (p printer) WriteText(s string) error {
	_, err := fmt.Fprintln(p.out, s)
	return err
}

// session is one terminal's view of the app.
type session struct {
	client *client.Client
	deps   feed.Deps
	nav    *feed.Navigator
	out    io.Writer

	// expired receives the login redirect, which fires from a timer
	// goroutine. Only the command loop writes to out.
	expired chan struct{}
}

func run(ctx context.Context, baseURL, user, token string, in io.Reader, out io.Writer) error {
	c := client.New(baseURL, client.WithToken(token))
	if user != "" {
		res, err := c.DevLogin(ctx, user, user+"@faceless.local")
		if err != nil {
			return fmt.Errorf("dev login: %w", err)
		}
		fmt.Fprintf(out, "logged in as %s\n", res.User.ID)
	}

	s := &session{client: c, out: out, expired: make(chan struct{}, 1)}
	p := printer{out: out}
	s.deps = feed.Deps{
		API:            c,
		Cache:          client.NewQueryCache(),
		Notifier:       p,
		Authenticated:  c.Authenticated(),
		Clipboard:      p,
		OnUnauthorized: s.loginExpired,
	}
	s.nav = feed.NewNavigator(s.deps)
	defer s.nav.Close()

	if err := s.show(ctx); err != nil {
		return err
	}

	sc := bufio.NewScanner(in)
	for s.prompt(); sc.Scan(); s.prompt() {
		line := strings.TrimSpace(sc.Text())
		if line == "q" {
			return nil
		}
		if err := s.command(ctx, line); err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}
		if err := s.show(ctx); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
	return sc.Err()
}

// loginExpired may run on any goroutine. Repeats before the next prompt
// collapse into one message.
func (s *session) loginExpired() {
	select {
	case s.expired <- struct{}{}:
	default:
	}
}

func (s *session) prompt() {
	select {
	case <-s.expired:
		fmt.Fprintf(s.out, "session expired, log in at %s\n", s.client.LoginURL())
	default:
	}
	fmt.Fprint(s.out, "> ")
}

func (s *session) command(ctx context.Context, line string) error {
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	// Commands that do not need a post on screen.
	switch verb {
	case "":
		return nil
	case "me":
		return s.showProfile(ctx)
	case "name", "bio":
		return s.editProfile(ctx, verb, arg)
	case "post":
		return s.publish(ctx, arg)
	}

	nav := s.nav
	post, ok := nav.Active()
	if !ok {
		return fmt.Errorf("the feed is empty")
	}

	switch {
	case line == "j":
		nav.Wheel(1)
	case line == "k":
		nav.Wheel(-1)
	case line == "n", line == "p":
		r, err := nav.Renderer(post)
		if err != nil {
			return err
		}
		if img, ok := r.(*feed.ImageRenderer); ok {
			if line == "n" {
				img.Next()
			} else {
				img.Prev()
			}
		}
	case line == "space":
		r, err := nav.Renderer(post)
		if err != nil {
			return err
		}
		if v, ok := r.(*feed.VideoRenderer); ok {
			v.Toggle()
		}
	case line == "l":
		return nav.ActionBar(post).ToggleLike(ctx)
	case line == "s":
		return nav.ActionBar(post).ToggleSave(ctx)
	case line == "c":
		nav.ActionBar(post).OpenComments()
		comments, err := nav.Overlay().Comments(ctx)
		if err != nil {
			return err
		}
		if len(comments) == 0 {
			fmt.Fprintln(s.out, "  no comments yet")
		}
		for _, cm := range comments {
			fmt.Fprintf(s.out, "  @%s: %s\n", cm.Username, cm.Content)
		}
	case line == "x":
		nav.CloseComments()
	case verb == "say":
		if !nav.CommentsOpen() {
			return fmt.Errorf("open the comments first with c")
		}
		nav.Overlay().SetInput(arg)
		return nav.Overlay().Submit(ctx)
	case line == "share":
		return nav.ActionBar(post).Share()
	case line == "sub":
		return feed.NewProfile(s.deps, post.UserID).ToggleSubscribe(ctx)
	default:
		return fmt.Errorf("unknown command %q", line)
	}
	return nil
}

func (s *session) showProfile(ctx context.Context) error {
	profile := feed.NewProfile(s.deps, "")
	u, err := profile.User(ctx)
	if err != nil {
		return err
	}
	posts, err := profile.Posts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "  @%s (%s) %q, %d posts\n", u.Username, u.ID, u.Bio, len(posts))
	return nil
}

func (s *session) editProfile(ctx context.Context, field, value string) error {
	profile := feed.NewProfile(s.deps, "")
	if err := profile.StartEdit(ctx); err != nil {
		return err
	}
	if field == "name" {
		profile.SetUsername(value)
	} else {
		profile.SetBio(value)
	}
	return profile.SaveEdit(ctx)
}

func (s *session) publish(ctx context.Context, arg string) error {
	kind, rest, _ := strings.Cut(arg, " ")
	c := feed.NewComposer(s.deps)
	c.SetType(model.PostType(kind))
	if kind == string(model.PostTypeText) {
		c.SetContent(rest)
	} else {
		for _, u := range strings.Fields(rest) {
			c.AddMedia(u)
		}
	}
	_, err := c.Publish(ctx)
	return err
}

func (s *session) show(ctx context.Context) error {
	nav, out := s.nav, s.out
	frame, ok, err := nav.Current(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "no posts yet")
		return nil
	}

	v := frame.View
	fmt.Fprintf(out, "[%d/%d] %s %s %s\n", nav.Index()+1, len(nav.Posts()), v.Author, v.Type, v.Category)
	if v.Caption != "" {
		fmt.Fprintf(out, "  %s\n", v.Caption)
	}
	switch {
	case v.Placeholder != "":
		fmt.Fprintf(out, "  (%s)\n", v.Placeholder)
	case v.MediaCount > 0:
		fmt.Fprintf(out, "  image %d/%d %s\n", v.MediaIndex+1, v.MediaCount, v.Media)
	case v.Media != "":
		state := "paused"
		if v.Playing {
			state = "playing"
		}
		fmt.Fprintf(out, "  video %s %s\n", state, v.Media)
	}
	fmt.Fprintf(out, "  liked=%t saved=%t\n", frame.Status.Liked, frame.Status.Saved)
	return nil
}
