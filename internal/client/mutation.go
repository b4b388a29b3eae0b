package client

import (
	"context"
	"sync"
	"time"
)

// LoginRedirectDelay is how long a 401 notice stays visible before the
// client is sent back to the login page.
const LoginRedirectDelay = 500 * time.Millisecond

// Notice is a user-facing message (a toast in a browser, a line in a
// terminal).
type Notice struct {
	Title       string
	Description string
	Destructive bool
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// MutationState is where a Mutation is in its lifecycle.
type MutationState int

const (
	MutationIdle MutationState = iota
	MutationPending
	MutationSettled
)

func (s MutationState) String() string {
	switch s {
	case MutationIdle:
		return "idle"
	case MutationPending:
		return "pending"
	case MutationSettled:
		return "settled"
	}
	return "unknown"
}

// MutationOptions configures a Mutation.
type MutationOptions struct {
	Cache    *QueryCache
	Notifier Notifier

	// FailureMessage is the notice description for any error other than
	// a 401.
	FailureMessage string

	// OnUnauthorized runs LoginRedirectDelay after a 401. Nil means no
	// redirect, only the notice.
	OnUnauthorized func()

	// AfterFunc schedules OnUnauthorized. Defaults to time.AfterFunc;
	// tests pass a fake to run it synchronously.
	AfterFunc func(time.Duration, func())

	// OnStateChange observes every transition.
	OnStateChange func(MutationState)
}

// Mutation runs one kind of write at a time.
//
// STATE MACHINE:
//
//	idle ──Run──▶ pending ──done──▶ settled ──▶ idle
//	               │
//	               └─ Run while pending → ErrMutationPending
//
// On success the listed query keys are invalidated. On failure the error
// goes to the Notifier; a 401 additionally schedules the login redirect.
type Mutation struct {
	opts MutationOptions

	mu    sync.Mutex
	state MutationState
}

func NewMutation(opts MutationOptions) *Mutation {
	if opts.AfterFunc == nil {
		opts.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	if opts.FailureMessage == "" {
		opts.FailureMessage = "Something went wrong. Please try again."
	}
	return &Mutation{opts: opts}
}

func (m *Mutation) State() MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Pending reports whether a run is in flight. UIs disable the trigger
// while it is true.
func (m *Mutation) Pending() bool { return m.State() == MutationPending }

// Run executes fn unless a previous run is still pending. The returned
// error is fn's error (already reported to the Notifier) or
// ErrMutationPending.
func (m *Mutation) Run(ctx context.Context, fn func(context.Context) error, invalidate ...string) error {
	m.mu.Lock()
	if m.state != MutationIdle {
		m.mu.Unlock()
		return ErrMutationPending
	}
	m.state = MutationPending
	m.mu.Unlock()
	m.observe(MutationPending)

	err := fn(ctx)

	m.transition(MutationSettled)
	if err != nil {
		m.fail(err)
	} else if m.opts.Cache != nil {
		m.opts.Cache.Invalidate(invalidate...)
	}
	m.transition(MutationIdle)

	return err
}

func (m *Mutation) fail(err error) {
	if IsUnauthorized(err) {
		m.notify(Notice{
			Title:       "Unauthorized",
			Description: "You are logged out. Logging in again...",
			Destructive: true,
		})
		if m.opts.OnUnauthorized != nil {
			m.opts.AfterFunc(LoginRedirectDelay, m.opts.OnUnauthorized)
		}
		return
	}
	m.notify(Notice{Title: "Error", Description: m.opts.FailureMessage, Destructive: true})
}

func (m *Mutation) notify(n Notice) {
	if m.opts.Notifier != nil {
		m.opts.Notifier.Notify(n)
	}
}

func (m *Mutation) transition(s MutationState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.observe(s)
}

func (m *Mutation) observe(s MutationState) {
	if m.opts.OnStateChange != nil {
		m.opts.OnStateChange(s)
	}
}
