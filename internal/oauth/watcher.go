// Package oauth drives sign-in through an external identity provider. The
// provider hands the token to a local callback, which stores it; the
// Watcher notices the stored token by polling the credential store.
package oauth

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mise-en-place/cli/internal/credentials"
	"github.com/pterm/pterm"
)

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultTimeout      = 5 * time.Minute
)

// State is where a Watcher is in the sign-in flow.
type State int32

const (
	StateIdle State = iota
	StateAwaitingCompletion
	StateCompleted
	StateTimedOut
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCompletion:
		return "awaiting_completion"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Loader is the read side of a credentials.Store.
type Loader interface {
	Load() (*credentials.Credential, error)
}

// Window is an open authorization window.
type Window interface {
	Close() error
}

// Opener opens the authorization window at a URL.
type Opener interface {
	Open(ctx context.Context, url string) (Window, error)
}

// Result describes how a Wait ended.
type Result struct {
	State      State
	Credential *credentials.Credential
	Polls      int
	Elapsed    time.Duration
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithPollInterval sets how often the credential store is checked.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithTimeout sets how long to wait for a token before giving up.
func WithTimeout(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *pterm.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// Watcher waits for a sign-in started in an external window to complete.
type Watcher struct {
	store    Loader
	opener   Opener
	interval time.Duration
	timeout  time.Duration
	log      *pterm.Logger
	state    atomic.Int32
}

// NewWatcher creates a watcher polling store after opening windows with opener.
func NewWatcher(store Loader, opener Opener, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		store:    store,
		opener:   opener,
		interval: DefaultPollInterval,
		timeout:  DefaultTimeout,
		log:      pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current state. It is safe to call from any goroutine.
func (w *Watcher) State() State {
	return State(w.state.Load())
}

// Wait opens the authorization window at authURL and polls the store until
// a token shows up or the timeout elapses, whichever happens first.
//
// On completion the window is closed; a failure to close is only logged.
// On timeout polling stops, the window is left open and no error is
// returned. Cancelling ctx stops the wait and returns ctx.Err().
func (w *Watcher) Wait(ctx context.Context, authURL string) (Result, error) {
	start := time.Now()

	win, err := w.opener.Open(ctx, authURL)
	if err != nil {
		return Result{State: StateIdle}, fmt.Errorf("failed to open authorization window: %w", err)
	}
	w.state.Store(int32(StateAwaitingCompletion))
	w.log.Debug("waiting for sign-in", w.log.Args("interval", w.interval, "timeout", w.timeout))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(w.timeout)
	defer deadline.Stop()

	polls := 0
	finish := func(s State, c *credentials.Credential) Result {
		w.state.Store(int32(s))
		return Result{State: s, Credential: c, Polls: polls, Elapsed: time.Since(start)}
	}

	for {
		select {
		case <-ctx.Done():
			w.closeWindow(win)
			return finish(StateCancelled, nil), ctx.Err()

		case <-deadline.C:
			w.log.Debug("sign-in timed out", w.log.Args("polls", polls))
			return finish(StateTimedOut, nil), nil

		case <-ticker.C:
			polls++
			cred, err := w.store.Load()
			if err != nil {
				w.log.Warn("reading credential store", w.log.Args("error", err))
				continue
			}
			if cred.Valid() {
				w.closeWindow(win)
				return finish(StateCompleted, cred), nil
			}
		}
	}
}

func (w *Watcher) closeWindow(win Window) {
	if win == nil {
		return
	}
	if err := win.Close(); err != nil {
		w.log.Debug("closing authorization window", w.log.Args("error", err))
	}
}
