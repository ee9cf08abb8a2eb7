package oauth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mise-en-place/cli/internal/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore returns a credential once ready reports true.
type fakeStore struct {
	mu    sync.Mutex
	loads int
	ready func(loads int) bool
	err   error
}

func (f *fakeStore) Load() (*credentials.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	if f.ready != nil && f.ready(f.loads) {
		return &credentials.Credential{Token: "tok-1", DisplayName: "Julia"}, nil
	}
	return nil, nil
}

func (f *fakeStore) Loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

type fakeWindow struct {
	mu     sync.Mutex
	closed int
	err    error
}

func (f *fakeWindow) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return f.err
}

func (f *fakeWindow) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeOpener struct {
	url string
	win *fakeWindow
	err error
}

func (f *fakeOpener) Open(ctx context.Context, url string) (Window, error) {
	f.url = url
	if f.err != nil {
		return nil, f.err
	}
	return f.win, nil
}

func TestWatcher_CompletesOnFirstPollWithToken(t *testing.T) {
	store := &fakeStore{ready: func(loads int) bool { return loads >= 3 }}
	win := &fakeWindow{}
	opener := &fakeOpener{win: win}
	w := NewWatcher(store, opener, WithPollInterval(5*time.Millisecond), WithTimeout(5*time.Second))
	assert.Equal(t, StateIdle, w.State())

	res, err := w.Wait(context.Background(), "https://auth.example/google?extension=1")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, res.State)
	assert.Equal(t, StateCompleted, w.State())
	assert.Equal(t, 3, res.Polls)
	require.NotNil(t, res.Credential)
	assert.Equal(t, "tok-1", res.Credential.Token)
	assert.Equal(t, 1, win.Closed())
	assert.Equal(t, "https://auth.example/google?extension=1", opener.url)
}

func TestWatcher_TokenArrivesMidway(t *testing.T) {
	// Cadence 25ms, token lands at 60ms: polls at 25 and 50 miss it, the
	// poll at 75 sees it.
	start := time.Now()
	readyAt := start.Add(60 * time.Millisecond)
	store := &fakeStore{ready: func(int) bool { return !time.Now().Before(readyAt) }}
	win := &fakeWindow{}
	w := NewWatcher(store, &fakeOpener{win: win}, WithPollInterval(25*time.Millisecond), WithTimeout(5*time.Second))

	res, err := w.Wait(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, res.State)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
	assert.GreaterOrEqual(t, res.Polls, 3)
	assert.Equal(t, 1, win.Closed())
}

func TestWatcher_CloseFailureIsNotAnError(t *testing.T) {
	store := &fakeStore{ready: func(int) bool { return true }}
	win := &fakeWindow{err: errors.New("window already closed")}
	w := NewWatcher(store, &fakeOpener{win: win}, WithPollInterval(time.Millisecond))

	res, err := w.Wait(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, res.State)
}

func TestWatcher_NilLoggerKeepsDefault(t *testing.T) {
	failing := &fakeStore{err: errors.New("keyring locked")}
	w := NewWatcher(failing, &fakeOpener{win: &fakeWindow{}}, WithPollInterval(time.Millisecond), WithTimeout(10*time.Millisecond), WithLogger(nil))
	require.NotNil(t, w.log)

	res, err := w.Wait(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, res.State)

	ready := &fakeStore{ready: func(int) bool { return true }}
	win := &fakeWindow{err: errors.New("window already closed")}
	w = NewWatcher(ready, &fakeOpener{win: win}, WithPollInterval(time.Millisecond), WithLogger(nil))

	res, err = w.Wait(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, res.State)
}

func TestWatcher_TimesOutAndStopsPolling(t *testing.T) {
	store := &fakeStore{}
	win := &fakeWindow{}
	w := NewWatcher(store, &fakeOpener{win: win}, WithPollInterval(5*time.Millisecond), WithTimeout(40*time.Millisecond))

	res, err := w.Wait(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, res.State)
	assert.Equal(t, StateTimedOut, w.State())
	assert.Nil(t, res.Credential)
	assert.GreaterOrEqual(t, res.Elapsed, 40*time.Millisecond)

	loads := store.Loads()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, loads, store.Loads(), "no polls after timing out")
	assert.Equal(t, 0, win.Closed(), "the window is left open on timeout")
}

func TestWatcher_StoreErrorsKeepPolling(t *testing.T) {
	store := &fakeStore{err: errors.New("keyring locked")}
	w := NewWatcher(store, &fakeOpener{win: &fakeWindow{}}, WithPollInterval(2*time.Millisecond), WithTimeout(20*time.Millisecond))

	res, err := w.Wait(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, StateTimedOut, res.State)
	assert.Greater(t, store.Loads(), 1)
}

func TestWatcher_Cancelled(t *testing.T) {
	store := &fakeStore{}
	win := &fakeWindow{}
	w := NewWatcher(store, &fakeOpener{win: win}, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := w.Wait(ctx, "u")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateCancelled, res.State)
	assert.Equal(t, 1, win.Closed())
}

func TestWatcher_OpenFailure(t *testing.T) {
	w := NewWatcher(&fakeStore{}, &fakeOpener{err: errors.New("no display")})

	res, err := w.Wait(context.Background(), "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no display")
	assert.Equal(t, StateIdle, res.State)
	assert.Equal(t, StateIdle, w.State())
}

func TestWatcherDefaults(t *testing.T) {
	w := NewWatcher(&fakeStore{}, &fakeOpener{}, WithPollInterval(0), WithTimeout(-1))
	assert.Equal(t, DefaultPollInterval, w.interval)
	assert.Equal(t, DefaultTimeout, w.timeout)
	assert.Equal(t, 500*time.Millisecond, DefaultPollInterval)
	assert.Equal(t, 5*time.Minute, DefaultTimeout)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting_completion", StateAwaitingCompletion.String())
	assert.Equal(t, "timed_out", StateTimedOut.String())
	assert.Equal(t, "unknown", State(99).String())
}
