package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/mise-en-place/cli/internal/credentials"
	"github.com/mise-en-place/cli/pkg/api"
	"github.com/mise-en-place/cli/pkg/recipe"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/require"
)

var outBuf bytes.Buffer

// setupStdoutCapture sends pterm output to outBuf for the rest of the test.
func setupStdoutCapture(t *testing.T) {
	t.Helper()
	outBuf.Reset()
	pterm.SetDefaultOutput(&outBuf)
	pterm.DisableStyling()
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableStyling()
	})
}

// captureStdout redirects os.Stdout, where JSON output goes, and returns a
// function that restores it and yields what was written.
func captureStdout(t *testing.T) func() string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	var buf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&buf, r)
	}()

	var once sync.Once
	restore := func() {
		once.Do(func() {
			w.Close()
			wg.Wait()
			os.Stdout = old
		})
	}
	t.Cleanup(restore)
	return func() string {
		restore()
		return buf.String()
	}
}

func newTestStore(t *testing.T) credentials.Store {
	t.Helper()
	return credentials.NewFileStore(t.TempDir())
}

func loggedInStore(t *testing.T) credentials.Store {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, s.Save(credentials.Credential{Token: "tok-1", DisplayName: "Julia"}))
	return s
}

type FakeAuthService struct {
	LoginFunc      func(ctx context.Context, email, password string) (*api.LoginResponse, error)
	FetchQuotaFunc func(ctx context.Context, token string) (api.Quota, error)
}

func (f *FakeAuthService) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, email, password)
	}
	return &api.LoginResponse{Token: "tok-1", DisplayName: email}, nil
}

func (f *FakeAuthService) FetchQuota(ctx context.Context, token string) (api.Quota, error) {
	if f.FetchQuotaFunc != nil {
		return f.FetchQuotaFunc(ctx, token)
	}
	return api.Quota{Remaining: 7, Total: 10}, nil
}

func (f *FakeAuthService) QuotaLine(ctx context.Context, token string) string {
	q, err := f.FetchQuota(ctx, token)
	if err != nil {
		return api.QuotaUnavailable
	}
	return q.String()
}

type saveCall struct {
	Token     string
	SourceURL string
	Draft     *recipe.Draft
}

type FakeRecipeService struct {
	PreviewRecipeFunc func(ctx context.Context, token, sourceURL string) (recipe.PreviewResult, error)
	SaveRecipeFunc    func(ctx context.Context, token, sourceURL string, draft *recipe.Draft) (api.SaveResult, error)
	Saves             []saveCall
}

func (f *FakeRecipeService) PreviewRecipe(ctx context.Context, token, sourceURL string) (recipe.PreviewResult, error) {
	if f.PreviewRecipeFunc != nil {
		return f.PreviewRecipeFunc(ctx, token, sourceURL)
	}
	return recipe.PreviewResult{}, api.ErrEmptyPreview
}

func (f *FakeRecipeService) SaveRecipe(ctx context.Context, token, sourceURL string, draft *recipe.Draft) (api.SaveResult, error) {
	f.Saves = append(f.Saves, saveCall{Token: token, SourceURL: sourceURL, Draft: draft})
	if f.SaveRecipeFunc != nil {
		return f.SaveRecipeFunc(ctx, token, sourceURL, draft)
	}
	return api.SaveResult{RecipeURL: "https://mise-en-place.recipes/recipes/1"}, nil
}

func (f *FakeRecipeService) CollectionURL() string {
	return "https://mise-en-place.recipes/recipes"
}

type FakePrompter struct {
	ConfirmFunc     func(msg string, def bool) (bool, error)
	MultiSelectFunc func(msg string, options []string, selected []int) ([]int, error)
	TextFunc        func(msg, def string) (string, error)
	LinesFunc       func(msg, def string) (string, error)
	Asked           []string
}

func (f *FakePrompter) Confirm(msg string, def bool) (bool, error) {
	f.Asked = append(f.Asked, msg)
	if f.ConfirmFunc != nil {
		return f.ConfirmFunc(msg, def)
	}
	return def, nil
}

func (f *FakePrompter) MultiSelect(msg string, options []string, selected []int) ([]int, error) {
	f.Asked = append(f.Asked, msg)
	if f.MultiSelectFunc != nil {
		return f.MultiSelectFunc(msg, options, selected)
	}
	return selected, nil
}

func (f *FakePrompter) Text(msg, def string) (string, error) {
	f.Asked = append(f.Asked, msg)
	if f.TextFunc != nil {
		return f.TextFunc(msg, def)
	}
	return def, nil
}

func (f *FakePrompter) Lines(msg, def string) (string, error) {
	f.Asked = append(f.Asked, msg)
	if f.LinesFunc != nil {
		return f.LinesFunc(msg, def)
	}
	return def, nil
}

// recordSleep counts pauses without waiting.
type recordSleep struct {
	calls []time.Duration
}

func (r *recordSleep) sleep(ctx context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return ctx.Err()
}
