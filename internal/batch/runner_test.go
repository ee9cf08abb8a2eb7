package batch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mise-en-place/cli/pkg/api"
	"github.com/mise-en-place/cli/pkg/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FakeSaver implements Saver for tests.
type FakeSaver struct {
	SaveRecipeFunc func(ctx context.Context, token, sourceURL string, draft *recipe.Draft) (api.SaveResult, error)
	Calls          []string
}

func (f *FakeSaver) SaveRecipe(ctx context.Context, token, sourceURL string, draft *recipe.Draft) (api.SaveResult, error) {
	f.Calls = append(f.Calls, sourceURL)
	if f.SaveRecipeFunc != nil {
		return f.SaveRecipeFunc(ctx, token, sourceURL, draft)
	}
	return api.SaveResult{RecipeURL: "https://svc/recipes/" + strings.TrimPrefix(sourceURL, "https://")}, nil
}

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func TestRun_ContinuesPastFailures(t *testing.T) {
	saver := &FakeSaver{
		SaveRecipeFunc: func(ctx context.Context, token, sourceURL string, draft *recipe.Draft) (api.SaveResult, error) {
			if sourceURL == "https://b" {
				return api.SaveResult{}, &api.RemoteRejection{Op: "import", StatusCode: 500}
			}
			return api.SaveResult{RecipeURL: "https://svc/r/" + strings.TrimPrefix(sourceURL, "https://")}, nil
		},
	}
	sleeps := &sleepRecorder{}
	var progress []Progress
	r := NewRunner(saver, WithSleep(sleeps.sleep), WithProgress(func(p Progress) { progress = append(progress, p) }))

	out, err := r.Run(context.Background(), "tok", ItemsFromURLs([]string{"https://a", "https://b", "https://c"}))
	require.NoError(t, err)

	assert.Equal(t, 3, out.Attempted)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, "https://svc/r/c", out.LastSavedURL)
	assert.Equal(t, []string{"https://a", "https://b", "https://c"}, saver.Calls)
	assert.Equal(t, []time.Duration{DefaultDelay, DefaultDelay}, sleeps.calls, "one pause between each pair of items")

	require.Len(t, out.Results, 3)
	assert.True(t, out.Results[0].OK())
	assert.False(t, out.Results[1].OK())
	assert.True(t, out.Results[2].OK())

	require.Len(t, progress, 3)
	assert.Equal(t, 1, progress[1].Index)
	assert.Equal(t, 3, progress[1].Total)
	assert.Error(t, progress[1].Result.Err)

	assert.Equal(t, "https://svc/recipes", out.Destination("https://svc/recipes"))
}

func TestRun_EveryKindOfErrorCountsAsFailed(t *testing.T) {
	errs := map[string]error{
		"https://a": &api.ConnectivityError{Op: "import", Err: errors.New("connection refused")},
		"https://b": &api.RemoteRejection{Op: "import", StatusCode: 422, Message: "No recipe found"},
		"https://c": api.Validationf("Please log in first"),
	}
	saver := &FakeSaver{
		SaveRecipeFunc: func(ctx context.Context, token, sourceURL string, draft *recipe.Draft) (api.SaveResult, error) {
			return api.SaveResult{}, errs[sourceURL]
		},
	}
	r := NewRunner(saver, WithDelay(0))

	out, err := r.Run(context.Background(), "tok", ItemsFromURLs([]string{"https://a", "https://b", "https://c"}))
	require.NoError(t, err)
	assert.Equal(t, Outcome{Attempted: 3, Failed: 3, Results: out.Results}, out)
	assert.Equal(t, out.Attempted, out.Succeeded+out.Failed)
	assert.Equal(t, "https://svc/recipes", out.Destination("https://svc/recipes"))
}

func TestRun_Empty(t *testing.T) {
	sleeps := &sleepRecorder{}
	r := NewRunner(&FakeSaver{}, WithSleep(sleeps.sleep))

	out, err := r.Run(context.Background(), "tok", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Attempted)
	assert.Empty(t, sleeps.calls)
	assert.Equal(t, "", out.Destination("https://svc/recipes"))
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	saver := &FakeSaver{
		SaveRecipeFunc: func(context.Context, string, string, *recipe.Draft) (api.SaveResult, error) {
			cancel()
			return api.SaveResult{RecipeURL: "https://svc/r/1"}, nil
		},
	}
	r := NewRunner(saver, WithSleep(func(ctx context.Context, d time.Duration) error { return ctx.Err() }))

	out, err := r.Run(ctx, "tok", ItemsFromURLs([]string{"https://a", "https://b"}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, out.Attempted)
	assert.Equal(t, 1, out.Succeeded)
	assert.Len(t, saver.Calls, 1)
}

func TestRun_PassesDraftsThrough(t *testing.T) {
	var got []*recipe.Draft
	saver := &FakeSaver{
		SaveRecipeFunc: func(ctx context.Context, token, sourceURL string, draft *recipe.Draft) (api.SaveResult, error) {
			assert.Equal(t, "tok", token)
			assert.Equal(t, "https://blog/page", sourceURL)
			got = append(got, draft)
			return api.SaveResult{RecipeURL: "https://svc/r/" + draft.Title}, nil
		},
	}
	drafts := []recipe.Draft{{Title: "Soup"}, {Title: "Bread"}}
	items := ItemsFromDrafts("https://blog/page", drafts)
	drafts[0].Title = "changed after building"

	out, err := NewRunner(saver, WithDelay(0)).Run(context.Background(), "tok", items)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Soup", got[0].Title)
	assert.Equal(t, "Bread", got[1].Title)
	assert.Equal(t, "https://svc/r/Bread", out.LastSavedURL)
}

func TestOutcomeDestination(t *testing.T) {
	const collection = "https://svc/recipes"
	tests := []struct {
		name string
		out  Outcome
		want string
	}{
		{"single success", Outcome{Attempted: 1, Succeeded: 1, LastSavedURL: "https://svc/r/1"}, "https://svc/r/1"},
		{"single failure", Outcome{Attempted: 1, Failed: 1}, ""},
		{"several", Outcome{Attempted: 2, Succeeded: 1, Failed: 1, LastSavedURL: "https://svc/r/1"}, collection},
		{"several all failed", Outcome{Attempted: 2, Failed: 2}, collection},
		{"none", Outcome{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.out.Destination(collection))
		})
	}
}

func TestItemLabel(t *testing.T) {
	assert.Equal(t, "https://a", Item{SourceURL: "https://a"}.Label())
	assert.Equal(t, "Soup", Item{SourceURL: "https://a", Recipe: &recipe.Draft{Title: "Soup"}}.Label())
}
