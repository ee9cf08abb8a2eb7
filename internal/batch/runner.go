// Package batch saves a sequence of recipes one at a time.
package batch

import (
	"context"
	"time"

	"github.com/mise-en-place/cli/pkg/api"
	"github.com/mise-en-place/cli/pkg/recipe"
	"github.com/pterm/pterm"
)

// DefaultDelay is the pause between two saves.
const DefaultDelay = 500 * time.Millisecond

// Saver saves one recipe. *api.Client satisfies it.
type Saver interface {
	SaveRecipe(ctx context.Context, token, sourceURL string, draft *recipe.Draft) (api.SaveResult, error)
}

// Item is one thing to save: a source page, and optionally the edited
// recipe to save in place of whatever the service extracts from it.
type Item struct {
	SourceURL string
	Recipe    *recipe.Draft
}

// Label is a short name for progress output.
func (it Item) Label() string {
	if it.Recipe != nil && it.Recipe.Title != "" {
		return it.Recipe.Title
	}
	return it.SourceURL
}

// ItemsFromURLs builds one item per URL, in order.
func ItemsFromURLs(urls []string) []Item {
	items := make([]Item, 0, len(urls))
	for _, u := range urls {
		items = append(items, Item{SourceURL: u})
	}
	return items
}

// ItemsFromDrafts builds one item per draft, all sharing sourceURL.
func ItemsFromDrafts(sourceURL string, drafts []recipe.Draft) []Item {
	items := make([]Item, 0, len(drafts))
	for i := range drafts {
		d := drafts[i].Clone()
		items = append(items, Item{SourceURL: sourceURL, Recipe: &d})
	}
	return items
}

// ItemResult is what happened to one item.
type ItemResult struct {
	Item      Item
	RecipeURL string
	Err       error
}

// OK reports whether the item was saved.
func (r ItemResult) OK() bool { return r.Err == nil }

// Outcome summarises a batch. Attempted always equals Succeeded + Failed.
type Outcome struct {
	Attempted    int
	Succeeded    int
	Failed       int
	LastSavedURL string
	Results      []ItemResult
}

// Destination is where the user should be taken after the batch: the saved
// recipe when exactly one item was processed and it succeeded, the
// collection when more than one was processed, nowhere otherwise.
func (o Outcome) Destination(collectionURL string) string {
	switch {
	case o.Attempted == 1 && o.Succeeded == 1:
		return o.LastSavedURL
	case o.Attempted > 1:
		return collectionURL
	default:
		return ""
	}
}

// Progress is reported after each item.
type Progress struct {
	Index  int
	Total  int
	Result ItemResult
}

// Option configures a Runner.
type Option func(*Runner)

// WithDelay sets the pause between items. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithSleep replaces the function used to pause between items.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(r *Runner) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// WithProgress sets a callback invoked after each item.
func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *pterm.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// Runner saves items strictly in sequence.
type Runner struct {
	saver    Saver
	delay    time.Duration
	sleep    func(context.Context, time.Duration) error
	progress func(Progress)
	log      *pterm.Logger
}

// NewRunner creates a runner saving through saver.
func NewRunner(saver Saver, opts ...Option) *Runner {
	r := &Runner{
		saver: saver,
		delay: DefaultDelay,
		sleep: sleepContext,
		log:   pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run saves every item in order with token. A failed item is counted and
// the batch moves on. The pause happens between items, not after the last.
//
// If ctx is cancelled the batch stops before the next item and the partial
// Outcome is returned along with ctx.Err().
func (r *Runner) Run(ctx context.Context, token string, items []Item) (Outcome, error) {
	out := Outcome{Results: make([]ItemResult, 0, len(items))}

	for i, it := range items {
		if i > 0 && r.delay > 0 {
			if err := r.sleep(ctx, r.delay); err != nil {
				return out, err
			}
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		res := ItemResult{Item: it}
		saved, err := r.saver.SaveRecipe(ctx, token, it.SourceURL, it.Recipe)
		out.Attempted++
		if err != nil {
			res.Err = err
			out.Failed++
			r.log.Warn("import failed", r.log.Args("url", it.SourceURL, "error", err))
		} else {
			res.RecipeURL = saved.RecipeURL
			out.Succeeded++
			out.LastSavedURL = saved.RecipeURL
			r.log.Debug("imported", r.log.Args("url", it.SourceURL, "recipe", saved.RecipeURL))
		}
		out.Results = append(out.Results, res)

		if r.progress != nil {
			r.progress(Progress{Index: i, Total: len(items), Result: res})
		}
	}
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
