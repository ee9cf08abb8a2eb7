package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mise-en-place/cli/internal/batch"
	"github.com/mise-en-place/cli/internal/credentials"
	"github.com/mise-en-place/cli/internal/tabs"
	"github.com/mise-en-place/cli/pkg/api"
	"github.com/mise-en-place/cli/pkg/recipe"
	"github.com/mise-en-place/cli/pkg/table"
	"github.com/mise-en-place/cli/pkg/util"
	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// RecipeService is the part of the API client used to preview and save
// recipes.
type RecipeService interface {
	PreviewRecipe(ctx context.Context, token, sourceURL string) (recipe.PreviewResult, error)
	SaveRecipe(ctx context.Context, token, sourceURL string, draft *recipe.Draft) (api.SaveResult, error)
	CollectionURL() string
}

// ImportCmd handles importing recipes: one page, a previewed page, or many
// pages in bulk.
type ImportCmd struct {
	recipes RecipeService
	store   credentials.Store
	prompt  Prompter
	log     *pterm.Logger
	// delay is the pause between two saves of a batch.
	delay time.Duration
	// sleep replaces the pause in tests.
	sleep func(context.Context, time.Duration) error
	// openURL opens a page in the browser.
	openURL func(string) error
	// httpClient fetches page titles for bulk imports.
	httpClient *http.Client
}

// ImportInput holds input for importing a single page.
type ImportInput struct {
	URL  string
	Open bool
}

// Import saves the recipe found at a URL without reviewing it first.
func (c ImportCmd) Import(ctx context.Context, in ImportInput) error {
	if err := validatePageURL(in.URL); err != nil {
		return err
	}
	token, err := requireToken(c.store)
	if err != nil {
		return err
	}

	spinner, _ := pterm.DefaultSpinner.Start("Importing recipe...")
	out, err := c.runner(nil).Run(ctx, token, batch.ItemsFromURLs([]string{in.URL}))
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		return err
	}

	res := out.Results[0]
	if !res.OK() {
		reportUnauthorized(res.Err)
		return util.CleanedUpAPIError{Err: res.Err}
	}
	pterm.Success.Println("Recipe imported successfully!")
	if res.RecipeURL != "" {
		pterm.Info.Printf("View it at %s\n", res.RecipeURL)
	}
	c.openDestination(in.Open, out)
	return nil
}

func (c ImportCmd) logger() *pterm.Logger {
	if c.log == nil {
		return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}
	return c.log
}

func (c ImportCmd) runner(progress func(batch.Progress)) *batch.Runner {
	opts := []batch.Option{batch.WithDelay(c.delay), batch.WithLogger(c.logger())}
	if c.sleep != nil {
		opts = append(opts, batch.WithSleep(c.sleep))
	}
	if progress != nil {
		opts = append(opts, batch.WithProgress(progress))
	}
	return batch.NewRunner(c.recipes, opts...)
}

// runWithProgress runs a batch behind a progress bar.
func (c ImportCmd) runWithProgress(ctx context.Context, token string, items []batch.Item) (batch.Outcome, error) {
	bar, _ := pterm.DefaultProgressbar.
		WithTotal(len(items)).
		WithTitle(fmt.Sprintf("Importing 1 of %d...", len(items))).
		WithRemoveWhenDone(true).
		Start()

	out, err := c.runner(func(p batch.Progress) {
		if bar == nil {
			return
		}
		bar.Increment()
		if next := p.Index + 2; next <= p.Total {
			bar.UpdateTitle(fmt.Sprintf("Importing %d of %d...", next, p.Total))
		}
	}).Run(ctx, token, items)

	if bar != nil {
		_, _ = bar.Stop()
	}
	return out, err
}

func (c ImportCmd) openDestination(open bool, out batch.Outcome) {
	if !open {
		return
	}
	dest := out.Destination(c.recipes.CollectionURL())
	if dest == "" {
		return
	}
	openURL := c.openURL
	if openURL == nil {
		openURL = browser.OpenURL
	}
	if err := openURL(dest); err != nil {
		pterm.Warning.Printf("Could not open browser automatically: %v\n", err)
	}
}

// printFailures lists the items of a batch that were not saved.
func printFailures(out batch.Outcome) {
	if out.Failed == 0 {
		return
	}
	rows := pterm.TableData{{"Page", "Error"}}
	for _, r := range out.Results {
		if r.OK() {
			continue
		}
		rows = append(rows, []string{util.Truncate(r.Item.Label(), 60), util.CleanedUpAPIError{Err: r.Err}.Error()})
	}
	table.PrintTableNoPad(rows, true)
}

type batchResultJSON struct {
	SourceURL string `json:"source_url"`
	Title     string `json:"title,omitempty"`
	RecipeURL string `json:"recipe_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

type batchJSON struct {
	Attempted   int               `json:"attempted"`
	Succeeded   int               `json:"succeeded"`
	Failed      int               `json:"failed"`
	Destination string            `json:"destination,omitempty"`
	Results     []batchResultJSON `json:"results"`
}

func outcomeJSON(out batch.Outcome, collectionURL string) batchJSON {
	j := batchJSON{
		Attempted:   out.Attempted,
		Succeeded:   out.Succeeded,
		Failed:      out.Failed,
		Destination: out.Destination(collectionURL),
		Results:     make([]batchResultJSON, 0, len(out.Results)),
	}
	for _, r := range out.Results {
		item := batchResultJSON{SourceURL: r.Item.SourceURL, RecipeURL: r.RecipeURL}
		if r.Item.Recipe != nil {
			item.Title = r.Item.Recipe.Title
		}
		if r.Err != nil {
			item.Error = util.CleanedUpAPIError{Err: r.Err}.Error()
		}
		j.Results = append(j.Results, item)
	}
	return j
}

func validatePageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return api.Validationf("invalid URL %q: only http and https pages can be imported", raw)
	}
	return nil
}

// --- Cobra wiring ---

var importCmd = &cobra.Command{
	Use:   "import <url>",
	Short: "Import the recipe on a page into your collection",
	Long: `Import the recipe found on a page straight into your collection.

Use 'mep preview --save' to review and edit the recipe before saving it.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("open", false, "Open the saved recipe in the browser")
}

func newImportCmd(cmd *cobra.Command, prompt Prompter) ImportCmd {
	a := getApp(cmd)
	return ImportCmd{
		recipes:    a.client,
		store:      a.store,
		prompt:     prompt,
		log:        a.log,
		delay:      time.Duration(a.cfg.BatchDelay),
		httpClient: &http.Client{Timeout: tabs.TitleTimeout},
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	open, _ := cmd.Flags().GetBool("open")
	c := newImportCmd(cmd, nil)
	return c.Import(cmd.Context(), ImportInput{URL: args[0], Open: open})
}
