package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mise-en-place/cli/internal/batch"
	"github.com/mise-en-place/cli/internal/tabs"
	"github.com/mise-en-place/cli/pkg/api"
	"github.com/mise-en-place/cli/pkg/util"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// BulkInput holds input for a bulk import.
type BulkInput struct {
	Candidates []tabs.Candidate
	// ServiceHost is left out of the candidates.
	ServiceHost   string
	Yes           bool
	ResolveTitles bool
	Open          bool
	Output        string
}

// Bulk imports many pages one after the other. A failed page does not stop
// the others.
func (c ImportCmd) Bulk(ctx context.Context, in BulkInput) error {
	if err := checkOutput(in.Output); err != nil {
		return err
	}
	token, err := requireToken(c.store)
	if err != nil {
		return err
	}

	cands := tabs.Filter(in.Candidates, in.ServiceHost)
	if len(cands) == 0 {
		return api.Validationf("No importable pages found")
	}
	if in.ResolveTitles {
		cands = tabs.ResolveTitles(ctx, c.httpClient, cands, c.logger())
	}
	if in.Output != "json" {
		pterm.Info.Printf("Found %d tabs\n", len(cands))
	}

	chosen := cands
	if !in.Yes {
		if c.prompt == nil {
			return fmt.Errorf("choosing pages needs an interactive terminal: pass --yes to import all of them")
		}
		labels := lo.Map(cands, func(t tabs.Candidate, i int) string {
			return fmt.Sprintf("%d. %s (%s)", i+1, util.Truncate(t.DisplayTitle(), 50), t.URL)
		})
		picked, err := c.prompt.MultiSelect("Pages to import", labels, nil)
		if err != nil {
			return err
		}
		chosen = lo.Map(picked, func(i int, _ int) tabs.Candidate { return cands[i] })
	}
	if len(chosen) == 0 {
		return api.Validationf("Please select at least one tab")
	}
	if !in.Yes {
		ok, err := c.prompt.Confirm(fmt.Sprintf("Import %s?", util.Plural(len(chosen), "page")), true)
		if err != nil {
			return err
		}
		if !ok {
			pterm.Info.Println("Bulk import cancelled")
			return nil
		}
	}

	items := batch.ItemsFromURLs(tabs.URLs(chosen))
	var out batch.Outcome
	if in.Output == "json" {
		out, err = c.runner(nil).Run(ctx, token, items)
		if jerr := util.PrintPrettyJSON(outcomeJSON(out, c.recipes.CollectionURL())); jerr != nil {
			return jerr
		}
		return err
	}

	out, err = c.runWithProgress(ctx, token, items)
	if err != nil {
		pterm.Warning.Printf("Stopped after %d of %d pages\n", out.Attempted, len(items))
	}

	msg := fmt.Sprintf("Bulk import complete! %d recipes imported%s", out.Succeeded, failedSuffix(out.Failed))
	if out.Succeeded > 0 {
		pterm.Success.Println(msg)
	} else {
		pterm.Error.Println(msg)
	}
	printFailures(out)
	if err != nil {
		return err
	}
	c.openDestination(in.Open, out)
	return nil
}

// --- Cobra wiring ---

var bulkCmd = &cobra.Command{
	Use:   "bulk [url...]",
	Short: "Import many pages at once",
	Long: `Import the recipes on many pages, one after the other.

Pages come from the arguments, from a file with one URL per line
(--from-file, "-" for stdin), or from the open tabs of a Chromium browser
started with --remote-debugging-port (--devtools). With no source given the
browser at the configured DevTools address is used.`,
	Example: `  mep bulk https://example.com/soup https://example.com/bread --yes
  mep bulk --from-file weekend.txt
  google-chrome --remote-debugging-port=9222 &
  mep bulk --devtools http://127.0.0.1:9222 --resolve-titles`,
	RunE: runBulk,
}

func init() {
	addOutputFlag(bulkCmd)
	bulkCmd.Flags().String("from-file", "", "Read URLs from a file, one per line (- for stdin)")
	bulkCmd.Flags().String("devtools", "", "DevTools address of a browser to list open tabs from (env MEP_DEVTOOLS_URL)")
	bulkCmd.Flags().BoolP("yes", "y", false, "Import every page without asking")
	bulkCmd.Flags().Bool("resolve-titles", false, "Fetch page titles for pages listed without one")
	bulkCmd.Flags().Duration("delay", 0, "Pause between imports (default from config, 500ms)")
	bulkCmd.Flags().Bool("open", false, "Open your collection in the browser when done")
}

func runBulk(cmd *cobra.Command, args []string) error {
	a := getApp(cmd)
	fromFile, _ := cmd.Flags().GetString("from-file")
	devtools, _ := cmd.Flags().GetString("devtools")
	yes, _ := cmd.Flags().GetBool("yes")
	resolve, _ := cmd.Flags().GetBool("resolve-titles")
	delay, _ := cmd.Flags().GetDuration("delay")
	open, _ := cmd.Flags().GetBool("open")
	output := getOutput(cmd)

	if output == "json" && !yes {
		return fmt.Errorf("--output json needs --yes")
	}

	cands, err := collectCandidates(cmd.Context(), cmd.InOrStdin(), args, fromFile, devtools, a.cfg.DevToolsURL)
	if err != nil {
		return err
	}

	var prompt Prompter
	if !yes {
		prompt = ptermPrompter{}
	}
	c := newImportCmd(cmd, prompt)
	if cmd.Flags().Changed("delay") {
		c.delay = delay
	}
	return c.Bulk(cmd.Context(), BulkInput{
		Candidates:    cands,
		ServiceHost:   a.cfg.ServiceHost(),
		Yes:           yes,
		ResolveTitles: resolve,
		Open:          open,
		Output:        output,
	})
}

// collectCandidates gathers pages from args, a URL list and a browser, in
// that order. The browser at fallbackDevTools is only asked when nothing
// else was given.
func collectCandidates(ctx context.Context, stdin io.Reader, args []string, fromFile, devtools, fallbackDevTools string) ([]tabs.Candidate, error) {
	var cands []tabs.Candidate
	cands = append(cands, tabs.FromURLs(args)...)

	if fromFile != "" {
		r := stdin
		if fromFile != "-" {
			f, err := os.Open(fromFile)
			if err != nil {
				return nil, fmt.Errorf("failed to open URL list: %w", err)
			}
			defer f.Close()
			r = f
		}
		listed, err := tabs.ReadLines(r)
		if err != nil {
			return nil, err
		}
		cands = append(cands, listed...)
	}

	if devtools == "" && len(cands) == 0 {
		devtools = fallbackDevTools
	}
	if devtools != "" {
		open, err := tabs.DevToolsSource{Endpoint: devtools}.List(ctx)
		if err != nil {
			return nil, err
		}
		cands = append(cands, open...)
	}

	// IDs follow the combined order.
	for i := range cands {
		cands[i].ID = i + 1
	}
	return cands, nil
}
