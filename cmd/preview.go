package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/mise-en-place/cli/internal/batch"
	"github.com/mise-en-place/cli/pkg/api"
	"github.com/mise-en-place/cli/pkg/recipe"
	"github.com/mise-en-place/cli/pkg/util"
	"github.com/pterm/pterm"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// PreviewInput holds input for previewing a page.
type PreviewInput struct {
	URL    string
	Output string
	// Save imports the selected recipes after the preview.
	Save bool
	// Edit prompts for changes to each selected recipe before saving.
	Edit bool
	// All selects every recipe without asking.
	All bool
	// Select lists the 1-based recipes to save.
	Select []int
	Open   bool
}

// Preview extracts the recipes on a page and, with Save, imports the ones
// the user keeps.
func (c ImportCmd) Preview(ctx context.Context, in PreviewInput) error {
	if err := checkOutput(in.Output); err != nil {
		return err
	}
	if err := validatePageURL(in.URL); err != nil {
		return err
	}
	if in.All && len(in.Select) > 0 {
		return fmt.Errorf("--all and --select cannot be used together")
	}
	token, err := requireToken(c.store)
	if err != nil {
		return err
	}

	spinner, _ := pterm.DefaultSpinner.Start("Extracting recipe...")
	result, err := c.recipes.PreviewRecipe(ctx, token, in.URL)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		reportUnauthorized(err)
		return util.CleanedUpAPIError{Err: err}
	}
	log := c.logger()
	log.Debug("preview loaded", log.Args("log_id", result.LogID, "recipes", result.RecipeCount()))

	set := recipe.NewSelectionSet(result)
	if !in.Save {
		if in.Output == "json" {
			return util.PrintPrettyJSON(result)
		}
		printPreview(set)
		pterm.Info.Println("Run again with --save to import, or --save --edit to make changes first.")
		return nil
	}

	if in.Output != "json" {
		printPreview(set)
	}
	if err := c.chooseRecipes(set, in); err != nil {
		return err
	}
	if in.Edit {
		if err := c.editSelected(set); err != nil {
			return err
		}
	}

	drafts := set.CommitEditsAndCollectSelected()
	if len(drafts) == 0 {
		return api.Validationf("Please select at least one recipe")
	}

	var out batch.Outcome
	items := batch.ItemsFromDrafts(set.SourceURL(), drafts)
	if in.Output == "json" {
		out, err = c.runner(nil).Run(ctx, token, items)
	} else {
		out, err = c.runWithProgress(ctx, token, items)
	}
	if in.Output == "json" {
		if jerr := util.PrintPrettyJSON(outcomeJSON(out, c.recipes.CollectionURL())); jerr != nil {
			return jerr
		}
		return err
	}
	if err != nil {
		return err
	}

	switch {
	case out.Attempted == 1 && out.Succeeded == 1:
		pterm.Success.Println("Recipe saved successfully!")
	case out.Attempted == 1:
		reportUnauthorized(out.Results[0].Err)
		return util.CleanedUpAPIError{Err: out.Results[0].Err}
	case out.Succeeded > 0:
		pterm.Success.Printf("Saved %s%s\n", util.Plural(out.Succeeded, "recipe"), failedSuffix(out.Failed))
	default:
		pterm.Error.Printf("No recipes were saved, %d failed\n", out.Failed)
	}
	printFailures(out)
	c.openDestination(in.Open, out)
	return nil
}

// chooseRecipes applies --all or --select, or asks when the page has more
// than one recipe.
func (c ImportCmd) chooseRecipes(set *recipe.SelectionSet, in PreviewInput) error {
	switch {
	case in.All:
		set.SetAllSelected(true)
		return nil
	case len(in.Select) > 0:
		set.SetAllSelected(false)
		for _, n := range in.Select {
			if !set.SetSelected(n-1, true) {
				return api.Validationf("recipe %d does not exist: the page has %s", n, util.Plural(set.Len(), "recipe"))
			}
		}
		return nil
	case set.Len() > 1 && c.prompt != nil:
		labels := make([]string, set.Len())
		for i := range labels {
			d, _ := set.Recipe(i)
			labels[i] = fmt.Sprintf("%d. %s", i+1, util.FirstOrDash(d.Title))
		}
		current := lo.Filter(lo.Range(set.Len()), func(i int, _ int) bool { return set.IsSelected(i) })
		picked, err := c.prompt.MultiSelect("Recipes to save", labels, current)
		if err != nil {
			return err
		}
		set.SetAllSelected(false)
		for _, i := range picked {
			set.SetSelected(i, true)
		}
		return nil
	default:
		return nil
	}
}

// editSelected walks the selected recipes and lets the user change each.
func (c ImportCmd) editSelected(set *recipe.SelectionSet) error {
	if c.prompt == nil {
		return fmt.Errorf("--edit needs an interactive terminal")
	}
	for i := 0; i < set.Len(); i++ {
		if !set.IsSelected(i) {
			continue
		}
		set.SwitchActive(i)
		if err := c.editActive(set); err != nil {
			return err
		}
	}
	return nil
}

func (c ImportCmd) editActive(set *recipe.SelectionSet) error {
	r := set.Active()
	ed := set.Editor()
	pterm.Println()
	pterm.Info.Printf("Editing recipe %d of %d: %s\n", r+1, set.Len(), util.FirstOrDash(ed.Title))

	var err error
	if ed.Title, err = c.prompt.Text("Title", ed.Title); err != nil {
		return err
	}
	if ed.Description, err = c.prompt.Text("Description", ed.Description); err != nil {
		return err
	}

	if len(ed.Ingredients) > 0 {
		drop, err := c.prompt.MultiSelect("Ingredients to remove", numbered(ed.Ingredients), nil)
		if err != nil {
			return err
		}
		for _, k := range descending(drop) {
			set.RemoveIngredient(r, k)
		}
	}
	// Removal rebuilds the editor.
	ed = set.Editor()
	if len(ed.Steps) > 0 {
		drop, err := c.prompt.MultiSelect("Steps to remove", numbered(ed.Steps), nil)
		if err != nil {
			return err
		}
		for _, k := range descending(drop) {
			set.RemoveStep(r, k)
		}
	}
	ed = set.Editor()

	lines, err := c.prompt.Lines("Ingredients, one per line", strings.Join(ed.Ingredients, "\n"))
	if err != nil {
		return err
	}
	ed.Ingredients = strings.Split(lines, "\n")

	lines, err = c.prompt.Lines("Steps, one per line", strings.Join(ed.Steps, "\n"))
	if err != nil {
		return err
	}
	ed.Steps = strings.Split(lines, "\n")
	return nil
}

func numbered(lines []string) []string {
	return lo.Map(lines, func(s string, i int) string { return fmt.Sprintf("%d. %s", i+1, s) })
}

func descending(idx []int) []int {
	out := slices.Clone(idx)
	slices.Sort(out)
	slices.Reverse(out)
	return out
}

func failedSuffix(failed int) string {
	if failed == 0 {
		return ""
	}
	return fmt.Sprintf(", %d failed", failed)
}

// --- Cobra wiring ---

var previewCmd = &cobra.Command{
	Use:   "preview <url>",
	Short: "Preview the recipes on a page, then optionally edit and save them",
	Long: `Extract the recipes on a page and show them without saving anything.

With --save the recipes are imported after the preview. Pages with several
recipes ask which ones to keep unless --all or --select is given. With --edit
each kept recipe can be changed before it is saved.`,
	Example: `  mep preview https://example.com/tomato-soup
  mep preview https://example.com/holiday-menu --save --select 1,3
  mep preview https://example.com/bread --save --edit`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	addOutputFlag(previewCmd)
	previewCmd.Flags().Bool("save", false, "Import the selected recipes after previewing")
	previewCmd.Flags().Bool("edit", false, "Edit each selected recipe before saving (requires --save)")
	previewCmd.Flags().Bool("all", false, "Select every recipe on the page")
	previewCmd.Flags().IntSlice("select", nil, "Recipes to save, by number (e.g. 1,3)")
	previewCmd.Flags().Bool("open", false, "Open the result in the browser after saving")
	previewCmd.MarkFlagsMutuallyExclusive("all", "select")
}

func runPreview(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")
	edit, _ := cmd.Flags().GetBool("edit")
	all, _ := cmd.Flags().GetBool("all")
	sel, _ := cmd.Flags().GetIntSlice("select")
	open, _ := cmd.Flags().GetBool("open")
	output := getOutput(cmd)

	if edit && !save {
		return fmt.Errorf("--edit requires --save")
	}
	if edit && output == "json" {
		return fmt.Errorf("--edit cannot be combined with --output json")
	}

	var prompt Prompter
	if output != "json" {
		prompt = ptermPrompter{}
	}
	c := newImportCmd(cmd, prompt)
	return c.Preview(cmd.Context(), PreviewInput{
		URL:    args[0],
		Output: output,
		Save:   save,
		Edit:   edit,
		All:    all,
		Select: sel,
		Open:   open,
	})
}
