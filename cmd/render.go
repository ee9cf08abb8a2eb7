package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/mise-en-place/cli/pkg/recipe"
	"github.com/pterm/pterm"
)

const cardWidth = 72

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#52525b")).
			Padding(0, 1).
			Width(cardWidth)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#fde68a"))

	cardMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	cardHeadingStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#bae6fd"))

	cardBodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))
)

// renderRecipeCard lays out one recipe for the terminal. index and total
// label the recipe within a multi-recipe page.
func renderRecipeCard(d recipe.Draft, index, total int, selected bool) string {
	var parts []string

	title := d.Title
	if strings.TrimSpace(title) == "" {
		title = "Untitled recipe"
	}
	if total > 1 {
		mark := " "
		if selected {
			mark = "x"
		}
		title = fmt.Sprintf("[%s] %d. %s", mark, index+1, title)
	}
	parts = append(parts, cardTitleStyle.Render(title))
	if d.Description != "" {
		parts = append(parts, cardMetaStyle.Render(d.Description))
	}

	parts = append(parts, "", cardHeadingStyle.Render(fmt.Sprintf("Ingredients (%d)", len(d.Ingredients))))
	for _, ing := range d.Ingredients {
		parts = append(parts, cardBodyStyle.Render("• "+recipe.FormatIngredient(ing)))
	}

	parts = append(parts, "", cardHeadingStyle.Render(fmt.Sprintf("Steps (%d)", len(d.Steps))))
	for i, step := range d.Steps {
		parts = append(parts, cardBodyStyle.Render(fmt.Sprintf("%d. %s", i+1, step)))
	}

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// printPreview prints every recipe of a selection set.
func printPreview(set *recipe.SelectionSet) {
	if set.Len() > 1 {
		pterm.Info.Printf("Found %d recipes on this page\n", set.Len())
	}
	for i := 0; i < set.Len(); i++ {
		d, _ := set.Recipe(i)
		pterm.Println(renderRecipeCard(d, i, set.Len(), set.IsSelected(i)))
	}
}
