// Package recipe holds the recipe drafts returned by a preview and the
// selection state used to pick, edit and save them.
package recipe

import (
	"encoding/json"
	"maps"
	"math"
	"strconv"
	"strings"
)

// Draft is a recipe extracted from a source page that has not been saved yet.
type Draft struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`

	// Extra carries fields of the extracted recipe this client does not
	// model (servings, images, timings). They are sent back on save.
	Extra map[string]json.RawMessage `json:"-"`
}

// Ingredient is one ingredient line. Quantity is kept as text because the
// remote side returns things like "1.5" or "" and we never do arithmetic on it.
type Ingredient struct {
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Item     string `json:"item"`
}

// PreviewResult is what a preview of one source URL produced. A page that
// yields a single recipe is represented with a one-element Recipes slice.
type PreviewResult struct {
	LogID     string  `json:"log_id,omitempty"`
	SourceURL string  `json:"source_url"`
	Recipes   []Draft `json:"recipes"`
}

// RecipeCount returns the number of recipes in the result.
func (p PreviewResult) RecipeCount() int {
	return len(p.Recipes)
}

// IsMulti reports whether the source yielded more than one recipe.
func (p PreviewResult) IsMulti() bool {
	return len(p.Recipes) > 1
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	out := d
	if d.Ingredients != nil {
		out.Ingredients = append([]Ingredient(nil), d.Ingredients...)
	}
	if d.Steps != nil {
		out.Steps = append([]string(nil), d.Steps...)
	}
	if d.Extra != nil {
		out.Extra = maps.Clone(d.Extra)
	}
	return out
}

// FormatIngredient renders an ingredient as "quantity unit item", skipping
// empty parts.
func FormatIngredient(ing Ingredient) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{ing.Quantity, ing.Unit, ing.Item} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// ParseIngredient splits free text into quantity, unit and item.
//
// If the first whitespace-separated token is numeric it is the quantity and
// the second token, when present, is the unit. Everything else is the item.
// Text without a numeric first token is all item. The split is a heuristic:
// "2 eggs" parses with unit "eggs" and an empty item.
func ParseIngredient(text string) Ingredient {
	text = strings.TrimSpace(text)
	parts := strings.Fields(text)
	if len(parts) == 0 || !isNumeric(parts[0]) {
		return Ingredient{Item: text}
	}

	ing := Ingredient{Quantity: parts[0]}
	rest := parts[1:]
	if len(rest) > 0 {
		ing.Unit = rest[0]
		rest = rest[1:]
	}
	ing.Item = strings.Join(rest, " ")
	return ing
}

func isNumeric(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f)
}
