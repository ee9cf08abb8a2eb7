package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mise-en-place/cli/pkg/recipe"
)

// The preview endpoint is loose about shapes. Everything is normalized
// here, once, so the rest of the program only sees recipe.Draft.

// knownRecipeKeys are modelled by recipe.Draft; everything else goes to Extra.
var knownRecipeKeys = map[string]bool{
	"title":       true,
	"description": true,
	"ingredients": true,
	"steps":       true,
}

type wireRecipe struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Ingredients []wireIngredient `json:"ingredients"`
	Steps       []wireStep       `json:"steps"`
}

func decodeDraft(raw json.RawMessage) (recipe.Draft, error) {
	var w wireRecipe
	if err := json.Unmarshal(raw, &w); err != nil {
		return recipe.Draft{}, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return recipe.Draft{}, err
	}

	d := recipe.Draft{
		Title:       w.Title,
		Description: w.Description,
	}
	for _, ing := range w.Ingredients {
		d.Ingredients = append(d.Ingredients, recipe.Ingredient(ing))
	}
	for _, st := range w.Steps {
		d.Steps = append(d.Steps, string(st))
	}
	for k, v := range all {
		if knownRecipeKeys[k] {
			continue
		}
		if d.Extra == nil {
			d.Extra = make(map[string]json.RawMessage)
		}
		d.Extra[k] = v
	}
	return d, nil
}

// encodeDraft builds the recipeData object sent on save. Unmodelled fields
// are passed through; modelled fields always win.
func encodeDraft(d recipe.Draft) map[string]any {
	out := make(map[string]any, len(d.Extra)+4)
	for k, v := range d.Extra {
		out[k] = v
	}
	ings := d.Ingredients
	if ings == nil {
		ings = []recipe.Ingredient{}
	}
	steps := d.Steps
	if steps == nil {
		steps = []string{}
	}
	out["title"] = d.Title
	out["description"] = d.Description
	out["ingredients"] = ings
	out["steps"] = steps
	return out
}

// wireIngredient accepts {"quantity","unit","item"|"name"} objects with
// string or numeric quantities, and bare strings.
type wireIngredient recipe.Ingredient

func (w *wireIngredient) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*w = wireIngredient(recipe.ParseIngredient(s))
		return nil
	}

	var obj struct {
		Quantity json.RawMessage `json:"quantity"`
		Unit     string          `json:"unit"`
		Item     string          `json:"item"`
		Name     string          `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	item := obj.Item
	if item == "" {
		item = obj.Name
	}
	*w = wireIngredient{
		Quantity: scalarText(obj.Quantity),
		Unit:     strings.TrimSpace(obj.Unit),
		Item:     strings.TrimSpace(item),
	}
	return nil
}

// scalarText renders a JSON string or number as text; null and anything
// else become "".
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		return n.String()
	}
	return ""
}

// wireStep accepts a bare string or an object. For objects the text is
// taken from "instructions", then "instruction", then "text".
type wireStep string

func (w *wireStep) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*w = wireStep(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*w = ""
		return nil
	}

	var obj struct {
		Instructions string `json:"instructions"`
		Instruction  string `json:"instruction"`
		Text         string `json:"text"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	switch {
	case obj.Instructions != "":
		*w = wireStep(obj.Instructions)
	case obj.Instruction != "":
		*w = wireStep(obj.Instruction)
	default:
		*w = wireStep(obj.Text)
	}
	return nil
}
