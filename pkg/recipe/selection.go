package recipe

import (
	"encoding/json"
	"strings"
)

// Editor is the in-progress, text form of the active recipe. Callers edit
// the fields directly; the changes reach the recipe when the SelectionSet
// commits them (on SwitchActive, a removal, or CommitEditsAndCollectSelected).
type Editor struct {
	Title       string
	Description string
	Ingredients []string
	Steps       []string

	// rendered and source remember what each ingredient line looked like
	// when the editor was filled, so untouched lines are not re-parsed.
	rendered []string
	source   []Ingredient
	extra    map[string]json.RawMessage
}

func newEditor(d Draft) *Editor {
	e := &Editor{
		Title:       d.Title,
		Description: d.Description,
		Ingredients: make([]string, len(d.Ingredients)),
		Steps:       append([]string(nil), d.Steps...),
		rendered:    make([]string, len(d.Ingredients)),
		source:      append([]Ingredient(nil), d.Ingredients...),
		extra:       d.Extra,
	}
	for i, ing := range d.Ingredients {
		text := FormatIngredient(ing)
		e.Ingredients[i] = text
		e.rendered[i] = text
	}
	return e
}

// draft converts the editor contents back into a Draft. Blank lines are dropped.
func (e *Editor) draft() Draft {
	d := Draft{
		Title:       strings.TrimSpace(e.Title),
		Description: strings.TrimSpace(e.Description),
		Extra:       e.extra,
	}
	for i, line := range e.Ingredients {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if i < len(e.rendered) && line == e.rendered[i] {
			d.Ingredients = append(d.Ingredients, e.source[i])
			continue
		}
		d.Ingredients = append(d.Ingredients, ParseIngredient(line))
	}
	for _, step := range e.Steps {
		if step = strings.TrimSpace(step); step != "" {
			d.Steps = append(d.Steps, step)
		}
	}
	return d
}

// SelectionSet holds the recipes of one preview together with a parallel
// inclusion flag per recipe and the editor of the active recipe.
//
// The zero value is an empty set. A SelectionSet is not safe for concurrent use.
type SelectionSet struct {
	logID     string
	sourceURL string
	recipes   []Draft
	selected  []bool
	active    int
	editor    *Editor
}

// NewSelectionSet returns a set loaded from p.
func NewSelectionSet(p PreviewResult) *SelectionSet {
	s := &SelectionSet{}
	s.LoadFrom(p)
	return s
}

// LoadFrom replaces all recipes, selects every one of them and makes the
// first recipe active.
func (s *SelectionSet) LoadFrom(p PreviewResult) {
	s.logID = p.LogID
	s.sourceURL = p.SourceURL
	s.recipes = make([]Draft, len(p.Recipes))
	s.selected = make([]bool, len(p.Recipes))
	for i, d := range p.Recipes {
		s.recipes[i] = d.Clone()
		s.selected[i] = true
	}
	s.active = 0
	s.editor = nil
	if len(s.recipes) > 0 {
		s.editor = newEditor(s.recipes[0])
	}
}

// Len returns the number of recipes in the set.
func (s *SelectionSet) Len() int { return len(s.recipes) }

// LogID returns the remote extraction log id, if any.
func (s *SelectionSet) LogID() string { return s.logID }

// SourceURL returns the page the recipes were extracted from.
func (s *SelectionSet) SourceURL() string { return s.sourceURL }

// Active returns the index of the recipe being edited.
func (s *SelectionSet) Active() int { return s.active }

// Editor returns the editor of the active recipe, or nil for an empty set.
func (s *SelectionSet) Editor() *Editor { return s.editor }

// Recipe returns a copy of the committed recipe at index i. Pending edits
// of the active recipe are not included.
func (s *SelectionSet) Recipe(i int) (Draft, bool) {
	if !s.inRange(i) {
		return Draft{}, false
	}
	return s.recipes[i].Clone(), true
}

// SwitchActive commits the editor into the active recipe and makes recipe
// i active. Out-of-range indices are ignored.
func (s *SelectionSet) SwitchActive(i int) bool {
	if !s.inRange(i) {
		return false
	}
	s.commit()
	s.active = i
	s.editor = newEditor(s.recipes[i])
	return true
}

// SetSelected includes or excludes recipe i from the next save.
func (s *SelectionSet) SetSelected(i int, included bool) bool {
	if !s.inRange(i) {
		return false
	}
	s.selected[i] = included
	return true
}

// IsSelected reports whether recipe i is included in the next save.
func (s *SelectionSet) IsSelected(i int) bool {
	return s.inRange(i) && s.selected[i]
}

// SetAllSelected includes or excludes every recipe.
func (s *SelectionSet) SetAllSelected(included bool) {
	for i := range s.selected {
		s.selected[i] = included
	}
}

// AllSelected reports whether every recipe is selected. It is false for an
// empty set.
func (s *SelectionSet) AllSelected() bool {
	return len(s.selected) > 0 && s.SelectedCount() == len(s.selected)
}

// SelectedCount returns the number of included recipes.
func (s *SelectionSet) SelectedCount() int {
	n := 0
	for _, sel := range s.selected {
		if sel {
			n++
		}
	}
	return n
}

// RemoveIngredient deletes ingredient k of recipe r. Remaining ingredients
// keep their order. When r is the active recipe, pending edits are
// committed first and the editor is rebuilt from the shorter list.
func (s *SelectionSet) RemoveIngredient(r, k int) bool {
	return s.remove(r, func(d *Draft) bool {
		if k < 0 || k >= len(d.Ingredients) {
			return false
		}
		d.Ingredients = append(d.Ingredients[:k:k], d.Ingredients[k+1:]...)
		return true
	})
}

// RemoveStep deletes step k of recipe r, like RemoveIngredient.
func (s *SelectionSet) RemoveStep(r, k int) bool {
	return s.remove(r, func(d *Draft) bool {
		if k < 0 || k >= len(d.Steps) {
			return false
		}
		d.Steps = append(d.Steps[:k:k], d.Steps[k+1:]...)
		return true
	})
}

func (s *SelectionSet) remove(r int, fn func(*Draft) bool) bool {
	if !s.inRange(r) {
		return false
	}
	if r == s.active {
		s.commit()
	}
	if !fn(&s.recipes[r]) {
		return false
	}
	if r == s.active {
		s.editor = newEditor(s.recipes[r])
	}
	return true
}

// CommitEditsAndCollectSelected commits the editor and returns copies of the
// selected recipes in their original order. The result is empty, not nil,
// when nothing is selected.
func (s *SelectionSet) CommitEditsAndCollectSelected() []Draft {
	s.commit()
	out := make([]Draft, 0, len(s.recipes))
	for i, d := range s.recipes {
		if s.selected[i] {
			out = append(out, d.Clone())
		}
	}
	return out
}

func (s *SelectionSet) commit() {
	if s.editor == nil || !s.inRange(s.active) {
		return
	}
	s.recipes[s.active] = s.editor.draft()
	s.editor = newEditor(s.recipes[s.active])
}

func (s *SelectionSet) inRange(i int) bool {
	return i >= 0 && i < len(s.recipes)
}
