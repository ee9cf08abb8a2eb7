package cmd

import (
	"github.com/pterm/pterm"
	"github.com/samber/lo"
)

// Prompter asks the user questions. Commands receive a nil Prompter when
// they must not block on input.
type Prompter interface {
	Confirm(msg string, def bool) (bool, error)
	// MultiSelect returns the indices of the chosen options, in order.
	MultiSelect(msg string, options []string, selected []int) ([]int, error)
	Text(msg, def string) (string, error)
	// Lines edits a block of text, one entry per line.
	Lines(msg, def string) (string, error)
}

type ptermPrompter struct{}

func (ptermPrompter) Confirm(msg string, def bool) (bool, error) {
	return pterm.DefaultInteractiveConfirm.WithDefaultValue(def).Show(msg)
}

func (ptermPrompter) MultiSelect(msg string, options []string, selected []int) ([]int, error) {
	defaults := lo.Map(selected, func(i int, _ int) string { return options[i] })
	picked, err := pterm.DefaultInteractiveMultiselect.
		WithOptions(options).
		WithDefaultOptions(defaults).
		WithMaxHeight(15).
		Show(msg)
	if err != nil {
		return nil, err
	}
	// Option labels are numbered, so they are unique.
	return lo.FilterMap(options, func(o string, i int) (int, bool) {
		return i, lo.Contains(picked, o)
	}), nil
}

func (ptermPrompter) Text(msg, def string) (string, error) {
	return pterm.DefaultInteractiveTextInput.WithDefaultValue(def).Show(msg)
}

func (ptermPrompter) Lines(msg, def string) (string, error) {
	return pterm.DefaultInteractiveTextInput.WithMultiLine().WithDefaultValue(def).Show(msg)
}
