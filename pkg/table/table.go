// Package table prints pterm tables the same way across commands.
package table

import (
	"strings"

	"github.com/pterm/pterm"
)

// PrintTableNoPad renders rows as a boxless table. When hasHeader is set
// the first row is styled as a header. Embedded newlines are flattened so
// a multi-line cell does not break the layout.
func PrintTableNoPad(rows pterm.TableData, hasHeader bool) {
	if len(rows) == 0 {
		return
	}
	clean := make(pterm.TableData, len(rows))
	for i, row := range rows {
		clean[i] = make([]string, len(row))
		for j, cell := range row {
			clean[i][j] = strings.Join(strings.Fields(cell), " ")
		}
	}
	_ = pterm.DefaultTable.
		WithHasHeader(hasHeader).
		WithData(clean).
		Render()
}
