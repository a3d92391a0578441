package votetable

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// TextOptions controls terminal output.
type TextOptions struct {
	// NoColor disables ANSI styling regardless of the terminal.
	NoColor bool

	// ShowLinks appends each entry's Href.
	ShowLinks bool
}

// Text writes the table as an indented terminal listing. Group headers are
// bold and underlined, column breaks are dimmed.
func Text(w io.Writer, table *Table, options TextOptions) error {
	headerStyle := color.New(color.Bold, color.Underline)
	columnStyle := color.New(color.FgHiBlack)
	linkStyle := color.New(color.FgCyan)
	if options.NoColor {
		headerStyle.DisableColor()
		columnStyle.DisableColor()
		linkStyle.DisableColor()
	}

	var textBuilder strings.Builder
	if table != nil {
		for columnIndex, column := range table.Columns {
			textBuilder.WriteString(columnStyle.Sprintf("-- column %d (%d) --", columnIndex+1, column.EntryCount()))
			textBuilder.WriteString("\n")
			for _, group := range column.Groups {
				textBuilder.WriteString(headerStyle.Sprint(group.Header))
				textBuilder.WriteString("\n")
				for _, entry := range group.Entries {
					textBuilder.WriteString("  ")
					textBuilder.WriteString(entry.Label)
					if options.ShowLinks {
						textBuilder.WriteString("  ")
						textBuilder.WriteString(linkStyle.Sprint(entry.Href))
					}
					textBuilder.WriteString("\n")
				}
			}
		}
	}

	if _, err := io.WriteString(w, textBuilder.String()); err != nil {
		return fmt.Errorf("write vote table text: %w", err)
	}
	return nil
}
