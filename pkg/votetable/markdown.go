package votetable

import (
	"fmt"
	"strings"
)

var markdownLinkEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

// markdownDestinationEscaper percent-encodes the characters that would end
// or break an inline link destination.
var markdownDestinationEscaper = strings.NewReplacer(
	" ", "%20",
	"(", "%28",
	")", "%29",
	"<", "%3C",
	">", "%3E",
)

// Markdown renders the table as a Markdown document: one section per group,
// with a horizontal rule between columns.
func Markdown(table *Table) string {
	var markdownBuilder strings.Builder
	if table == nil {
		return ""
	}

	for columnIndex, column := range table.Columns {
		if columnIndex > 0 {
			markdownBuilder.WriteString("---\n\n")
		}
		for _, group := range column.Groups {
			markdownBuilder.WriteString(fmt.Sprintf("### %s\n\n", group.Header))
			for _, entry := range group.Entries {
				markdownBuilder.WriteString(fmt.Sprintf("- [%s](%s)\n",
					markdownLinkEscaper.Replace(entry.Label), markdownDestinationEscaper.Replace(entry.Href)))
			}
			markdownBuilder.WriteString("\n")
		}
	}

	return markdownBuilder.String()
}
