package votetable

import (
	"fmt"
	"html/template"
	"strings"
)

// Markup follows the voteview page: a full-width table with one top-aligned
// cell per column, an underlined bold header per group and one linked
// paragraph per member.
const tableTemplateText = `<table style="width:100%">
<tr>
{{- range .Columns}}
<td valign="top">
{{- range .Groups}}
<div style="padding-bottom:20px">
<p style="text-decoration:underline"><strong>{{.Header}}</strong></p>
{{- range .Entries}}
<p><a href="{{.Href}}">{{.Label}}</a></p>
{{- end}}
</div>
{{- end}}
</td>
{{- end}}
</tr>
</table>
`

var tableTemplate = template.Must(template.New("votetable").Parse(tableTemplateText))

// HTML renders the table as an HTML fragment. Labels and headers are escaped.
func HTML(table *Table) (string, error) {
	if table == nil {
		table = &Table{}
	}

	var htmlBuilder strings.Builder
	if err := tableTemplate.Execute(&htmlBuilder, table); err != nil {
		return "", fmt.Errorf("render vote table html: %w", err)
	}
	return htmlBuilder.String(), nil
}
