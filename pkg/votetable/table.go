// Package votetable groups filtered vote records by party, vote or state and
// lays the groups out as a multi-column table. Encoders in this package turn
// the resulting Table into HTML, Markdown or terminal text; applying the
// output to a display location is left to the container package.
package votetable

import "github.com/coolbeans/votetable/pkg/votes"

// Table is the declarative result of a render: one row of columns.
type Table struct {
	// GroupBy is the key the records were grouped by after coercion.
	GroupBy votes.GroupKey

	// Columns holds the balanced columns in display order.
	Columns []Column

	// Total is the number of records the table was built from.
	Total int
}

// Column is a single table cell holding consecutive groups.
type Column struct {
	Groups []GroupBlock
}

// GroupBlock is one group with its header and sorted member entries.
type GroupBlock struct {
	// Key is the group's value for the GroupBy field.
	Key string

	// Header is the "{groupBy}: {key}" line shown above the entries.
	Header string

	Entries []Entry
}

// Entry is one linked member line.
type Entry struct {
	Label  string
	Href   string
	Record votes.Projection
}

// Entries returns every entry in display order.
func (table *Table) Entries() []Entry {
	var entries []Entry
	for _, column := range table.Columns {
		for _, group := range column.Groups {
			entries = append(entries, group.Entries...)
		}
	}
	return entries
}

// Groups returns every group block in display order.
func (table *Table) Groups() []GroupBlock {
	var groups []GroupBlock
	for _, column := range table.Columns {
		groups = append(groups, column.Groups...)
	}
	return groups
}

// GroupCount returns the number of groups across all columns.
func (table *Table) GroupCount() int {
	count := 0
	for _, column := range table.Columns {
		count += len(column.Groups)
	}
	return count
}

// EntryCount returns the number of member lines in the column.
func (column Column) EntryCount() int {
	count := 0
	for _, group := range column.Groups {
		count += len(group.Entries)
	}
	return count
}
