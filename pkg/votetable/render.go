package votetable

import (
	"fmt"
	"sort"

	"github.com/coolbeans/votetable/pkg/votes"
)

// DefaultLinkPrefix is prepended to a member ID to form the entry link.
const DefaultLinkPrefix = "/person/"

// DefaultColumnDivisor splits the record count into the per-column share
// used by the balancing heuristic.
const DefaultColumnDivisor = 4

// RenderOptions controls link targets and column balancing.
type RenderOptions struct {
	// LinkPrefix is prepended to the member ID in each entry's Href.
	LinkPrefix string

	// ColumnDivisor closes a column once its entry count exceeds
	// total/ColumnDivisor. Values below 1 use DefaultColumnDivisor.
	ColumnDivisor int
}

// DefaultRenderOptions returns the options matching the voteview page.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		LinkPrefix:    DefaultLinkPrefix,
		ColumnDivisor: DefaultColumnDivisor,
	}
}

// Renderer builds grouped tables from the records a RecordSource currently
// exposes. It keeps no state between renders.
type Renderer struct {
	source  votes.RecordSource
	options RenderOptions
}

// NewRenderer creates a renderer reading from source.
func NewRenderer(source votes.RecordSource, options RenderOptions) *Renderer {
	if options.ColumnDivisor < 1 {
		options.ColumnDivisor = DefaultColumnDivisor
	}
	return &Renderer{
		source:  source,
		options: options,
	}
}

// Render groups the source's filtered records by groupBy and balances the
// groups into columns. Unknown groupBy values fall back to party.
func (renderer *Renderer) Render(groupBy string) *Table {
	groupKey := votes.ParseGroupKey(groupBy)

	var filteredRecords []votes.VoteRecord
	if renderer.source != nil {
		filteredRecords = renderer.source.Filtered()
	}

	groupings := groupProjections(filteredRecords, groupKey)
	sortedKeys := make([]string, 0, len(groupings))
	for key := range groupings {
		sortedKeys = append(sortedKeys, key)
	}
	sort.Strings(sortedKeys)

	blocks := make([]GroupBlock, 0, len(sortedKeys))
	for _, key := range sortedKeys {
		members := groupings[key]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Name < members[j].Name
		})
		blocks = append(blocks, renderer.buildGroupBlock(groupKey, key, members))
	}

	return &Table{
		GroupBy: groupKey,
		Columns: balanceColumns(blocks, len(filteredRecords), renderer.options.ColumnDivisor),
		Total:   len(filteredRecords),
	}
}

// groupProjections buckets projections by the key's field, keeping source
// order inside each bucket.
func groupProjections(records []votes.VoteRecord, groupKey votes.GroupKey) map[string][]votes.Projection {
	groupings := make(map[string][]votes.Projection)
	for _, record := range records {
		projection := record.Project()
		value := groupKey.Value(projection)
		groupings[value] = append(groupings[value], projection)
	}
	return groupings
}

func (renderer *Renderer) buildGroupBlock(groupKey votes.GroupKey, key string, members []votes.Projection) GroupBlock {
	block := GroupBlock{
		Key:     key,
		Header:  fmt.Sprintf("%s: %s", groupKey, key),
		Entries: make([]Entry, 0, len(members)),
	}
	for _, member := range members {
		block.Entries = append(block.Entries, Entry{
			Label:  FormatLabel(groupKey, member),
			Href:   renderer.options.LinkPrefix + member.ID.String(),
			Record: member,
		})
	}
	return block
}

// FormatLabel returns the link text for a member under the given grouping.
// The grouped-by field is left out of the label since the header shows it.
func FormatLabel(groupKey votes.GroupKey, member votes.Projection) string {
	switch groupKey {
	case votes.GroupByParty:
		return fmt.Sprintf("%s (%s): %s", member.Name, member.State, member.Vote)
	case votes.GroupByState:
		return fmt.Sprintf("%s (%s): %s", member.Name, member.PartyInitial(), member.Vote)
	default:
		return fmt.Sprintf("%s (%s-%s)", member.Name, member.PartyInitial(), member.State)
	}
}
