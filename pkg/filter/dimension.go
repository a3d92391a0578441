package filter

import (
	"sort"
	"sync"

	"github.com/coolbeans/votetable/pkg/votes"
)

// Dimension indexes records by party and exposes the ones passing the
// active filter. It is safe for concurrent use.
type Dimension struct {
	mu      sync.RWMutex
	records []votes.VoteRecord
	active  Filter
}

// NewDimension creates a dimension over records with no filter applied.
func NewDimension(records []votes.VoteRecord) *Dimension {
	dimension := &Dimension{}
	dimension.Replace(records)
	return dimension
}

// Replace swaps in a new record set, keeping the active filter.
func (dimension *Dimension) Replace(records []votes.VoteRecord) {
	indexed := make([]votes.VoteRecord, len(records))
	copy(indexed, records)
	sort.SliceStable(indexed, func(i, j int) bool {
		return indexed[i].Party > indexed[j].Party
	})

	dimension.mu.Lock()
	dimension.records = indexed
	dimension.mu.Unlock()
}

// Apply replaces the active filter.
func (dimension *Dimension) Apply(parsedFilter Filter) {
	dimension.mu.Lock()
	dimension.active = parsedFilter
	dimension.mu.Unlock()
}

// Reset clears the active filter.
func (dimension *Dimension) Reset() {
	dimension.Apply(Filter{})
}

// Size returns the number of records held, filtered or not.
func (dimension *Dimension) Size() int {
	dimension.mu.RLock()
	defer dimension.mu.RUnlock()
	return len(dimension.records)
}

// Filtered returns a copy of the records passing the active filter, in
// descending party order. Records sharing a party keep their load order.
func (dimension *Dimension) Filtered() []votes.VoteRecord {
	dimension.mu.RLock()
	defer dimension.mu.RUnlock()

	filteredRecords := make([]votes.VoteRecord, 0, len(dimension.records))
	for _, record := range dimension.records {
		if dimension.active.Match(record) {
			filteredRecords = append(filteredRecords, record)
		}
	}
	return filteredRecords
}
