// Package filter holds the loaded vote records and the criteria currently
// narrowing them. A Dimension is the record source the vote table renders
// from: it hands out the records that pass every active criterion, ordered
// by party from the top down.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/coolbeans/votetable/pkg/votes"
)

// ErrInvalidCongress is returned when a congress criterion cannot be parsed.
var ErrInvalidCongress = errors.New("invalid congress ID supplied")

// Criteria is the raw, user-supplied filter input. Empty fields are ignored.
type Criteria struct {
	Party    string `mapstructure:"party" yaml:"party,omitempty"`
	State    string `mapstructure:"state" yaml:"state,omitempty"`
	Vote     string `mapstructure:"vote" yaml:"vote,omitempty"`
	Chamber  string `mapstructure:"chamber" yaml:"chamber,omitempty"`
	Name     string `mapstructure:"name" yaml:"name,omitempty"`
	Congress string `mapstructure:"congress" yaml:"congress,omitempty"`
	ID       string `mapstructure:"id" yaml:"id,omitempty"`

	// Query is a boolean search expression, see ParseQuery.
	Query string `mapstructure:"query" yaml:"query,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (criteria Criteria) IsEmpty() bool {
	return strings.TrimSpace(criteria.Party) == "" &&
		strings.TrimSpace(criteria.State) == "" &&
		strings.TrimSpace(criteria.Vote) == "" &&
		strings.TrimSpace(criteria.Chamber) == "" &&
		strings.TrimSpace(criteria.Name) == "" &&
		strings.TrimSpace(criteria.Congress) == "" &&
		strings.TrimSpace(criteria.ID) == "" &&
		strings.TrimSpace(criteria.Query) == ""
}

// Filter is a parsed set of criteria.
type Filter struct {
	party    string
	state    string
	vote     string
	chamber  string
	name     nameMatcher
	id       string
	congress *CongressSpec
	query    *Query
}

// ParseCriteria validates and normalizes criteria into a Filter.
func ParseCriteria(criteria Criteria) (Filter, error) {
	parsedFilter := Filter{
		party:   strings.TrimSpace(criteria.Party),
		state:   votes.NormalizeState(criteria.State),
		vote:    strings.TrimSpace(criteria.Vote),
		chamber: strings.ToLower(strings.TrimSpace(criteria.Chamber)),
		name:    parseNameMatcher(criteria.Name),
		id:      strings.TrimSpace(criteria.ID),
	}

	if strings.TrimSpace(criteria.Congress) != "" {
		congressSpec, err := ParseCongress(criteria.Congress)
		if err != nil {
			return Filter{}, err
		}
		parsedFilter.congress = &congressSpec
	}

	if strings.TrimSpace(criteria.Query) != "" {
		query, err := ParseQuery(criteria.Query)
		if err != nil {
			return Filter{}, err
		}
		parsedFilter.query = query
	}

	return parsedFilter, nil
}

// Match reports whether record passes every criterion.
func (parsedFilter Filter) Match(record votes.VoteRecord) bool {
	if parsedFilter.party != "" && record.Party != parsedFilter.party {
		return false
	}
	if parsedFilter.state != "" && votes.NormalizeState(record.State) != parsedFilter.state {
		return false
	}
	if parsedFilter.vote != "" && record.Vote != parsedFilter.vote {
		return false
	}
	if parsedFilter.chamber != "" && strings.ToLower(record.Chamber) != parsedFilter.chamber {
		return false
	}
	if !parsedFilter.name.match(record.Name) {
		return false
	}
	if parsedFilter.id != "" && record.ID.String() != parsedFilter.id {
		return false
	}
	if parsedFilter.congress != nil && !parsedFilter.congress.Contains(record.Congress) {
		return false
	}
	if parsedFilter.query != nil && !parsedFilter.query.Match(record) {
		return false
	}
	return true
}

// nameMatcher matches member names by case-insensitive substring. A last
// name alone or a "Last, First" pair is searched for anywhere in the name;
// other input containing a space ("Ted Cruz") sets no name criterion.
type nameMatcher struct {
	needle string
}

func parseNameMatcher(raw string) nameMatcher {
	needle := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(needle, " ") && !strings.Contains(needle, ", ") {
		return nameMatcher{}
	}
	return nameMatcher{needle: needle}
}

func (matcher nameMatcher) match(name string) bool {
	if matcher.needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), matcher.needle)
}

// CongressSpec selects congresses by a single number, an inclusive range or
// an explicit list.
type CongressSpec struct {
	// Min and Max bound a range; zero means unbounded on that side.
	Min int
	Max int

	// Values, when non-empty, is an explicit list and Min/Max are ignored.
	Values []int
}

// ParseCongress accepts "113", "[110 to 113]" (either bound may be blank)
// or a space-separated list such as "110 112 113".
func ParseCongress(raw string) (CongressSpec, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return CongressSpec{}, fmt.Errorf("%w: empty", ErrInvalidCongress)
	}

	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		bounds := strings.SplitN(text[1:len(text)-1], "to", 2)
		if len(bounds) != 2 {
			return CongressSpec{}, fmt.Errorf("%w: %q", ErrInvalidCongress, raw)
		}
		lower, err := parseOptionalCongress(bounds[0])
		if err != nil {
			return CongressSpec{}, fmt.Errorf("%w: %q", ErrInvalidCongress, raw)
		}
		upper, err := parseOptionalCongress(bounds[1])
		if err != nil {
			return CongressSpec{}, fmt.Errorf("%w: %q", ErrInvalidCongress, raw)
		}
		if lower != 0 && upper != 0 && lower > upper {
			return CongressSpec{}, fmt.Errorf("%w: range %d to %d is reversed", ErrInvalidCongress, lower, upper)
		}
		return CongressSpec{Min: lower, Max: upper}, nil
	}

	fields := strings.Fields(text)
	values := make([]int, 0, len(fields))
	for _, field := range fields {
		congress, err := strconv.Atoi(field)
		if err != nil || congress < 1 {
			return CongressSpec{}, fmt.Errorf("%w: %q", ErrInvalidCongress, field)
		}
		values = append(values, congress)
	}
	if len(values) == 1 {
		return CongressSpec{Min: values[0], Max: values[0]}, nil
	}
	return CongressSpec{Values: values}, nil
}

func parseOptionalCongress(raw string) (int, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, nil
	}
	congress, err := strconv.Atoi(text)
	if err != nil || congress < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCongress, raw)
	}
	return congress, nil
}

// Contains reports whether congress is selected.
func (spec CongressSpec) Contains(congress int) bool {
	if len(spec.Values) > 0 {
		for _, value := range spec.Values {
			if value == congress {
				return true
			}
		}
		return false
	}
	if spec.Min != 0 && congress < spec.Min {
		return false
	}
	if spec.Max != 0 && congress > spec.Max {
		return false
	}
	return true
}
