// Package votes defines the legislative vote record model shared by the
// filter, dataset and rendering packages.
package votes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MemberID identifies a legislator. Data files carry it either as a string
// (e.g. "MH085001", "S354") or as a bare number (ICPSR), so it decodes from both.
type MemberID string

// String returns the identifier text.
func (id MemberID) String() string {
	return string(id)
}

// UnmarshalJSON accepts JSON strings and numbers.
func (id *MemberID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return fmt.Errorf("member id: %w", err)
		}
		*id = MemberID(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("member id must be a string or number: %w", err)
	}
	if integer, err := number.Int64(); err == nil {
		*id = MemberID(strconv.FormatInt(integer, 10))
		return nil
	}
	value, err := number.Float64()
	if err != nil {
		return fmt.Errorf("member id: %w", err)
	}
	*id = FloatMemberID(value)
	return nil
}

// UnmarshalYAML accepts any scalar node. Numeric scalars are written in
// their plain decimal form, so 42, 42.0 and 0x2A all decode to "42".
func (id *MemberID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("member id must be a scalar (line %d)", node.Line)
	}
	switch node.ShortTag() {
	case "!!int", "!!float":
		var number interface{}
		if err := node.Decode(&number); err != nil {
			return fmt.Errorf("member id (line %d): %w", node.Line, err)
		}
		switch value := number.(type) {
		case int:
			*id = MemberID(strconv.Itoa(value))
			return nil
		case int64:
			*id = MemberID(strconv.FormatInt(value, 10))
			return nil
		case uint64:
			*id = MemberID(strconv.FormatUint(value, 10))
			return nil
		case float64:
			*id = FloatMemberID(value)
			return nil
		}
	}
	*id = MemberID(node.Value)
	return nil
}

// FloatMemberID formats a numeric id without exponent or trailing zeros.
func FloatMemberID(value float64) MemberID {
	return MemberID(strconv.FormatFloat(value, 'f', -1, 64))
}

// VoteRecord is a single legislator's position on a vote.
type VoteRecord struct {
	ID    MemberID `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Party string   `json:"party" yaml:"party"`
	State string   `json:"state" yaml:"state"`
	Vote  string   `json:"vote" yaml:"vote"`

	// Congress and Chamber are only consulted by filters.
	Congress int    `json:"congress,omitempty" yaml:"congress,omitempty"`
	Chamber  string `json:"chamber,omitempty" yaml:"chamber,omitempty"`
}

// Projection is the subset of a VoteRecord the renderer works on.
type Projection struct {
	ID    MemberID
	Name  string
	Party string
	Vote  string
	State string
}

// Project copies the displayed fields out of a record.
func (record VoteRecord) Project() Projection {
	return Projection{
		ID:    record.ID,
		Name:  record.Name,
		Party: record.Party,
		Vote:  record.Vote,
		State: record.State,
	}
}

// PartyInitial returns the first character of the party label, or "" when
// the party is empty.
func (projection Projection) PartyInitial() string {
	for _, r := range projection.Party {
		return string(r)
	}
	return ""
}

// GroupKey names the field records are bucketed by.
type GroupKey string

const (
	GroupByParty GroupKey = "party"
	GroupByVote  GroupKey = "vote"
	GroupByState GroupKey = "state"
)

// GroupKeys lists the accepted keys in documentation order.
var GroupKeys = []GroupKey{GroupByParty, GroupByVote, GroupByState}

// ParseGroupKey maps raw input to a GroupKey. Anything that is not exactly
// one of the known keys becomes GroupByParty.
func ParseGroupKey(raw string) GroupKey {
	switch GroupKey(raw) {
	case GroupByParty, GroupByVote, GroupByState:
		return GroupKey(raw)
	default:
		return GroupByParty
	}
}

// String returns the key name.
func (key GroupKey) String() string {
	return string(key)
}

// Value returns the projection's value for the field the key names.
func (key GroupKey) Value(projection Projection) string {
	switch key {
	case GroupByVote:
		return projection.Vote
	case GroupByState:
		return projection.State
	default:
		return projection.Party
	}
}

// RecordSource supplies the currently filtered records in source order.
type RecordSource interface {
	Filtered() []VoteRecord
}

// StaticSource is a RecordSource over a fixed slice.
type StaticSource []VoteRecord

// Filtered returns the records unchanged.
func (source StaticSource) Filtered() []VoteRecord {
	return source
}

// NormalizeState upper-cases and trims a state code.
func NormalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}
