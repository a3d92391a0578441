package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/votetable/pkg/votes"
)

// envelope is the object form of a JSON or YAML dataset.
type envelope struct {
	Votes []votes.VoteRecord `json:"votes" yaml:"votes"`
}

// DecodeJSON reads either a JSON array of records or an object with a
// "votes" array.
func DecodeJSON(r io.Reader) ([]votes.VoteRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []votes.VoteRecord{}, nil
	}

	if trimmed[0] == '{' {
		var wrapped envelope
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return nonNil(wrapped.Votes), nil
	}

	var records []votes.VoteRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nonNil(records), nil
}

// DecodeYAML reads either a YAML sequence of records or a mapping with a
// "votes" sequence.
func DecodeYAML(r io.Reader) ([]votes.VoteRecord, error) {
	var document yaml.Node
	if err := yaml.NewDecoder(r).Decode(&document); err != nil {
		if err == io.EOF {
			return []votes.VoteRecord{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(document.Content) == 0 {
		return []votes.VoteRecord{}, nil
	}

	root := document.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		var wrapped envelope
		if err := root.Decode(&wrapped); err != nil {
			return nil, fmt.Errorf("failed to decode YAML votes: %w", err)
		}
		return nonNil(wrapped.Votes), nil
	case yaml.SequenceNode:
		var records []votes.VoteRecord
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode YAML votes: %w", err)
		}
		return nonNil(records), nil
	default:
		return nil, fmt.Errorf("YAML dataset must be a sequence or a mapping with votes (line %d)", root.Line)
	}
}

func nonNil(records []votes.VoteRecord) []votes.VoteRecord {
	if records == nil {
		return []votes.VoteRecord{}
	}
	return records
}
