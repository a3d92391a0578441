package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coolbeans/votetable/pkg/votes"
)

var requiredCSVColumns = []string{"id", "name"}

// DecodeCSV reads records from CSV with a header row. Recognised columns are
// id, name, party, state, vote, congress and chamber in any order; id and
// name are required, unknown columns are ignored.
func DecodeCSV(r io.Reader) ([]votes.VoteRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []votes.VoteRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columnIndex := make(map[string]int, len(header))
	for index, column := range header {
		columnIndex[strings.ToLower(strings.TrimSpace(column))] = index
	}
	for _, required := range requiredCSVColumns {
		if _, ok := columnIndex[required]; !ok {
			return nil, fmt.Errorf("CSV header is missing required column %q", required)
		}
	}

	field := func(row []string, column string) string {
		index, ok := columnIndex[column]
		if !ok || index >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[index])
	}

	records := []votes.VoteRecord{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		record := votes.VoteRecord{
			ID:      votes.MemberID(field(row, "id")),
			Name:    field(row, "name"),
			Party:   field(row, "party"),
			State:   field(row, "state"),
			Vote:    field(row, "vote"),
			Chamber: field(row, "chamber"),
		}
		if congressText := field(row, "congress"); congressText != "" {
			congress, err := strconv.Atoi(congressText)
			if err != nil {
				line, _ := reader.FieldPos(0)
				return nil, fmt.Errorf("invalid congress %q on line %d", congressText, line)
			}
			record.Congress = congress
		}
		records = append(records, record)
	}

	return records, nil
}
