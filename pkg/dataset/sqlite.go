package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/coolbeans/votetable/pkg/votes"
)

// SQLiteTable is the table read from SQLite datasets.
const SQLiteTable = "votes"

// sqliteColumns lists the selected columns in scan order. Optional columns
// missing from the table are selected as NULL.
var sqliteColumns = []struct {
	name     string
	required bool
}{
	{"id", true},
	{"name", true},
	{"party", false},
	{"state", false},
	{"vote", false},
	{"congress", false},
	{"chamber", false},
}

// loadSQLite reads the votes table of an existing SQLite database in rowid
// order. The database is never written.
func loadSQLite(ctx context.Context, path string) ([]votes.VoteRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	present, err := tableColumns(ctx, db, SQLiteTable)
	if err != nil {
		return nil, err
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("sqlite database has no %q table", SQLiteTable)
	}

	selectList := make([]string, 0, len(sqliteColumns))
	for _, column := range sqliteColumns {
		if present[column.name] {
			selectList = append(selectList, column.name)
			continue
		}
		if column.required {
			return nil, fmt.Errorf("sqlite table %q is missing required column %q", SQLiteTable, column.name)
		}
		selectList = append(selectList, "NULL")
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(selectList, ", "), SQLiteTable)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	records := []votes.VoteRecord{}
	for rows.Next() {
		var (
			id, name, party, state, vote, chamber sql.NullString
			congress                              sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &party, &state, &vote, &congress, &chamber); err != nil {
			return nil, fmt.Errorf("failed to scan vote row: %w", err)
		}
		records = append(records, votes.VoteRecord{
			ID:       votes.MemberID(id.String),
			Name:     name.String,
			Party:    party.String,
			State:    state.String,
			Vote:     vote.String,
			Congress: int(congress.Int64),
			Chamber:  chamber.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vote rows: %w", err)
	}
	return records, nil
}

// tableColumns returns the lower-cased column names of table, or an empty
// set when the table does not exist.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s table: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			position   int
			name       string
			columnType string
			notNull    int
			defaultVal sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&position, &name, &columnType, &notNull, &defaultVal, &primaryKey); err != nil {
			return nil, fmt.Errorf("failed to inspect %s table: %w", table, err)
		}
		columns[strings.ToLower(name)] = true
	}
	return columns, rows.Err()
}
