// Package dataset loads vote records from local files. The format is chosen
// by file extension: JSON, YAML, CSV, MessagePack, SQLite, or a US Senate
// roll call vote XML document.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/coolbeans/votetable/pkg/votes"
)

// ErrUnsupportedFormat is returned for file extensions no loader handles.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Format identifies a dataset encoding.
type Format string

const (
	FormatJSON      Format = "json"
	FormatYAML      Format = "yaml"
	FormatCSV       Format = "csv"
	FormatMsgpack   Format = "msgpack"
	FormatSQLite    Format = "sqlite"
	FormatSenateXML Format = "senate-xml"
	formatUnknown   Format = ""
)

// DetectFormat maps a path's extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	case ".xml":
		return FormatSenateXML, nil
	default:
		return formatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Load reads every record from the file at path.
func Load(ctx context.Context, path string) ([]votes.VoteRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	if format == FormatSQLite {
		records, err := loadSQLite(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		return records, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	var records []votes.VoteRecord
	switch format {
	case FormatJSON:
		records, err = DecodeJSON(file)
	case FormatYAML:
		records, err = DecodeYAML(file)
	case FormatCSV:
		records, err = DecodeCSV(file)
	case FormatMsgpack:
		records, err = ReadMsgpack(file)
	case FormatSenateXML:
		records, err = DecodeSenateRollCall(file)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return records, nil
}

// LoadAll loads several files concurrently and concatenates their records
// in argument order.
func LoadAll(ctx context.Context, paths []string) ([]votes.VoteRecord, error) {
	loaded := make([][]votes.VoteRecord, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	for pathIndex, path := range paths {
		pathIndex, path := pathIndex, path
		group.Go(func() error {
			records, err := Load(groupCtx, path)
			if err != nil {
				return err
			}
			loaded[pathIndex] = records
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, records := range loaded {
		total += len(records)
	}
	combined := make([]votes.VoteRecord, 0, total)
	for _, records := range loaded {
		combined = append(combined, records...)
	}
	return combined, nil
}
