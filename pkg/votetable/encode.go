package votetable

import (
	"errors"
	"fmt"
	"strings"
)

// Format names an output encoding.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ErrUnknownFormat is returned for output formats other than html, markdown and text.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat normalizes a format name. "md" and "txt" are accepted aliases.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q (expected html, markdown, or text)", ErrUnknownFormat, raw)
	}
}

// Encode renders the table in the given format.
func Encode(format Format, table *Table, textOptions TextOptions) (string, error) {
	switch format {
	case FormatHTML:
		return HTML(table)
	case FormatMarkdown:
		return Markdown(table), nil
	case FormatText:
		var textBuilder strings.Builder
		if err := Text(&textBuilder, table, textOptions); err != nil {
			return "", err
		}
		return textBuilder.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
