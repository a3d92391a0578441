// Package container applies rendered vote tables to their output container:
// a stream, a standalone file, or an element inside an existing HTML page.
// Every Apply replaces whatever the container held before.
package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// DefaultElementID is the id of the element that receives the table.
const DefaultElementID = "voteList"

// ErrContainerNotFound is returned when the target page has no element with
// the configured id.
var ErrContainerNotFound = errors.New("output container not found")

// Presenter receives a rendered fragment.
type Presenter interface {
	Apply(ctx context.Context, fragment string) error
}

// OutputConfig selects a Presenter. Document takes the fragment into the
// element ElementID of an existing page; Path replaces a whole file; with
// neither set the fragment goes to Stdout.
type OutputConfig struct {
	Path      string
	Document  string
	ElementID string
	Stdout    io.Writer
}

// New returns the Presenter described by cfg.
func New(cfg OutputConfig) (Presenter, error) {
	if cfg.Path != "" && cfg.Document != "" {
		return nil, fmt.Errorf("output path and document are mutually exclusive")
	}

	switch {
	case cfg.Document != "":
		elementID := cfg.ElementID
		if elementID == "" {
			elementID = DefaultElementID
		}
		return &DocumentPresenter{Path: cfg.Document, ElementID: elementID}, nil
	case cfg.Path != "":
		return &FilePresenter{Path: cfg.Path}, nil
	default:
		stdout := cfg.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		return &WriterPresenter{Writer: stdout}, nil
	}
}

// WriterPresenter writes each fragment to Writer.
type WriterPresenter struct {
	Writer io.Writer
}

func (p *WriterPresenter) Apply(ctx context.Context, fragment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := io.WriteString(p.Writer, fragment); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// FilePresenter replaces the file at Path with each fragment.
type FilePresenter struct {
	Path string
}

func (p *FilePresenter) Apply(ctx context.Context, fragment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(p.Path, []byte(fragment))
}

// DocumentPresenter replaces the children of one element of an HTML page.
type DocumentPresenter struct {
	Path      string
	ElementID string
}

func (p *DocumentPresenter) Apply(ctx context.Context, fragment string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	page, err := os.ReadFile(p.Path)
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	updated, err := ReplaceElementContent(page, p.ElementID, fragment)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Path, err)
	}
	return writeFileAtomic(p.Path, updated)
}

// ReplaceElementContent parses page, swaps the children of the element whose
// id is elementID for the parsed fragment and returns the re-rendered page.
func ReplaceElementContent(page []byte, elementID, fragment string) ([]byte, error) {
	document, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	target := findElementByID(document, elementID)
	if target == nil {
		return nil, fmt.Errorf("%w: no element with id %q", ErrContainerNotFound, elementID)
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), target)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}

	for child := target.FirstChild; child != nil; {
		next := child.NextSibling
		target.RemoveChild(child)
		child = next
	}
	for _, node := range nodes {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
		target.AppendChild(node)
	}

	var rendered bytes.Buffer
	if err := html.Render(&rendered, document); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	return rendered.Bytes(), nil
}

func findElementByID(node *html.Node, elementID string) *html.Node {
	if node.Type == html.ElementNode {
		for _, attr := range node.Attr {
			if attr.Namespace == "" && attr.Key == "id" && attr.Val == elementID {
				return node
			}
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findElementByID(child, elementID); found != nil {
			return found
		}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
