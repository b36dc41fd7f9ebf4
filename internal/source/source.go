// Package source loads the text to read: from a file, from standard input
// or from the clipboard. Markdown is reduced to its speakable text.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mitchellh/go-homedir"
)

// ErrEmpty is returned when a source holds no text.
var ErrEmpty = errors.New("no text to read")

// Kind identifies where a document came from.
type Kind int

const (
	KindFile Kind = iota
	KindStdin
	KindClipboard
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindStdin:
		return "stdin"
	case KindClipboard:
		return "clipboard"
	default:
		return "unknown"
	}
}

// Document is loaded text.
type Document struct {
	Kind     Kind
	Path     string // absolute path, files only
	Text     string
	Markdown bool
}

var markdownExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdown":    true,
	".mkdn":     true,
	".mkd":      true,
	".mdwn":     true,
}

// IsMarkdown reports whether path has a markdown extension.
func IsMarkdown(path string) bool {
	return markdownExts[strings.ToLower(filepath.Ext(path))]
}

// FromFile reads path, expanding a leading "~".
func FromFile(path string) (Document, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Document{}, fmt.Errorf("expand %s: %w", path, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	doc := Document{Kind: KindFile, Path: abs, Markdown: IsMarkdown(abs)}
	doc.Text = normalize(string(data), doc.Markdown)
	return doc, nil
}

// FromReader reads all of r, typically standard input.
func FromReader(r io.Reader, markdown bool) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read input: %w", err)
	}
	return Document{Kind: KindStdin, Markdown: markdown, Text: normalize(string(data), markdown)}, nil
}

// FromClipboard reads the system clipboard.
func FromClipboard() (Document, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return Document{}, fmt.Errorf("read clipboard: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return Document{}, ErrEmpty
	}
	return Document{Kind: KindClipboard, Text: normalize(text, false)}, nil
}

// Reload reads a file document again.
func (d Document) Reload() (Document, error) {
	if d.Kind != KindFile {
		return d, nil
	}
	return FromFile(d.Path)
}

func normalize(s string, markdown bool) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if markdown {
		return StripMarkdown(s)
	}
	return strings.TrimSpace(s)
}
