// Package plaintext extracts text from plain text and Markdown files.
package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor handles plain text files. The bytes are the text, so
// extraction is a decode plus a BOM strip.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "plaintext"
}

// Extensions returns the file extensions this extractor supports.
func (e *Extractor) Extensions() []string {
	return []string{".txt", ".md", ".markdown", ".text", ".log"}
}

// CanHandle reports whether the file name has a supported extension.
func (e *Extractor) CanHandle(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, supported := range e.Extensions() {
		if ext == supported {
			return true
		}
	}
	return false
}

// ExtractText decodes the content as UTF-8 text. Invalid byte sequences
// are replaced with the Unicode replacement character rather than failing
// the whole file.
func (e *Extractor) ExtractText(_ context.Context, content []byte) (string, error) {
	text := string(content)

	// Strip a UTF-8 byte order mark if present.
	text = strings.TrimPrefix(text, "\uFEFF")

	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}

	return text, nil
}
