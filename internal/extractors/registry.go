// Package extractors provides implementations of the TextExtractor
// interface for various file formats, and a registry that selects the
// right extractor by file extension.
//
// Extractors are registered with the Registry at startup.
package extractors

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry selects a text extractor by file extension and normalises
// the extracted text.
type Registry struct {
	extractors []driven.TextExtractor
}

// NewRegistry creates a registry with the given extractors.
// Selection is first-match in registration order.
func NewRegistry(extractors ...driven.TextExtractor) *Registry {
	return &Registry{extractors: extractors}
}

// Register appends an extractor to the registry.
func (r *Registry) Register(extractor driven.TextExtractor) {
	r.extractors = append(r.extractors, extractor)
}

// Extract selects an extractor for the file name, runs it and normalises
// the result.
func (r *Registry) Extract(ctx context.Context, fileName string, content []byte) (string, error) {
	if fileName == "" {
		return "", fmt.Errorf("%w: empty file name", domain.ErrInvalidInput)
	}

	extractor := r.find(fileName)
	if extractor == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, fileName)
	}

	text, err := extractor.ExtractText(ctx, content)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", extractor.Name(), err)
	}

	text = normaliseText(text)
	if text == "" {
		return "", domain.ErrNoExtractableContent
	}

	return text, nil
}

// Supports reports whether any registered extractor can handle the
// file name.
func (r *Registry) Supports(fileName string) bool {
	return r.find(fileName) != nil
}

// SupportedExtensions returns the union of all registered extractors'
// extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	seen := make(map[string]struct{})
	var exts []string
	for _, extractor := range r.extractors {
		for _, ext := range extractor.Extensions() {
			if _, ok := seen[ext]; !ok {
				seen[ext] = struct{}{}
				exts = append(exts, ext)
			}
		}
	}
	sort.Strings(exts)
	return exts
}

// find returns the first extractor that can handle the file name.
func (r *Registry) find(fileName string) driven.TextExtractor {
	for _, extractor := range r.extractors {
		if extractor.CanHandle(fileName) {
			return extractor
		}
	}
	return nil
}

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// normaliseText trims the text and collapses runs of three or more
// newlines to a single blank line. Paragraph boundaries are preserved
// for the chunker.
func normaliseText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = excessBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
