package driven

import "context"

// TextExtractor converts a raw file format into plain text.
//
// Implementations are format-specific (plain text, PDF, DOCX). An
// ExtractorRegistry selects the appropriate extractor by file name.
type TextExtractor interface {
	// CanHandle reports whether this extractor supports the given file name.
	// Selection is based on the file extension, case-insensitively.
	CanHandle(fileName string) bool

	// ExtractText extracts plain text from the raw file content.
	// Content with no text yields an empty string, not an error.
	ExtractText(ctx context.Context, content []byte) (string, error)

	// Extensions returns the file extensions this extractor supports,
	// with leading dots (e.g. ".pdf").
	Extensions() []string

	// Name returns a short identifier for logging (e.g. "pdf", "docx").
	Name() string
}

// ExtractorRegistry selects the appropriate extractor for a file.
type ExtractorRegistry interface {
	// Extract selects an extractor by file name, runs it and normalises
	// the result. Returns domain.ErrUnsupportedFormat when no extractor
	// can handle the file.
	Extract(ctx context.Context, fileName string, content []byte) (string, error)

	// Supports reports whether any registered extractor can handle the
	// file name. Used to filter folder ingestion.
	Supports(fileName string) bool

	// SupportedExtensions returns the file extensions the registry can
	// handle, sorted, with leading dots (e.g. ".md", ".pdf").
	SupportedExtensions() []string
}
