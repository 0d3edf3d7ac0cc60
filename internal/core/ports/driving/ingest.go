package driving

import (
	"context"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// IngestService turns raw files into retrievable, embedded documents.
type IngestService interface {
	// IngestFile extracts, chunks, embeds and persists a single file.
	// An empty title defaults to the file name without its extension.
	// Metadata is stored on the document; nil is fine.
	IngestFile(ctx context.Context, path, title string, metadata map[string]any) (domain.IngestResult, error)

	// IngestBytes ingests in-memory content as if it were a file with
	// the given name. The name's extension selects the extractor.
	IngestBytes(ctx context.Context, fileName, title string, content []byte, metadata map[string]any) (domain.IngestResult, error)

	// IngestFolder ingests every supported file under root. A non-empty
	// pattern filters file names; recurse descends into subdirectories.
	// The first failure stops the batch. Returns the number of files
	// ingested before any failure.
	IngestFolder(ctx context.Context, root, pattern string, recurse bool) (int, error)

	// SupportedExtensions returns the file extensions that can be ingested.
	SupportedExtensions() []string
}

// DocumentService manages stored documents.
type DocumentService interface {
	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns all stored documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// GetChunks returns a document's chunks ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Delete removes a document, its raw file and its chunks.
	Delete(ctx context.Context, documentID string) error
}
