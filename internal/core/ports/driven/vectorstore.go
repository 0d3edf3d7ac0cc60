package driven

import (
	"context"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// VectorStore persists documents, raw files and embedded chunks, and
// provides nearest-neighbour retrieval over the stored embeddings.
type VectorStore interface {
	// IngestDocument persists a document, its raw file and its embedded
	// chunks in a single transaction. Either everything is stored or
	// nothing is.
	IngestDocument(ctx context.Context, doc domain.Document, raw domain.RawFile, chunks []domain.Chunk) error

	// Retrieve finds the topK stored chunks nearest to the query vector
	// by cosine distance, closest first. Returns an empty slice when the
	// store is empty or topK <= 0.
	Retrieve(ctx context.Context, query []float32, topK int) ([]domain.RetrievedChunk, error)

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound when the document does not exist.
	GetDocument(ctx context.Context, id string) (domain.Document, error)

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// GetChunks returns a document's chunks ordered by index.
	// Embeddings are not populated.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteDocument removes a document, its raw file and its chunks.
	// Returns domain.ErrNotFound when the document does not exist.
	DeleteDocument(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
