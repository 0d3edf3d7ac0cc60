package domain

import "time"

// Document represents an ingested document with metadata.
// It is the canonical representation after text extraction.
// Documents are immutable after creation; re-uploading the same
// file produces a new Document with a new ID.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	// Falls back to the uploaded file name when no title is given.
	Title string

	// SourcePath is the original location (file path or upload name).
	SourcePath string

	// Metadata contains arbitrary key-value pairs supplied at ingestion.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time
}

// RawFile holds the original uploaded bytes for a document.
// It is one-to-one with a Document and exists so the source can be
// re-extracted or audited later; it is never read at retrieval time.
type RawFile struct {
	// DocumentID links to the owning Document.
	DocumentID string

	// FileName is the name of the uploaded file.
	FileName string

	// SizeBytes is the length of Content.
	SizeBytes int64

	// Content is the raw uploaded bytes.
	Content []byte

	// CreatedAt is when the file was stored.
	CreatedAt time.Time
}

// Chunk represents a retrievable passage within a document.
// Documents are split into chunks so retrieval can return passages
// rather than whole documents.
type Chunk struct {
	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the 0-based ordinal position within the document.
	// Indices are dense and unique per document.
	Index int

	// Content is the text content of this chunk.
	Content string

	// Embedding is the vector representation used for distance queries.
	// Its length must equal the store's configured dimension.
	Embedding []float32
}

// RetrievedChunk is a query-time result. It is transient and never stored.
type RetrievedChunk struct {
	// DocumentID identifies the document the chunk belongs to.
	DocumentID string

	// ChunkIndex is the chunk's position within its document.
	ChunkIndex int

	// Content is the chunk text.
	Content string

	// Score is the cosine distance to the query vector.
	// Smaller is closer; always non-negative.
	Score float64
}

// IngestResult summarises a successful ingestion.
type IngestResult struct {
	// DocumentID is the id of the created document.
	DocumentID string

	// Title is the resolved title (given title or file name).
	Title string

	// ChunkCount is the number of chunks persisted.
	ChunkCount int
}
