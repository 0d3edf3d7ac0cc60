package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates no extractor can handle the file type.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoExtractableContent indicates extraction produced no usable text.
	ErrNoExtractableContent = errors.New("no extractable content")

	// ErrNoEmbeddings indicates the provider returned no vectors for the input.
	ErrNoEmbeddings = errors.New("no embeddings returned")

	// ErrDimensionMismatch indicates an embedding vector has the wrong length
	// for the configured dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Provider Errors.

	// ErrEmbeddingProvider indicates the embedding provider request failed.
	ErrEmbeddingProvider = errors.New("embedding provider request failed")

	// ErrChatProvider indicates the chat completion provider request failed.
	ErrChatProvider = errors.New("chat provider request failed")

	// ErrStorage indicates a persistence operation failed.
	ErrStorage = errors.New("storage operation failed")
)
