// Package domain defines the core business entities for ragchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested document with metadata
//   - RawFile: The original uploaded bytes, kept for re-extraction and audit
//   - Chunk: A retrievable passage with its embedding vector
//   - RetrievedChunk: A query-time hit with its distance score
//   - ChatMessage: A role-tagged message in a conversation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
