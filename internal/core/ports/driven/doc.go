// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - TextExtractor: Extracts plain text from a raw file format
//   - EmbeddingService: Generates vector embeddings from text
//   - LLMService: Streams chat completions from a language model
//   - VectorStore: Document, chunk and embedding persistence with
//     nearest-neighbour retrieval
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
