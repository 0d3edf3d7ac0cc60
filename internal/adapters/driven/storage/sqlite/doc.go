// Package sqlite provides a SQLite-backed implementation of the
// VectorStore port. Documents, raw uploads and embedded chunks live in
// a single database file; nearest-neighbour retrieval is a brute-force
// cosine distance scan over the stored embeddings.
package sqlite
