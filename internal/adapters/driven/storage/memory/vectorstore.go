// Package memory provides in-memory implementations of driven ports,
// used as test doubles and for ephemeral sessions.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
type VectorStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	rawFiles  map[string]domain.RawFile
	chunks    map[string][]domain.Chunk
	order     []string
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		documents: make(map[string]domain.Document),
		rawFiles:  make(map[string]domain.RawFile),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// IngestDocument stores a document, its raw file and its chunks.
func (s *VectorStore) IngestDocument(_ context.Context, doc domain.Document, raw domain.RawFile, chunks []domain.Chunk) error {
	if doc.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[doc.ID]; exists {
		return domain.ErrStorage
	}

	s.documents[doc.ID] = doc
	s.rawFiles[doc.ID] = raw
	s.chunks[doc.ID] = append([]domain.Chunk(nil), chunks...)
	s.order = append(s.order, doc.ID)
	return nil
}

// Retrieve returns the topK nearest chunks by cosine distance.
func (s *VectorStore) Retrieve(_ context.Context, query []float32, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 || len(query) == 0 {
		return []domain.RetrievedChunk{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []domain.RetrievedChunk{}
	for docID, chunks := range s.chunks {
		for _, chunk := range chunks {
			if len(chunk.Embedding) != len(query) {
				continue
			}
			results = append(results, domain.RetrievedChunk{
				DocumentID: docID,
				ChunkIndex: chunk.Index,
				Content:    chunk.Content,
				Score:      cosineDistance(query, chunk.Embedding),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// GetDocument retrieves a document by ID.
func (s *VectorStore) GetDocument(_ context.Context, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	return doc, nil
}

// ListDocuments returns all documents in reverse insertion order.
func (s *VectorStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		docs = append(docs, s.documents[s.order[i]])
	}
	return docs, nil
}

// GetChunks returns a document's chunks ordered by index.
func (s *VectorStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]domain.Chunk, 0, len(s.chunks[documentID]))
	for _, chunk := range s.chunks[documentID] {
		chunk.Embedding = nil
		chunks = append(chunks, chunk)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

// DeleteDocument removes a document and its chunks.
func (s *VectorStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}

	delete(s.documents, id)
	delete(s.rawFiles, id)
	delete(s.chunks, id)
	for i, docID := range s.order {
		if docID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *VectorStore) Close() error {
	return nil
}

// cosineDistance returns 1 - cosine similarity. Smaller is closer.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
