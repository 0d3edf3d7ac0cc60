package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// DefaultTopK is the number of chunks returned when the caller does not
// specify one.
const DefaultTopK = 5

// RetrievalService finds stored chunks relevant to a text query.
type RetrievalService struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
	topK     int
}

// NewRetrievalService creates a new retrieval service.
// defaultTopK <= 0 falls back to DefaultTopK.
func NewRetrievalService(embedder driven.EmbeddingService, store driven.VectorStore, defaultTopK int) *RetrievalService {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &RetrievalService{
		embedder: embedder,
		store:    store,
		topK:     defaultTopK,
	}
}

// Retrieve embeds the query and returns the topK nearest chunks by
// cosine distance, closest first. A blank query short-circuits to an
// empty result without calling the embedding provider.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.RetrievedChunk{}, nil
	}
	if topK <= 0 {
		topK = s.topK
	}

	logger.Section("Retrieval")
	logger.Debug("embedding query (%d chars), topK=%d", len(query), topK)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(embedding) == 0 {
		return []domain.RetrievedChunk{}, nil
	}

	// A mismatched query embedding still gets scored against chunks of
	// its own length; surface the inconsistency but don't fail the query.
	if expected := s.embedder.Dimensions(); len(embedding) != expected {
		logger.Warn("query embedding dimension mismatch: got %d, expected %d", len(embedding), expected)
	}

	results, err := s.store.Retrieve(ctx, embedding, topK)
	if err != nil {
		return nil, err
	}

	logger.Debug("retrieved %d chunks", len(results))
	return results, nil
}
