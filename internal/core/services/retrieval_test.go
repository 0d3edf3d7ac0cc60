package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// seedStore ingests documents with fixed unit vectors for ranking tests.
func seedStore(t *testing.T, store *memory.VectorStore) {
	t.Helper()
	ctx := context.Background()

	docs := []struct {
		id      string
		content string
		vec     []float32
	}{
		{"doc-a", "about apples", []float32{1, 0, 0}},
		{"doc-b", "about bananas", []float32{0, 1, 0}},
		{"doc-c", "about cherries", []float32{0.9, 0.1, 0}},
	}
	for _, d := range docs {
		err := store.IngestDocument(ctx,
			domain.Document{ID: d.id, Title: d.id},
			domain.RawFile{DocumentID: d.id, FileName: d.id + ".txt"},
			[]domain.Chunk{{DocumentID: d.id, Index: 0, Content: d.content, Embedding: d.vec}},
		)
		require.NoError(t, err)
	}
}

func TestRetrievalService_Retrieve(t *testing.T) {
	store := memory.NewVectorStore()
	seedStore(t, store)

	embedder := newFakeEmbedder()
	embedder.vectorFor = func(string) []float32 { return []float32{1, 0, 0} }
	svc := NewRetrievalService(embedder, store, 0)

	results, err := svc.Retrieve(context.Background(), "apples", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Closest first by cosine distance.
	assert.Equal(t, "doc-a", results[0].DocumentID)
	assert.Equal(t, "doc-c", results[1].DocumentID)
	assert.Less(t, results[0].Score, results[1].Score)
}

func TestRetrievalService_BlankQuery(t *testing.T) {
	embedder := newFakeEmbedder()
	svc := NewRetrievalService(embedder, memory.NewVectorStore(), 0)

	results, err := svc.Retrieve(context.Background(), "   \t ", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)

	// The embedding provider is never called for a blank query.
	assert.Equal(t, 0, embedder.batchCount())
}

func TestRetrievalService_DefaultTopK(t *testing.T) {
	store := memory.NewVectorStore()
	ctx := context.Background()

	// Seed more chunks than the default topK.
	for i := 0; i < DefaultTopK+3; i++ {
		id := string(rune('a' + i))
		err := store.IngestDocument(ctx,
			domain.Document{ID: id, Title: id},
			domain.RawFile{DocumentID: id, FileName: id + ".txt"},
			[]domain.Chunk{{DocumentID: id, Index: 0, Content: id, Embedding: []float32{1, float32(i), 0}}},
		)
		require.NoError(t, err)
	}

	embedder := newFakeEmbedder()
	embedder.vectorFor = func(string) []float32 { return []float32{1, 0, 0} }
	svc := NewRetrievalService(embedder, store, 0)

	results, err := svc.Retrieve(ctx, "query", 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultTopK)
}

func TestRetrievalService_EmbedError(t *testing.T) {
	embedder := newFakeEmbedder()
	embedder.embedErr = domain.ErrEmbeddingProvider
	svc := NewRetrievalService(embedder, memory.NewVectorStore(), 0)

	_, err := svc.Retrieve(context.Background(), "query", 5)
	assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)
}

func TestRetrievalService_EmptyStore(t *testing.T) {
	svc := NewRetrievalService(newFakeEmbedder(), memory.NewVectorStore(), 0)

	results, err := svc.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
