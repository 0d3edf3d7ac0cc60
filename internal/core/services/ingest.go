package services

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Chunker splits extracted text into embedding-sized pieces.
type Chunker interface {
	Chunk(text string) []string
}

// IngestService turns raw files into retrievable, embedded documents.
type IngestService struct {
	registry driven.ExtractorRegistry
	embedder driven.EmbeddingService
	store    driven.VectorStore
	chunker  Chunker
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	registry driven.ExtractorRegistry,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	chunker Chunker,
) *IngestService {
	return &IngestService{
		registry: registry,
		embedder: embedder,
		store:    store,
		chunker:  chunker,
	}
}

// IngestFile extracts, chunks, embeds and persists a single file.
func (s *IngestService) IngestFile(ctx context.Context, path, title string, metadata map[string]any) (domain.IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("reading %s: %w", path, err)
	}

	return s.ingest(ctx, filepath.Base(path), title, path, content, metadata)
}

// IngestBytes ingests in-memory content as if it were a file with the
// given name.
func (s *IngestService) IngestBytes(ctx context.Context, fileName, title string, content []byte, metadata map[string]any) (domain.IngestResult, error) {
	return s.ingest(ctx, fileName, title, "", content, metadata)
}

// IngestFolder ingests every supported file under root, in sorted
// order. The first failure halts the batch and is returned alongside
// the number of files ingested before it.
func (s *IngestService) IngestFolder(ctx context.Context, root, pattern string, recurse bool) (int, error) {
	paths, err := s.collectFiles(root, pattern, recurse)
	if err != nil {
		return 0, err
	}

	logger.Section("Folder ingestion")
	logger.Info("found %d ingestable files under %s", len(paths), root)

	count := 0
	for _, path := range paths {
		if _, err := s.IngestFile(ctx, path, "", nil); err != nil {
			return count, fmt.Errorf("ingesting %s: %w", path, err)
		}
		count++
	}

	return count, nil
}

// collectFiles walks root and returns the sorted paths of files the
// registry can handle, optionally filtered by a glob pattern on the
// base name.
func (s *IngestService) collectFiles(root, pattern string, recurse bool) ([]string, error) {
	if pattern != "" {
		if _, err := filepath.Match(pattern, "probe"); err != nil {
			return nil, fmt.Errorf("%w: invalid pattern %q", domain.ErrInvalidInput, pattern)
		}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recurse && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if !s.registry.Supports(d.Name()) {
			return nil
		}
		if pattern != "" {
			if ok, _ := filepath.Match(pattern, d.Name()); !ok {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// SupportedExtensions returns the file extensions that can be ingested.
func (s *IngestService) SupportedExtensions() []string {
	return s.registry.SupportedExtensions()
}

// ingest runs the full pipeline: extract, chunk, embed, persist.
// The persist step is a single transaction, so a failure anywhere
// leaves no partial document behind.
func (s *IngestService) ingest(ctx context.Context, fileName, title, sourcePath string, content []byte, metadata map[string]any) (domain.IngestResult, error) {
	if len(content) == 0 {
		return domain.IngestResult{}, fmt.Errorf("%w: empty file content", domain.ErrInvalidInput)
	}

	logger.Section("Ingestion")
	logger.Debug("ingesting %s (%d bytes)", fileName, len(content))

	text, err := s.registry.Extract(ctx, fileName, content)
	if err != nil {
		return domain.IngestResult{}, err
	}

	pieces := s.chunker.Chunk(text)
	if len(pieces) == 0 {
		return domain.IngestResult{}, domain.ErrNoExtractableContent
	}
	logger.Debug("chunked %s into %d pieces", fileName, len(pieces))

	embeddings, err := s.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return domain.IngestResult{}, err
	}
	if len(embeddings) != len(pieces) {
		return domain.IngestResult{}, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrNoEmbeddings, len(embeddings), len(pieces))
	}

	expectedDims := s.embedder.Dimensions()
	for i, embedding := range embeddings {
		if len(embedding) != expectedDims {
			return domain.IngestResult{}, fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, i, len(embedding), expectedDims)
		}
	}

	if title == "" {
		title = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}

	meta := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		meta[k] = v
	}
	meta["file_name"] = fileName
	meta["model"] = s.embedder.ModelName()

	now := time.Now().UTC()
	doc := domain.Document{
		ID:         uuid.New().String(),
		Title:      title,
		SourcePath: sourcePath,
		Metadata:   meta,
		CreatedAt:  now,
	}
	raw := domain.RawFile{
		DocumentID: doc.ID,
		FileName:   fileName,
		SizeBytes:  int64(len(content)),
		Content:    content,
		CreatedAt:  now,
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = domain.Chunk{
			DocumentID: doc.ID,
			Index:      i,
			Content:    piece,
			Embedding:  embeddings[i],
		}
	}

	if err := s.store.IngestDocument(ctx, doc, raw, chunks); err != nil {
		return domain.IngestResult{}, err
	}

	logger.Info("stored document %s with %d chunks", doc.ID, len(chunks))

	return domain.IngestResult{
		DocumentID: doc.ID,
		Title:      title,
		ChunkCount: len(chunks),
	}, nil
}
