package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// setupTestServices swaps the package services for mocks and returns a
// cleanup that restores the originals.
func setupTestServices() func() {
	oldIngest := ingestService
	oldDocument := documentService
	oldRetrieval := retrievalService
	oldChat := chatService

	ingestService = &mockIngestService{}
	documentService = &mockDocumentService{}
	retrievalService = &mockRetrievalService{}
	chatService = newMockChatService()

	return func() {
		ingestService = oldIngest
		documentService = oldDocument
		retrievalService = oldRetrieval
		chatService = oldChat
	}
}

// Ingest mocks

type mockIngestService struct {
	ingested []string
}

func (m *mockIngestService) IngestFile(_ context.Context, path, title string, _ map[string]any) (domain.IngestResult, error) {
	m.ingested = append(m.ingested, path)
	if title == "" {
		title = "Mock Title"
	}
	return domain.IngestResult{DocumentID: "doc-1", Title: title, ChunkCount: 3}, nil
}

func (m *mockIngestService) IngestBytes(_ context.Context, _, title string, _ []byte, _ map[string]any) (domain.IngestResult, error) {
	return domain.IngestResult{DocumentID: "doc-1", Title: title, ChunkCount: 3}, nil
}

func (m *mockIngestService) IngestFolder(_ context.Context, root, pattern string, recurse bool) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".md" && ext != ".txt" {
			continue
		}
		if pattern != "" {
			if ok, _ := filepath.Match(pattern, entry.Name()); !ok {
				continue
			}
		}
		m.ingested = append(m.ingested, filepath.Join(root, entry.Name()))
		count++
	}
	return count, nil
}

func (m *mockIngestService) SupportedExtensions() []string {
	return []string{".md", ".txt"}
}

type mockIngestServiceError struct{}

func (m *mockIngestServiceError) IngestFile(_ context.Context, _, _ string, _ map[string]any) (domain.IngestResult, error) {
	return domain.IngestResult{}, errors.New("mock ingest error")
}

func (m *mockIngestServiceError) IngestBytes(_ context.Context, _, _ string, _ []byte, _ map[string]any) (domain.IngestResult, error) {
	return domain.IngestResult{}, errors.New("mock ingest error")
}

func (m *mockIngestServiceError) IngestFolder(_ context.Context, _, _ string, _ bool) (int, error) {
	return 0, errors.New("mock ingest error")
}

func (m *mockIngestServiceError) SupportedExtensions() []string {
	return []string{".md", ".txt"}
}

// Document mocks

type mockDocumentService struct{}

func (m *mockDocumentService) Get(_ context.Context, documentID string) (*domain.Document, error) {
	return &domain.Document{
		ID:         documentID,
		Title:      "Test Document",
		SourcePath: "/tmp/test.md",
		Metadata:   map[string]any{"file_name": "test.md"},
		CreatedAt:  time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
	}, nil
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return []domain.Document{
		{ID: "doc-1", Title: "First Document", SourcePath: "/tmp/first.md"},
		{ID: "doc-2", Title: "Second Document"},
	}, nil
}

func (m *mockDocumentService) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	return []domain.Chunk{
		{DocumentID: documentID, Index: 0, Content: "first chunk content"},
		{DocumentID: documentID, Index: 1, Content: "second chunk content"},
	}, nil
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return nil
}

type mockDocumentServiceEmpty struct{}

func (m *mockDocumentServiceEmpty) Get(_ context.Context, _ string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentServiceEmpty) List(_ context.Context) ([]domain.Document, error) {
	return nil, nil
}

func (m *mockDocumentServiceEmpty) GetChunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockDocumentServiceEmpty) Delete(_ context.Context, _ string) error {
	return domain.ErrNotFound
}

// Retrieval mocks

type mockRetrievalService struct{}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, _ int) ([]domain.RetrievedChunk, error) {
	return []domain.RetrievedChunk{
		{DocumentID: "doc-1", ChunkIndex: 0, Content: "closest chunk", Score: 0.12},
		{DocumentID: "doc-2", ChunkIndex: 4, Content: "next chunk", Score: 0.45},
	}, nil
}

type mockRetrievalServiceEmpty struct{}

func (m *mockRetrievalServiceEmpty) Retrieve(_ context.Context, _ string, _ int) ([]domain.RetrievedChunk, error) {
	return []domain.RetrievedChunk{}, nil
}

type mockRetrievalServiceError struct{}

func (m *mockRetrievalServiceError) Retrieve(_ context.Context, _ string, _ int) ([]domain.RetrievedChunk, error) {
	return nil, errors.New("mock retrieval error")
}

// Chat mocks

// mockChatService answers every turn with a fixed streamed reply.
type mockChatService struct {
	history []domain.ChatMessage
}

func newMockChatService() *mockChatService {
	return &mockChatService{}
}

func (m *mockChatService) NewSession(systemPrompt string) string {
	if systemPrompt == "" {
		systemPrompt = domain.DefaultSystemPrompt
	}
	m.history = []domain.ChatMessage{{Role: domain.RoleSystem, Content: systemPrompt}}
	return "session-1"
}

func (m *mockChatService) EnsureSession(_ string, systemPrompt string) {
	if len(m.history) == 0 {
		m.NewSession(systemPrompt)
	}
}

func (m *mockChatService) StreamTurn(_ context.Context, _, userMessage string) (<-chan string, <-chan error) {
	contentCh := make(chan string, 2)
	errCh := make(chan error, 1)

	contentCh <- "mock "
	contentCh <- "reply"
	close(contentCh)
	close(errCh)

	m.history = append(m.history,
		domain.ChatMessage{Role: domain.RoleUser, Content: userMessage},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: "mock reply"},
	)

	return contentCh, errCh
}

func (m *mockChatService) History(_ string) ([]domain.ChatMessage, error) {
	return m.history, nil
}

func (m *mockChatService) ResetSession(_ string) error {
	m.history = m.history[:1]
	return nil
}

func (m *mockChatService) EndSession(_ string) {}

// mockChatServiceBlocking never produces a reply; each turn parks until
// its context is cancelled. started is closed when the first turn is in
// flight.
type mockChatServiceBlocking struct {
	mockChatService
	started chan struct{}
	once    sync.Once
}

func newMockChatServiceBlocking() *mockChatServiceBlocking {
	return &mockChatServiceBlocking{started: make(chan struct{})}
}

func (m *mockChatServiceBlocking) StreamTurn(ctx context.Context, _, _ string) (<-chan string, <-chan error) {
	contentCh := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(contentCh)
		defer close(errCh)

		m.once.Do(func() { close(m.started) })
		<-ctx.Done()
		errCh <- ctx.Err()
	}()

	return contentCh, errCh
}
