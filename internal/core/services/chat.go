package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// Default chat tuning values.
const (
	// DefaultTemperature keeps answers grounded in the retrieved context.
	DefaultTemperature = 0.2

	// DefaultMaxTokens bounds a single assistant reply.
	DefaultMaxTokens = 800

	// DefaultContextChars is the character budget for injected context.
	DefaultContextChars = 4000
)

// contextPreamble frames the injected retrieval results for the model.
const contextPreamble = "The following context may be relevant to the user's last question. " +
	"Use it to answer accurately. If the answer isn't in the context, say you don't know.\n\n"

// ChatOptions tunes the chat service.
type ChatOptions struct {
	// Temperature controls randomness. Nil means the default 0.2; an
	// explicit zero is honoured for deterministic generation.
	Temperature *float64

	// MaxTokens bounds a single reply (default: 800).
	MaxTokens int

	// ContextChars is the character budget for injected context
	// (default: 4000).
	ContextChars int

	// TopK is the number of chunks retrieved per turn (default: 5).
	TopK int
}

// ChatService conducts retrieval-augmented conversations. Each session
// admits one in-flight turn at a time; concurrent turns on the same
// session queue behind each other.
type ChatService struct {
	retrieval   driving.RetrievalService
	llm         driven.LLMService
	registry    *sessionRegistry
	opts        ChatOptions
	temperature float64
}

// NewChatService creates a new chat service.
func NewChatService(retrieval driving.RetrievalService, llm driven.LLMService, opts ChatOptions) *ChatService {
	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.ContextChars <= 0 {
		opts.ContextChars = DefaultContextChars
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}

	return &ChatService{
		retrieval:   retrieval,
		llm:         llm,
		registry:    newSessionRegistry(),
		opts:        opts,
		temperature: temperature,
	}
}

// NewSession creates a conversation session seeded with the given
// system prompt. An empty prompt uses the default.
func (s *ChatService) NewSession(systemPrompt string) string {
	session := newChatSession(uuid.New().String(), systemPrompt)
	s.registry.add(session)
	return session.id
}

// EnsureSession creates the session with the given ID if it does not
// exist yet. Existing sessions keep their history and original system
// prompt; concurrent calls for the same ID yield one session.
func (s *ChatService) EnsureSession(sessionID, systemPrompt string) {
	s.registry.getOrCreate(sessionID, systemPrompt)
}

// StreamTurn submits a user message to a session and streams the
// assistant's reply. The user message is committed to the history as
// the turn begins; the assistant reply is committed only when the turn
// finishes without error, so a failed or cancelled turn leaves the
// history at the last completed turn plus the user message that opened
// this one.
func (s *ChatService) StreamTurn(ctx context.Context, sessionID, userMessage string) (<-chan string, <-chan error) {
	contentCh := make(chan string, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(contentCh)
		defer close(errCh)

		if err := s.runTurn(ctx, sessionID, userMessage, contentCh); err != nil {
			errCh <- err
		}
	}()

	return contentCh, errCh
}

// runTurn executes one gated turn, sending fragments to contentCh.
func (s *ChatService) runTurn(ctx context.Context, sessionID, userMessage string, contentCh chan<- string) error {
	session, ok := s.registry.get(sessionID)
	if !ok {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}

	if strings.TrimSpace(userMessage) == "" {
		return fmt.Errorf("%w: empty user message", domain.ErrInvalidInput)
	}

	if err := session.acquire(ctx); err != nil {
		return err
	}
	defer session.release()

	logger.Section("Chat Turn")
	logger.Debug("session %s: turn started", sessionID)

	// The user message is persisted up front, so however the turn ends
	// the history reads as a conversation waiting on a reply.
	session.append(domain.ChatMessage{Role: domain.RoleUser, Content: userMessage})

	// Retrieval failure degrades to an unaugmented turn; a dead vector
	// store should not take chat down with it. Cancellation aborts.
	retrieved, err := s.retrieval.Retrieve(ctx, userMessage, s.opts.TopK)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("retrieval failed, continuing without context: %v", err)
		retrieved = nil
	}

	contextBlock := buildContextBlock(retrieved, s.opts.ContextChars)

	// The context block rides along as a system message for this turn
	// only; the persistent history never contains it.
	augmented := session.snapshot()
	if contextBlock != "" {
		augmented = append(augmented, domain.ChatMessage{
			Role:    domain.RoleSystem,
			Content: contextPreamble + contextBlock,
		})
	}

	events, err := s.llm.StreamChat(ctx, augmented, driven.ChatOptions{
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return err
	}

	var reply strings.Builder
	for event := range events {
		if event.Err != nil {
			return event.Err
		}
		if event.Content == "" {
			continue
		}

		reply.WriteString(event.Content)
		select {
		case contentCh <- event.Content:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	session.append(domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: reply.String(),
	})

	logger.Debug("session %s: turn completed, reply length %d", sessionID, reply.Len())
	return nil
}

// History returns a copy of the session's messages in order.
func (s *ChatService) History(sessionID string) ([]domain.ChatMessage, error) {
	session, ok := s.registry.get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}
	return session.snapshot(), nil
}

// ResetSession clears a session's history back to its system prompt.
func (s *ChatService) ResetSession(sessionID string) error {
	session, ok := s.registry.get(sessionID)
	if !ok {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}
	session.reset()
	return nil
}

// EndSession discards a session and its history.
func (s *ChatService) EndSession(sessionID string) {
	s.registry.remove(sessionID)
}

// buildContextBlock formats retrieved chunks for injection, best score
// first, stopping before the character budget is exceeded.
func buildContextBlock(chunks []domain.RetrievedChunk, maxChars int) string {
	if len(chunks) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, c := range chunks {
		piece := fmt.Sprintf("[DocId: %s, Chunk: %d, Score: %.4f]\n%s\n---\n",
			c.DocumentID, c.ChunkIndex, c.Score, c.Content)
		if sb.Len()+len(piece) > maxChars {
			break
		}
		sb.WriteString(piece)
	}
	return sb.String()
}
