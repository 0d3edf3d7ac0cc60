package driving

import (
	"context"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// ChatService conducts retrieval-augmented conversations.
//
// Each session holds its own history and admits one in-flight turn at a
// time. Concurrent turns on the same session queue behind each other;
// turns on different sessions run independently.
type ChatService interface {
	// NewSession creates a conversation session seeded with the given
	// system prompt. An empty prompt uses the default. Returns the
	// session ID.
	NewSession(systemPrompt string) string

	// EnsureSession creates the session with the given ID if it does
	// not exist yet. Calling it again for the same ID is a no-op; the
	// first caller's system prompt wins.
	EnsureSession(sessionID, systemPrompt string)

	// StreamTurn submits a user message to a session and streams the
	// assistant's reply. Content fragments arrive on the first channel;
	// at most one error arrives on the second. Both channels are closed
	// when the turn completes. The user message is appended to the
	// session history as the turn begins; the assistant reply is
	// appended only when the turn completes without error.
	StreamTurn(ctx context.Context, sessionID, userMessage string) (<-chan string, <-chan error)

	// History returns a copy of the session's messages in order,
	// including the system prompt.
	History(sessionID string) ([]domain.ChatMessage, error)

	// ResetSession clears a session's history back to its system prompt.
	ResetSession(sessionID string) error

	// EndSession discards a session and its history.
	EndSession(sessionID string)
}
