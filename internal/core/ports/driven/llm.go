package driven

import (
	"context"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// LLMService streams chat completions from a language model.
//
// Implementations may include:
//   - OpenAI (GPT-4o, GPT-4o-mini)
//   - Any OpenAI-compatible inference server
type LLMService interface {
	// StreamChat starts a streaming chat completion for the given
	// conversation. It returns a channel of events that yields content
	// fragments as the model produces them. The channel is closed when
	// the stream ends, after an error event, or when ctx is cancelled.
	StreamChat(ctx context.Context, messages []domain.ChatMessage, opts ChatOptions) (<-chan StreamEvent, error)

	// ModelName returns the name of the chat model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// ChatOptions configures chat completion behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}

// StreamEvent is a single item on a chat completion stream.
// Exactly one of Content or Err is set.
type StreamEvent struct {
	// Content is a fragment of assistant output.
	Content string

	// Err terminates the stream when non-nil.
	Err error
}
