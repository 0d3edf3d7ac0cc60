package domain

// Message roles. These mirror the wire-level roles of chat completion APIs.
const (
	// RoleSystem tags instructions that frame the conversation.
	RoleSystem = "system"

	// RoleUser tags messages sent by the caller.
	RoleUser = "user"

	// RoleAssistant tags responses produced by the model.
	RoleAssistant = "assistant"
)

// DefaultSystemPrompt seeds new sessions when the caller supplies none.
const DefaultSystemPrompt = "You are a helpful assistant."

// ChatMessage represents a single role-tagged message in a conversation.
type ChatMessage struct {
	// Role is one of RoleSystem, RoleUser or RoleAssistant.
	Role string

	// Content is the message text.
	Content string
}
