package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// chatSession holds one conversation's history and its turn gate.
//
// The gate is a buffered channel of capacity one: a turn acquires it by
// sending and releases it by receiving, so at most one turn per session
// is in flight. Waiters are admitted as the gate frees up.
type chatSession struct {
	id           string
	systemPrompt string
	gate         chan struct{}

	mu      sync.Mutex
	history []domain.ChatMessage
}

// newChatSession creates a session seeded with the system prompt.
func newChatSession(id, systemPrompt string) *chatSession {
	if systemPrompt == "" {
		systemPrompt = domain.DefaultSystemPrompt
	}
	return &chatSession{
		id:           id,
		systemPrompt: systemPrompt,
		gate:         make(chan struct{}, 1),
		history: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: systemPrompt},
		},
	}
}

// acquire blocks until the session gate is free or ctx is done.
func (s *chatSession) acquire(ctx context.Context) error {
	select {
	case s.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release frees the session gate for the next waiting turn.
func (s *chatSession) release() {
	<-s.gate
}

// snapshot returns a copy of the session history.
func (s *chatSession) snapshot() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.history...)
}

// append adds a message to the history.
func (s *chatSession) append(msg domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
}

// reset clears the history back to the system prompt.
func (s *chatSession) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: s.systemPrompt},
	}
}

// sessionRegistry tracks live sessions by ID.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*chatSession
}

// newSessionRegistry creates an empty registry.
func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*chatSession)}
}

// add registers a session.
func (r *sessionRegistry) add(session *chatSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.id] = session
	logger.Debug("created chat session %s", session.id)
}

// get looks up a session by ID.
func (r *sessionRegistry) get(id string) (*chatSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	return session, ok
}

// getOrCreate returns the session for id, creating it on first use.
// The first caller's system prompt wins; later prompts are ignored.
func (r *sessionRegistry) getOrCreate(id, systemPrompt string) *chatSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok {
		return session
	}
	session := newChatSession(id, systemPrompt)
	r.sessions[id] = session
	logger.Debug("created chat session %s", id)
	return session
}

// remove discards a session. In-flight turns finish but their results
// are no longer reachable.
func (r *sessionRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; ok {
		delete(r.sessions, id)
		logger.Debug("removed chat session %s", id)
	}
}
