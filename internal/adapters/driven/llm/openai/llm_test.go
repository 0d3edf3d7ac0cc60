package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// newTestService points the adapter at a stub API server.
func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)
	return svc
}

// writeSSE emits one data event and flushes it.
func writeSSE(w http.ResponseWriter, data string) {
	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// deltaEvent builds a stream chunk carrying one content fragment.
func deltaEvent(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"delta": map[string]any{"content": content}},
		},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

// collect drains the event channel into content and error.
func collect(t *testing.T, events <-chan driven.StreamEvent) (string, error) {
	t.Helper()

	var content strings.Builder
	for event := range events {
		if event.Err != nil {
			return content.String(), event.Err
		}
		content.WriteString(event.Content)
	}
	return content.String(), nil
}

func TestNewLLMService(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		_, err := NewLLMService(Config{})
		assert.Error(t, err)
	})

	t.Run("model defaults", func(t *testing.T) {
		svc, err := NewLLMService(Config{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, svc.ModelName())
	})
}

func TestStreamChat(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, domain.RoleSystem, req.Messages[0].Role)

		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(w, deltaEvent("Hello"))
		writeSSE(w, deltaEvent(", world"))
		writeSSE(w, "[DONE]")
	})

	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "You are a helpful assistant."},
		{Role: domain.RoleUser, Content: "Say hello."},
	}

	events, err := svc.StreamChat(context.Background(), messages, driven.ChatOptions{MaxTokens: 100})
	require.NoError(t, err)

	content, streamErr := collect(t, events)
	require.NoError(t, streamErr)
	assert.Equal(t, "Hello, world", content)
}

func TestStreamChat_EmptyMessages(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty messages")
	})

	_, err := svc.StreamChat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStreamChat_APIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded", "type": "rate_limit"},
		})
	})

	_, err := svc.StreamChat(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
	}, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrChatProvider)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestStreamChat_SkipsMalformedEvents(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(w, deltaEvent("ok"))
		writeSSE(w, "{not json")
		writeSSE(w, deltaEvent(" still ok"))
		writeSSE(w, "[DONE]")
	})

	events, err := svc.StreamChat(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
	}, driven.ChatOptions{})
	require.NoError(t, err)

	content, streamErr := collect(t, events)
	require.NoError(t, streamErr)
	assert.Equal(t, "ok still ok", content)
}

func TestStreamChat_Cancellation(t *testing.T) {
	started := make(chan struct{})
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(w, deltaEvent("partial"))
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := svc.StreamChat(ctx, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
	}, driven.ChatOptions{})
	require.NoError(t, err)

	<-started
	cancel()

	_, streamErr := collect(t, events)
	require.Error(t, streamErr)
	assert.ErrorIs(t, streamErr, context.Canceled)
}

func TestStreamChat_TruncatedStream(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(w, deltaEvent("partial"))
		// Connection drops without [DONE]; EOF ends the stream cleanly.
	})

	events, err := svc.StreamChat(context.Background(), []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
	}, driven.ChatOptions{})
	require.NoError(t, err)

	done := make(chan struct{})
	var content string
	var streamErr error
	go func() {
		defer close(done)
		content, streamErr = collect(t, events)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not terminate")
	}

	require.NoError(t, streamErr)
	assert.Equal(t, "partial", content)
}
