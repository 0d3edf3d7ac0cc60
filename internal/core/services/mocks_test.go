package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// fakeEmbedder produces deterministic low-dimensional embeddings.
type fakeEmbedder struct {
	dims      int
	embedErr  error
	vectorFor func(text string) []float32

	mu    sync.Mutex
	calls [][]string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dims: 3}
}

func (f *fakeEmbedder) vector(text string) []float32 {
	if f.vectorFor != nil {
		return f.vectorFor(text)
	}
	// Cheap deterministic spread so distinct texts get distinct vectors.
	v := make([]float32, f.dims)
	for i, r := range text {
		v[i%f.dims] += float32(r)
	}
	return v
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	f.mu.Unlock()

	if f.embedErr != nil {
		return nil, f.embedErr
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = f.vector(text)
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }

func (f *fakeEmbedder) ModelName() string { return "fake-embedder" }

func (f *fakeEmbedder) Close() error { return nil }

func (f *fakeEmbedder) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeLLM streams scripted fragments and records what it was asked.
type fakeLLM struct {
	fragments []string
	streamErr error // emitted as the final event when set
	startErr  error // returned from StreamChat itself when set

	// started is closed when the first stream begins, proceed gates the
	// stream until closed. Both optional.
	started chan struct{}
	proceed chan struct{}

	mu       sync.Mutex
	requests [][]domain.ChatMessage
	opts     []driven.ChatOptions
}

func (f *fakeLLM) StreamChat(ctx context.Context, messages []domain.ChatMessage, opts driven.ChatOptions) (<-chan driven.StreamEvent, error) {
	f.mu.Lock()
	f.requests = append(f.requests, append([]domain.ChatMessage(nil), messages...))
	f.opts = append(f.opts, opts)
	first := len(f.requests) == 1
	f.mu.Unlock()

	if f.startErr != nil {
		return nil, f.startErr
	}

	// Buffered so an aborted consumer cannot strand the writer.
	events := make(chan driven.StreamEvent, len(f.fragments)+2)
	go func() {
		defer close(events)

		if first && f.started != nil {
			close(f.started)
		}
		// Only the first stream parks on the gate; later streams run
		// freely so one blocked session cannot stall the rest.
		if first && f.proceed != nil {
			select {
			case <-f.proceed:
			case <-ctx.Done():
				events <- driven.StreamEvent{Err: ctx.Err()}
				return
			}
		}

		for _, fragment := range f.fragments {
			select {
			case events <- driven.StreamEvent{Content: fragment}:
			case <-ctx.Done():
				events <- driven.StreamEvent{Err: ctx.Err()}
				return
			}
		}
		if f.streamErr != nil {
			events <- driven.StreamEvent{Err: f.streamErr}
		}
	}()

	return events, nil
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }

func (f *fakeLLM) Close() error { return nil }

func (f *fakeLLM) lastRequest() []domain.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeLLM) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeLLM) lastOpts() driven.ChatOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.opts) == 0 {
		return driven.ChatOptions{}
	}
	return f.opts[len(f.opts)-1]
}

// fakeRetrieval returns canned chunks or an error.
type fakeRetrieval struct {
	chunks []domain.RetrievedChunk
	err    error
}

func (f *fakeRetrieval) Retrieve(_ context.Context, _ string, _ int) ([]domain.RetrievedChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}
