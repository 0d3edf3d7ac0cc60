package driving

import (
	"context"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

// RetrievalService finds stored chunks relevant to a text query.
type RetrievalService interface {
	// Retrieve embeds the query and returns the topK nearest chunks,
	// closest first. A blank query returns an empty result without
	// calling the embedding provider. topK <= 0 uses the configured
	// default.
	Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error)
}
