// Package cli wires the application services into cobra commands.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/ragchat-cli/internal/adapters/driven/config/file"
	openaiembed "github.com/custodia-labs/ragchat-cli/internal/adapters/driven/embedding/openai"
	openaillm "github.com/custodia-labs/ragchat-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragchat-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragchat-cli/internal/chunker"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat-cli/internal/core/services"
	"github.com/custodia-labs/ragchat-cli/internal/extractors"
	"github.com/custodia-labs/ragchat-cli/internal/extractors/docx"
	"github.com/custodia-labs/ragchat-cli/internal/extractors/pdf"
	"github.com/custodia-labs/ragchat-cli/internal/extractors/plaintext"
	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "0.1.0"

// verbose enables debug logging on stderr.
var verbose bool

// Services the commands dispatch to. Wired by initServices at startup;
// tests swap in mocks directly.
var (
	ingestService    driving.IngestService
	documentService  driving.DocumentService
	retrievalService driving.RetrievalService
	chatService      driving.ChatService
	configStore      driven.ConfigStore
)

// closers are shut down after the command finishes.
var closers []io.Closer

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your documents from the terminal",
	Long: `ragchat ingests local documents, indexes them with embeddings,
and answers questions about them in a retrieval-augmented chat.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// Execute wires the services and runs the root command.
func Execute() error {
	if err := initServices(); err != nil {
		return err
	}
	defer closeServices()

	return rootCmd.Execute()
}

// initServices builds the production service graph from configuration.
// Services that need an OpenAI API key are left unwired when no key is
// configured; their commands report how to set one.
func initServices() error {
	if configStore != nil {
		return nil
	}

	store, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	configStore = store

	vectorStore, err := sqlite.NewStore(store.GetString(configfile.KeyDataDir))
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	closers = append(closers, vectorStore)

	documentService = services.NewDocumentService(vectorStore)

	apiKey := store.GetString(configfile.KeyAPIKey)
	if apiKey == "" {
		logger.Debug("no API key configured, embedding and chat services unwired")
		return nil
	}

	embedder, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     apiKey,
		BaseURL:    store.GetString(configfile.KeyBaseURL),
		Model:      store.GetString(configfile.KeyEmbeddingModel),
		Dimensions: store.GetInt(configfile.KeyEmbeddingDims),
	})
	if err != nil {
		return fmt.Errorf("configuring embedding service: %w", err)
	}
	closers = append(closers, closerFunc(embedder.Close))

	llm, err := openaillm.NewLLMService(openaillm.Config{
		APIKey:  apiKey,
		BaseURL: store.GetString(configfile.KeyBaseURL),
		Model:   store.GetString(configfile.KeyChatModel),
	})
	if err != nil {
		return fmt.Errorf("configuring LLM service: %w", err)
	}
	closers = append(closers, closerFunc(llm.Close))

	var chunkOpts []chunker.Option
	if maxTokens := store.GetInt(configfile.KeyChunkMaxTokens); maxTokens > 0 {
		chunkOpts = append(chunkOpts, chunker.WithMaxTokens(maxTokens))
	}
	if overlap := store.GetInt(configfile.KeyChunkOverlap); overlap > 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlapTokens(overlap))
	}

	registry := extractors.NewRegistry(plaintext.New(), docx.New(), pdf.New())

	ingestService = services.NewIngestService(registry, embedder, vectorStore, chunker.New(chunkOpts...))
	retrievalService = services.NewRetrievalService(embedder, vectorStore, store.GetInt(configfile.KeyRetrievalTopK))
	chatOpts := services.ChatOptions{
		MaxTokens:    store.GetInt(configfile.KeyChatMaxTokens),
		ContextChars: store.GetInt(configfile.KeyChatContextChars),
		TopK:         store.GetInt(configfile.KeyRetrievalTopK),
	}
	// A configured temperature of zero is a deliberate choice; only an
	// absent key falls back to the service default.
	if _, ok := store.Get(configfile.KeyChatTemperature); ok {
		temperature := store.GetFloat(configfile.KeyChatTemperature)
		chatOpts.Temperature = &temperature
	}
	chatService = services.NewChatService(retrievalService, llm, chatOpts)

	return nil
}

func closeServices() {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("close: %v", err)
		}
	}
	closers = nil
}

// closerFunc adapts a close function to io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }
