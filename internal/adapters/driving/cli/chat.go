package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
)

var (
	chatSystemPrompt string
	chatSessionID    string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a retrieval-augmented chat session",
	Long: `Starts an interactive chat. Each question is answered using the
most relevant chunks from your ingested documents.

Commands inside the session:
  /history  show the conversation so far
  /reset    clear the conversation history
  /exit     leave the session`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSystemPrompt, "system", "", "override the system prompt")
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "named session ID; reusing it keeps the history")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured; run 'ragchat config set openai.api_key'")
	}

	// A named session survives the REPL so a later chat in the same
	// process picks up where it left off; anonymous sessions are torn
	// down on exit.
	sessionID := chatSessionID
	if sessionID == "" {
		sessionID = chatService.NewSession(chatSystemPrompt)
		defer chatService.EndSession(sessionID)
	} else {
		chatService.EnsureSession(sessionID, chatSystemPrompt)
	}

	cmd.Println("Chat session started. Type /exit to leave.")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	for {
		cmd.Print("> ")

		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				cmd.Println()
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch line {
		case "/exit", "/quit":
			return nil
		case "/reset":
			if err := chatService.ResetSession(sessionID); err != nil {
				return err
			}
			cmd.Println("History cleared.")
		case "/history":
			if err := printHistory(cmd, sessionID); err != nil {
				return err
			}
		default:
			streamReply(cmd, sessionID, line)
		}
	}
}

// streamReply runs one chat turn, printing fragments as they arrive.
// Ctrl-C cancels the in-flight turn without ending the session; a
// failed turn is reported and the prompt returns.
func streamReply(cmd *cobra.Command, sessionID, message string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	contentCh, errCh := chatService.StreamTurn(ctx, sessionID, message)

	for fragment := range contentCh {
		cmd.Print(fragment)
	}
	cmd.Println()

	if err := <-errCh; err != nil {
		cmd.Printf("Error: %v\n", err)
	}
	cmd.Println()
}

func printHistory(cmd *cobra.Command, sessionID string) error {
	history, err := chatService.History(sessionID)
	if err != nil {
		return err
	}

	for _, msg := range history {
		if msg.Role == domain.RoleSystem {
			continue
		}
		cmd.Printf("[%s] %s\n", msg.Role, msg.Content)
	}
	cmd.Println()
	return nil
}
