package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	ingestTitle   string
	ingestRecurse bool
	ingestGlob    string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a file or directory into the index",
	Long: `Extracts text from a file, splits it into chunks, embeds each chunk
and stores the result for retrieval. Given a directory, every file with
a supported extension is ingested; the first failure halts the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "document title (single file only)")
	ingestCmd.Flags().BoolVarP(&ingestRecurse, "recurse", "r", false, "descend into subdirectories")
	ingestCmd.Flags().StringVar(&ingestGlob, "glob", "", "only ingest files whose name matches the pattern")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured; run 'ragchat config set openai.api_key'")
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	ctx := context.Background()

	if !info.IsDir() {
		result, err := ingestService.IngestFile(ctx, path, ingestTitle, nil)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		cmd.Printf("Ingested %s\n", path)
		cmd.Printf("  Document: %s\n", result.DocumentID)
		cmd.Printf("  Title:    %s\n", result.Title)
		cmd.Printf("  Chunks:   %d\n", result.ChunkCount)
		return nil
	}

	if ingestTitle != "" {
		return errors.New("--title applies to a single file, not a directory")
	}

	count, err := ingestService.IngestFolder(ctx, path, ingestGlob, ingestRecurse)
	if err != nil {
		cmd.Printf("Ingested %d files before failure.\n", count)
		return fmt.Errorf("folder ingest failed: %w", err)
	}
	if count == 0 {
		cmd.Printf("No ingestable files found in %s\n", path)
		return nil
	}

	cmd.Printf("Ingested %d files from %s\n", count, path)
	return nil
}
