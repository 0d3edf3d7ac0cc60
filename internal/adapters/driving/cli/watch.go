package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat-cli/internal/logger"
)

// watchDebounce coalesces the burst of write events editors produce
// when saving a file.
const watchDebounce = 500 * time.Millisecond

var watchRecurse bool

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest files as they change",
	Long: `Watches a directory and ingests any supported file that is created
or modified. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchRecurse, "recurse", "r", false, "watch subdirectories too")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured; run 'ragchat config set openai.api_key'")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck // Best-effort cleanup

	if err := addWatchDirs(watcher, dir, watchRecurse); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supported := make(map[string]bool)
	for _, ext := range ingestService.SupportedExtensions() {
		supported[ext] = true
	}

	cmd.Printf("Watching %s. Press Ctrl-C to stop.\n", dir)

	// Debounce timers deliver settled paths here; ingestion happens
	// serially in this loop.
	pending := make(chan string, 16)
	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
	)

	for {
		select {
		case <-ctx.Done():
			cmd.Println("\nStopped.")
			return nil

		case path := <-pending:
			result, err := ingestService.IngestFile(ctx, path, "", nil)
			if err != nil {
				if ctx.Err() != nil {
					cmd.Println("\nStopped.")
					return nil
				}
				cmd.Printf("  FAILED %s: %v\n", path, err)
				continue
			}
			cmd.Printf("  %s -> %s (%d chunks)\n", path, result.DocumentID, result.ChunkCount)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op.Has(fsnotify.Create) && watchRecurse {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
					continue
				}
			}

			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !supported[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}

			path := event.Name
			mu.Lock()
			if timer, ok := timers[path]; ok {
				timer.Reset(watchDebounce)
			} else {
				timers[path] = time.AfterFunc(watchDebounce, func() {
					mu.Lock()
					delete(timers, path)
					mu.Unlock()

					select {
					case pending <- path:
					case <-ctx.Done():
					}
				})
			}
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		}
	}
}

// addWatchDirs registers dir, and its subdirectories when recurse is
// set, with the watcher.
func addWatchDirs(watcher *fsnotify.Watcher, dir string, recurse bool) error {
	if !recurse {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		return nil
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
