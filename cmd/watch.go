package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conneroisu/inliner/internal/config"
	"github.com/conneroisu/inliner/internal/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for file changes and re-run the inline pass",
	Long: `Watch the configured scan paths and re-run the inline pass whenever a
markup document, script, or stylesheet changes.

Examples:
  inliner watch                   # Watch all configured paths
  inliner watch --verbose         # Watch with per-file change output
  inliner watch --output ./dist   # Write transformed copies to ./dist`,
	RunE: runWatch,
}

var watchVerbose bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose output")
	addInlineFlags(watchCmd.Flags())
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if len(args) > 0 {
		cfg.Markup.ScanPaths = args
	}

	logger := newCommandLogger()

	fileWatcher, err := watcher.NewFileWatcher(time.Duration(cfg.Watch.DebounceMs) * time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	// A markup change means the document needs re-inlining; an asset change
	// means documents referencing it are stale.
	markupFilter := watcher.MarkupFilter(cfg.Markup.Extensions)
	fileWatcher.AddFilter(func(path string) bool {
		return markupFilter(path) || watcher.AssetFilter(path)
	})
	fileWatcher.AddFilter(watcher.NoGitFilter)
	fileWatcher.AddFilter(watcher.NoNodeModulesFilter)

	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		if watchVerbose {
			fmt.Printf("File changes detected:\n")
			for _, event := range events {
				fmt.Printf("   %s: %s\n", event.Type, event.Path)
			}
		} else {
			fmt.Printf("%d file(s) changed\n", len(events))
		}

		docs, err := runInlinePass(cfg, logger, inlineOutputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Inline pass failed: %v\n", err)
			return nil
		}

		changed := 0
		for _, doc := range docs {
			if doc.Changed {
				changed++
			}
		}
		fmt.Printf("Processed %d document(s), %d changed\n", len(docs), changed)
		return nil
	})

	fmt.Println("Setting up file watching...")
	for _, path := range cfg.Markup.ScanPaths {
		if err := fileWatcher.AddRecursive(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to watch path %s: %v\n", path, err)
		} else {
			fmt.Printf("   - Watching: %s\n", path)
		}
	}

	// Initial pass so the tree is current before the first change arrives.
	docs, err := runInlinePass(cfg, logger, inlineOutputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Initial inline pass failed: %v\n", err)
	} else {
		fmt.Printf("Initial pass processed %d document(s)\n", len(docs))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Println("Watching for changes... (Press Ctrl+C to stop)")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	fmt.Println("\nStopping file watcher...")
	cancel()

	return nil
}
