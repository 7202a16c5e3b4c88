package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexbook/lexbook/internal/logger"
	"github.com/lexbook/lexbook/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the notebook file and sync on every change",
	Long: `Watch the notebook file for edits and run a synchronization pass
after each settled burst of writes. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.GitEnabled {
			return fmt.Errorf("git sync is disabled: set LEXBOOK_GIT_ENABLED=true or git.enabled in the config")
		}

		w, err := watcher.New(cfg.NotebookPath, watchDebounce, logger.L(), func(ctx context.Context) error {
			result, err := newSyncer().Sync(ctx)
			if err != nil {
				return err
			}
			printSyncResult(result)
			return nil
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s %s\n", renderSuccess("Watching"), renderHeading(cfg.NotebookPath))
		fmt.Println(renderFaint("Press Ctrl-C to stop."))

		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Println(renderFaint("Stopped."))
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounceInterval, "quiet period before a change triggers a sync")
	rootCmd.AddCommand(watchCmd)
}
