package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexbook/lexbook/internal/assistant"
	"github.com/lexbook/lexbook/internal/config"
	"github.com/lexbook/lexbook/internal/logger"
	"github.com/lexbook/lexbook/internal/notebook"
	notesync "github.com/lexbook/lexbook/internal/sync"
	"github.com/lexbook/lexbook/internal/vcs"
)

// version is stamped by the build.
var version = "dev"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "lexbook",
	Short:   "Personal vocabulary notebook with git-backed synchronization",
	Version: version,
	Long: `lexbook keeps a plain-text vocabulary notebook: timestamped markdown
sections, newest first, one file. Queries are explained by an AI
assistant and saved as sections; an optional git remote keeps copies
of the notebook on multiple machines reconciled.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		if err := logger.Init(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newStore() *notebook.Store {
	return notebook.NewStore(cfg.NotebookPath)
}

func newExplainer() (assistant.Explainer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: set LEXBOOK_ANTHROPIC_API_KEY or anthropic.api_key")
	}
	return assistant.NewClaude(cfg.APIKey, cfg.Model), nil
}

func newComposer() (assistant.Composer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured: set LEXBOOK_ANTHROPIC_API_KEY or anthropic.api_key")
	}
	return assistant.NewClaude(cfg.APIKey, cfg.Model), nil
}

func newSyncer() notesync.Syncer {
	return notesync.NewOrchestrator(
		vcs.NewGit(cfg.WorkDir()),
		newStore(),
		logger.L(),
		notesync.Options{
			RemoteURL: cfg.RemoteURL,
			Remote:    cfg.Remote,
			Branch:    cfg.Branch,
			Path:      cfg.NotebookName(),
		},
	)
}

// syncNotebook runs one synchronization pass and prints its outcome.
// With git disabled it is a no-op.
func syncNotebook(ctx context.Context) error {
	if !cfg.GitEnabled {
		return nil
	}
	result, err := newSyncer().Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	printSyncResult(result)
	return nil
}

func printSyncResult(r *notesync.Result) {
	switch r.Outcome {
	case notesync.NoChanges:
		fmt.Println(renderFaint("Notebook already in sync."))
	case notesync.Success:
		if r.Pushed {
			fmt.Println(renderSuccess("Notebook synchronized and pushed."))
		} else {
			fmt.Println(renderSuccess("Notebook synchronized locally."))
		}
	case notesync.Conflicts:
		fmt.Println(renderWarning("Notebook synchronized with unresolved conflicts:"))
		for _, c := range r.Conflicts {
			fmt.Printf("  %s %s\n", renderWarning("!"), c.Identity)
		}
		fmt.Println(renderFaint("The remote version was kept for these sections."))
	}
	if r.Degraded {
		fmt.Println(renderWarning("Merge resolution failed; the remote notebook version was accepted."))
	}
}
