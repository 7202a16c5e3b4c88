package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncVerbose bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the notebook with the configured remote",
	Long: `Run one full synchronization pass: fetch the remote branch, merge
remote changes into the notebook with per-section timestamp
resolution, commit, and push.

Requires git.enabled in the configuration. Without a remote URL the
pass still commits local changes so a remote can be added later.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.GitEnabled {
			return fmt.Errorf("git sync is disabled: set LEXBOOK_GIT_ENABLED=true or git.enabled in the config")
		}

		result, err := newSyncer().Sync(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		if syncVerbose {
			for _, step := range result.Trail {
				fmt.Println(renderFaint("  " + step))
			}
		}
		printSyncResult(result)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVarP(&syncVerbose, "verbose", "v", false, "print each synchronization step")
	rootCmd.AddCommand(syncCmd)
}
