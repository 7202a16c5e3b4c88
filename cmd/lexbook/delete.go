package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexbook/lexbook/internal/notebook"
)

var deleteTimestamp string

var deleteCmd = &cobra.Command{
	Use:   "delete [identity]",
	Short: "Delete a notebook section",
	Long: `Delete the section whose heading matches the given identity
(case-insensitive). When several sections share the heading, narrow the
match with --timestamp; --timestamp alone also works.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := ""
		if len(args) > 0 {
			identity = strings.TrimSpace(args[0])
		}
		if identity == "" && deleteTimestamp == "" {
			return fmt.Errorf("an identity or --timestamp is required")
		}

		err := newStore().Delete(identity, deleteTimestamp)
		switch {
		case errors.Is(err, notebook.ErrSectionNotFound):
			return fmt.Errorf("no section matches %q", identity)
		case errors.Is(err, notebook.ErrAmbiguousSection):
			return fmt.Errorf("several sections match %q; disambiguate with --timestamp", identity)
		case err != nil:
			return err
		}

		label := identity
		if label == "" {
			label = deleteTimestamp
		}
		fmt.Printf("%s %s\n", renderSuccess("Deleted:"), renderHeading(label))
		return syncNotebook(cmd.Context())
	},
}

func init() {
	deleteCmd.Flags().StringVar(&deleteTimestamp, "timestamp", "", "match the section's timestamp marker")
	rootCmd.AddCommand(deleteCmd)
}
