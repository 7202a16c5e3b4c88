package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexbook/lexbook/internal/textkit"
)

var updateCmd = &cobra.Command{
	Use:   "update <text>",
	Short: "Replace a saved explanation with a fresh one",
	Long: `Query the AI assistant again for text already in the notebook and
replace the stored section with the new explanation. Every section
whose heading matches the text is removed first, so repeated saves
collapse into one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := strings.TrimSpace(strings.Join(args, " "))
		if err := textkit.Validate(input); err != nil {
			return err
		}

		explainer, err := newExplainer()
		if err != nil {
			return err
		}

		body, err := explainer.Explain(cmd.Context(), input)
		if err != nil {
			return fmt.Errorf("explaining %q: %w", input, err)
		}

		store := newStore()
		removed, err := store.RemoveAll(input)
		if err != nil {
			return err
		}
		if removed == 0 {
			fmt.Println(renderFaint(fmt.Sprintf("No existing section for %q; saving a new one.", input)))
		}
		if err := store.Prepend(body); err != nil {
			return fmt.Errorf("saving section: %w", err)
		}
		fmt.Printf("%s %s\n", renderSuccess("Updated:"), renderHeading(input))
		return syncNotebook(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
