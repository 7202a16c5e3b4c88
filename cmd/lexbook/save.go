package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexbook/lexbook/internal/textkit"
)

var saveCmd = &cobra.Command{
	Use:   "save <text>",
	Short: "Explain text and save it to the notebook",
	Long: `Query the AI assistant and store the explanation as a new notebook
section in one step. Equivalent to "query --save" without printing the
full explanation.`,
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
		if err := newStore().Prepend(body); err != nil {
			return fmt.Errorf("saving section: %w", err)
		}
		fmt.Printf("%s %s\n", renderSuccess("Saved:"), renderHeading(input))
		return syncNotebook(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
}
