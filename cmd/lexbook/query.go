package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexbook/lexbook/internal/textkit"
)

var (
	queryRaw  bool
	querySave bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Explain a word, phrase, or sentence",
	Long: `Query the AI assistant for an explanation of the given text.

The input is classified (English/Chinese/mixed, word/phrase/sentence)
and the matching prompt produces a structured markdown explanation.
With --save the explanation is stored as a new notebook section and,
when git sync is enabled, synchronized with the remote.`,
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

		c := textkit.Classify(input)
		fmt.Println(renderFaint(fmt.Sprintf("Querying (%s %s)...", c.Language, c.Type)))

		body, err := explainer.Explain(cmd.Context(), input)
		if err != nil {
			return fmt.Errorf("explaining %q: %w", input, err)
		}

		if queryRaw {
			fmt.Println(body)
		} else {
			printExplanation(body)
		}

		if !querySave {
			return nil
		}
		if err := newStore().Prepend(body); err != nil {
			return fmt.Errorf("saving section: %w", err)
		}
		fmt.Println(renderSuccess("Saved to notebook."))
		return syncNotebook(cmd.Context())
	},
}

// printExplanation renders a markdown section body with heading lines
// highlighted.
func printExplanation(body string) {
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		if strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "# ") {
			fmt.Println(renderHeading(line))
		} else {
			fmt.Println(renderBody(line))
		}
	}
}

func init() {
	queryCmd.Flags().BoolVar(&queryRaw, "raw", false, "print the raw markdown without styling")
	queryCmd.Flags().BoolVar(&querySave, "save", false, "save the explanation to the notebook")
	rootCmd.AddCommand(queryCmd)
}
