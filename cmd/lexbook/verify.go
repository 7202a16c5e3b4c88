package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the AI provider is reachable",
	Long: `Send a minimal request to the configured AI provider to confirm the
API key and model work, without storing anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		explainer, err := newExplainer()
		if err != nil {
			return err
		}
		if err := explainer.Verify(cmd.Context()); err != nil {
			return fmt.Errorf("provider check failed: %w", err)
		}
		fmt.Println(renderSuccess("Provider credentials verified."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
