package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the notebook file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(cfg.NotebookPath)
	},
}

func init() {
	rootCmd.AddCommand(pathCmd)
}
