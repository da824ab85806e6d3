package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var genDocsCmd = &cobra.Command{
	Use:    "gen-docs <dir>",
	Short:  "Write the Markdown command reference into dir",
	Args:   cobra.ExactArgs(1),
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		root := cmd.Root()
		root.DisableAutoGenTag = true
		if err := doc.GenMarkdownTree(root, dir); err != nil {
			return fmt.Errorf("generate docs: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote command reference to %s\n", dir)
		return nil
	},
}
