package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/star-builder/internal/sanitize"
)

var (
	sanitizePolicy   string
	sanitizeMarkdown bool
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize",
	Short: "Sanitize HTML read from stdin",
	Long:  "Reads an HTML fragment (or markdown with --markdown) from stdin and writes the sanitized result to stdout.",
	Args:  cobra.NoArgs,
	RunE:  runSanitize,
}

func init() {
	sanitizeCmd.Flags().StringVarP(&sanitizePolicy, "policy", "p", string(sanitize.Basic), "Policy: strict, basic, rich or resume")
	sanitizeCmd.Flags().BoolVar(&sanitizeMarkdown, "markdown", false, "Treat input as markdown and render it with the rich policy")
	rootCmd.AddCommand(sanitizeCmd)
}

func runSanitize(cmd *cobra.Command, _ []string) error {
	policy, err := sanitize.ParsePolicy(sanitizePolicy)
	if err != nil {
		return err
	}
	input, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	sanitize.Init()

	var out string
	if sanitizeMarkdown {
		out = sanitize.SanitizeMarkdown(string(input))
	} else {
		out = sanitize.Sanitize(string(input), policy)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
