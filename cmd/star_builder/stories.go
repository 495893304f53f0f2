package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/star-builder/internal/api"
	"github.com/jonathan/star-builder/internal/observability"
)

var (
	storiesResumeID string
	storiesToken    string
	storiesBaseURL  string
	storiesMarkdown bool
	storiesWidth    int
)

var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "Print the STAR stories saved for a tailored resume",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		token := storiesToken
		if token == "" {
			token = cfg.Token
		}
		if token == "" {
			return fmt.Errorf("a bearer token is required: pass --token or set STAR_TOKEN")
		}
		baseURL := storiesBaseURL
		if baseURL == "" {
			baseURL = cfg.BaseURL
		}

		client := api.New(baseURL, api.WithToken(token), api.WithLogger(logger))
		stories, err := client.StarStories.List(cmd.Context(), storiesResumeID)
		if err != nil {
			return fmt.Errorf("failed to list stories: %w", err)
		}
		if !storiesMarkdown {
			observability.NewPrinter(cmd.OutOrStdout()).PrintStories(stories)
			return nil
		}
		out, err := observability.RenderMarkdown(stories, storiesWidth)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	storiesCmd.Flags().StringVarP(&storiesResumeID, "resume-id", "r", "", "Tailored resume ID (required)")
	storiesCmd.Flags().StringVar(&storiesToken, "token", "", "Bearer token (overrides STAR_TOKEN)")
	storiesCmd.Flags().StringVar(&storiesBaseURL, "base-url", "", "API base URL (overrides config)")
	storiesCmd.Flags().BoolVar(&storiesMarkdown, "markdown", false, "Render stories as styled markdown")
	storiesCmd.Flags().IntVar(&storiesWidth, "width", 80, "Wrap width for --markdown")
	if err := storiesCmd.MarkFlagRequired("resume-id"); err != nil {
		panic(fmt.Sprintf("failed to mark resume-id flag as required: %v", err))
	}
	rootCmd.AddCommand(storiesCmd)
}
