package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/star-builder/internal/e2e"
)

var (
	e2eBaseURL    string
	e2eResumes    []string
	e2eJobDesc    string
	e2eMinStories int
	e2eLimit      int
	e2eTimeout    time.Duration
	e2eHeadful    bool
)

var e2eCmd = &cobra.Command{
	Use:   "e2e",
	Short: "Drive the web client through upload and tailor in a headless browser",
	Long: `Runs one scenario per resume file against a deployed web client. Each
scenario uploads the resume, submits the job description, waits for the
tailored result and checks it for story cards and executable markup.
Requires Chrome or Chromium.`,
	Args: cobra.NoArgs,
	RunE: runE2E,
}

func init() {
	e2eCmd.Flags().StringVar(&e2eBaseURL, "base-url", os.Getenv("E2E_BASE_URL"), "Web client URL (default $E2E_BASE_URL)")
	e2eCmd.Flags().StringSliceVarP(&e2eResumes, "resume", "r", nil, "Resume file to upload; repeat for more scenarios (required)")
	e2eCmd.Flags().StringVarP(&e2eJobDesc, "job-description", "j", "", "Path to a job description text file")
	e2eCmd.Flags().IntVar(&e2eMinStories, "min-stories", 1, "Minimum story cards expected per page")
	e2eCmd.Flags().IntVar(&e2eLimit, "limit", 2, "Browsers to run at once")
	e2eCmd.Flags().DurationVar(&e2eTimeout, "timeout", 2*time.Minute, "Per-scenario timeout")
	e2eCmd.Flags().BoolVar(&e2eHeadful, "headful", false, "Show the browser window")
	if err := e2eCmd.MarkFlagRequired("resume"); err != nil {
		panic(fmt.Sprintf("failed to mark resume flag as required: %v", err))
	}
	rootCmd.AddCommand(e2eCmd)
}

func runE2E(cmd *cobra.Command, _ []string) error {
	if e2eBaseURL == "" {
		return fmt.Errorf("--base-url or E2E_BASE_URL is required")
	}
	var jobDescription string
	if e2eJobDesc != "" {
		data, err := os.ReadFile(e2eJobDesc)
		if err != nil {
			return fmt.Errorf("failed to read job description: %w", err)
		}
		jobDescription = strings.TrimSpace(string(data))
	}

	scenarios := make([]e2e.Scenario, 0, len(e2eResumes))
	for _, path := range e2eResumes {
		scenarios = append(scenarios, e2e.Scenario{
			Name:           filepath.Base(path),
			ResumePath:     path,
			JobDescription: jobDescription,
			MinStories:     e2eMinStories,
		})
	}

	runner := e2e.NewRunner(e2eBaseURL, logger)
	runner.Timeout = e2eTimeout
	runner.Headless = !e2eHeadful

	results, err := runner.RunAll(cmd.Context(), scenarios, e2eLimit)
	out := cmd.OutOrStdout()
	for _, res := range results {
		if res == nil {
			continue
		}
		fmt.Fprintf(out, "%-30s %d story cards in %s\n", res.Scenario, res.Report.StoryCards, res.Duration.Round(time.Millisecond))
	}
	return err
}
