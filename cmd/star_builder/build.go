package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/star-builder/internal/api"
	"github.com/jonathan/star-builder/internal/logging"
	"github.com/jonathan/star-builder/internal/sanitize"
	"github.com/jonathan/star-builder/internal/storybuilder"
	"github.com/jonathan/star-builder/internal/tui"
	"github.com/jonathan/star-builder/internal/types"
)

var (
	buildPropsPath string
	buildLogFile   string
	buildToken     string
	buildBaseURL   string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Open the terminal STAR story builder",
	Long: `Opens an interactive story builder for one tailored resume.

The props file (JSON or YAML) supplies the tailored resume ID, the experiences
to choose from and optionally the themes and target job. Stories are stored
through the API at --base-url using the bearer token from --token or STAR_TOKEN.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildPropsPath, "props", "p", "", "Path to the builder props file (required)")
	buildCmd.Flags().StringVar(&buildLogFile, "log-file", "star_builder.log", "Where to write logs while the TUI is open")
	buildCmd.Flags().StringVar(&buildToken, "token", "", "Bearer token (overrides STAR_TOKEN)")
	buildCmd.Flags().StringVar(&buildBaseURL, "base-url", "", "API base URL (overrides config)")
	if err := buildCmd.MarkFlagRequired("props"); err != nil {
		panic(fmt.Sprintf("failed to mark props flag as required: %v", err))
	}
	rootCmd.AddCommand(buildCmd)
}

type propsFile struct {
	TailoredResumeID string             `json:"tailored_resume_id" yaml:"tailored_resume_id"`
	Experiences      []types.Experience `json:"experiences" yaml:"experiences"`
	Themes           []string           `json:"themes" yaml:"themes"`
	Company          string             `json:"company" yaml:"company"`
	JobTitle         string             `json:"job_title" yaml:"job_title"`
	JobDescription   string             `json:"job_description" yaml:"job_description"`
}

// loadProps reads builder props from a JSON or YAML file.
func loadProps(path string) (storybuilder.Props, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return storybuilder.Props{}, fmt.Errorf("failed to read props file %s: %w", path, err)
	}
	var pf propsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &pf)
	default:
		err = json.Unmarshal(data, &pf)
	}
	if err != nil {
		return storybuilder.Props{}, fmt.Errorf("failed to parse props file %s: %w", path, err)
	}
	if pf.TailoredResumeID == "" {
		return storybuilder.Props{}, fmt.Errorf("props file %s: tailored_resume_id is required", path)
	}
	if len(pf.Themes) == 0 {
		pf.Themes = slices.Clone(types.DefaultThemes)
	}
	return storybuilder.Props{
		TailoredResumeID: pf.TailoredResumeID,
		Experiences:      pf.Experiences,
		Themes:           pf.Themes,
		Company:          pf.Company,
		JobTitle:         pf.JobTitle,
		JobDescription:   pf.JobDescription,
	}, nil
}

func runBuild(cmd *cobra.Command, _ []string) error {
	fileLogger, err := logging.NewFile(buildLogFile, cfg.Verbose)
	if err != nil {
		return err
	}
	logger = fileLogger

	props, err := loadProps(buildPropsPath)
	if err != nil {
		return err
	}
	token := buildToken
	if token == "" {
		token = cfg.Token
	}
	if token == "" {
		return fmt.Errorf("a bearer token is required: pass --token or set STAR_TOKEN")
	}
	baseURL := buildBaseURL
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}

	sanitize.Init()
	client := api.New(baseURL, api.WithToken(token), api.WithLogger(logger))
	notes := &storybuilder.NotificationLog{}
	builder := storybuilder.New(client.StarStories, props,
		storybuilder.WithNotifier(notes),
		storybuilder.WithLogger(logger))

	ctx := cmd.Context()
	program := tea.NewProgram(tui.New(ctx, builder, notes), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("story builder exited: %w", err)
	}
	return nil
}
