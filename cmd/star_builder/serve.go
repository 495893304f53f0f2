package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/star-builder/internal/config"
	"github.com/jonathan/star-builder/internal/db"
	"github.com/jonathan/star-builder/internal/llm"
	"github.com/jonathan/star-builder/internal/sanitize"
	"github.com/jonathan/star-builder/internal/schemas"
	"github.com/jonathan/star-builder/internal/server"
	"github.com/jonathan/star-builder/internal/stories"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the STAR story API server",
	Long: `Start an HTTP server exposing account and STAR story endpoints.

Stories are drafted by the configured LLM provider. Without an API key the
server falls back to assembling stories from the experience bullets.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if servePort != 0 {
		cfg.Port = servePort
	}
	sanitize.Init()
	schemas.MustCompile()

	jwtConfig, err := cfg.JWT()
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return fmt.Errorf("failed to create password config: %w", err)
	}

	drafter, closeDrafter, err := newDrafter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDrafter()

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitAllowlist: cfg.RateLimitAllowlist,
	}, server.Deps{
		Store:     store,
		Drafter:   drafter,
		JWT:       jwtConfig,
		Passwords: passwordConfig,
		Logger:    logger,
	})
	if err != nil {
		_ = store.Close(context.Background())
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}

// newDrafter picks the LLM generator when an API key is configured and the
// template drafter otherwise. The returned func releases the LLM client.
func newDrafter(ctx context.Context, c *config.Config, logger *zap.Logger) (stories.Drafter, func(), error) {
	if c.APIKey == "" {
		logger.Warn("no LLM API key configured; stories will be assembled from experience bullets")
		return stories.TemplateDrafter{}, func() {}, nil
	}
	provider, err := llm.ParseProvider(c.LLMProvider)
	if err != nil {
		return nil, nil, err
	}
	llmConfig := llm.DefaultConfig(provider).WithModel(llm.TierStandard, c.Model)
	llmConfig.BaseURL = c.LLMBaseURL

	client, err := llm.NewClient(ctx, llmConfig, c.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	logger.Info("story drafting enabled",
		zap.String("provider", string(provider)),
		zap.String("model", client.GetModel(llm.TierStandard)))
	return stories.NewGenerator(client, logger), func() { _ = client.Close() }, nil
}
