package admin

import (
	"context"
	"fmt"

	"github.com/claritymed/regpilot/internal/config"
	"github.com/claritymed/regpilot/internal/database"
	"github.com/claritymed/regpilot/internal/embedding"
	"github.com/claritymed/regpilot/internal/openai"
	"github.com/claritymed/regpilot/internal/repository"
	"github.com/claritymed/regpilot/internal/service"
	openaiapi "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

// SeedCmd returns the seed command
func SeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the regulatory knowledge base",
		Long:  "Load the curated FDA regulatory corpus into the knowledge base, skipping entries that already exist",
		RunE:  runSeed,
	}

	cmd.Flags().Bool("force", false, "Seed even when the knowledge base already has entries")

	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var backends []embedding.Backend
	if cfg.HasOpenAI() {
		client := openai.NewClientWithConfig(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			EmbeddingModel: openaiapi.EmbeddingModel(cfg.EmbeddingModel),
			ChatModel:      cfg.ChatModel,
		})
		backends = append(backends, embedding.NewOpenAIBackend(client))
	}

	knowledgeRepo := repository.NewKnowledgeRepository(pool)
	seeder := service.NewKnowledgeSeeder(knowledgeRepo, embedding.NewProvider(backends...))

	force, _ := cmd.Flags().GetBool("force")
	count, err := seeder.Seed(ctx, force)
	if err != nil {
		return fmt.Errorf("failed to seed knowledge base: %w", err)
	}

	fmt.Printf("seeded %d knowledge base entries\n", count)
	return nil
}
