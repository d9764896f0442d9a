package admin

import (
	"context"
	"fmt"
	"sort"

	"github.com/claritymed/regpilot/internal/config"
	"github.com/claritymed/regpilot/internal/database"
	"github.com/claritymed/regpilot/internal/repository"
	"github.com/spf13/cobra"
)

// KBCmd returns the kb command group
func KBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Inspect and manage the regulatory knowledge base",
	}

	cmd.AddCommand(kbStatsCmd())
	cmd.AddCommand(kbClearCmd())

	return cmd
}

func kbStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print knowledge base summary statistics",
		RunE:  runKBStats,
	}
}

func kbClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every knowledge base entry",
		RunE:  runKBClear,
	}

	cmd.Flags().Bool("yes", false, "Confirm deletion without prompting")

	return cmd
}

func runKBStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	repo, cleanup, err := knowledgeRepoFromEnv(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := repo.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load knowledge base stats: %w", err)
	}

	fmt.Printf("total entries:      %d\n", stats.Total)
	fmt.Printf("with embeddings:    %d\n", stats.WithEmbeddings)
	fmt.Printf("missing embeddings: %d\n", stats.MissingEmbeddings)

	fmt.Println("by section:")
	for _, k := range sortedKeys(stats.BySection) {
		fmt.Printf("  %-28s %d\n", k, stats.BySection[k])
	}
	fmt.Println("by content type:")
	for _, k := range sortedKeys(stats.ByContentType) {
		fmt.Printf("  %-28s %d\n", k, stats.ByContentType[k])
	}

	return nil
}

func runKBClear(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		return fmt.Errorf("refusing to clear the knowledge base without --yes")
	}

	ctx := context.Background()

	repo, cleanup, err := knowledgeRepoFromEnv(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	deleted, err := repo.DeleteAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear knowledge base: %w", err)
	}

	fmt.Printf("deleted %d knowledge base entries\n", deleted)
	return nil
}

func knowledgeRepoFromEnv(ctx context.Context) (*repository.KnowledgeRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return repository.NewKnowledgeRepository(pool), pool.Close, nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
