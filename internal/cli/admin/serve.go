package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claritymed/regpilot/internal/api/handlers"
	"github.com/claritymed/regpilot/internal/config"
	"github.com/claritymed/regpilot/internal/database"
	"github.com/claritymed/regpilot/internal/domain"
	"github.com/claritymed/regpilot/internal/embedding"
	"github.com/claritymed/regpilot/internal/jobs"
	"github.com/claritymed/regpilot/internal/openai"
	"github.com/claritymed/regpilot/internal/repository"
	"github.com/claritymed/regpilot/internal/server"
	"github.com/claritymed/regpilot/internal/service"
	"github.com/claritymed/regpilot/internal/storage"
	"github.com/claritymed/regpilot/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	openaiapi "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the regpilot API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		environment := cfg.SentryEnvironment
		if environment == "" {
			environment = "development"
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: cfg.SentryTracesSampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	knowledgeRepo := repository.NewKnowledgeRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	predicateRepo := repository.NewPredicateRepository(pool)
	runRepo := repository.NewGenerationRunRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var archiveClient *storage.S3Client
	if cfg.HasS3() {
		s3Config := storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		}
		s3Client, err := storage.NewS3Client(ctx, s3Config)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		archiveClient = s3Client
	}

	var llm service.CompletionClient
	var backends []embedding.Backend
	var reembedWorker *jobs.Worker
	if cfg.HasOpenAI() {
		client := openai.NewClientWithConfig(openai.Config{
			APIKey:         cfg.OpenAIAPIKey,
			EmbeddingModel: openaiapi.EmbeddingModel(cfg.EmbeddingModel),
			ChatModel:      cfg.ChatModel,
		})
		llm = client
		backends = append(backends, embedding.NewOpenAIBackend(client))
	} else {
		llm = &NoOpCompletionClient{}
		log.Println("no OpenAI API key configured; generation endpoints will report an error")
	}
	embedProvider := embedding.NewProvider(backends...)

	if embedProvider.Backends() > 0 {
		sweeper := jobs.NewReembedWorker(knowledgeRepo, embedProvider)
		reembedWorker = jobs.NewWorker(sweeper, 10*time.Second)
		go reembedWorker.Start(ctx)
		log.Println("re-embed worker started")
	}

	retriever := service.NewKnowledgeRetriever(knowledgeRepo, embedProvider)
	ragBuilder := service.NewRAGContextBuilder(retriever)
	seeder := service.NewKnowledgeSeeder(knowledgeRepo, embedProvider)

	if cfg.SeedOnStartup {
		count, err := seeder.Seed(ctx, false)
		if err != nil && err != domain.ErrKnowledgeBaseSeeded {
			return fmt.Errorf("failed to seed knowledge base: %w", err)
		}
		if count > 0 {
			log.Printf("seeded knowledge base with %d entries", count)
		}
	}

	var archiver service.ArtifactArchiver
	var artifactStore handlers.ArtifactStore
	if archiveClient != nil {
		archiver = archiveClient
		artifactStore = archiveClient
	} else {
		artifactStore = &NoOpArtifactStore{}
	}

	knowledgeSvc := service.NewKnowledgeService(knowledgeRepo, retriever)
	submissionSvc := service.NewSubmissionService(submissionRepo, documentRepo, runRepo)
	predicateSvc := service.NewPredicateService(predicateRepo)
	pipeline := service.NewGenerationPipeline(
		submissionRepo, predicateRepo, documentRepo, ragBuilder, llm, txRunner, archiver,
	)

	routerCfg := server.RouterConfig{
		KnowledgeHandler:  handlers.NewKnowledgeHandler(knowledgeSvc, seeder),
		SubmissionHandler: handlers.NewSubmissionHandler(submissionSvc, artifactStore),
		GenerateHandler:   handlers.NewGenerateHandler(pipeline),
		PredicateHandler:  handlers.NewPredicateHandler(predicateSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if reembedWorker != nil {
		reembedWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// NoOpCompletionClient stands in for the LLM when no API key is configured.
// The generation pipeline surfaces its error through the event stream.
type NoOpCompletionClient struct{}

func (c *NoOpCompletionClient) Model() string {
	return "none"
}

func (c *NoOpCompletionClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", fmt.Errorf("completion client not configured: OPENAI_API_KEY required")
}

func (c *NoOpCompletionClient) StreamComplete(ctx context.Context, systemPrompt, userPrompt string, onChunk func(string) error) (string, error) {
	return "", fmt.Errorf("completion client not configured: OPENAI_API_KEY required")
}

// NoOpArtifactStore stands in for the archive when S3 is not configured
type NoOpArtifactStore struct{}

func (s *NoOpArtifactStore) GeneratedDocumentURL(ctx context.Context, submissionID string) (string, error) {
	return "", fmt.Errorf("artifact storage not configured: S3_ENDPOINT required")
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
