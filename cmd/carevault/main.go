package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/carevault/carevault/internal/ai"
	"github.com/carevault/carevault/internal/config"
	"github.com/carevault/carevault/internal/extract"
	"github.com/carevault/carevault/internal/filestore"
	"github.com/carevault/carevault/internal/handler"
	"github.com/carevault/carevault/internal/job"
	"github.com/carevault/carevault/internal/middleware"
	"github.com/carevault/carevault/internal/repo"
	"github.com/carevault/carevault/internal/schedule"
	"github.com/carevault/carevault/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "carevault",
		Short: "carevault backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run carevault server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			db, err := repo.Open(cfg.DSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := repo.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, db)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, db *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	userRepo := repo.NewUserRepo(db)
	docRepo := repo.NewDocumentRepo(db)
	chunkRepo := repo.NewChunkRepo(db)
	sessionRepo := repo.NewSessionRepo(db)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	manager := ai.NewManager(
		ai.NewGenerator(aiProvider, cfg.AI.Model),
		ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel),
		ai.NewVision(aiProvider, cfg.AI.VisionModel),
		ai.ManagerConfig{Timeout: cfg.AI.Timeout, MaxInputChars: cfg.AI.MaxInputChars},
	)

	orchestrator := extract.NewOrchestrator(extract.NewVisionExtractor(manager, manager))
	fetcher := service.NewStoreFetcher(store)
	ingestService := service.NewIngestService(
		docRepo, chunkRepo, manager, fetcher, orchestrator,
		cfg.Ingest.MaxChunkSize, cfg.Ingest.PendingBatchLimit,
	)
	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	documentService := service.NewDocumentService(docRepo, store, ingestService)
	searchService := service.NewSearchService(chunkRepo, manager, cfg.Ingest.TopK, cfg.Ingest.SimilarityThreshold)
	assistantService := service.NewAssistantService(sessionRepo, searchService, manager)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Documents: handler.NewDocumentHandler(documentService),
		Process:   handler.NewProcessHandler(documentService, ingestService),
		Search:    handler.NewSearchHandler(searchService),
		Assistant: handler.NewAssistantHandler(assistantService),
		Files:     handler.NewFileHandler(store),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.Ingest.PendingCron != "" {
		if err := scheduler.AddJob(job.NewPendingDocumentsJob(ingestService), cfg.Ingest.PendingCron); err != nil {
			return fmt.Errorf("schedule pending job: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
