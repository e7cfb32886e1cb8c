package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"instaclone/backend/internal/api"
	"instaclone/backend/internal/auth"
	"instaclone/backend/internal/graph"
	"instaclone/backend/internal/media"
	"instaclone/backend/internal/messaging"
	"instaclone/backend/internal/social"
	"instaclone/backend/pkg/config"
	"instaclone/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.InitWithFile(cfg.Env, cfg.LogFile); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...", zap.String("env", cfg.Env))

	ctx := context.Background()

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	graphRepo := graph.NewRepository(driver)
	defer graphRepo.Close()

	// Verify Neo4j connection
	if err := graphRepo.Ping(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}
	// Uniqueness of emails and usernames is enforced by the schema constraints
	if err := requireSchema(ctx, graphRepo); err != nil {
		log.Fatal("Graph schema check failed", zap.String("version", graph.SchemaVersion), zap.Error(err))
	}

	// Initialize MongoDB
	mongoClient, err := messaging.Connect(ctx, cfg.MongoURL)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}()
	messageStore := messaging.NewMongoStore(mongoClient.Database(cfg.MongoDatabase))
	if err := messageStore.EnsureIndexes(ctx); err != nil {
		log.Fatal("Failed to ensure message indexes", zap.Error(err))
	}

	// Initialize media backend
	mediaStore, disk, err := media.NewStoreFromConfig(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media backend", zap.Error(err))
	}

	// Initialize services
	socialSvc := social.NewService(graphRepo, graphRepo, mediaStore, auth.NewBcryptHasher())
	socialSvc.SetUpstreamTimeout(cfg.UpstreamTimeout)
	messagingSvc := messaging.NewService(messageStore, graphRepo)
	tokens := auth.NewTokenIssuer(cfg.SecretKey, cfg.TokenTTL)

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewServer(socialSvc, messagingSvc, tokens, routerOptions(cfg, disk)).Router()

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("media_backend", cfg.MediaBackend),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

type schemaChecker interface {
	MigrationApplied(ctx context.Context) (bool, error)
}

// requireSchema fails unless the current schema version has been migrated
func requireSchema(ctx context.Context, checker schemaChecker) error {
	applied, err := checker.MigrationApplied(ctx)
	if err != nil {
		return fmt.Errorf("could not check schema version: %w", err)
	}
	if !applied {
		return fmt.Errorf("schema version %s not migrated; run `admin migrate`", graph.SchemaVersion)
	}
	return nil
}

// routerOptions derives HTTP options from configuration. Uploaded files are
// only served by this process when the disk backend is in use.
func routerOptions(cfg *config.Config, disk *media.DiskUploader) api.Options {
	opts := api.Options{
		ClientOrigin:  cfg.ClientOrigin,
		SecureCookies: cfg.IsProduction(),
	}
	if disk != nil {
		opts.MediaDir = disk.Dir()
	}
	return opts
}
