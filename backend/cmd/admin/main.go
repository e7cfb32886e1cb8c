// Command admin runs maintenance tasks against the social graph and the
// message store: schema migration, demo seeding and user listings.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"instaclone/backend/internal/graph"
	"instaclone/backend/internal/messaging"
	"instaclone/backend/pkg/config"
	"instaclone/backend/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "admin [command] [flags]",
	Short:         "Maintenance commands for the instaclone backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init("development")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed, color.Bold).Sprint("Error: ")+err.Error())
		os.Exit(1)
	}
}

// backends holds the connections a command needs; release closes them
type backends struct {
	cfg   *config.Config
	graph *graph.Repository
	mongo *mongo.Client
}

// connect loads configuration and opens Neo4j, plus MongoDB when withMongo
func connect(ctx context.Context, withMongo bool) (*backends, error) {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	b := &backends{cfg: cfg, graph: graph.NewRepository(driver)}
	if err := b.graph.Ping(ctx); err != nil {
		b.release()
		return nil, err
	}
	log.Debug("Connected to Neo4j", zap.String("uri", cfg.Neo4jURI))

	if withMongo {
		client, err := messaging.Connect(ctx, cfg.MongoURL)
		if err != nil {
			b.release()
			return nil, err
		}
		b.mongo = client
		log.Debug("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))
	}

	return b, nil
}

func (b *backends) messageStore() *messaging.MongoStore {
	return messaging.NewMongoStore(b.mongo.Database(b.cfg.MongoDatabase))
}

func (b *backends) release() {
	log := logger.Get()
	if b.mongo != nil {
		if err := b.mongo.Disconnect(context.Background()); err != nil {
			log.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}
	if err := b.graph.Close(); err != nil {
		log.Warn("Neo4j close failed", zap.Error(err))
	}
}
