package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"instaclone/backend/internal/graph"
	"instaclone/backend/pkg/logger"
)

var forceMigrate bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create graph constraints and indexes and the message indexes",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&forceMigrate, "force", false, "Reapply even if the schema version is recorded")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.Get()

	b, err := connect(ctx, true)
	if err != nil {
		return err
	}
	defer b.release()

	applied, err := b.graph.Migrate(ctx, forceMigrate)
	if err != nil {
		return fmt.Errorf("graph migration failed: %w", err)
	}
	if applied {
		log.Info("Graph schema migrated", zap.String("version", graph.SchemaVersion))
		color.Green("✓ graph schema %s applied", graph.SchemaVersion)
	} else {
		color.Yellow("• graph schema %s already applied (use --force to reapply)", graph.SchemaVersion)
	}

	if err := b.messageStore().EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("message index creation failed: %w", err)
	}
	color.Green("✓ message indexes ensured")

	return nil
}
