package graph

import (
	"context"
	"strings"

	"go.uber.org/zap"

	apperrors "instaclone/backend/pkg/errors"
)

// SchemaVersion identifies the constraint set applied by Migrate
const SchemaVersion = "social_schema_v1"

type migration struct {
	name        string
	description string
	query       string
}

var migrations = []migration{
	{
		name:        "Create Constraints",
		description: "Unique ids for every node label, unique email and username",
		query: `
			CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE;
			CREATE CONSTRAINT user_email_unique IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE;
			CREATE CONSTRAINT user_username_unique IF NOT EXISTS FOR (u:User) REQUIRE u.username_lower IS UNIQUE;
			CREATE CONSTRAINT post_id_unique IF NOT EXISTS FOR (p:Post) REQUIRE p.id IS UNIQUE;
			CREATE CONSTRAINT comment_id_unique IF NOT EXISTS FOR (c:Comment) REQUIRE c.id IS UNIQUE;
		`,
	},
	{
		name:        "Create Indexes",
		description: "Indexes for feed ordering and author lookups",
		query: `
			CREATE INDEX post_created_at IF NOT EXISTS FOR (p:Post) ON (p.created_at);
			CREATE INDEX post_author IF NOT EXISTS FOR (p:Post) ON (p.author_id);
			CREATE INDEX comment_created_at IF NOT EXISTS FOR (c:Comment) ON (c.created_at);
		`,
	},
}

// MigrationApplied reports whether the current schema version was recorded
func (r *Repository) MigrationApplied(ctx context.Context) (bool, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (m:Migration {version: $version})
		RETURN m.applied_at AS applied_at
	`, map[string]interface{}{"version": SchemaVersion})
	if err != nil {
		return false, storageError("check migration", err)
	}
	applied, err := hasRecord(ctx, result)
	if err != nil {
		return false, storageError("check migration", err)
	}
	return applied, nil
}

// recordStream is the part of a query result hasRecord reads
type recordStream interface {
	Next(ctx context.Context) bool
	Err() error
}

// hasRecord reports whether the stream yields a record. A stream that ends
// because of an error reports that error instead of false.
func hasRecord(ctx context.Context, stream recordStream) (bool, error) {
	if stream.Next(ctx) {
		return true, nil
	}
	return false, stream.Err()
}

// Migrate creates constraints and indexes. Unless force is set it is a no-op
// once the schema version has been recorded. It reports whether anything ran.
func (r *Repository) Migrate(ctx context.Context, force bool) (bool, error) {
	if !force {
		applied, err := r.MigrationApplied(ctx)
		if err != nil {
			return false, err
		}
		if applied {
			r.logger.Info("Migration already applied", zap.String("version", SchemaVersion))
			return false, nil
		}
	}

	session := r.writeSession(ctx)
	defer session.Close(ctx)

	for i, m := range migrations {
		r.logger.Info("Running migration",
			zap.Int("step", i+1),
			zap.Int("total", len(migrations)),
			zap.String("name", m.name),
			zap.String("description", m.description),
		)

		for _, stmt := range splitStatements(m.query) {
			if _, err := session.Run(ctx, stmt, nil); err != nil {
				return false, apperrors.NewStorage("migrate "+m.name, err)
			}
		}
	}

	_, err := session.Run(ctx, `
		MERGE (m:Migration {version: $version})
		SET m.applied_at = datetime()
	`, map[string]interface{}{"version": SchemaVersion})
	if err != nil {
		r.logger.Warn("Failed to mark migration as applied", zap.Error(err))
	}

	r.logger.Info("Migration completed", zap.String("version", SchemaVersion))
	return true, nil
}

// splitStatements splits a Cypher script on semicolons
func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	statements := make([]string, 0, len(parts))
	for _, p := range parts {
		if stmt := strings.TrimSpace(p); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

// Counts returns the number of users, posts and comments in the graph
func (r *Repository) Counts(ctx context.Context) (users, posts, comments int64, err error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		CALL { MATCH (u:User) RETURN count(u) AS users }
		CALL { MATCH (p:Post) RETURN count(p) AS posts }
		CALL { MATCH (c:Comment) RETURN count(c) AS comments }
		RETURN users, posts, comments
	`, nil)
	if err != nil {
		return 0, 0, 0, storageError("count nodes", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return 0, 0, 0, storageError("count nodes", err)
	}
	return getInt64FromRecord(record, "users"),
		getInt64FromRecord(record, "posts"),
		getInt64FromRecord(record, "comments"),
		nil
}
