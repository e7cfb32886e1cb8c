package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "instaclone/backend/pkg/errors"
	"instaclone/backend/pkg/logger"
)

// Neo4j status codes the repository translates into domain errors
const (
	codeConstraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"
	codeEntityNotFound      = "Neo.ClientError.Statement.EntityNotFound"
)

// Repository handles all Neo4j database operations. It implements both the
// identity and the content store: users, posts and comments are nodes and
// follows, authorship, likes and bookmarks are relationships.
//
//	(:User)-[:FOLLOWS]->(:User)
//	(:User)-[:POSTED]->(:Post)
//	(:User)-[:LIKES]->(:Post)
//	(:User)-[:BOOKMARKED]->(:Post)
//	(:User)-[:WROTE]->(:Comment)-[:ON]->(:Post)
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// Ping verifies the database is reachable
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.driver.VerifyConnectivity(ctx); err != nil {
		return apperrors.NewStorage("ping", err)
	}
	return nil
}

func (r *Repository) readSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
}

func (r *Repository) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
}

// storageError passes typed errors through and wraps driver failures
func storageError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.TypeOf(err) != "" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewContextTimeout(operation, 0, err)
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		switch neoErr.Code {
		case codeConstraintViolation:
			return constraintConflict(neoErr.Msg)
		case codeEntityNotFound:
			return apperrors.NewNotFound("Entity", "")
		}
	}
	return apperrors.NewStorage(operation, fmt.Errorf("failed to %s: %w", operation, err))
}

// constraintConflict names the field a uniqueness constraint rejected. Neo4j
// reports it as "... with label `User` and property `email` = '...'".
func constraintConflict(msg string) error {
	switch {
	case strings.Contains(msg, "`email`"):
		return apperrors.NewConflict("email", "You already have an account")
	case strings.Contains(msg, "`username_lower`"), strings.Contains(msg, "`username`"):
		return apperrors.NewConflict("username", "Username already taken")
	default:
		return apperrors.NewConflict("", "Already exists")
	}
}

// lockUsers takes a write lock on every listed user and fails with NotFound
// for the first id that does not exist.
func lockUsers(ctx context.Context, tx neo4j.ManagedTransaction, ids ...string) error {
	result, err := tx.Run(ctx, `
		MATCH (u:User) WHERE u.id IN $ids
		SET u.lock_seq = coalesce(u.lock_seq, 0) + 1
		RETURN collect(u.id) AS found
	`, map[string]interface{}{"ids": ids})
	if err != nil {
		return err
	}
	record, err := result.Single(ctx)
	if err != nil {
		return err
	}

	found := getStringSliceFromRecord(record, "found")
	for _, id := range ids {
		if !containsID(found, id) {
			return apperrors.NewNotFound("User", id)
		}
	}
	return nil
}

// lockPost takes a write lock on the post so concurrent like, comment and
// delete transactions on it serialize.
func lockPost(ctx context.Context, tx neo4j.ManagedTransaction, postID string) error {
	result, err := tx.Run(ctx, `
		MATCH (p:Post {id: $postID})
		SET p.lock_seq = coalesce(p.lock_seq, 0) + 1
		RETURN p.id AS id
	`, map[string]interface{}{"postID": postID})
	if err != nil {
		return err
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return err
		}
		return apperrors.NewNotFound("Post", postID)
	}
	return nil
}

func nowNanos() int64 {
	return time.Now().UTC().UnixNano()
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
