package graph

import (
	"context"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"instaclone/backend/internal/models"
	apperrors "instaclone/backend/pkg/errors"
)

// ============================================================================
// Comment Operations
// ============================================================================

// AddComment attaches a comment to an existing post. The post is locked
// first, so a concurrent DeletePost either runs before (NotFound) or removes
// the new comment with the post.
func (r *Repository) AddComment(ctx context.Context, postID, authorID, text string) (*models.Comment, error) {
	if text == "" {
		return nil, apperrors.ErrEmptyText
	}

	session := r.writeSession(ctx)
	defer session.Close(ctx)

	params := map[string]interface{}{
		"id":       uuid.New().String(),
		"postID":   postID,
		"authorID": authorID,
		"text":     text,
		"now":      nowNanos(),
	}

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := lockPost(ctx, tx, postID); err != nil {
			return nil, err
		}

		result, err := tx.Run(ctx, `
			MATCH (u:User {id: $authorID}), (p:Post {id: $postID})
			CREATE (u)-[:WROTE]->(c:Comment {id: $id, text: $text, created_at: $now})-[:ON]->(p)
			WITH c
		`+commentProjection, params)
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, apperrors.NewNotFound("User", authorID)
		}
		comment := commentFromRecord(result.Record())
		return &comment, nil
	})
	if err != nil {
		return nil, storageError("add comment", err)
	}
	return out.(*models.Comment), nil
}

// ListComments returns the post's comments, newest first
func (r *Repository) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		OPTIONAL MATCH (p:Post {id: $postID})
		RETURN p IS NOT NULL AS found
	`, map[string]interface{}{"postID": postID})
	if err != nil {
		return nil, storageError("list comments", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return nil, storageError("list comments", err)
	}
	if !getBoolFromRecord(record, "found") {
		return nil, apperrors.NewNotFound("Post", postID)
	}

	result, err = session.Run(ctx, `MATCH (c:Comment)-[:ON]->(:Post {id: $postID}) WITH c`+
		commentProjection+`ORDER BY created_at DESC`, map[string]interface{}{"postID": postID})
	if err != nil {
		return nil, storageError("list comments", err)
	}

	comments := []models.Comment{}
	for result.Next(ctx) {
		comments = append(comments, commentFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, storageError("list comments", err)
	}
	return comments, nil
}
