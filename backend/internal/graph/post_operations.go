package graph

import (
	"context"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"instaclone/backend/internal/models"
	apperrors "instaclone/backend/pkg/errors"
)

// ============================================================================
// Post Operations
// ============================================================================

// CreatePost stores a post for an existing author. The author's POSTED link
// is added separately by AddPostRef.
func (r *Repository) CreatePost(ctx context.Context, authorID, caption, imageURL string) (*models.Post, error) {
	if imageURL == "" {
		return nil, apperrors.ErrMissingImage
	}

	session := r.writeSession(ctx)
	defer session.Close(ctx)

	params := map[string]interface{}{
		"id":       uuid.New().String(),
		"authorID": authorID,
		"caption":  caption,
		"image":    imageURL,
		"now":      nowNanos(),
	}

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (a:User {id: $authorID})
			CREATE (p:Post {id: $id, author_id: a.id, caption: $caption, image: $image, created_at: $now})
			WITH p
		`+postProjection, params)
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, apperrors.NewNotFound("User", authorID)
		}
		post := postFromRecord(result.Record())
		return &post, nil
	})
	if err != nil {
		return nil, storageError("create post", err)
	}
	return out.(*models.Post), nil
}

// FindPost returns a populated post
func (r *Repository) FindPost(ctx context.Context, id string) (*models.Post, error) {
	posts, err := r.listPosts(ctx, `MATCH (p:Post {id: $id})`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, apperrors.NewNotFound("Post", id)
	}
	return &posts[0], nil
}

// ListAll returns every post, newest first
func (r *Repository) ListAll(ctx context.Context) ([]models.Post, error) {
	return r.listPosts(ctx, `MATCH (p:Post)`, nil)
}

// ListByAuthor returns the author's posts, newest first
func (r *Repository) ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	return r.listPosts(ctx, `MATCH (p:Post {author_id: $authorID})`, map[string]interface{}{"authorID": authorID})
}

// ListByIDs returns the posts with the given ids in argument order, skipping
// ids that no longer exist
func (r *Repository) ListByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}

	posts, err := r.listPosts(ctx, `MATCH (p:Post) WHERE p.id IN $ids`, map[string]interface{}{"ids": ids})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]models.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *Repository) listPosts(ctx context.Context, match string, params map[string]interface{}) ([]models.Post, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, match+postProjection+`ORDER BY created_at DESC`, params)
	if err != nil {
		return nil, storageError("list posts", err)
	}

	posts := []models.Post{}
	for result.Next(ctx) {
		posts = append(posts, postFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, storageError("list posts", err)
	}
	return posts, nil
}

// DeletePost removes the post and its comments in one transaction and
// returns a snapshot that RestorePost can re-create.
func (r *Repository) DeletePost(ctx context.Context, id string) (*models.DeletedPost, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	params := map[string]interface{}{"id": id}

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := lockPost(ctx, tx, id); err != nil {
			return nil, err
		}

		result, err := tx.Run(ctx, `MATCH (p:Post {id: $id})`+postProjection, params)
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		snapshot := &models.DeletedPost{Post: postFromRecord(record)}
		snapshot.Comments = snapshot.Post.Comments

		result, err = tx.Run(ctx, `
			MATCH (u:User)-[:BOOKMARKED]->(:Post {id: $id})
			RETURN collect(u.id) AS bookmarked_by
		`, params)
		if err != nil {
			return nil, err
		}
		record, err = result.Single(ctx)
		if err != nil {
			return nil, err
		}
		snapshot.BookmarkedBy = getStringSliceFromRecord(record, "bookmarked_by")

		_, err = tx.Run(ctx, `
			MATCH (p:Post {id: $id})
			OPTIONAL MATCH (c:Comment)-[:ON]->(p)
			DETACH DELETE c, p
		`, params)
		if err != nil {
			return nil, err
		}
		return snapshot, nil
	})
	if err != nil {
		return nil, storageError("delete post", err)
	}

	snapshot := out.(*models.DeletedPost)
	r.logger.Debug("Deleted post",
		zap.String("post_id", id),
		zap.Int("comments", len(snapshot.Comments)),
	)
	return snapshot, nil
}

// RestorePost re-creates a deleted post with its likes, comments, bookmarks
// and author link, keeping the original ids and timestamps.
func (r *Repository) RestorePost(ctx context.Context, snapshot *models.DeletedPost) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	post := snapshot.Post
	comments := make([]interface{}, 0, len(snapshot.Comments))
	for _, c := range snapshot.Comments {
		comments = append(comments, map[string]interface{}{
			"id":         c.ID,
			"text":       c.Text,
			"author_id":  c.Author.ID,
			"created_at": c.CreatedAt.UnixNano(),
		})
	}
	params := map[string]interface{}{
		"id":           post.ID,
		"authorID":     post.Author.ID,
		"caption":      post.Caption,
		"image":        post.Image,
		"createdAt":    post.CreatedAt.UnixNano(),
		"likes":        post.Likes,
		"comments":     comments,
		"bookmarkedBy": snapshot.BookmarkedBy,
		"now":          nowNanos(),
	}

	steps := []string{
		`CREATE (p:Post {id: $id, author_id: $authorID, caption: $caption, image: $image, created_at: $createdAt})`,
		`MATCH (a:User {id: $authorID}), (p:Post {id: $id})
		 MERGE (a)-[:POSTED]->(p)`,
		`MATCH (p:Post {id: $id})
		 MATCH (u:User) WHERE u.id IN $likes
		 MERGE (u)-[:LIKES]->(p)`,
		`MATCH (p:Post {id: $id})
		 UNWIND $comments AS comment
		 MATCH (u:User {id: comment.author_id})
		 CREATE (u)-[:WROTE]->(:Comment {id: comment.id, text: comment.text, created_at: comment.created_at})-[:ON]->(p)`,
		`MATCH (p:Post {id: $id})
		 MATCH (u:User) WHERE u.id IN $bookmarkedBy
		 MERGE (u)-[b:BOOKMARKED]->(p)
		 ON CREATE SET b.created_at = $now`,
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `OPTIONAL MATCH (p:Post {id: $id}) RETURN p IS NOT NULL AS found`, params)
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		if getBoolFromRecord(record, "found") {
			return nil, apperrors.NewConflict("post", "post already exists")
		}

		for _, query := range steps {
			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return storageError("restore post", err)
	}

	r.logger.Info("Restored post", zap.String("post_id", post.ID))
	return nil
}

// ============================================================================
// Like Operations
// ============================================================================

// AddLike adds userID to the like set; liking twice is a no-op
func (r *Repository) AddLike(ctx context.Context, postID, userID string) error {
	return r.writeLike(ctx, postID, userID, `
		MATCH (u:User {id: $userID}), (p:Post {id: $postID})
		MERGE (u)-[:LIKES]->(p)
		RETURN u.id AS id
	`)
}

// RemoveLike removes userID from the like set; removing a non-liker is a no-op
func (r *Repository) RemoveLike(ctx context.Context, postID, userID string) error {
	return r.writeLike(ctx, postID, userID, `
		MATCH (p:Post {id: $postID})
		OPTIONAL MATCH (:User {id: $userID})-[l:LIKES]->(p)
		DELETE l
		RETURN p.id AS id
	`)
}

func (r *Repository) writeLike(ctx context.Context, postID, userID, query string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := lockPost(ctx, tx, postID); err != nil {
			return nil, err
		}
		result, err := tx.Run(ctx, query, map[string]interface{}{"postID": postID, "userID": userID})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, apperrors.NewNotFound("User", userID)
		}
		return nil, nil
	})
	return storageError("update likes", err)
}
