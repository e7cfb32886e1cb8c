package graph

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"instaclone/backend/internal/models"
	apperrors "instaclone/backend/pkg/errors"
)

// ============================================================================
// User Operations
// ============================================================================

// CreateUser creates a user node; email and username must be unused
func (r *Repository) CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	if err := nu.Validate(); err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}

	session := r.writeSession(ctx)
	defer session.Close(ctx)

	params := map[string]interface{}{
		"id":            uuid.New().String(),
		"username":      strings.TrimSpace(nu.Username),
		"usernameLower": strings.ToLower(strings.TrimSpace(nu.Username)),
		"email":         models.NormalizeEmail(nu.Email),
		"password":      nu.PasswordHash,
		"fullname":      nu.Fullname,
		"now":           nowNanos(),
	}

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			OPTIONAL MATCH (byEmail:User {email: $email})
			OPTIONAL MATCH (byName:User {username_lower: $usernameLower})
			RETURN byEmail IS NOT NULL AS email_taken, byName IS NOT NULL AS username_taken
		`, params)
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		if getBoolFromRecord(record, "email_taken") {
			return nil, apperrors.NewConflict("email", "You already have an account")
		}
		if getBoolFromRecord(record, "username_taken") {
			return nil, apperrors.NewConflict("username", "Username already taken")
		}

		result, err = tx.Run(ctx, `
			CREATE (u:User {
				id: $id,
				username: $username,
				username_lower: $usernameLower,
				email: $email,
				password: $password,
				fullname: $fullname,
				bio: '',
				profile_picture: '',
				created_at: $now
			})
			WITH u
		`+userProjection, params)
		if err != nil {
			return nil, err
		}
		record, err = result.Single(ctx)
		if err != nil {
			return nil, err
		}
		return userFromRecord(record), nil
	})
	if err != nil {
		return nil, storageError("create user", err)
	}

	user := out.(*models.User)
	r.logger.Debug("Created user", zap.String("user_id", user.ID))
	return user, nil
}

// FindByEmail looks a user up by normalized email
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := r.findUser(ctx, `MATCH (u:User {email: $key})`, models.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFound("User", email)
	}
	return user, nil
}

// FindByID looks a user up by id
func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := r.findUser(ctx, `MATCH (u:User {id: $key})`, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewNotFound("User", id)
	}
	return user, nil
}

func (r *Repository) findUser(ctx context.Context, match, key string) (*models.User, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, match+userProjection, map[string]interface{}{"key": key})
	if err != nil {
		return nil, storageError("find user", err)
	}

	if result.Next(ctx) {
		return userFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, storageError("find user", err)
	}
	return nil, nil
}

// ListUsers returns every user except excludeID, oldest first
func (r *Repository) ListUsers(ctx context.Context, excludeID string) ([]models.User, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `MATCH (u:User) WHERE u.id <> $excludeID` + userProjection + `ORDER BY created_at`

	result, err := session.Run(ctx, query, map[string]interface{}{"excludeID": excludeID})
	if err != nil {
		return nil, storageError("list users", err)
	}

	users := []models.User{}
	for result.Next(ctx) {
		users = append(users, *userFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, storageError("list users", err)
	}
	return users, nil
}

// UpdateProfile applies the non-nil fields of update
func (r *Repository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	params := map[string]interface{}{"id": id}
	sets := []string{}
	if update.Bio != nil {
		sets = append(sets, "u.bio = $bio")
		params["bio"] = *update.Bio
	}
	if update.Gender != nil {
		sets = append(sets, "u.gender = $gender")
		params["gender"] = *update.Gender
	}
	if update.ProfilePicture != nil {
		sets = append(sets, "u.profile_picture = $picture")
		params["picture"] = *update.ProfilePicture
	}

	query := `MATCH (u:User {id: $id})`
	if len(sets) > 0 {
		query += ` SET ` + strings.Join(sets, ", ") + ` WITH u`
	}
	query += userProjection

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, apperrors.NewNotFound("User", id)
		}
		return userFromRecord(result.Record()), nil
	})
	if err != nil {
		return nil, storageError("update profile", err)
	}
	return out.(*models.User), nil
}

// ============================================================================
// Post References
// ============================================================================

// AddPostRef links the post to its author's post list
func (r *Repository) AddPostRef(ctx context.Context, userID, postID string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := lockUsers(ctx, tx, userID); err != nil {
			return nil, err
		}
		result, err := tx.Run(ctx, `
			MATCH (u:User {id: $userID}), (p:Post {id: $postID})
			MERGE (u)-[:POSTED]->(p)
			RETURN p.id AS id
		`, map[string]interface{}{"userID": userID, "postID": postID})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, apperrors.NewNotFound("Post", postID)
		}
		return nil, nil
	})
	return storageError("add post ref", err)
}

// RemovePostRef drops the author's link to the post and every bookmark of it
func (r *Repository) RemovePostRef(ctx context.Context, userID, postID string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := lockUsers(ctx, tx, userID); err != nil {
			return nil, err
		}
		_, err := tx.Run(ctx, `
			MATCH (:User)-[rel:POSTED|BOOKMARKED]->(:Post {id: $postID})
			DELETE rel
		`, map[string]interface{}{"postID": postID})
		return nil, err
	})
	return storageError("remove post ref", err)
}

// ============================================================================
// Bookmark Operations
// ============================================================================

// AddBookmark saves postID for userID; saving twice is a no-op
func (r *Repository) AddBookmark(ctx context.Context, userID, postID string) error {
	_, err := r.setBookmark(ctx, userID, postID, func(saved bool) bool { return true })
	return err
}

// RemoveBookmark unsaves postID for userID
func (r *Repository) RemoveBookmark(ctx context.Context, userID, postID string) error {
	_, err := r.setBookmark(ctx, userID, postID, func(saved bool) bool { return false })
	return err
}

// ToggleBookmark flips membership and reports whether the post is saved
func (r *Repository) ToggleBookmark(ctx context.Context, userID, postID string) (bool, error) {
	return r.setBookmark(ctx, userID, postID, func(saved bool) bool { return !saved })
}

// setBookmark reads the current state under the user's lock and writes the
// state chosen by next.
func (r *Repository) setBookmark(ctx context.Context, userID, postID string, next func(saved bool) bool) (bool, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	params := map[string]interface{}{"userID": userID, "postID": postID, "now": nowNanos()}

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if err := lockUsers(ctx, tx, userID); err != nil {
			return nil, err
		}

		result, err := tx.Run(ctx, `
			MATCH (u:User {id: $userID}), (p:Post {id: $postID})
			RETURN EXISTS { (u)-[:BOOKMARKED]->(p) } AS saved
		`, params)
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, apperrors.NewNotFound("Post", postID)
		}
		saved := getBoolFromRecord(result.Record(), "saved")

		want := next(saved)
		switch {
		case want && !saved:
			_, err = tx.Run(ctx, `
				MATCH (u:User {id: $userID}), (p:Post {id: $postID})
				CREATE (u)-[:BOOKMARKED {created_at: $now}]->(p)
			`, params)
		case !want && saved:
			_, err = tx.Run(ctx, `
				MATCH (:User {id: $userID})-[b:BOOKMARKED]->(:Post {id: $postID})
				DELETE b
			`, params)
		}
		if err != nil {
			return nil, err
		}
		return want, nil
	})
	if err != nil {
		return false, storageError("bookmark post", err)
	}
	return out.(bool), nil
}
