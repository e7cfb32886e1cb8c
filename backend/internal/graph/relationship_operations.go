package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "instaclone/backend/pkg/errors"
)

// ============================================================================
// User-to-User Relationship Operations
// ============================================================================

// A single FOLLOWS relationship backs both adjacency lists, so following and
// followers cannot disagree.

// Follow adds the edge who -> whom; following twice is a no-op
func (r *Repository) Follow(ctx context.Context, whoID, whomID string) error {
	_, err := r.setFollow(ctx, whoID, whomID, func(bool) bool { return true })
	return err
}

// Unfollow removes the edge who -> whom; a missing edge is fine
func (r *Repository) Unfollow(ctx context.Context, whoID, whomID string) error {
	_, err := r.setFollow(ctx, whoID, whomID, func(bool) bool { return false })
	return err
}

// ToggleFollow flips the edge who -> whom and reports whether it exists after
func (r *Repository) ToggleFollow(ctx context.Context, whoID, whomID string) (bool, error) {
	following, err := r.setFollow(ctx, whoID, whomID, func(current bool) bool { return !current })
	if err != nil {
		return false, err
	}

	r.logger.Debug("Toggled follow",
		zap.String("who", whoID),
		zap.String("whom", whomID),
		zap.Bool("following", following),
	)
	return following, nil
}

func (r *Repository) setFollow(ctx context.Context, whoID, whomID string, next func(current bool) bool) (bool, error) {
	if whoID == whomID {
		return false, apperrors.ErrSelfFollow
	}

	session := r.writeSession(ctx)
	defer session.Close(ctx)

	params := map[string]interface{}{"whoID": whoID, "whomID": whomID, "now": nowNanos()}

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Locking both users serializes concurrent toggles of the same edge.
		if err := lockUsers(ctx, tx, whoID, whomID); err != nil {
			return nil, err
		}

		result, err := tx.Run(ctx, `
			MATCH (a:User {id: $whoID}), (b:User {id: $whomID})
			RETURN EXISTS { (a)-[:FOLLOWS]->(b) } AS following
		`, params)
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		current := getBoolFromRecord(record, "following")

		want := next(current)
		switch {
		case want && !current:
			_, err = tx.Run(ctx, `
				MATCH (a:User {id: $whoID}), (b:User {id: $whomID})
				CREATE (a)-[:FOLLOWS {created_at: $now}]->(b)
			`, params)
		case !want && current:
			_, err = tx.Run(ctx, `
				MATCH (:User {id: $whoID})-[f:FOLLOWS]->(:User {id: $whomID})
				DELETE f
			`, params)
		}
		if err != nil {
			return nil, err
		}
		return want, nil
	})
	if err != nil {
		return false, storageError("toggle follow", err)
	}
	return out.(bool), nil
}
