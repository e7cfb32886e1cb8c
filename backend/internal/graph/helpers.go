package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"instaclone/backend/internal/models"
)

// ============================================================================
// Projections
// ============================================================================

// userProjection expects `u` bound to a single User and resolves its
// adjacency lists. Posts and bookmarks come back in the order they were added.
const userProjection = `
	OPTIONAL MATCH (u)-[:FOLLOWS]->(following:User)
	WITH u, collect(DISTINCT following.id) AS following
	OPTIONAL MATCH (follower:User)-[:FOLLOWS]->(u)
	WITH u, following, collect(DISTINCT follower.id) AS followers
	OPTIONAL MATCH (u)-[:POSTED]->(own:Post)
	WITH u, following, followers, own ORDER BY own.created_at
	WITH u, following, followers, collect(own.id) AS posts
	OPTIONAL MATCH (u)-[saved:BOOKMARKED]->(bp:Post)
	WITH u, following, followers, posts, saved, bp ORDER BY saved.created_at
	WITH u, following, followers, posts, collect(bp.id) AS bookmarks
	RETURN u.id AS id, u.username AS username, u.email AS email, u.password AS password,
	       u.fullname AS fullname, u.bio AS bio, u.gender AS gender,
	       u.profile_picture AS profile_picture, u.created_at AS created_at,
	       following, followers, posts, bookmarks
`

// postProjection expects `p` bound to Post nodes and resolves author, likes
// and comments (newest first).
const postProjection = `
	OPTIONAL MATCH (author:User {id: p.author_id})
	OPTIONAL MATCH (liker:User)-[:LIKES]->(p)
	WITH p, author, collect(DISTINCT liker.id) AS likes
	OPTIONAL MATCH (c:Comment)-[:ON]->(p)
	OPTIONAL MATCH (commenter:User)-[:WROTE]->(c)
	WITH p, author, likes, c, commenter ORDER BY c.created_at DESC
	WITH p, author, likes, collect(CASE WHEN c IS NULL THEN NULL ELSE {
		id: c.id, text: c.text, created_at: c.created_at,
		author_id: commenter.id, author_username: commenter.username,
		author_picture: commenter.profile_picture
	} END) AS comments
	RETURN p.id AS id, p.caption AS caption, p.image AS image, p.created_at AS created_at,
	       p.author_id AS author_id, author.username AS author_username,
	       author.profile_picture AS author_picture, likes, comments
`

// commentProjection expects `c` bound to Comment nodes
const commentProjection = `
	MATCH (c)-[:ON]->(p:Post)
	OPTIONAL MATCH (commenter:User)-[:WROTE]->(c)
	RETURN c.id AS id, c.text AS text, c.created_at AS created_at, p.id AS post_id,
	       commenter.id AS author_id, commenter.username AS author_username,
	       commenter.profile_picture AS author_picture
`

func userFromRecord(record *neo4j.Record) *models.User {
	return &models.User{
		ID:             getStringFromRecord(record, "id"),
		Username:       getStringFromRecord(record, "username"),
		Email:          getStringFromRecord(record, "email"),
		Password:       getStringFromRecord(record, "password"),
		Fullname:       getStringFromRecord(record, "fullname"),
		Bio:            getStringFromRecord(record, "bio"),
		Gender:         getStringFromRecord(record, "gender"),
		ProfilePicture: getStringFromRecord(record, "profile_picture"),
		Following:      getStringSliceFromRecord(record, "following"),
		Followers:      getStringSliceFromRecord(record, "followers"),
		Posts:          getStringSliceFromRecord(record, "posts"),
		Bookmarks:      getStringSliceFromRecord(record, "bookmarks"),
		CreatedAt:      fromNanos(getInt64FromRecord(record, "created_at")),
	}
}

func postFromRecord(record *neo4j.Record) models.Post {
	post := models.Post{
		ID:      getStringFromRecord(record, "id"),
		Caption: getStringFromRecord(record, "caption"),
		Image:   getStringFromRecord(record, "image"),
		Author: models.UserSummary{
			ID:             getStringFromRecord(record, "author_id"),
			Username:       getStringFromRecord(record, "author_username"),
			ProfilePicture: getStringFromRecord(record, "author_picture"),
		},
		Likes:     getStringSliceFromRecord(record, "likes"),
		Comments:  []models.Comment{},
		CreatedAt: fromNanos(getInt64FromRecord(record, "created_at")),
	}

	raw, _ := record.Get("comments")
	if list, ok := raw.([]interface{}); ok {
		for _, item := range list {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			post.Comments = append(post.Comments, models.Comment{
				ID:   getStringFromMap(m, "id", ""),
				Text: getStringFromMap(m, "text", ""),
				Author: models.UserSummary{
					ID:             getStringFromMap(m, "author_id", ""),
					Username:       getStringFromMap(m, "author_username", ""),
					ProfilePicture: getStringFromMap(m, "author_picture", ""),
				},
				PostID:    post.ID,
				CreatedAt: fromNanos(getInt64FromMap(m, "created_at")),
			})
		}
	}
	return post
}

func commentFromRecord(record *neo4j.Record) models.Comment {
	return models.Comment{
		ID:   getStringFromRecord(record, "id"),
		Text: getStringFromRecord(record, "text"),
		Author: models.UserSummary{
			ID:             getStringFromRecord(record, "author_id"),
			Username:       getStringFromRecord(record, "author_username"),
			ProfilePicture: getStringFromRecord(record, "author_picture"),
		},
		PostID:    getStringFromRecord(record, "post_id"),
		CreatedAt: fromNanos(getInt64FromRecord(record, "created_at")),
	}
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}

func getBoolFromRecord(record *neo4j.Record, key string) bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return false
	}
	b, _ := val.(bool)
	return b
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

func getStringFromMap(m map[string]interface{}, key, defaultValue string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return defaultValue
	}
	if str, ok := val.(string); ok {
		return str
	}
	return defaultValue
}

func getInt64FromMap(m map[string]interface{}, key string) int64 {
	val, ok := m[key]
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	return 0
}
