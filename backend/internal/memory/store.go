// Package memory keeps users, posts and comments in process. It implements
// both social.IdentityStore and social.ContentStore behind a single lock, so
// every method is atomic with respect to every other.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"instaclone/backend/internal/models"
)

type postRecord struct {
	id         string
	caption    string
	image      string
	authorID   string
	likes      []string
	commentIDs []string
	createdAt  time.Time
}

type commentRecord struct {
	id        string
	text      string
	authorID  string
	postID    string
	createdAt time.Time
}

// Store is an in-process identity and content store
type Store struct {
	mu sync.RWMutex

	users      map[string]*models.User
	byEmail    map[string]string
	byUsername map[string]string
	posts      map[string]*postRecord
	comments   map[string]*commentRecord

	last time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:      make(map[string]*models.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		posts:      make(map[string]*postRecord),
		comments:   make(map[string]*commentRecord),
	}
}

// now returns a strictly increasing timestamp so creation order is total.
// Callers must hold mu.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func (s *Store) summary(userID string) models.UserSummary {
	if u, ok := s.users[userID]; ok {
		return u.Summary()
	}
	return models.UserSummary{ID: userID}
}

func (s *Store) commentView(c *commentRecord) models.Comment {
	return models.Comment{
		ID:        c.id,
		Text:      c.text,
		Author:    s.summary(c.authorID),
		PostID:    c.postID,
		CreatedAt: c.createdAt,
	}
}

// commentsOf returns the post's comments newest first
func (s *Store) commentsOf(p *postRecord) []models.Comment {
	out := make([]models.Comment, 0, len(p.commentIDs))
	for _, id := range p.commentIDs {
		if c, ok := s.comments[id]; ok {
			out = append(out, s.commentView(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) postView(p *postRecord) models.Post {
	return models.Post{
		ID:        p.id,
		Caption:   p.caption,
		Image:     p.image,
		Author:    s.summary(p.authorID),
		Likes:     cloneIDs(p.likes),
		Comments:  s.commentsOf(p),
		CreatedAt: p.createdAt,
	}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Followers = cloneIDs(u.Followers)
	c.Following = cloneIDs(u.Following)
	c.Posts = cloneIDs(u.Posts)
	c.Bookmarks = cloneIDs(u.Bookmarks)
	return &c
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func addID(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func hasID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
