package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"instaclone/backend/internal/models"
	apperrors "instaclone/backend/pkg/errors"
)

// CreatePost stores a post for an existing author
func (s *Store) CreatePost(_ context.Context, authorID, caption, imageURL string) (*models.Post, error) {
	if imageURL == "" {
		return nil, apperrors.ErrMissingImage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[authorID]; !ok {
		return nil, apperrors.NewNotFound("User", authorID)
	}

	p := &postRecord{
		id:        uuid.New().String(),
		caption:   caption,
		image:     imageURL,
		authorID:  authorID,
		likes:     []string{},
		createdAt: s.now(),
	}
	s.posts[p.id] = p

	view := s.postView(p)
	return &view, nil
}

// FindPost returns a populated post
func (s *Store) FindPost(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, apperrors.NewNotFound("Post", id)
	}
	view := s.postView(p)
	return &view, nil
}

// ListAll returns every post, newest first
func (s *Store) ListAll(_ context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedPosts(func(*postRecord) bool { return true }), nil
}

// ListByAuthor returns the author's posts, newest first
func (s *Store) ListByAuthor(_ context.Context, authorID string) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedPosts(func(p *postRecord) bool { return p.authorID == authorID }), nil
}

// ListByIDs returns the posts with the given ids in argument order, skipping
// ids that no longer exist
func (s *Store) ListByIDs(_ context.Context, ids []string) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.posts[id]; ok {
			out = append(out, s.postView(p))
		}
	}
	return out, nil
}

func (s *Store) sortedPosts(keep func(*postRecord) bool) []models.Post {
	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, s.postView(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// DeletePost removes the post and its comments in one step
func (s *Store) DeletePost(_ context.Context, id string) (*models.DeletedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, apperrors.NewNotFound("Post", id)
	}

	snapshot := &models.DeletedPost{Post: s.postView(p)}
	snapshot.Comments = snapshot.Post.Comments

	for _, cid := range p.commentIDs {
		delete(s.comments, cid)
	}
	delete(s.posts, id)

	return snapshot, nil
}

// RestorePost re-inserts a deleted post and its comments with their original
// ids and timestamps
func (s *Store) RestorePost(_ context.Context, snapshot *models.DeletedPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := snapshot.Post
	if _, exists := s.posts[post.ID]; exists {
		return apperrors.NewConflict("post", "post already exists")
	}

	p := &postRecord{
		id:        post.ID,
		caption:   post.Caption,
		image:     post.Image,
		authorID:  post.Author.ID,
		likes:     cloneIDs(post.Likes),
		createdAt: post.CreatedAt,
	}
	// commentIDs are kept oldest first, the order they were added in.
	for i := len(snapshot.Comments) - 1; i >= 0; i-- {
		c := snapshot.Comments[i]
		s.comments[c.ID] = &commentRecord{
			id:        c.ID,
			text:      c.Text,
			authorID:  c.Author.ID,
			postID:    post.ID,
			createdAt: c.CreatedAt,
		}
		p.commentIDs = append(p.commentIDs, c.ID)
	}
	s.posts[p.id] = p
	return nil
}

// AddLike adds userID to the like set; liking twice is a no-op
func (s *Store) AddLike(_ context.Context, postID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return apperrors.NewNotFound("Post", postID)
	}
	if _, ok := s.users[userID]; !ok {
		return apperrors.NewNotFound("User", userID)
	}
	p.likes = addID(p.likes, userID)
	return nil
}

// RemoveLike removes userID from the like set; removing a non-liker is a no-op
func (s *Store) RemoveLike(_ context.Context, postID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return apperrors.NewNotFound("Post", postID)
	}
	p.likes = removeID(p.likes, userID)
	return nil
}

// AddComment attaches a comment to an existing post
func (s *Store) AddComment(_ context.Context, postID, authorID, text string) (*models.Comment, error) {
	if text == "" {
		return nil, apperrors.ErrEmptyText
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, apperrors.NewNotFound("Post", postID)
	}
	if _, ok := s.users[authorID]; !ok {
		return nil, apperrors.NewNotFound("User", authorID)
	}

	c := &commentRecord{
		id:        uuid.New().String(),
		text:      text,
		authorID:  authorID,
		postID:    postID,
		createdAt: s.now(),
	}
	s.comments[c.id] = c
	p.commentIDs = append(p.commentIDs, c.id)

	view := s.commentView(c)
	return &view, nil
}

// ListComments returns the post's comments, newest first
func (s *Store) ListComments(_ context.Context, postID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, apperrors.NewNotFound("Post", postID)
	}
	return s.commentsOf(p), nil
}

// Stats returns the number of users, posts and comments held
func (s *Store) Stats() (users, posts, comments int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), len(s.posts), len(s.comments)
}
