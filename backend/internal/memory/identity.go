package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"instaclone/backend/internal/models"
	apperrors "instaclone/backend/pkg/errors"
)

// CreateUser adds a user; email and username must be unused
func (s *Store) CreateUser(_ context.Context, nu models.NewUser) (*models.User, error) {
	if err := nu.Validate(); err != nil {
		return nil, apperrors.NewValidation(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := models.NormalizeEmail(nu.Email)
	if _, taken := s.byEmail[email]; taken {
		return nil, apperrors.NewConflict("email", "You already have an account")
	}
	uname := usernameKey(nu.Username)
	if _, taken := s.byUsername[uname]; taken {
		return nil, apperrors.NewConflict("username", "Username already taken")
	}

	u := &models.User{
		ID:        uuid.New().String(),
		Username:  nu.Username,
		Email:     email,
		Password:  nu.PasswordHash,
		Fullname:  nu.Fullname,
		Followers: []string{},
		Following: []string{},
		Posts:     []string{},
		Bookmarks: []string{},
		CreatedAt: s.now(),
	}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	s.byUsername[uname] = u.ID

	return cloneUser(u), nil
}

// FindByEmail looks a user up by normalized email
func (s *Store) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, apperrors.NewNotFound("User", email)
	}
	return cloneUser(s.users[id]), nil
}

// FindByID looks a user up by id
func (s *Store) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("User", id)
	}
	return cloneUser(u), nil
}

// ListUsers returns every user except excludeID, oldest first
func (s *Store) ListUsers(_ context.Context, excludeID string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for id, u := range s.users {
		if id == excludeID {
			continue
		}
		out = append(out, *cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateProfile applies the non-nil fields of update
func (s *Store) UpdateProfile(_ context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("User", id)
	}
	update.Apply(u)
	return cloneUser(u), nil
}

// AddPostRef appends postID to the user's posts
func (s *Store) AddPostRef(_ context.Context, userID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return apperrors.NewNotFound("User", userID)
	}
	u.Posts = addID(u.Posts, postID)
	return nil
}

// RemovePostRef drops postID from the author's posts and every bookmark set
func (s *Store) RemovePostRef(_ context.Context, userID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return apperrors.NewNotFound("User", userID)
	}
	u.Posts = removeID(u.Posts, postID)
	for _, other := range s.users {
		other.Bookmarks = removeID(other.Bookmarks, postID)
	}
	return nil
}

// AddBookmark saves postID for userID; saving twice is a no-op
func (s *Store) AddBookmark(_ context.Context, userID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.bookmarkTarget(userID, postID)
	if err != nil {
		return err
	}
	u.Bookmarks = addID(u.Bookmarks, postID)
	return nil
}

// RemoveBookmark unsaves postID for userID
func (s *Store) RemoveBookmark(_ context.Context, userID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return apperrors.NewNotFound("User", userID)
	}
	u.Bookmarks = removeID(u.Bookmarks, postID)
	return nil
}

// ToggleBookmark flips membership and reports whether the post is saved
func (s *Store) ToggleBookmark(_ context.Context, userID, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.bookmarkTarget(userID, postID)
	if err != nil {
		return false, err
	}
	if hasID(u.Bookmarks, postID) {
		u.Bookmarks = removeID(u.Bookmarks, postID)
		return false, nil
	}
	u.Bookmarks = append(u.Bookmarks, postID)
	return true, nil
}

func (s *Store) bookmarkTarget(userID, postID string) (*models.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, apperrors.NewNotFound("User", userID)
	}
	if _, ok := s.posts[postID]; !ok {
		return nil, apperrors.NewNotFound("Post", postID)
	}
	return u, nil
}

// Follow adds the edge who -> whom on both sides
func (s *Store) Follow(_ context.Context, whoID, whomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	who, whom, err := s.pair(whoID, whomID)
	if err != nil {
		return err
	}
	link(who, whom)
	return nil
}

// Unfollow removes the edge who -> whom on both sides; a missing edge is fine
func (s *Store) Unfollow(_ context.Context, whoID, whomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	who, whom, err := s.pair(whoID, whomID)
	if err != nil {
		return err
	}
	unlink(who, whom)
	return nil
}

// ToggleFollow flips the edge who -> whom and reports whether it exists after
func (s *Store) ToggleFollow(_ context.Context, whoID, whomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	who, whom, err := s.pair(whoID, whomID)
	if err != nil {
		return false, err
	}
	if who.IsFollowing(whom.ID) {
		unlink(who, whom)
		return false, nil
	}
	link(who, whom)
	return true, nil
}

func (s *Store) pair(whoID, whomID string) (*models.User, *models.User, error) {
	if whoID == whomID {
		return nil, nil, apperrors.ErrSelfFollow
	}
	who, ok := s.users[whoID]
	if !ok {
		return nil, nil, apperrors.NewNotFound("User", whoID)
	}
	whom, ok := s.users[whomID]
	if !ok {
		return nil, nil, apperrors.NewNotFound("User", whomID)
	}
	return who, whom, nil
}

func link(who, whom *models.User) {
	who.Following = addID(who.Following, whom.ID)
	whom.Followers = addID(whom.Followers, who.ID)
}

func unlink(who, whom *models.User) {
	who.Following = removeID(who.Following, whom.ID)
	whom.Followers = removeID(whom.Followers, who.ID)
}
