package social

import (
	"context"

	"instaclone/backend/internal/models"
)

// IdentityStore persists users, their follow adjacency, post references and
// bookmarks. Implementations return *errors.ErrNotFound for absent users and
// *errors.ErrConflict for duplicate emails or usernames.
type IdentityStore interface {
	CreateUser(ctx context.Context, user models.NewUser) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, excludeID string) ([]models.User, error)
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error)

	AddPostRef(ctx context.Context, userID, postID string) error
	// RemovePostRef drops postID from the author's posts and from every
	// user's bookmarks.
	RemovePostRef(ctx context.Context, userID, postID string) error

	AddBookmark(ctx context.Context, userID, postID string) error
	RemoveBookmark(ctx context.Context, userID, postID string) error
	// ToggleBookmark flips membership atomically and reports whether the post
	// is bookmarked afterwards. It fails with NotFound when the post is gone.
	ToggleBookmark(ctx context.Context, userID, postID string) (bool, error)

	Follow(ctx context.Context, whoID, whomID string) error
	Unfollow(ctx context.Context, whoID, whomID string) error
	// ToggleFollow updates both adjacency sets as one unit and reports
	// whether whoID follows whomID afterwards.
	ToggleFollow(ctx context.Context, whoID, whomID string) (bool, error)
}

// ContentStore persists posts, comments and like sets. Listings are newest
// first with author summaries and comments populated.
type ContentStore interface {
	CreatePost(ctx context.Context, authorID, caption, imageURL string) (*models.Post, error)
	FindPost(ctx context.Context, id string) (*models.Post, error)
	ListAll(ctx context.Context) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Post, error)

	// DeletePost removes the post and all of its comments atomically and
	// returns what was removed.
	DeletePost(ctx context.Context, id string) (*models.DeletedPost, error)
	// RestorePost re-creates a deleted post with its comments; it undoes
	// DeletePost when a later step of a delete fails.
	RestorePost(ctx context.Context, snapshot *models.DeletedPost) error

	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error

	// AddComment fails with NotFound if the post was deleted before the
	// comment could be attached.
	AddComment(ctx context.Context, postID, authorID, text string) (*models.Comment, error)
	ListComments(ctx context.Context, postID string) ([]models.Comment, error)
}

// MediaStore accepts raw image bytes and returns a stable URL
type MediaStore interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}

// PasswordHasher turns passwords into opaque hashes and checks them
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
