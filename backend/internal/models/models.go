package models

import (
	"fmt"
	"strings"
	"time"
)

// User is an account with its follow adjacency, authored posts and bookmarks.
// Password holds the opaque hash and is never serialized.
type User struct {
	ID             string    `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	Fullname       string    `json:"fullname"`
	Bio            string    `json:"bio"`
	Gender         string    `json:"gender,omitempty"`
	ProfilePicture string    `json:"profilePicture"`
	Followers      []string  `json:"followers"`
	Following      []string  `json:"following"`
	Posts          []string  `json:"posts"`     // Creation order
	Bookmarks      []string  `json:"bookmarks"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Summary returns the public projection embedded in posts and comments
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// IsFollowing reports whether u follows userID
func (u *User) IsFollowing(userID string) bool {
	return contains(u.Following, userID)
}

// IsFollowedBy reports whether userID follows u
func (u *User) IsFollowedBy(userID string) bool {
	return contains(u.Followers, userID)
}

// HasBookmark reports whether postID is in u's bookmarks
func (u *User) HasBookmark(postID string) bool {
	return contains(u.Bookmarks, postID)
}

// UserSummary is the author projection other entities embed
type UserSummary struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

// Profile is a user with posts and bookmarks resolved to full records
type Profile struct {
	User
	Posts     []Post `json:"posts"`
	Bookmarks []Post `json:"bookmarks"`
}

// Post is an image post owned by exactly one author
type Post struct {
	ID        string      `json:"_id"`
	Caption   string      `json:"caption"`
	Image     string      `json:"image"`
	Author    UserSummary `json:"author"`
	Likes     []string    `json:"likes"`
	Comments  []Comment   `json:"comments"` // Newest first
	CreatedAt time.Time   `json:"createdAt"`
}

// IsOwnedBy reports whether userID authored the post
func (p *Post) IsOwnedBy(userID string) bool {
	return p.Author.ID == userID
}

// LikedBy reports whether userID is in the post's like set
func (p *Post) LikedBy(userID string) bool {
	return contains(p.Likes, userID)
}

// Comment is immutable once created and only removed by its post's deletion
type Comment struct {
	ID        string      `json:"_id"`
	Text      string      `json:"text"`
	Author    UserSummary `json:"author"`
	PostID    string      `json:"post"`
	CreatedAt time.Time   `json:"createdAt"`
}

// DeletedPost is the snapshot a content store returns from a cascade delete,
// sufficient to restore the post and its comments.
type DeletedPost struct {
	Post     Post
	Comments []Comment
	// BookmarkedBy is set by stores that drop bookmark links with the post
	BookmarkedBy []string
}

// NewUser carries the fields needed to create an account
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	Fullname     string
}

// Validate checks if the NewUser is valid
func (n *NewUser) Validate() error {
	if strings.TrimSpace(n.Username) == "" {
		return ErrInvalidField{Field: "username", Reason: "cannot be empty"}
	}
	if strings.TrimSpace(n.Email) == "" {
		return ErrInvalidField{Field: "email", Reason: "cannot be empty"}
	}
	if n.PasswordHash == "" {
		return ErrInvalidField{Field: "password", Reason: "cannot be empty"}
	}
	return nil
}

// ProfileUpdate holds optional profile changes; nil fields are left untouched
type ProfileUpdate struct {
	Bio            *string
	Gender         *string
	ProfilePicture *string
}

// IsEmpty reports whether the update changes nothing
func (p ProfileUpdate) IsEmpty() bool {
	return p.Bio == nil && p.Gender == nil && p.ProfilePicture == nil
}

// Apply copies the set fields onto u
func (p ProfileUpdate) Apply(u *User) {
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
	}
}

// NormalizeEmail lowercases and trims an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Errors

type ErrInvalidField struct {
	Field  string
	Reason string
}

func (e ErrInvalidField) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Conversation is the direct message thread between exactly two users
type Conversation struct {
	ID           string    `json:"_id"`
	Participants []string  `json:"participants"` // Sorted
	Messages     []string  `json:"messages"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Message is a single direct message
type Message struct {
	ID             string    `json:"_id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	ReceiverID     string    `json:"receiverId"`
	Text           string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
}
