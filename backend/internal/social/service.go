package social

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"instaclone/backend/internal/models"
	apperrors "instaclone/backend/pkg/errors"
	"instaclone/backend/pkg/logger"
)

// DefaultUpstreamTimeout bounds a single Media Port call
const DefaultUpstreamTimeout = 15 * time.Second

// BookmarkState is the direction a bookmark toggle went
type BookmarkState string

const (
	BookmarkSaved   BookmarkState = "saved"
	BookmarkUnsaved BookmarkState = "unsaved"
)

// Upload is an image received from a client
type Upload struct {
	Data        []byte
	ContentType string
}

// RegisterInput carries the fields of a sign-up request
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Fullname string
}

// EditProfileInput carries optional profile changes; nil means unchanged
type EditProfileInput struct {
	Bio     *string
	Gender  *string
	Picture *Upload
}

// Service enforces ownership and multi-entity invariants on top of the
// identity and content stores.
type Service struct {
	identity        IdentityStore
	content         ContentStore
	media           MediaStore
	hasher          PasswordHasher
	upstreamTimeout time.Duration
	logger          *zap.Logger
}

// NewService creates a new graph service
func NewService(identity IdentityStore, content ContentStore, media MediaStore, hasher PasswordHasher) *Service {
	return &Service{
		identity:        identity,
		content:         content,
		media:           media,
		hasher:          hasher,
		upstreamTimeout: DefaultUpstreamTimeout,
		logger:          logger.Get(),
	}
}

// SetUpstreamTimeout overrides the per-call Media Port timeout
func (s *Service) SetUpstreamTimeout(d time.Duration) {
	if d > 0 {
		s.upstreamTimeout = d
	}
}

// ============================================================================
// Accounts
// ============================================================================

// Register creates an account with a hashed password
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperrors.NewValidation("Something is missing, Please Check!")
	}
	if len(in.Password) > apperrors.MaxPasswordBytes {
		return nil, apperrors.ErrPasswordTooLong
	}
	email := models.NormalizeEmail(in.Email)

	existing, err := s.identity.FindByEmail(ctx, email)
	if err != nil && !apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflict("email", "You already have an account")
	}

	hash, err := s.hasher.Hash(in.Password)
	if apperrors.IsErrorType(err, apperrors.ErrorTypeValidation) {
		return nil, err
	}
	if err != nil {
		return nil, apperrors.NewUpstream("password hasher", err)
	}

	user, err := s.identity.CreateUser(ctx, models.NewUser{
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		PasswordHash: hash,
		Fullname:     strings.TrimSpace(in.Fullname),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login checks credentials and returns the user's profile
func (s *Service) Login(ctx context.Context, email, password string) (*models.Profile, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apperrors.NewValidation("Please Enter Your Email")
	}

	user, err := s.identity.FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFound("Email", email)
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.Password, password); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.buildProfile(ctx, user)
}

// GetProfile returns a user with posts and bookmarks resolved
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.identity.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, user)
}

func (s *Service) buildProfile(ctx context.Context, user *models.User) (*models.Profile, error) {
	profile := &models.Profile{User: *user}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		posts, err := s.content.ListByAuthor(gctx, user.ID)
		if err != nil {
			return err
		}
		profile.Posts = posts
		return nil
	})
	g.Go(func() error {
		bookmarks, err := s.content.ListByIDs(gctx, user.Bookmarks)
		if err != nil {
			return err
		}
		profile.Bookmarks = bookmarks
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return profile, nil
}

// EditProfile applies optional bio, gender and picture changes. The picture is
// uploaded before any store mutation so a failed upload changes nothing.
func (s *Service) EditProfile(ctx context.Context, userID string, in EditProfileInput) (*models.User, error) {
	user, err := s.identity.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	update := models.ProfileUpdate{Bio: in.Bio, Gender: in.Gender}
	if in.Picture != nil && len(in.Picture.Data) > 0 {
		url, err := s.storeMedia(ctx, in.Picture)
		if err != nil {
			return nil, err
		}
		update.ProfilePicture = &url
	}

	if update.IsEmpty() {
		return user, nil
	}
	return s.identity.UpdateProfile(ctx, userID, update)
}

// SuggestedUsers lists every other user
func (s *Service) SuggestedUsers(ctx context.Context, userID string) ([]models.User, error) {
	return s.identity.ListUsers(ctx, userID)
}

// ============================================================================
// Follow graph
// ============================================================================

// ToggleFollow follows whomID if whoID does not follow them yet, otherwise
// unfollows. It reports whether whoID follows whomID afterwards.
func (s *Service) ToggleFollow(ctx context.Context, whoID, whomID string) (bool, error) {
	if whoID == whomID {
		return false, apperrors.ErrSelfFollow
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range []string{whoID, whomID} {
		id := id
		g.Go(func() error {
			_, err := s.identity.FindByID(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	following, err := s.identity.ToggleFollow(ctx, whoID, whomID)
	if err != nil {
		return false, err
	}

	s.logger.Debug("Follow toggled",
		zap.String("who", whoID),
		zap.String("whom", whomID),
		zap.Bool("following", following),
	)
	return following, nil
}

// ============================================================================
// Posts
// ============================================================================

// AddPost uploads the image, creates the post and links it to its author. If
// linking fails the post is removed again.
func (s *Service) AddPost(ctx context.Context, authorID, caption string, image *Upload) (*models.Post, error) {
	if image == nil || len(image.Data) == 0 {
		return nil, apperrors.ErrMissingImage
	}

	url, err := s.storeMedia(ctx, image)
	if err != nil {
		return nil, err
	}
	// The upload may have outlived the request.
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewContextTimeout("add post", s.upstreamTimeout, err)
	}

	post, err := s.content.CreatePost(ctx, authorID, strings.TrimSpace(caption), url)
	if err != nil {
		return nil, err
	}

	if err := s.identity.AddPostRef(ctx, authorID, post.ID); err != nil {
		if _, undoErr := s.content.DeletePost(context.WithoutCancel(ctx), post.ID); undoErr != nil {
			s.logger.Error("Failed to remove unlinked post",
				zap.String("post_id", post.ID),
				zap.Error(undoErr),
			)
		}
		return nil, err
	}

	s.logger.Info("Post created", zap.String("post_id", post.ID), zap.String("author_id", authorID))
	return post, nil
}

// ListPosts returns every post, newest first
func (s *Service) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.content.ListAll(ctx)
}

// ListUserPosts returns the author's posts, newest first
func (s *Service) ListUserPosts(ctx context.Context, authorID string) ([]models.Post, error) {
	return s.content.ListByAuthor(ctx, authorID)
}

// DeletePost removes a post owned by requesterID together with its comments
// and every reference to it. If unlinking fails the post is restored.
func (s *Service) DeletePost(ctx context.Context, requesterID, postID string) error {
	post, err := s.content.FindPost(ctx, postID)
	if err != nil {
		return err
	}
	if !post.IsOwnedBy(requesterID) {
		return apperrors.ErrNotOwner
	}

	snapshot, err := s.content.DeletePost(ctx, postID)
	if err != nil {
		return err
	}

	if err := s.identity.RemovePostRef(ctx, post.Author.ID, postID); err != nil {
		if restoreErr := s.content.RestorePost(context.WithoutCancel(ctx), snapshot); restoreErr != nil {
			s.logger.Error("Failed to restore post after unlink failure",
				zap.String("post_id", postID),
				zap.Error(restoreErr),
			)
			return errors.Join(err, restoreErr)
		}
		return err
	}

	s.logger.Info("Post deleted",
		zap.String("post_id", postID),
		zap.Int("comments_removed", len(snapshot.Comments)),
	)
	return nil
}

// LikePost adds userID to the post's like set
func (s *Service) LikePost(ctx context.Context, userID, postID string) error {
	return s.content.AddLike(ctx, postID, userID)
}

// DislikePost removes userID from the post's like set
func (s *Service) DislikePost(ctx context.Context, userID, postID string) error {
	return s.content.RemoveLike(ctx, postID, userID)
}

// ToggleBookmark saves or unsaves a post for userID
func (s *Service) ToggleBookmark(ctx context.Context, userID, postID string) (BookmarkState, error) {
	if _, err := s.content.FindPost(ctx, postID); err != nil {
		return "", err
	}

	saved, err := s.identity.ToggleBookmark(ctx, userID, postID)
	if err != nil {
		return "", err
	}
	if saved {
		return BookmarkSaved, nil
	}
	return BookmarkUnsaved, nil
}

// ============================================================================
// Comments
// ============================================================================

// AddComment attaches a non-empty comment to an existing post
func (s *Service) AddComment(ctx context.Context, postID, authorID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyText
	}
	return s.content.AddComment(ctx, postID, authorID, text)
}

// ListComments returns the post's comments, newest first
func (s *Service) ListComments(ctx context.Context, postID string) ([]models.Comment, error) {
	return s.content.ListComments(ctx, postID)
}

// ============================================================================
// Media
// ============================================================================

func (s *Service) storeMedia(ctx context.Context, up *Upload) (string, error) {
	uctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	url, err := s.media.Store(uctx, up.Data, up.ContentType)
	if err != nil {
		if errors.Is(uctx.Err(), context.DeadlineExceeded) {
			return "", apperrors.NewContextTimeout("media upload", s.upstreamTimeout, err)
		}
		if apperrors.TypeOf(err) != "" {
			return "", err
		}
		return "", apperrors.NewUpstream("media", err)
	}
	return url, nil
}
