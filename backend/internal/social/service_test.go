package social

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instaclone/backend/internal/memory"
	"instaclone/backend/internal/models"
	apperrors "instaclone/backend/pkg/errors"
)

// ============================================================================
// Test doubles
// ============================================================================

type fakeMedia struct {
	url   string
	err   error
	block bool
	calls int
}

func (m *fakeMedia) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	m.calls++
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.err != nil {
		return "", m.err
	}
	return m.url, nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

// flakyIdentity fails the post reference updates on demand
type flakyIdentity struct {
	*memory.Store
	failAddRef    bool
	failRemoveRef bool
}

func (f *flakyIdentity) AddPostRef(ctx context.Context, userID, postID string) error {
	if f.failAddRef {
		return apperrors.NewStorage("add post ref", errors.New("connection reset"))
	}
	return f.Store.AddPostRef(ctx, userID, postID)
}

func (f *flakyIdentity) RemovePostRef(ctx context.Context, userID, postID string) error {
	if f.failRemoveRef {
		return apperrors.NewStorage("remove post ref", errors.New("connection reset"))
	}
	return f.Store.RemovePostRef(ctx, userID, postID)
}

type fixture struct {
	svc      *Service
	store    *memory.Store
	identity *flakyIdentity
	media    *fakeMedia
}

func newFixture() *fixture {
	store := memory.NewStore()
	identity := &flakyIdentity{Store: store}
	media := &fakeMedia{url: "http://cdn.example.com/img.jpg"}
	return &fixture{
		svc:      NewService(identity, store, media, plainHasher{}),
		store:    store,
		identity: identity,
		media:    media,
	}
}

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "secret",
		Fullname: strings.ToUpper(name),
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, authorID string) *models.Post {
	t.Helper()
	p, err := f.svc.AddPost(context.Background(), authorID, "caption", &Upload{Data: []byte("img"), ContentType: "image/jpeg"})
	require.NoError(t, err)
	return p
}

// ============================================================================
// Accounts
// ============================================================================

func TestRegister(t *testing.T) {
	f := newFixture()
	u := f.register(t, "alice")
	assert.Equal(t, "hashed:secret", u.Password)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err := f.svc.Register(context.Background(), RegisterInput{Username: "al", Email: "ALICE@example.com", Password: "x"})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConflict))

	_, err = f.svc.Register(context.Background(), RegisterInput{Username: "bob", Email: "", Password: "x"})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
}

func TestRegister_PasswordTooLong(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "long",
		Email:    "long@example.com",
		Password: strings.Repeat("p", apperrors.MaxPasswordBytes+8),
	})
	require.ErrorIs(t, err, apperrors.ErrPasswordTooLong)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	users, _, _ := f.store.Stats()
	assert.Zero(t, users)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")
	f.post(t, alice.ID)

	profile, err := f.svc.Login(ctx, "Alice@Example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, profile.ID)
	assert.Len(t, profile.Posts, 1)

	_, err = f.svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "nobody@example.com", "secret")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	_, err = f.svc.Login(ctx, " ", "secret")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
}

func TestEditProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")

	bio := "photographer"
	updated, err := f.svc.EditProfile(ctx, alice.ID, EditProfileInput{
		Bio:     &bio,
		Picture: &Upload{Data: []byte("img"), ContentType: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "photographer", updated.Bio)
	assert.Equal(t, f.media.url, updated.ProfilePicture)

	f.media.err = errors.New("bucket unavailable")
	other := "changed"
	_, err = f.svc.EditProfile(ctx, alice.ID, EditProfileInput{
		Bio:     &other,
		Picture: &Upload{Data: []byte("img")},
	})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeUpstream))

	stored, _ := f.store.FindByID(ctx, alice.ID)
	assert.Equal(t, "photographer", stored.Bio)
}

// ============================================================================
// Follow graph
// ============================================================================

func TestToggleFollow_TwiceRestores(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	following, err := f.svc.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	a, _ := f.store.FindByID(ctx, alice.ID)
	b, _ := f.store.FindByID(ctx, bob.ID)
	assert.Contains(t, a.Following, bob.ID)
	assert.Contains(t, b.Followers, alice.ID)

	following, err = f.svc.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	a, _ = f.store.FindByID(ctx, alice.ID)
	b, _ = f.store.FindByID(ctx, bob.ID)
	assert.Empty(t, a.Following)
	assert.Empty(t, b.Followers)
}

func TestToggleFollow_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")

	_, err := f.svc.ToggleFollow(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrSelfFollow)

	_, err = f.svc.ToggleFollow(ctx, alice.ID, "ghost")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestSuggestedUsers_ExcludesSelf(t *testing.T) {
	f := newFixture()
	alice := f.register(t, "alice")
	f.register(t, "bob")
	f.register(t, "carol")

	users, err := f.svc.SuggestedUsers(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.NotEqual(t, alice.ID, u.ID)
	}
}

// ============================================================================
// Posts
// ============================================================================

func TestAddPost_LinksAuthor(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")

	p := f.post(t, alice.ID)
	assert.Equal(t, f.media.url, p.Image)
	assert.Equal(t, "alice", p.Author.Username)

	a, _ := f.store.FindByID(ctx, alice.ID)
	assert.Equal(t, []string{p.ID}, a.Posts)
}

func TestAddPost_MissingImage(t *testing.T) {
	f := newFixture()
	alice := f.register(t, "alice")

	_, err := f.svc.AddPost(context.Background(), alice.ID, "caption", nil)
	assert.ErrorIs(t, err, apperrors.ErrMissingImage)
	assert.Zero(t, f.media.calls)
}

func TestAddPost_MediaFailureLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")
	f.media.err = errors.New("503 from bucket")

	_, err := f.svc.AddPost(ctx, alice.ID, "caption", &Upload{Data: []byte("img")})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeUpstream))

	posts, _ := f.svc.ListPosts(ctx)
	assert.Empty(t, posts)
	a, _ := f.store.FindByID(ctx, alice.ID)
	assert.Empty(t, a.Posts)
}

func TestAddPost_MediaValidationPassesThrough(t *testing.T) {
	f := newFixture()
	alice := f.register(t, "alice")
	f.media.err = apperrors.NewValidation("unsupported image format")

	_, err := f.svc.AddPost(context.Background(), alice.ID, "", &Upload{Data: []byte("not an image")})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
}

func TestAddPost_MediaTimeout(t *testing.T) {
	f := newFixture()
	alice := f.register(t, "alice")
	f.media.block = true
	f.svc.SetUpstreamTimeout(20 * time.Millisecond)

	_, err := f.svc.AddPost(context.Background(), alice.ID, "", &Upload{Data: []byte("img")})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeContext))

	_, posts, _ := f.store.Stats()
	assert.Zero(t, posts)
}

func TestAddPost_LinkFailureRemovesPost(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")
	f.identity.failAddRef = true

	_, err := f.svc.AddPost(ctx, alice.ID, "caption", &Upload{Data: []byte("img")})
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeStorage))

	posts, _ := f.svc.ListPosts(ctx)
	assert.Empty(t, posts)
}

func TestListPosts_NewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	first := f.post(t, alice.ID)
	second := f.post(t, bob.ID)

	posts, err := f.svc.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, first.ID, posts[1].ID)

	mine, err := f.svc.ListUserPosts(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
}

func TestDeletePost_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p := f.post(t, alice.ID)

	err := f.svc.DeletePost(ctx, bob.ID, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	err = f.svc.DeletePost(ctx, alice.ID, "missing")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	still, err := f.store.FindPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, still.ID)
}

func TestDeletePost_Cascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p := f.post(t, alice.ID)

	_, err := f.svc.AddComment(ctx, p.ID, bob.ID, "nice!")
	require.NoError(t, err)
	_, err = f.svc.ToggleBookmark(ctx, bob.ID, p.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeletePost(ctx, alice.ID, p.ID))

	_, err = f.store.FindPost(ctx, p.ID)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
	_, err = f.svc.ListComments(ctx, p.ID)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	_, _, comments := f.store.Stats()
	assert.Zero(t, comments)

	a, _ := f.store.FindByID(ctx, alice.ID)
	b, _ := f.store.FindByID(ctx, bob.ID)
	assert.NotContains(t, a.Posts, p.ID)
	assert.NotContains(t, b.Bookmarks, p.ID)
}

func TestDeletePost_UnlinkFailureRestores(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")
	p := f.post(t, alice.ID)
	_, err := f.svc.AddComment(ctx, p.ID, alice.ID, "first")
	require.NoError(t, err)
	f.identity.failRemoveRef = true

	err = f.svc.DeletePost(ctx, alice.ID, p.ID)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeStorage))

	restored, err := f.store.FindPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, restored.Comments, 1)
	assert.Equal(t, "first", restored.Comments[0].Text)

	a, _ := f.store.FindByID(ctx, alice.ID)
	assert.Contains(t, a.Posts, p.ID)
}

func TestLike_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p := f.post(t, alice.ID)

	require.NoError(t, f.svc.LikePost(ctx, bob.ID, p.ID))
	require.NoError(t, f.svc.LikePost(ctx, bob.ID, p.ID))

	got, _ := f.store.FindPost(ctx, p.ID)
	assert.Equal(t, []string{bob.ID}, got.Likes)

	require.NoError(t, f.svc.DislikePost(ctx, bob.ID, p.ID))
	require.NoError(t, f.svc.DislikePost(ctx, bob.ID, p.ID))
	got, _ = f.store.FindPost(ctx, p.ID)
	assert.Empty(t, got.Likes)

	err := f.svc.LikePost(ctx, bob.ID, "missing")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestToggleBookmark(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")
	p := f.post(t, alice.ID)

	state, err := f.svc.ToggleBookmark(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, BookmarkSaved, state)

	profile, err := f.svc.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, profile.Bookmarks, 1)
	assert.Equal(t, p.ID, profile.Bookmarks[0].ID)

	state, err = f.svc.ToggleBookmark(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, BookmarkUnsaved, state)

	_, err = f.svc.ToggleBookmark(ctx, alice.ID, "missing")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

// ============================================================================
// Comments
// ============================================================================

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p := f.post(t, alice.ID)

	_, err := f.svc.AddComment(ctx, p.ID, bob.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrEmptyText)
	_, err = f.svc.AddComment(ctx, p.ID, bob.ID, "   ")
	assert.ErrorIs(t, err, apperrors.ErrEmptyText)

	_, err = f.svc.AddComment(ctx, p.ID, alice.ID, "first")
	require.NoError(t, err)
	c, err := f.svc.AddComment(ctx, p.ID, bob.ID, "nice!")
	require.NoError(t, err)
	assert.Equal(t, "bob", c.Author.Username)

	comments, err := f.svc.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "nice!", comments[0].Text)
	assert.Equal(t, "first", comments[1].Text)

	_, err = f.svc.AddComment(ctx, "missing", bob.ID, "hello")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

// ============================================================================
// Concurrency
// ============================================================================

func TestToggleFollow_ConcurrentKeepsEdgeSymmetric(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.register(t, "alice")
	b := f.register(t, "bob")

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ToggleFollow(ctx, a.ID, b.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	who, err := f.store.FindByID(ctx, a.ID)
	require.NoError(t, err)
	whom, err := f.store.FindByID(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, who.IsFollowing(b.ID), whom.IsFollowedBy(a.ID))
	// n is odd, so the edge ends up present.
	assert.True(t, who.IsFollowing(b.ID))
	assert.Len(t, who.Following, 1)
	assert.Len(t, whom.Followers, 1)
}

func TestLikePost_ConcurrentLikesCountOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	author := f.register(t, "alice")
	fan := f.register(t, "bob")
	p := f.post(t, author.ID)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.svc.LikePost(ctx, fan.ID, p.ID))
		}()
	}
	wg.Wait()

	got, err := f.store.FindPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{fan.ID}, got.Likes)
}

func TestDeletePost_RacingCommentsLeaveNoOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	author := f.register(t, "alice")
	commenter := f.register(t, "bob")
	p := f.post(t, author.ID)

	const n = 30
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		added   int
		missing int
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.AddComment(ctx, p.ID, commenter.ID, "nice")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				added++
			case apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound):
				missing++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		assert.NoError(t, f.svc.DeletePost(ctx, author.ID, p.ID))
	}()
	close(start)
	wg.Wait()

	assert.Equal(t, n, added+missing)

	_, posts, comments := f.store.Stats()
	assert.Zero(t, posts)
	assert.Zero(t, comments)

	_, err := f.store.FindPost(ctx, p.ID)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}
