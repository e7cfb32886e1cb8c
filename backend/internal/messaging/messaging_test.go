package messaging

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instaclone/backend/internal/memory"
	"instaclone/backend/internal/models"
	apperrors "instaclone/backend/pkg/errors"
)

func setup(t *testing.T) (*Service, *MemoryStore, string, string) {
	t.Helper()
	ctx := context.Background()
	users := memory.NewStore()
	alice, err := users.CreateUser(ctx, models.NewUser{Username: "alice", Email: "alice@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	bob, err := users.CreateUser(ctx, models.NewUser{Username: "bob", Email: "bob@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	store := NewMemoryStore()
	return NewService(store, users), store, alice.ID, bob.ID
}

func TestSendMessage_CreatesConversationOnce(t *testing.T) {
	ctx := context.Background()
	svc, store, alice, bob := setup(t)

	first, err := svc.SendMessage(ctx, alice, bob, "hi bob")
	require.NoError(t, err)
	second, err := svc.SendMessage(ctx, bob, alice, "  hi alice  ")
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Equal(t, "hi alice", second.Text)

	conv, ok := store.Conversation(bob, alice)
	require.True(t, ok)
	assert.Len(t, conv.Participants, 2)
	assert.Equal(t, []string{first.ID, second.ID}, conv.Messages)
}

func TestGetMessages_OldestFirstFromEitherSide(t *testing.T) {
	ctx := context.Background()
	svc, _, alice, bob := setup(t)

	_, err := svc.SendMessage(ctx, alice, bob, "one")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, bob, alice, "two")
	require.NoError(t, err)

	for _, viewer := range []string{alice, bob} {
		other := bob
		if viewer == bob {
			other = alice
		}
		msgs, err := svc.GetMessages(ctx, viewer, other)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "one", msgs[0].Text)
		assert.Equal(t, "two", msgs[1].Text)
	}
}

func TestGetMessages_NoConversation(t *testing.T) {
	svc, _, alice, bob := setup(t)

	msgs, err := svc.GetMessages(context.Background(), alice, bob)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSendMessage_Rejects(t *testing.T) {
	ctx := context.Background()
	svc, _, alice, bob := setup(t)

	_, err := svc.SendMessage(ctx, alice, bob, "   ")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = svc.SendMessage(ctx, alice, alice, "hello me")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = svc.SendMessage(ctx, alice, "ghost", "hello?")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestPairKey_Unordered(t *testing.T) {
	assert.Equal(t, pairKey("a", "b"), pairKey("b", "a"))
	assert.NotEqual(t, pairKey("a", "b"), pairKey("a", "c"))
}

func TestMongoStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	url := os.Getenv("MONGO_URL")
	if url == "" {
		t.Skip("MONGO_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := Connect(ctx, url)
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	db := client.Database("instaclone_test_" + time.Now().Format("150405"))
	defer db.Drop(ctx)

	store := NewMongoStore(db)
	require.NoError(t, store.EnsureIndexes(ctx))

	first, err := store.AppendMessage(ctx, "u1", "u2", "one")
	require.NoError(t, err)
	second, err := store.AppendMessage(ctx, "u2", "u1", "two")
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	msgs, err := store.ListMessages(ctx, "u1", "u2")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Text)

	empty, err := store.ListMessages(ctx, "u1", "u3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
