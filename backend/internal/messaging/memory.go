package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"instaclone/backend/internal/models"
)

// MemoryStore keeps conversations in process
type MemoryStore struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	messages      map[string][]models.Message // by conversation id
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]models.Message),
	}
}

// AppendMessage adds a message, creating the conversation on first use
func (m *MemoryStore) AppendMessage(_ context.Context, senderID, receiverID, text string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	key := pairKey(senderID, receiverID)
	conv, ok := m.conversations[key]
	if !ok {
		conv = &models.Conversation{
			ID:           uuid.New().String(),
			Participants: participants(senderID, receiverID),
		}
		m.conversations[key] = conv
	}

	msg := models.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Text:           text,
		CreatedAt:      now,
	}
	conv.Messages = append(conv.Messages, msg.ID)
	conv.UpdatedAt = now
	m.messages[conv.ID] = append(m.messages[conv.ID], msg)

	return &msg, nil
}

// ListMessages returns the pair's messages oldest first
func (m *MemoryStore) ListMessages(_ context.Context, userID, otherID string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[pairKey(userID, otherID)]
	if !ok {
		return []models.Message{}, nil
	}
	out := make([]models.Message, len(m.messages[conv.ID]))
	copy(out, m.messages[conv.ID])
	return out, nil
}

// Conversation returns the pair's conversation, if any
func (m *MemoryStore) Conversation(userID, otherID string) (*models.Conversation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[pairKey(userID, otherID)]
	if !ok {
		return nil, false
	}
	c := *conv
	c.Messages = append([]string(nil), conv.Messages...)
	return &c, true
}
