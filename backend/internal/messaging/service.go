// Package messaging stores direct messages between pairs of users.
package messaging

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"instaclone/backend/internal/models"
	apperrors "instaclone/backend/pkg/errors"
	"instaclone/backend/pkg/logger"
)

// Store persists conversations and their messages
type Store interface {
	// AppendMessage creates the conversation for the pair on first use and
	// adds the message to it.
	AppendMessage(ctx context.Context, senderID, receiverID, text string) (*models.Message, error)
	// ListMessages returns the pair's messages oldest first; an unknown pair
	// yields an empty list.
	ListMessages(ctx context.Context, userID, otherID string) ([]models.Message, error)
}

// UserLookup resolves user ids
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Service validates and routes direct messages
type Service struct {
	store  Store
	users  UserLookup
	logger *zap.Logger
}

// NewService creates a messaging service
func NewService(store Store, users UserLookup) *Service {
	return &Service{
		store:  store,
		users:  users,
		logger: logger.Get(),
	}
}

// SendMessage delivers text from senderID to receiverID
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidation("Message cannot be empty")
	}
	if senderID == receiverID {
		return nil, apperrors.NewValidation("Can't message yourself")
	}

	if err := s.ensureUsers(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	msg, err := s.store.AppendMessage(ctx, senderID, receiverID, text)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Message sent",
		zap.String("conversation_id", msg.ConversationID),
		zap.String("sender", senderID),
		zap.String("receiver", receiverID),
	)
	return msg, nil
}

// GetMessages returns the conversation between userID and otherID
func (s *Service) GetMessages(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	if err := s.ensureUsers(ctx, userID, otherID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, userID, otherID)
}

func (s *Service) ensureUsers(ctx context.Context, ids ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := s.users.FindByID(gctx, id)
			return err
		})
	}
	return g.Wait()
}

// pairKey identifies the unordered pair {a, b}
func pairKey(a, b string) string {
	return strings.Join(participants(a, b), ":")
}

func participants(a, b string) []string {
	p := []string{a, b}
	sort.Strings(p)
	return p
}
