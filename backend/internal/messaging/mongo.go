package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"instaclone/backend/internal/models"
	apperrors "instaclone/backend/pkg/errors"
	"instaclone/backend/pkg/logger"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
)

type conversationDoc struct {
	ID           string    `bson:"_id"`
	PairKey      string    `bson:"pair_key"`
	Participants []string  `bson:"participants"`
	Messages     []string  `bson:"messages"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type messageDoc struct {
	ID             string    `bson:"_id"`
	ConversationID string    `bson:"conversation_id"`
	SenderID       string    `bson:"sender_id"`
	ReceiverID     string    `bson:"receiver_id"`
	Text           string    `bson:"message"`
	CreatedAt      time.Time `bson:"created_at"`
}

func (d messageDoc) toModel() models.Message {
	return models.Message{
		ID:             d.ID,
		ConversationID: d.ConversationID,
		SenderID:       d.SenderID,
		ReceiverID:     d.ReceiverID,
		Text:           d.Text,
		CreatedAt:      d.CreatedAt,
	}
}

// Connect opens a client and verifies the primary is reachable
func Connect(ctx context.Context, url string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// MongoStore keeps conversations and messages in MongoDB
type MongoStore struct {
	conversations *mongo.Collection
	messages      *mongo.Collection
	logger        *zap.Logger
}

// NewMongoStore creates a store over db
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		conversations: db.Collection(conversationsCollection),
		messages:      db.Collection(messagesCollection),
		logger:        logger.Get(),
	}
}

// EnsureIndexes creates the unique pair index and the message ordering index
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.conversations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pair_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("conversation_pair_unique"),
	})
	if err != nil {
		return apperrors.NewStorage("create conversation index", err)
	}

	_, err = s.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("message_conversation_created"),
	})
	if err != nil {
		return apperrors.NewStorage("create message index", err)
	}

	s.logger.Info("MongoDB indexes ensured")
	return nil
}

// AppendMessage upserts the pair's conversation and inserts the message
func (s *MongoStore) AppendMessage(ctx context.Context, senderID, receiverID, text string) (*models.Message, error) {
	now := time.Now().UTC()

	conv, err := s.upsertConversation(ctx, senderID, receiverID, now)
	if err != nil {
		return nil, err
	}

	doc := messageDoc{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Text:           text,
		CreatedAt:      now,
	}
	if _, err := s.messages.InsertOne(ctx, doc); err != nil {
		return nil, apperrors.NewStorage("insert message", err)
	}

	_, err = s.conversations.UpdateByID(ctx, conv.ID, bson.M{"$push": bson.M{"messages": doc.ID}})
	if err != nil {
		// The message is already listed through its conversation_id.
		s.logger.Warn("Failed to link message to conversation",
			zap.String("conversation_id", conv.ID),
			zap.String("message_id", doc.ID),
			zap.Error(err),
		)
	}

	msg := doc.toModel()
	return &msg, nil
}

// upsertConversation finds or creates the pair's conversation. Two racing
// upserts can both miss and insert; the loser hits the unique index and retries
// as a plain match.
func (s *MongoStore) upsertConversation(ctx context.Context, a, b string, now time.Time) (*conversationDoc, error) {
	var conv conversationDoc
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.conversations.FindOneAndUpdate(ctx,
			bson.M{"pair_key": pairKey(a, b)},
			bson.M{
				"$setOnInsert": bson.M{
					"_id":          uuid.New().String(),
					"participants": participants(a, b),
					"messages":     []string{},
				},
				"$set": bson.M{"updated_at": now},
			},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&conv)
		if err == nil {
			return &conv, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			break
		}
	}
	return nil, apperrors.NewStorage("upsert conversation", err)
}

// ListMessages returns the pair's messages oldest first
func (s *MongoStore) ListMessages(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	var conv conversationDoc
	err := s.conversations.FindOne(ctx, bson.M{"pair_key": pairKey(userID, otherID)}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, apperrors.NewStorage("find conversation", err)
	}

	cursor, err := s.messages.Find(ctx,
		bson.M{"conversation_id": conv.ID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, apperrors.NewStorage("find messages", err)
	}
	defer cursor.Close(ctx)

	var docs []messageDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperrors.NewStorage("decode messages", err)
	}

	out := make([]models.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}
