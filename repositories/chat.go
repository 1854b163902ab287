//go:generate go run go.uber.org/mock/mockgen -source=chat.go -destination=../mocks/mock_chat_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rofl/domain"
	"rofl/errors"
)

type IChatRepository interface {
	Upsert(ctx context.Context, chat domain.Chat) error
	Get(ctx context.Context, id string) (domain.Chat, error)
	AddMember(ctx context.Context, chatID, userID string) error
	RemoveMember(ctx context.Context, chatID, userID string) error
	AppendMessage(ctx context.Context, msg domain.Message) error
}

type ChatRepository struct {
	chats *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{chats: db.Collection("chats")}
}

type messageDoc struct {
	UUID    string `bson:"uuid"`
	ChatID  string `bson:"chat_id"`
	Sender  string `bson:"sender"`
	Message string `bson:"message"`
	SentAt  int64  `bson:"sent_at"`
}

type chatDoc struct {
	UUID        string       `bson:"uuid"`
	Creator     string       `bson:"creator"`
	Name        string       `bson:"name"`
	Description string       `bson:"description"`
	Picture     string       `bson:"picture"`
	Members     []string     `bson:"members"`
	Messages    []messageDoc `bson:"messages"`
	CreatedAt   int64        `bson:"created_at"`
	LastMsgAt   int64        `bson:"last_msg_at"`
}

// Upsert materializes the full aggregate, keyed by its uuid.
func (r *ChatRepository) Upsert(ctx context.Context, chat domain.Chat) error {
	doc := fromChat(chat)
	_, err := r.chats.UpdateOne(ctx,
		bson.M{"uuid": chat.ID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}

func (r *ChatRepository) Get(ctx context.Context, id string) (domain.Chat, error) {
	var doc chatDoc
	err := r.chats.FindOne(ctx, bson.M{"uuid": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return domain.Chat{}, fmt.Errorf("%w: chat %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return domain.Chat{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return toChat(doc), nil
}

func (r *ChatRepository) AddMember(ctx context.Context, chatID, userID string) error {
	return r.update(ctx, chatID, bson.M{"$addToSet": bson.M{"members": userID}})
}

func (r *ChatRepository) RemoveMember(ctx context.Context, chatID, userID string) error {
	return r.update(ctx, chatID, bson.M{"$pull": bson.M{"members": userID}})
}

// AppendMessage pushes one message and advances the recency marker in the
// same update, so readers never observe one without the other.
func (r *ChatRepository) AppendMessage(ctx context.Context, msg domain.Message) error {
	return r.update(ctx, msg.ChatID, bson.M{
		"$push": bson.M{"messages": fromMessage(msg)},
		"$set":  bson.M{"last_msg_at": msg.SentAt.UnixNano()},
	})
}

func (r *ChatRepository) update(ctx context.Context, chatID string, update bson.M) error {
	res, err := r.chats.UpdateOne(ctx, bson.M{"uuid": chatID}, update)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: chat %s", errors.ErrNotFound, chatID)
	}
	return nil
}

func fromMessage(m domain.Message) messageDoc {
	return messageDoc{
		UUID:    m.ID,
		ChatID:  m.ChatID,
		Sender:  m.SenderID,
		Message: m.Content,
		SentAt:  m.SentAt.UnixNano(),
	}
}

func fromChat(c domain.Chat) chatDoc {
	return chatDoc{
		UUID:        c.ID,
		Creator:     c.CreatorID,
		Name:        c.Name,
		Description: c.Description,
		Picture:     c.Picture,
		Members:     append([]string{}, c.Members...),
		Messages: lo.Map(c.Messages, func(m domain.Message, _ int) messageDoc {
			return fromMessage(m)
		}),
		CreatedAt: c.CreatedAt.UnixNano(),
		LastMsgAt: c.LastMessageAt.UnixNano(),
	}
}

func toChat(doc chatDoc) domain.Chat {
	chat := domain.Chat{
		ID:            doc.UUID,
		CreatorID:     doc.Creator,
		Name:          doc.Name,
		Description:   doc.Description,
		Picture:       doc.Picture,
		Members:       append([]string(nil), doc.Members...),
		CreatedAt:     time.Unix(0, doc.CreatedAt).UTC(),
		LastMessageAt: time.Unix(0, doc.LastMsgAt).UTC(),
		Messages: lo.Map(doc.Messages, func(m messageDoc, _ int) domain.Message {
			return domain.Message{
				ID:       m.UUID,
				ChatID:   m.ChatID,
				SenderID: m.Sender,
				Content:  m.Message,
				SentAt:   time.Unix(0, m.SentAt).UTC(),
			}
		}),
	}
	chat.SortMessages()
	return chat
}
