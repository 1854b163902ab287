//go:generate go run go.uber.org/mock/mockgen -source=gateway.go -destination=../mocks/mock_chat_gateway.go -package=mocks
package repositories

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"time"

	"rofl/domain"
	"rofl/errors"
	"rofl/eventlog"
	"rofl/projection"
)

// IChatGateway is the single persistence boundary for chat aggregates,
// whether the state comes from the document store or from event replay.
type IChatGateway interface {
	Create(ctx context.Context, creator domain.User, name, description, picture string) (domain.Chat, error)
	Load(ctx context.Context, chatID string) (domain.Chat, error)
	AddMember(ctx context.Context, chatID, userID string) error
	RemoveMember(ctx context.Context, chatID, userID string) error
	AppendMessage(ctx context.Context, sender domain.User, msg domain.Message) (domain.Message, error)
}

// ChatGateway writes through to both backends: every create/post publishes
// its event to the log first, then materializes into the document store.
// Reads prefer the materialized document and fall back to replaying the
// chat's event history, which makes the chat side authoritative for
// membership when the two disagree.
type ChatGateway struct {
	chats IChatRepository
	log   eventlog.Client
	out   *slog.Logger
}

func NewChatGateway(chats IChatRepository, log eventlog.Client, out *slog.Logger) *ChatGateway {
	return &ChatGateway{chats: chats, log: log, out: out}
}

// Create publishes the channel-create event and adopts its id as the chat
// id, so both backends agree on the key from the start.
func (g *ChatGateway) Create(ctx context.Context, creator domain.User, name, description, picture string) (domain.Chat, error) {
	meta, err := eventlog.EncodeChannelMeta(name, description, picture)
	if err != nil {
		return domain.Chat{}, err
	}
	event := eventlog.Event{
		CreatedAt: time.Now().Unix(),
		Kind:      eventlog.KindChannelCreate,
		Tags:      [][]string{eventlog.SenderTag(creator.ID)},
		Content:   meta,
	}
	if err := creator.Keys.Sign(&event); err != nil {
		return domain.Chat{}, err
	}

	chat, err := domain.NewChat(creator.ID, name, description, picture,
		event.ID, time.Unix(event.CreatedAt, 0).UTC())
	if err != nil {
		return domain.Chat{}, err
	}

	if err := g.log.Publish(ctx, event); err != nil {
		return domain.Chat{}, fmt.Errorf("publishing create event: %w", err)
	}
	if err := g.chats.Upsert(ctx, *chat); err != nil {
		return domain.Chat{}, err
	}
	return *chat, nil
}

// Load reads the materialized document, replaying the event history when
// the document is missing.
func (g *ChatGateway) Load(ctx context.Context, chatID string) (domain.Chat, error) {
	chat, err := g.chats.Get(ctx, chatID)
	if err == nil {
		return chat, nil
	}
	if !isNotFound(err) {
		return domain.Chat{}, err
	}

	events, err := g.log.Query(ctx, eventlog.Filter{Refs: []string{chatID}})
	if err != nil {
		return domain.Chat{}, err
	}
	rebuilt, skipped, err := projection.RebuildChat(chatID, events)
	if err != nil {
		return domain.Chat{}, err
	}
	g.out.Info("chat rebuilt from event log", "chat_id", chatID,
		"events", len(events), "skipped", skipped)
	return *rebuilt, nil
}

// Membership writes touch the document store only; the replay path
// re-derives members from the chat's own history.
func (g *ChatGateway) AddMember(ctx context.Context, chatID, userID string) error {
	return g.chats.AddMember(ctx, chatID, userID)
}

func (g *ChatGateway) RemoveMember(ctx context.Context, chatID, userID string) error {
	return g.chats.RemoveMember(ctx, chatID, userID)
}

// AppendMessage publishes the channel-message event and materializes it.
// The event id replaces the provisional message id so both backends
// deduplicate on the same key.
func (g *ChatGateway) AppendMessage(ctx context.Context, sender domain.User, msg domain.Message) (domain.Message, error) {
	event := eventlog.Event{
		CreatedAt: msg.SentAt.Unix(),
		Kind:      eventlog.KindChannelMessage,
		Tags:      [][]string{eventlog.RootTag(msg.ChatID), eventlog.SenderTag(sender.ID)},
		Content:   msg.Content,
	}
	if err := sender.Keys.Sign(&event); err != nil {
		return domain.Message{}, err
	}
	if err := g.log.Publish(ctx, event); err != nil {
		return domain.Message{}, fmt.Errorf("publishing message event: %w", err)
	}

	msg.ID = event.ID
	if err := g.chats.AppendMessage(ctx, msg); err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func isNotFound(err error) bool {
	return goerrors.Is(err, errors.ErrNotFound)
}
