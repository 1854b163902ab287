package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"rofl/domain"
	"rofl/errors"
	"rofl/eventlog"
	"rofl/mocks"
)

func newGateway(t *testing.T) (*ChatGateway, *mocks.MockIChatRepository, *mocks.MockClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	chats := mocks.NewMockIChatRepository(ctrl)
	log := mocks.NewMockClient(ctrl)
	return NewChatGateway(chats, log, logs.GetLoggerFromLevel(slog.LevelDebug)), chats, log
}

func testUser(t *testing.T, id string) domain.User {
	t.Helper()
	keys, err := eventlog.NewKeys()
	require.NoError(t, err)
	return domain.User{ID: id, DisplayName: id, Keys: keys}
}

func TestChatGateway_Create_AdoptsEventID(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	gateway, chats, log := newGateway(t)
	alice := testUser(t, "alice")

	var published eventlog.Event
	log.EXPECT().Publish(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, e eventlog.Event) error {
			published = e
			return nil
		})
	chats.EXPECT().Upsert(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, chat domain.Chat) error {
			req.Equal(published.ID, chat.ID)
			return nil
		})

	chat, err := gateway.Create(ctx, alice, "general", "the usual place", "")
	req.NoError(err)
	req.Equal(published.ID, chat.ID)
	req.Equal(eventlog.KindChannelCreate, published.Kind)
	req.Equal("alice", published.SenderID())
	req.NoError(eventlog.Verify(published))
}

func TestChatGateway_Create_EmptyName(t *testing.T) {
	ctx := context.Background()
	gateway, _, _ := newGateway(t)

	_, err := gateway.Create(ctx, testUser(t, "alice"), "", "", "")
	require.ErrorIs(t, err, errors.ErrValidation)
}

func TestChatGateway_Load_PrefersDocument(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	gateway, chats, _ := newGateway(t)

	stored := domain.Chat{ID: "c1", Name: "general", Members: []string{"alice"}}
	chats.EXPECT().Get(ctx, "c1").Return(stored, nil)

	chat, err := gateway.Load(ctx, "c1")
	req.NoError(err)
	req.Equal(stored, chat)
}

func TestChatGateway_Load_FallsBackToReplay(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	gateway, chats, log := newGateway(t)
	alice := testUser(t, "alice")

	meta, err := eventlog.EncodeChannelMeta("general", "", "")
	req.NoError(err)
	create := eventlog.Event{CreatedAt: 50, Kind: eventlog.KindChannelCreate,
		Tags: [][]string{eventlog.SenderTag("alice")}, Content: meta}
	req.NoError(alice.Keys.Sign(&create))

	message := eventlog.Event{CreatedAt: 100, Kind: eventlog.KindChannelMessage,
		Tags: [][]string{eventlog.RootTag(create.ID), eventlog.SenderTag("bob")}, Content: "hi"}
	req.NoError(alice.Keys.Sign(&message))

	chats.EXPECT().Get(ctx, create.ID).
		Return(domain.Chat{}, fmt.Errorf("%w: chat", errors.ErrNotFound))
	log.EXPECT().Query(ctx, eventlog.Filter{Refs: []string{create.ID}}).
		Return([]eventlog.Event{message, create}, nil)

	chat, err := gateway.Load(ctx, create.ID)
	req.NoError(err)
	req.Equal("general", chat.Name)
	// Membership re-derived from the chat's own history.
	req.ElementsMatch([]string{"alice", "bob"}, chat.Members)
	req.Len(chat.Messages, 1)
}

func TestChatGateway_Load_MissingEverywhere(t *testing.T) {
	ctx := context.Background()
	gateway, chats, log := newGateway(t)

	chats.EXPECT().Get(ctx, "ghost").
		Return(domain.Chat{}, fmt.Errorf("%w: chat", errors.ErrNotFound))
	log.EXPECT().Query(ctx, gomock.Any()).Return(nil, nil)

	_, err := gateway.Load(ctx, "ghost")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestChatGateway_AppendMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	gateway, chats, log := newGateway(t)
	bob := testUser(t, "bob")

	draft := domain.Message{
		ID: "provisional", ChatID: "c1", SenderID: "bob",
		Content: "hi", SentAt: time.Unix(100, 0).UTC(),
	}

	var published eventlog.Event
	log.EXPECT().Publish(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, e eventlog.Event) error {
			published = e
			return nil
		})
	chats.EXPECT().AppendMessage(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, msg domain.Message) error {
			req.Equal(published.ID, msg.ID)
			return nil
		})

	msg, err := gateway.AppendMessage(ctx, bob, draft)
	req.NoError(err)
	req.Equal(published.ID, msg.ID)
	req.Equal("hi", published.Content)
	chatID, ok := published.ChatID()
	req.True(ok)
	req.Equal("c1", chatID)
}

func TestChatGateway_AppendMessage_PublishFailureStopsWrite(t *testing.T) {
	ctx := context.Background()
	gateway, _, log := newGateway(t)

	log.EXPECT().Publish(ctx, gomock.Any()).Return(errors.ErrPersistence)

	_, err := gateway.AppendMessage(ctx, testUser(t, "bob"), domain.Message{
		ChatID: "c1", SenderID: "bob", Content: "hi", SentAt: time.Unix(100, 0).UTC(),
	})
	require.ErrorIs(t, err, errors.ErrPersistence)
}
