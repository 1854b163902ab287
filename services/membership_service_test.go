package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"rofl/domain"
	"rofl/errors"
	"rofl/mocks"
	"rofl/moderation"
)

func newMembershipService(t *testing.T) (*MembershipService, *mocks.MockIUserRepository, *mocks.MockIChatGateway) {
	t.Helper()
	ctrl := gomock.NewController(t)
	users := mocks.NewMockIUserRepository(ctrl)
	chats := mocks.NewMockIChatGateway(ctrl)
	censor, err := moderation.NewModerator(nil, '*')
	require.NoError(t, err)
	svc := NewMembershipService(users, chats, censor, 4096, logs.GetLoggerFromLevel(slog.LevelDebug))
	return svc, users, chats
}

func memberChat(id string, members ...string) domain.Chat {
	now := time.Now().UTC()
	return domain.Chat{
		ID: id, CreatorID: "alice", Name: "general",
		Members: members, CreatedAt: now, LastMessageAt: now,
	}
}

func TestMembershipService_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("commits user side before chat side", func(t *testing.T) {
		svc, users, chats := newMembershipService(t)
		users.EXPECT().Get(ctx, "bob").Return(domain.User{ID: "bob", DisplayName: "Bob"}, nil)
		chats.EXPECT().Load(ctx, "c1").Return(memberChat("c1", "alice"), nil)
		gomock.InOrder(
			users.EXPECT().AddJoinedChat(ctx, "bob", "c1").Return(nil),
			chats.EXPECT().AddMember(ctx, "c1", "bob").Return(nil),
		)

		require.NoError(t, svc.Join(ctx, "bob", "c1"))
	})

	t.Run("rejects a double join without persisting", func(t *testing.T) {
		svc, users, chats := newMembershipService(t)
		users.EXPECT().Get(ctx, "bob").
			Return(domain.User{ID: "bob", DisplayName: "Bob", JoinedChats: []string{"c1"}}, nil)
		chats.EXPECT().Load(ctx, "c1").Return(memberChat("c1", "alice", "bob"), nil)

		require.ErrorIs(t, svc.Join(ctx, "bob", "c1"), errors.ErrAlreadyMember)
	})

	t.Run("unknown chat surfaces not found", func(t *testing.T) {
		svc, users, chats := newMembershipService(t)
		users.EXPECT().Get(ctx, "bob").Return(domain.User{ID: "bob", DisplayName: "Bob"}, nil)
		chats.EXPECT().Load(ctx, "missing").Return(domain.Chat{}, errors.ErrNotFound)

		require.ErrorIs(t, svc.Join(ctx, "bob", "missing"), errors.ErrNotFound)
	})

	t.Run("chat-side commit failure is never reported as success", func(t *testing.T) {
		svc, users, chats := newMembershipService(t)
		users.EXPECT().Get(ctx, "bob").Return(domain.User{ID: "bob", DisplayName: "Bob"}, nil)
		chats.EXPECT().Load(ctx, "c1").Return(memberChat("c1", "alice"), nil)
		users.EXPECT().AddJoinedChat(ctx, "bob", "c1").Return(nil)
		chats.EXPECT().AddMember(ctx, "c1", "bob").Return(errors.ErrPersistence)

		require.ErrorIs(t, svc.Join(ctx, "bob", "c1"), errors.ErrPersistence)
	})
}

func TestMembershipService_Leave(t *testing.T) {
	ctx := context.Background()

	t.Run("removes both sides", func(t *testing.T) {
		svc, users, chats := newMembershipService(t)
		users.EXPECT().Get(ctx, "bob").
			Return(domain.User{ID: "bob", DisplayName: "Bob", JoinedChats: []string{"c1"}}, nil)
		chats.EXPECT().Load(ctx, "c1").Return(memberChat("c1", "alice", "bob"), nil)
		gomock.InOrder(
			users.EXPECT().RemoveJoinedChat(ctx, "bob", "c1").Return(nil),
			chats.EXPECT().RemoveMember(ctx, "c1", "bob").Return(nil),
		)

		require.NoError(t, svc.Leave(ctx, "bob", "c1"))
	})

	t.Run("leaving a chat never joined changes nothing", func(t *testing.T) {
		svc, users, chats := newMembershipService(t)
		users.EXPECT().Get(ctx, "bob").Return(domain.User{ID: "bob", DisplayName: "Bob"}, nil)
		chats.EXPECT().Load(ctx, "c1").Return(memberChat("c1", "alice"), nil)

		require.ErrorIs(t, svc.Leave(ctx, "bob", "c1"), errors.ErrNotMember)
	})
}

func TestMembershipService_Post(t *testing.T) {
	ctx := context.Background()

	t.Run("membership is decided by the chat, not the user", func(t *testing.T) {
		svc, users, chats := newMembershipService(t)
		// The user-side list claims membership; the chat disagrees and wins.
		users.EXPECT().Get(ctx, "bob").
			Return(domain.User{ID: "bob", DisplayName: "Bob", JoinedChats: []string{"c1"}}, nil)
		chats.EXPECT().Load(ctx, "c1").Return(memberChat("c1", "alice"), nil)

		_, err := svc.Post(ctx, "bob", "c1", "hi")
		require.ErrorIs(t, err, errors.ErrNotMember)
	})

	t.Run("publishes and returns the durable message", func(t *testing.T) {
		req := require.New(t)
		svc, users, chats := newMembershipService(t)
		users.EXPECT().Get(ctx, "bob").Return(domain.User{ID: "bob", DisplayName: "Bob"}, nil)
		chats.EXPECT().Load(ctx, "c1").Return(memberChat("c1", "alice", "bob"), nil)
		chats.EXPECT().AppendMessage(ctx, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ domain.User, msg domain.Message) (domain.Message, error) {
				msg.ID = "evt-1"
				return msg, nil
			})

		msg, err := svc.Post(ctx, "bob", "c1", "hi")
		req.NoError(err)
		req.Equal("evt-1", msg.ID)
		req.Equal("hi", msg.Content)
		req.Equal("c1", msg.ChatID)
	})

	t.Run("empty content fails before any lookup", func(t *testing.T) {
		svc, _, _ := newMembershipService(t)
		_, err := svc.Post(ctx, "bob", "c1", "")
		require.ErrorIs(t, err, errors.ErrValidation)
	})

	t.Run("oversized content is rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		censor, err := moderation.NewModerator(nil, '*')
		require.NoError(t, err)
		svc := NewMembershipService(mocks.NewMockIUserRepository(ctrl),
			mocks.NewMockIChatGateway(ctrl), censor, 4, logs.GetLoggerFromLevel(slog.LevelDebug))

		_, err = svc.Post(ctx, "bob", "c1", "way too long")
		require.ErrorIs(t, err, errors.ErrValidation)
	})
}

func TestMembershipService_CreateChat(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc, users, chats := newMembershipService(t)

	creator := domain.User{ID: "alice", DisplayName: "Alice"}
	created := memberChat("c1")
	created.Members = nil

	users.EXPECT().Get(ctx, "alice").Return(creator, nil).Times(2)
	chats.EXPECT().Create(ctx, creator, "general", "the usual place", "").Return(created, nil)
	chats.EXPECT().Load(ctx, "c1").Return(created, nil)
	gomock.InOrder(
		users.EXPECT().AddJoinedChat(ctx, "alice", "c1").Return(nil),
		chats.EXPECT().AddMember(ctx, "c1", "alice").Return(nil),
	)

	chat, err := svc.CreateChat(ctx, "alice", "general", "the usual place", "")
	req.NoError(err)
	req.Equal("c1", chat.ID)
	req.Contains(chat.Members, "alice")
}
