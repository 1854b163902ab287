package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rofl/errors"
)

func TestNewChat(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()

	chat, err := NewChat("alice", "general", "the usual place", "", "chat-1", now)
	req.NoError(err)
	req.Empty(chat.Members)
	req.Empty(chat.Messages)
	req.Equal(now, chat.CreatedAt)
	req.Equal(now, chat.LastMessageAt)

	_, err = NewChat("alice", "", "no name", "", "chat-2", now)
	req.ErrorIs(err, errors.ErrValidation)
}

func TestChat_Membership(t *testing.T) {
	req := require.New(t)
	chat, err := NewChat("alice", "general", "", "", "chat-1", time.Now().UTC())
	req.NoError(err)

	req.NoError(chat.AddMember("alice"))
	req.ErrorIs(chat.AddMember("alice"), errors.ErrAlreadyMember)
	req.True(chat.IsMember("alice"))

	// Removing a non-member fails loudly instead of no-opping.
	req.ErrorIs(chat.RemoveMember("bob"), errors.ErrNotMember)
	req.Equal([]string{"alice"}, chat.Members)

	req.NoError(chat.RemoveMember("alice"))
	req.False(chat.IsMember("alice"))
}

func TestChat_PostMessage(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()
	chat, err := NewChat("alice", "general", "", "", "chat-1", now)
	req.NoError(err)
	req.NoError(chat.AddMember("alice"))

	_, err = chat.PostMessage("mallory", "hi", now.Add(time.Second))
	req.ErrorIs(err, errors.ErrNotMember)
	req.Empty(chat.Messages)

	msg, err := chat.PostMessage("alice", "hi", now.Add(time.Second))
	req.NoError(err)
	req.NotEmpty(msg.ID)
	req.Equal("chat-1", msg.ChatID)
	req.Len(chat.Messages, 1)
	req.Equal(msg.SentAt, chat.LastMessageAt)
}

func TestChat_LatestMessage(t *testing.T) {
	req := require.New(t)
	now := time.Now().UTC()
	chat, err := NewChat("alice", "general", "", "", "chat-1", now)
	req.NoError(err)
	req.NoError(chat.AddMember("alice"))

	_, ok := chat.LatestMessage()
	req.False(ok)

	_, err = chat.PostMessage("alice", "first", now.Add(1*time.Second))
	req.NoError(err)
	_, err = chat.PostMessage("alice", "second", now.Add(2*time.Second))
	req.NoError(err)

	last, ok := chat.LatestMessage()
	req.True(ok)
	req.Equal("second", last.Content)
	req.Equal(last.SentAt, chat.LastMessageAt)
}
