package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"rofl/errors"
)

// Chat owns its members and message history. Members and joined users
// reference each other by id only; the coordinator resolves lookups.
type Chat struct {
	ID            string
	CreatorID     string
	Name          string
	Description   string
	Picture       string
	Members       []string
	Messages      []Message
	CreatedAt     time.Time
	LastMessageAt time.Time
}

// NewChat builds an empty chat. The id is assigned by the caller: the
// store-generated key on the document path, the create event's id on the
// replay path. Both are opaque and immutable once set.
func NewChat(creatorID, name, description, picture, id string, at time.Time) (*Chat, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: chat name must not be empty", errors.ErrValidation)
	}
	return &Chat{
		ID:            id,
		CreatorID:     creatorID,
		Name:          name,
		Description:   description,
		Picture:       picture,
		CreatedAt:     at,
		LastMessageAt: at,
	}, nil
}

func (c *Chat) IsMember(userID string) bool {
	return lo.Contains(c.Members, userID)
}

// AddMember registers a user id in the member set.
func (c *Chat) AddMember(userID string) error {
	if c.IsMember(userID) {
		return fmt.Errorf("%w: user %s already in chat %s", errors.ErrAlreadyMember, userID, c.ID)
	}
	c.Members = append(c.Members, userID)
	return nil
}

// RemoveMember fails on a non-member instead of silently succeeding, so a
// desynced user-side list cannot hide behind a no-op.
func (c *Chat) RemoveMember(userID string) error {
	if !c.IsMember(userID) {
		return fmt.Errorf("%w: user %s not in chat %s", errors.ErrNotMember, userID, c.ID)
	}
	c.Members = lo.Without(c.Members, userID)
	return nil
}

// PostMessage appends a message from a current member. It only mutates
// in-memory state; the caller durably publishes what it returns.
func (c *Chat) PostMessage(senderID, content string, at time.Time) (Message, error) {
	if !c.IsMember(senderID) {
		return Message{}, fmt.Errorf("%w: user %s is not in chat %s", errors.ErrNotMember, senderID, c.ID)
	}
	msg := Message{
		ID:       uuid.New().String(),
		ChatID:   c.ID,
		SenderID: senderID,
		Content:  content,
		SentAt:   at,
	}
	c.Messages = append(c.Messages, msg)
	c.SortMessages()
	return msg, nil
}

// SortMessages restores the sent-at ascending order, with the message id as
// a deterministic tiebreak. Replay relies on this after merging events.
func (c *Chat) SortMessages() {
	sort.Slice(c.Messages, func(i, j int) bool {
		if c.Messages[i].SentAt.Equal(c.Messages[j].SentAt) {
			return c.Messages[i].ID < c.Messages[j].ID
		}
		return c.Messages[i].SentAt.Before(c.Messages[j].SentAt)
	})
	if last, ok := c.LatestMessage(); ok && last.SentAt.After(c.LastMessageAt) {
		c.LastMessageAt = last.SentAt
	}
}

// LatestMessage returns the newest message, if any. Messages are kept
// sorted so this stays O(1).
func (c *Chat) LatestMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}
