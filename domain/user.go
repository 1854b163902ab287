package domain

import (
	"fmt"

	"github.com/samber/lo"

	"rofl/errors"
	"rofl/eventlog"
)

// User holds the user-side half of the membership contract: JoinedChats
// contains a chat id iff that chat's member set contains this user. The two
// sides persist independently, so the coordinator upholds the invariant.
type User struct {
	ID          string
	DisplayName string
	Email       string
	// JoinedChats preserves insertion order for deterministic feeds.
	JoinedChats []string
	// Keys is this user's signing identity. Opaque here, never logged.
	Keys eventlog.Keys
}

func NewUser(displayName, id string) (*User, error) {
	if displayName == "" {
		return nil, fmt.Errorf("%w: display name must not be empty", errors.ErrValidation)
	}
	return &User{ID: id, DisplayName: displayName}, nil
}

func (u *User) HasJoined(chatID string) bool {
	return lo.Contains(u.JoinedChats, chatID)
}

func (u *User) JoinChat(chatID string) error {
	if u.HasJoined(chatID) {
		return fmt.Errorf("%w: user %s already joined chat %s", errors.ErrAlreadyMember, u.ID, chatID)
	}
	u.JoinedChats = append(u.JoinedChats, chatID)
	return nil
}

func (u *User) LeaveChat(chatID string) error {
	if !u.HasJoined(chatID) {
		return fmt.Errorf("%w: user %s never joined chat %s", errors.ErrNotMember, u.ID, chatID)
	}
	u.JoinedChats = lo.Without(u.JoinedChats, chatID)
	return nil
}
