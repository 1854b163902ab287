// Package eventlog defines the signed-event model and the append-only log
// boundary. The log is queried by filter, never by direct key lookup, and
// gives no ordering or delivery guarantee beyond "published implies
// eventually queryable".
package eventlog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"rofl/errors"
)

const (
	KindChannelCreate  = 40
	KindChannelMessage = 42
)

// ChannelMeta is the JSON payload of a channel-create event.
type ChannelMeta struct {
	Name    string `json:"name"`
	About   string `json:"about"`
	Picture string `json:"picture"`
}

// Event is an immutable signed record. ID is derived from the content, so
// duplicates across relays collapse naturally.
type Event struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// EncodeChannelMeta serializes the payload of a channel-create event.
func EncodeChannelMeta(name, about, picture string) (string, error) {
	data, err := json.Marshal(ChannelMeta{Name: name, About: about, Picture: picture})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrProtocol, err)
	}
	return string(data), nil
}

// ComputeID hashes the canonical serialization of the event. Sig and ID
// itself are excluded so the id is stable across signing.
func ComputeID(e Event) (string, error) {
	tags := e.Tags
	if tags == nil {
		tags = [][]string{}
	}
	canonical, err := json.Marshal([]any{0, e.PubKey, e.CreatedAt, e.Kind, tags, e.Content})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrProtocol, err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// ChatID resolves which chat an event belongs to: a channel-create event is
// the chat (its id becomes the chat id), a channel-message points at its
// chat through the root "e" tag.
func (e Event) ChatID() (string, bool) {
	switch e.Kind {
	case KindChannelCreate:
		return e.ID, true
	case KindChannelMessage:
		for _, tag := range e.Tags {
			if len(tag) >= 2 && tag[0] == "e" {
				return tag[1], true
			}
		}
	}
	return "", false
}

// RootTag builds the tag linking a message event to its chat.
func RootTag(chatID string) []string {
	return []string{"e", chatID, "", "root"}
}

// SenderTag carries the application-level user id of the author, since the
// signing pubkey alone cannot be resolved back to a user during replay.
func SenderTag(userID string) []string {
	return []string{"u", userID}
}

// SenderID returns the author's user id, falling back to the signing key
// for events published without the tag.
func (e Event) SenderID() string {
	for _, tag := range e.Tags {
		if len(tag) >= 2 && tag[0] == "u" {
			return tag[1]
		}
	}
	return e.PubKey
}
