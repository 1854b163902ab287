// Package projection rebuilds aggregates from observed events.
// It handles ordering, deduplication, and malformed input; it never emits
// events or touches storage.
package projection

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"

	"rofl/domain"
	"rofl/errors"
	"rofl/eventlog"
)

// RebuildChat replays the full event history of one chat into an aggregate.
//
// The replay is deterministic and insensitive to duplication and ordering:
// messages are deduplicated by event id and re-sorted by sent-at before
// LastMessageAt is derived, and the member set is the union of the creator
// and every sender seen. Malformed events are skipped and counted, never
// fatal. The second return value reports how many were dropped.
func RebuildChat(chatID string, events []eventlog.Event) (*domain.Chat, int, error) {
	var chat *domain.Chat
	skipped := 0

	// The single create event seeds the aggregate.
	for _, e := range events {
		if e.Kind != eventlog.KindChannelCreate || e.ID != chatID {
			continue
		}
		var meta eventlog.ChannelMeta
		if err := json.Unmarshal([]byte(e.Content), &meta); err != nil || meta.Name == "" {
			skipped++
			continue
		}
		seeded, err := domain.NewChat(e.SenderID(), meta.Name, meta.About, meta.Picture,
			chatID, time.Unix(e.CreatedAt, 0).UTC())
		if err != nil {
			skipped++
			continue
		}
		chat = seeded
		break
	}
	if chat == nil {
		return nil, skipped, fmt.Errorf("%w: no create event for chat %s", errors.ErrNotFound, chatID)
	}

	seen := map[string]bool{}
	for _, e := range events {
		if e.Kind != eventlog.KindChannelMessage {
			continue
		}
		ref, ok := e.ChatID()
		if !ok || ref != chatID {
			skipped++
			continue
		}
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		chat.Messages = append(chat.Messages, domain.Message{
			ID:       e.ID,
			ChatID:   chatID,
			SenderID: e.SenderID(),
			Content:  e.Content,
			SentAt:   time.Unix(e.CreatedAt, 0).UTC(),
		})
	}

	// Sort before deriving members so the member order is stable under any
	// permutation of the input.
	chat.SortMessages()
	senders := lo.Map(chat.Messages, func(m domain.Message, _ int) string {
		return m.SenderID
	})
	chat.Members = lo.Uniq(append([]string{chat.CreatorID}, senders...))
	return chat, skipped, nil
}
