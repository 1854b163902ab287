package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"rofl/errors"
)

// BadgerLog is a Client backed by a local BadgerDB, acting as the relay for
// single-node deployments and tests.
//
// The key is formatted as "evt:{chat_id}:{timestamp_padded}:{event_id}" to:
//  1. Group every event of one chat under a common prefix for range scans.
//  2. Keep events chronologically sorted via 19-digit zero padding
//     (lexicographical order), with the event id as a collision
//     disconnector when two events share the same second.
type BadgerLog struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerLog(db *badger.DB, log *slog.Logger) *BadgerLog {
	return &BadgerLog{db: db, log: log}
}

func eventKey(chatID string, e Event) []byte {
	return []byte(fmt.Sprintf("evt:%s:%019d:%s", chatID, e.CreatedAt, e.ID))
}

// Publish appends a signed event. Re-publishing the same event id is a
// no-op, which keeps at-least-once producers harmless.
func (b *BadgerLog) Publish(ctx context.Context, e Event) error {
	if err := Verify(e); err != nil {
		return err
	}
	chatID, ok := e.ChatID()
	if !ok {
		// Events outside the channel kinds are filed under their own id.
		chatID = e.ID
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrProtocol, err)
	}
	key := eventKey(chatID, e)
	err = b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			b.log.Debug("duplicate event ignored", "event_id", e.ID)
			return nil
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return nil
}

// Query returns every stored event matching the filter. With Refs set it
// prefix-scans each chat's range; otherwise it walks the whole log.
func (b *BadgerLog) Query(ctx context.Context, f Filter) ([]Event, error) {
	prefixes := lo.Map(f.Refs, func(ref string, _ int) []byte {
		return []byte("evt:" + ref + ":")
	})
	if len(prefixes) == 0 {
		prefixes = [][]byte{[]byte("evt:")}
	}

	var raw [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		for _, prefix := range prefixes {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				err := it.Item().Value(func(val []byte) error {
					raw = append(raw, append([]byte(nil), val...))
					return nil
				})
				if err != nil {
					it.Close()
					return err
				}
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	var events []Event
	for _, data := range raw {
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			b.log.Warn("skipping undecodable event", "error", err)
			continue
		}
		if len(f.Kinds) > 0 && !lo.Contains(f.Kinds, e.Kind) {
			continue
		}
		if len(f.IDs) > 0 && !lo.Contains(f.IDs, e.ID) {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
