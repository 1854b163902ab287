package eventlog

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"rofl/errors"
)

func openTestLog(t *testing.T) *BadgerLog {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewBadgerLog(db, slog.Default())
}

func signedMessage(t *testing.T, keys Keys, chatID, senderID, content string, at int64) Event {
	t.Helper()
	e := Event{
		CreatedAt: at,
		Kind:      KindChannelMessage,
		Tags:      [][]string{RootTag(chatID), SenderTag(senderID)},
		Content:   content,
	}
	require.NoError(t, keys.Sign(&e))
	return e
}

func TestBadgerLog_PublishAndQuery(t *testing.T) {
	req := require.New(t)
	log := openTestLog(t)
	ctx := context.Background()

	keys, err := NewKeys()
	req.NoError(err)

	e1 := signedMessage(t, keys, "chat-1", "alice", "hi", 100)
	e2 := signedMessage(t, keys, "chat-1", "bob", "hello", 200)
	e3 := signedMessage(t, keys, "chat-2", "clara", "elsewhere", 150)
	for _, e := range []Event{e1, e2, e3} {
		req.NoError(log.Publish(ctx, e))
	}

	got, err := log.Query(ctx, Filter{Refs: []string{"chat-1"}})
	req.NoError(err)
	req.Len(got, 2)
	req.ElementsMatch([]string{e1.ID, e2.ID}, lo.Map(got, func(e Event, _ int) string { return e.ID }))

	all, err := log.Query(ctx, Filter{})
	req.NoError(err)
	req.Len(all, 3)
}

func TestBadgerLog_FilterByKindAndID(t *testing.T) {
	req := require.New(t)
	log := openTestLog(t)
	ctx := context.Background()

	keys, err := NewKeys()
	req.NoError(err)

	meta, err := EncodeChannelMeta("general", "", "")
	req.NoError(err)
	create := Event{CreatedAt: 50, Kind: KindChannelCreate,
		Tags: [][]string{SenderTag("alice")}, Content: meta}
	req.NoError(keys.Sign(&create))
	req.NoError(log.Publish(ctx, create))

	msg := signedMessage(t, keys, create.ID, "alice", "hi", 100)
	req.NoError(log.Publish(ctx, msg))

	creates, err := log.Query(ctx, Filter{Kinds: []int{KindChannelCreate}})
	req.NoError(err)
	req.Len(creates, 1)
	req.Equal(create.ID, creates[0].ID)

	byID, err := log.Query(ctx, Filter{IDs: []string{msg.ID}})
	req.NoError(err)
	req.Len(byID, 1)
	req.Equal("hi", byID[0].Content)

	// Create and message file under the same chat prefix.
	chat, err := log.Query(ctx, Filter{Refs: []string{create.ID}})
	req.NoError(err)
	req.Len(chat, 2)
}

func TestBadgerLog_DuplicatePublishIsIdempotent(t *testing.T) {
	req := require.New(t)
	log := openTestLog(t)
	ctx := context.Background()

	keys, err := NewKeys()
	req.NoError(err)
	e := signedMessage(t, keys, "chat-1", "alice", "hi", 100)

	req.NoError(log.Publish(ctx, e))
	req.NoError(log.Publish(ctx, e))

	got, err := log.Query(ctx, Filter{Refs: []string{"chat-1"}})
	req.NoError(err)
	req.Len(got, 1)
}

func TestBadgerLog_RejectsUnsignedEvents(t *testing.T) {
	req := require.New(t)
	log := openTestLog(t)

	err := log.Publish(context.Background(), Event{
		ID: "forged", Kind: KindChannelMessage, Content: "hi",
	})
	req.ErrorIs(err, errors.ErrProtocol)
}
