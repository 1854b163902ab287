package eventlog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rofl/errors"
)

func TestComputeID_Deterministic(t *testing.T) {
	req := require.New(t)
	e := Event{PubKey: "ab", CreatedAt: 100, Kind: KindChannelMessage,
		Tags: [][]string{RootTag("chat-1")}, Content: "hi"}

	first, err := ComputeID(e)
	req.NoError(err)
	second, err := ComputeID(e)
	req.NoError(err)
	req.Equal(first, second)
	req.Len(first, 64)

	e.Content = "hi!"
	changed, err := ComputeID(e)
	req.NoError(err)
	req.NotEqual(first, changed)
}

func TestSignAndVerify(t *testing.T) {
	req := require.New(t)
	keys, err := NewKeys()
	req.NoError(err)

	e := Event{CreatedAt: 100, Kind: KindChannelMessage,
		Tags: [][]string{RootTag("chat-1"), SenderTag("alice")}, Content: "hi"}
	req.NoError(keys.Sign(&e))
	req.Equal(keys.PublicKeyHex(), e.PubKey)
	req.NoError(Verify(e))

	tampered := e
	tampered.Content = "bye"
	req.ErrorIs(Verify(tampered), errors.ErrProtocol)
}

func TestKeysFromHex_RoundTrip(t *testing.T) {
	req := require.New(t)
	keys, err := NewKeys()
	req.NoError(err)

	restored, err := KeysFromHex(keys.PrivateKeyHex())
	req.NoError(err)
	req.Equal(keys.PublicKeyHex(), restored.PublicKeyHex())

	_, err = KeysFromHex("not hex")
	req.ErrorIs(err, errors.ErrValidation)
}

func TestEvent_ChatID(t *testing.T) {
	req := require.New(t)

	create := Event{ID: "chat-1", Kind: KindChannelCreate}
	id, ok := create.ChatID()
	req.True(ok)
	req.Equal("chat-1", id)

	msg := Event{ID: "m1", Kind: KindChannelMessage, Tags: [][]string{RootTag("chat-1")}}
	id, ok = msg.ChatID()
	req.True(ok)
	req.Equal("chat-1", id)

	orphan := Event{ID: "m2", Kind: KindChannelMessage}
	_, ok = orphan.ChatID()
	req.False(ok)
}

func TestEvent_SenderID(t *testing.T) {
	req := require.New(t)

	tagged := Event{PubKey: "ab", Tags: [][]string{SenderTag("alice")}}
	req.Equal("alice", tagged.SenderID())

	untagged := Event{PubKey: "ab"}
	req.Equal("ab", untagged.SenderID())
}
