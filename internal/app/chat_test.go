package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modoostudy/roomserver/internal/domain"
	"github.com/modoostudy/roomserver/internal/protocol"
)

func TestSendMessageFansOutToWholeRoom(t *testing.T) {
	o := newTestOrch()
	s1 := join(o, "c1", "g1", "u1", "Alice")
	s2 := join(o, "c2", "g1", "u2", "Bob")
	s1.reset()
	s2.reset()

	o.SendMessage("c1", protocol.SendMessage{RoomID: "g1", Content: "hi"})

	for _, s := range []*fakeSender{s1, s2} {
		var msg protocol.ReceiveMessage
		lastPayload(t, s, protocol.EvReceiveMessage, &msg)
		assert.Equal(t, domain.UserID("u1"), msg.SenderID)
		assert.Equal(t, "Alice", msg.SenderName)
		assert.Equal(t, "hi", msg.Content)
		assert.Equal(t, "text", msg.MessageType)
		assert.NotEmpty(t, msg.ID)
	}
}

func TestSendMessageValidation(t *testing.T) {
	o := newTestOrch()
	s1 := join(o, "c1", "g1", "u1", "Alice")
	s1.reset()

	o.SendMessage("c1", protocol.SendMessage{RoomID: "g1"})          // no content
	o.SendMessage("c1", protocol.SendMessage{Content: "x"})         // no room
	o.SendMessage("c1", protocol.SendMessage{RoomID: "nope", Content: "x"}) // unknown room
	assert.Empty(t, s1.frames)
}

func TestFetchMessagesPagesNewestFirst(t *testing.T) {
	o := newTestOrch()
	s1 := join(o, "c1", "g1", "u1", "Alice")
	for i := 1; i <= 5; i++ {
		o.SendMessage("c1", protocol.SendMessage{RoomID: "g1", Content: fmt.Sprintf("m%d", i)})
	}
	s1.reset()

	o.FetchMessages("c1", protocol.FetchMessages{RoomID: "g1", Limit: 2})
	var page []protocol.ReceiveMessage
	lastPayload(t, s1, protocol.EvFetchedMessages, &page)
	require.Len(t, page, 2)
	assert.Equal(t, "m4", page[0].Content)
	assert.Equal(t, "m5", page[1].Content)

	o.FetchMessages("c1", protocol.FetchMessages{RoomID: "g1", Offset: 2, Limit: 2})
	lastPayload(t, s1, protocol.EvFetchedMessages, &page)
	require.Len(t, page, 2)
	assert.Equal(t, "m2", page[0].Content)
	assert.Equal(t, "m3", page[1].Content)
}

func TestFetchMessagesTargetedOnly(t *testing.T) {
	o := newTestOrch()
	s1 := join(o, "c1", "g1", "u1", "Alice")
	s2 := join(o, "c2", "g1", "u2", "Bob")
	o.SendMessage("c1", protocol.SendMessage{RoomID: "g1", Content: "hi"})
	s1.reset()
	s2.reset()

	o.FetchMessages("c2", protocol.FetchMessages{RoomID: "g1"})
	assert.Empty(t, s1.frames, "history reply goes to requester only")
	assert.NotEmpty(t, s2.frames)
}

func TestTypingRelaySkipsSender(t *testing.T) {
	o := newTestOrch()
	s1 := join(o, "c1", "g1", "u1", "Alice")
	s2 := join(o, "c2", "g1", "u2", "Bob")
	s1.reset()
	s2.reset()

	o.RelayTyping("c1", protocol.EvUserTyping, protocol.Typing{RoomID: "g1", UserID: "u1"})
	var typing protocol.Typing
	lastPayload(t, s2, protocol.EvUserTyping, &typing)
	assert.Equal(t, "u1", typing.UserID)
	assert.Empty(t, s1.frames)

	// Missing userId: dropped, matching the original handler.
	s2.reset()
	o.RelayTyping("c1", protocol.EvUserStoppedTyping, protocol.Typing{RoomID: "g1"})
	assert.Empty(t, s2.frames)
}

func TestMemoryChatStoreBoundsHistory(t *testing.T) {
	s := NewMemoryChatStore(3)
	for i := 1; i <= 5; i++ {
		s.Append(StoredMessage{RoomID: "g1", Content: fmt.Sprintf("m%d", i)})
	}
	msgs := s.Recent("g1", 0, 10)
	require.Len(t, msgs, 3)
	assert.Equal(t, "m3", msgs[0].Content)
	assert.Equal(t, "m5", msgs[2].Content)

	assert.Nil(t, s.Recent("g1", 10, 5), "offset past history yields nothing")
	assert.Nil(t, s.Recent("other", 0, 5))
}

func TestRoomDeletionDropsChatHistory(t *testing.T) {
	o := newTestOrch()
	join(o, "c1", "g1", "u1", "Alice")
	o.SendMessage("c1", protocol.SendMessage{RoomID: "g1", Content: "hi"})
	o.OnDisconnect("c1")

	assert.Empty(t, o.Chat.Recent("g1", 0, 10))
}
