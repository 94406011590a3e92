package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modoostudy/roomserver/internal/domain"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := Decode([]byte(`{"event":"join-room","data":{"roomId":"g1","userId":"u1","userName":"Alice"}}`))
	require.NoError(t, err)
	assert.Equal(t, EvJoinRoom, env.Event)

	var p JoinRoom
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.True(t, p.Valid())
}

func TestDecodeRejectsBadJSON(t *testing.T) {
	_, err := Decode([]byte(`{"event":`))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	frame, err := Encode(EvUserLeft, UserLeft{UserID: "u1", ConnectionID: "c1"})
	require.NoError(t, err)

	env, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, EvUserLeft, env.Event)

	var p UserLeft
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, domain.UserID("u1"), p.UserID)
	assert.Equal(t, domain.ConnID("c1"), p.ConnectionID)
}

func TestPayloadValidation(t *testing.T) {
	assert.False(t, JoinRoom{RoomID: "g1", UserID: "u1"}.Valid())
	assert.False(t, Signal{RoomID: "g1", To: "u2"}.Valid())
	assert.True(t, Signal{RoomID: "g1", To: "u2", Data: json.RawMessage(`{}`)}.Valid())

	assert.False(t, Negotiation{RoomID: "g1", To: "u2"}.Valid())
	assert.True(t, Negotiation{RoomID: "g1", To: "u2", SDP: json.RawMessage(`"s"`)}.Valid())
	assert.True(t, Negotiation{RoomID: "g1", To: "u2", Candidate: json.RawMessage(`{}`)}.Valid())

	assert.False(t, SharingStatus{RoomID: "g1"}.Valid(), "missing isSharing is not false")
	off := false
	assert.True(t, SharingStatus{RoomID: "g1", IsSharing: &off}.Valid())

	assert.False(t, MediaToggle{RoomID: "g1"}.Valid())
	assert.False(t, Typing{RoomID: "g1"}.Valid())
	assert.False(t, SendMessage{RoomID: "g1"}.Valid())
}
