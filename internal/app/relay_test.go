package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modoostudy/roomserver/internal/protocol"
)

func TestRelaySignalIsPointToPoint(t *testing.T) {
	o := newTestOrch()
	s1 := join(o, "c1", "g1", "u1", "Alice")
	s2 := join(o, "c2", "g1", "u2", "Bob")
	s3 := join(o, "c3", "g1", "u3", "Carol")
	s1.reset()
	s2.reset()
	s3.reset()

	o.RelaySignal("c1", protocol.Signal{
		RoomID: "g1",
		To:     "u2",
		Data:   json.RawMessage(`{"sdp":"x"}`),
	})

	var out protocol.SignalOut
	lastPayload(t, s2, protocol.EvSignal, &out)
	assert.Equal(t, "u1", out.From)
	assert.Equal(t, "u2", out.To)
	assert.JSONEq(t, `{"sdp":"x"}`, string(out.Data))

	assert.Empty(t, s1.frames, "sender gets no echo")
	assert.Empty(t, s3.frames, "negotiation must not leak to uninvolved peers")
}

func TestRelaySignalMissingFieldsDropped(t *testing.T) {
	o := newTestOrch()
	s1 := join(o, "c1", "g1", "u1", "Alice")
	s2 := join(o, "c2", "g1", "u2", "Bob")
	s1.reset()
	s2.reset()

	o.RelaySignal("c1", protocol.Signal{RoomID: "g1", To: "u2"}) // no payload
	o.RelaySignal("c1", protocol.Signal{To: "u2", Data: json.RawMessage(`{}`)})
	assert.Empty(t, s2.frames)
}

func TestRelaySignalBeforeJoinDropped(t *testing.T) {
	o := newTestOrch()
	s := &fakeSender{}
	o.OnConnect("c1", s, nil)
	s2 := join(o, "c2", "g1", "u2", "Bob")
	s2.reset()

	o.RelaySignal("c1", protocol.Signal{
		RoomID: "g1",
		To:     "u2",
		Data:   json.RawMessage(`{}`),
	})
	assert.Empty(t, s2.frames, "unjoined connection has no sender identity")
}

func TestRelayNegotiationFillsFrom(t *testing.T) {
	o := newTestOrch()
	join(o, "c1", "g1", "u1", "Alice")
	s2 := join(o, "c2", "g1", "u2", "Bob")
	s2.reset()

	o.RelayNegotiation("c1", protocol.EvOffer, protocol.Negotiation{
		RoomID: "g1",
		To:     "u2",
		SDP:    json.RawMessage(`"offer-sdp"`),
	})

	var out protocol.Negotiation
	lastPayload(t, s2, protocol.EvOffer, &out)
	assert.Equal(t, "u1", out.From)
	assert.JSONEq(t, `"offer-sdp"`, string(out.SDP))
}

func TestRelayNegotiationExplicitFromWins(t *testing.T) {
	o := newTestOrch()
	join(o, "c1", "g1", "u1", "Alice")
	s2 := join(o, "c2", "g1", "u2", "Bob")
	s2.reset()

	o.RelayNegotiation("c1", protocol.EvCandidate, protocol.Negotiation{
		RoomID:    "g1",
		To:        "u2",
		From:      "proxy",
		Candidate: json.RawMessage(`{"candidate":"c"}`),
	})

	var out protocol.Negotiation
	lastPayload(t, s2, protocol.EvCandidate, &out)
	assert.Equal(t, "proxy", out.From)
}

func TestRelayNegotiationUnknownTargetDropped(t *testing.T) {
	o := newTestOrch()
	s1 := join(o, "c1", "g1", "u1", "Alice")
	s1.reset()

	o.RelayNegotiation("c1", protocol.EvAnswer, protocol.Negotiation{
		RoomID: "g1",
		To:     "ghost",
		SDP:    json.RawMessage(`"sdp"`),
	})
	assert.Empty(t, s1.frames)
}
