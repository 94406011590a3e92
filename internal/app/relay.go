package app

import (
	"github.com/rs/zerolog/log"

	"github.com/modoostudy/roomserver/internal/domain"
	"github.com/modoostudy/roomserver/internal/protocol"
)

// Negotiation relay. All four message types are forwarded strictly
// point-to-point to the target user's connection; SDP and ICE payloads
// are per-peer-pair and must not reach uninvolved members. Payload
// bytes pass through uninspected. Loss is tolerated; peers renegotiate.

// RelaySignal forwards a generic signal envelope, tagged with the
// connection's bound identity as sender.
func (o *Orchestrator) RelaySignal(cid domain.ConnID, p protocol.Signal) {
	b, ok := o.Conns.Binding(cid)
	if !ok || !p.Valid() {
		log.Warn().Str("module", "app.relay").Str("conn", string(cid)).Msg("signal missing roomId, to, from or signal")
		return
	}
	target, ok := o.targetConn(domain.RoomID(p.RoomID), domain.UserID(p.To))
	if !ok {
		log.Warn().Str("module", "app.relay").Str("room", p.RoomID).Str("to", p.To).Msg("signal target not in room")
		return
	}
	o.sendTo(target, protocol.EvSignal, protocol.SignalOut{
		From: string(b.UserID),
		To:   p.To,
		Data: p.Data,
	})
}

// RelayNegotiation forwards offer, answer and candidate frames. The
// sender field defaults to the connection's bound identity when the
// client leaves it out.
func (o *Orchestrator) RelayNegotiation(cid domain.ConnID, event string, p protocol.Negotiation) {
	if !p.Valid() {
		log.Warn().Str("module", "app.relay").Str("conn", string(cid)).Str("event", event).Msg("negotiation missing roomId, to or payload")
		return
	}
	if p.From == "" {
		b, ok := o.Conns.Binding(cid)
		if !ok {
			log.Warn().Str("module", "app.relay").Str("conn", string(cid)).Str("event", event).Msg("negotiation before join")
			return
		}
		p.From = string(b.UserID)
	}
	target, ok := o.targetConn(domain.RoomID(p.RoomID), domain.UserID(p.To))
	if !ok {
		log.Warn().Str("module", "app.relay").Str("room", p.RoomID).Str("to", p.To).Str("event", event).Msg("negotiation target not in room")
		return
	}
	o.sendTo(target, event, p)
}

// targetConn resolves a room-scoped user to their current connection.
func (o *Orchestrator) targetConn(roomID domain.RoomID, userID domain.UserID) (domain.ConnID, bool) {
	snap, ok := o.Registry.Snapshot(roomID)
	if !ok {
		return "", false
	}
	m, ok := snap.Users[userID]
	if !ok {
		return "", false
	}
	return m.ConnID, true
}
