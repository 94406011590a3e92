package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/modoostudy/roomserver/internal/core"
	"github.com/modoostudy/roomserver/internal/domain"
	"github.com/modoostudy/roomserver/internal/protocol"
)

// Orchestrator coordinates registry mutations and broadcasts for one
// server process. It is injected into the transport adapter; nothing
// here reads from the network.
type Orchestrator struct {
	Registry *core.Registry
	Conns    *ConnTable
	Chat     ChatStore
}

func NewOrchestrator(reg *core.Registry, conns *ConnTable, chat ChatStore) *Orchestrator {
	return &Orchestrator{Registry: reg, Conns: conns, Chat: chat}
}

// OnConnect registers the transport endpoint before any event flows.
func (o *Orchestrator) OnConnect(cid domain.ConnID, s Sender, cancel context.CancelFunc) {
	o.Conns.Bind(cid, s, cancel)
}

// JoinRoom moves the connection to the joined state. A connection that
// was already in another room leaves it first, with the usual
// departure broadcasts. Malformed payloads are logged and dropped.
func (o *Orchestrator) JoinRoom(cid domain.ConnID, p protocol.JoinRoom) {
	if !p.Valid() {
		log.Warn().Str("module", "app.presence").Str("conn", string(cid)).Msg("join-room missing roomId, userId or userName")
		return
	}

	roomID := domain.RoomID(p.RoomID)
	user, err := domain.NewUser(domain.UserID(p.UserID), p.UserName)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.presence").Str("conn", string(cid)).Msg("join-room rejected")
		return
	}
	userID := user.ID

	if b, ok := o.Conns.Binding(cid); ok && b.RoomID != roomID {
		o.leaveCurrentRoom(cid)
	}
	if !o.Conns.SetRoom(cid, roomID, userID) {
		log.Warn().Str("module", "app.presence").Str("conn", string(cid)).Msg("join-room from unknown connection")
		return
	}

	m := o.Registry.AddMember(roomID, userID, cid, user.Name)
	snap, ok := o.Registry.Snapshot(roomID)
	if !ok {
		return
	}

	// Late joiner learns existing members and sharer state first.
	o.sendTo(cid, protocol.EvRoomUsers, snap.Users)
	o.emitRoomExcept(roomID, cid, protocol.EvUserJoined, protocol.UserJoined{
		UserID:       userID,
		UserName:     p.UserName,
		ConnectionID: cid,
		IsSharing:    m.Sharing,
	})
	if snap.Sharer != "" && snap.Sharer != userID {
		o.sendTo(cid, protocol.EvScreenSharingStatus, protocol.SharingBroadcast{
			UserID:    snap.Sharer,
			IsSharing: true,
		})
	}
	log.Info().Str("module", "app.presence").Str("conn", string(cid)).Str("room", p.RoomID).Str("user", p.UserID).Msg("joined room")
}

// LeaveRoom is the explicit leave: same cleanup as a disconnect but the
// connection stays open in the unjoined state.
func (o *Orchestrator) LeaveRoom(cid domain.ConnID) {
	o.leaveCurrentRoom(cid)
}

// OnDisconnect runs the departure flow and drops the connection entry.
// A connection that never joined unbinds silently.
func (o *Orchestrator) OnDisconnect(cid domain.ConnID) {
	o.leaveCurrentRoom(cid)
	o.Conns.Unbind(cid)
}

// leaveCurrentRoom removes the member and emits, in order: the
// sharing-stopped notice (when the departing member held the slot), the
// user-left notice, then the refreshed snapshot unless the room died.
func (o *Orchestrator) leaveCurrentRoom(cid domain.ConnID) {
	b, ok := o.Conns.Binding(cid)
	if !ok {
		return
	}
	o.Conns.ClearRoom(cid)

	res, ok := o.Registry.RemoveMemberConn(b.RoomID, b.UserID, cid)
	if !ok {
		return
	}
	if res.WasSharer {
		o.emitRoom(b.RoomID, protocol.EvScreenSharingStatus, protocol.SharingBroadcast{
			UserID:    b.UserID,
			IsSharing: false,
		})
	}
	o.emitRoom(b.RoomID, protocol.EvUserLeft, protocol.UserLeft{
		UserID:       b.UserID,
		ConnectionID: cid,
	})
	if res.RoomDeleted {
		if o.Chat != nil {
			o.Chat.DropRoom(b.RoomID)
		}
		return
	}
	o.BroadcastRoomUsers(b.RoomID)
}
