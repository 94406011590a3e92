package app

import (
	"github.com/rs/zerolog/log"

	"github.com/modoostudy/roomserver/internal/domain"
	"github.com/modoostudy/roomserver/internal/protocol"
)

// Emission helpers. Targets are copied out of the connection table
// before sending, so no lock is held while writing. Delivery is
// fire-and-forget: a full send buffer drops the frame for that one
// connection and is logged, never retried.

func (o *Orchestrator) sendTo(cid domain.ConnID, event string, payload any) {
	s, ok := o.Conns.Sender(cid)
	if !ok {
		log.Warn().Str("module", "app.broadcast").Str("conn", string(cid)).Str("event", event).Msg("send target gone")
		return
	}
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("event", event).Msg("encode failed")
		return
	}
	if err := s.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.broadcast").Str("conn", string(cid)).Str("event", event).Msg("send dropped")
	}
}

func (o *Orchestrator) emitRoom(roomID domain.RoomID, event string, payload any) {
	o.emitRoomExcept(roomID, "", event, payload)
}

func (o *Orchestrator) emitRoomExcept(roomID domain.RoomID, except domain.ConnID, event string, payload any) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("event", event).Msg("encode failed")
		return
	}
	for _, target := range o.Conns.InRoom(roomID) {
		if target.ConnID == except {
			continue
		}
		if err := target.Sender.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.broadcast").Str("conn", string(target.ConnID)).Str("event", event).Msg("broadcast dropped")
		}
	}
}

// BroadcastRoomUsers pushes the full member snapshot to everyone in the
// room.
func (o *Orchestrator) BroadcastRoomUsers(roomID domain.RoomID) {
	snap, ok := o.Registry.Snapshot(roomID)
	if !ok {
		return
	}
	o.emitRoom(roomID, protocol.EvRoomUsers, snap.Users)
}

// SetSharing claims or releases the sharer slot for the connection's
// bound user. Emission order is fixed: displaced notice first, then the
// room-wide status change, then the refreshed snapshot.
func (o *Orchestrator) SetSharing(cid domain.ConnID, p protocol.SharingStatus) {
	if !p.Valid() {
		log.Warn().Str("module", "app.broadcast").Str("conn", string(cid)).Msg("screen-sharing-status missing roomId or isSharing")
		return
	}
	b, ok := o.Conns.Binding(cid)
	if !ok {
		log.Warn().Str("module", "app.broadcast").Str("conn", string(cid)).Msg("screen-sharing-status before join")
		return
	}
	roomID := domain.RoomID(p.RoomID)

	change, ok := o.Registry.SetSharer(roomID, b.UserID, *p.IsSharing)
	if !ok {
		log.Warn().Str("module", "app.broadcast").Str("room", p.RoomID).Str("user", string(b.UserID)).Msg("sharer update for unknown room or member")
		return
	}
	if change.Displaced {
		o.sendTo(change.DisplacedConn, protocol.EvScreenSharingStopped, protocol.SharingStopped{
			Reason:      protocol.ReasonNewSharer,
			NewSharerID: b.UserID,
		})
	}
	o.emitRoom(roomID, protocol.EvScreenSharingStatus, protocol.SharingBroadcast{
		UserID:    b.UserID,
		IsSharing: *p.IsSharing,
	})
	o.BroadcastRoomUsers(roomID)
}

// SyncSharingStatus answers a resync request with a targeted snapshot.
func (o *Orchestrator) SyncSharingStatus(cid domain.ConnID, p protocol.SyncRequest) {
	if p.RoomID == "" {
		log.Warn().Str("module", "app.broadcast").Str("conn", string(cid)).Msg("sync request missing roomId")
		return
	}
	roomID := domain.RoomID(p.RoomID)
	snap, ok := o.Registry.Snapshot(roomID)
	if !ok {
		log.Warn().Str("module", "app.broadcast").Str("room", p.RoomID).Msg("sync request for unknown room")
		return
	}
	o.sendTo(cid, protocol.EvScreenShareSync, protocol.StatusSync{
		RoomID:            roomID,
		ScreenShareUserID: snap.Sharer,
		Users:             snap.Users,
	})
}

// SetCamera updates the camera flag and notifies the rest of the room,
// followed by a refreshed snapshot for everyone.
func (o *Orchestrator) SetCamera(cid domain.ConnID, p protocol.MediaToggle) {
	o.setMedia(cid, p, protocol.EvCameraStatus, o.Registry.SetCamera)
}

// SetVoice is camera-status's sibling for the voice flag.
func (o *Orchestrator) SetVoice(cid domain.ConnID, p protocol.MediaToggle) {
	o.setMedia(cid, p, protocol.EvVoiceStatus, o.Registry.SetVoice)
}

func (o *Orchestrator) setMedia(cid domain.ConnID, p protocol.MediaToggle, event string, set func(domain.RoomID, domain.UserID, bool) bool) {
	if !p.Valid() {
		log.Warn().Str("module", "app.broadcast").Str("conn", string(cid)).Str("event", event).Msg("toggle missing roomId or isOn")
		return
	}
	b, ok := o.Conns.Binding(cid)
	if !ok {
		log.Warn().Str("module", "app.broadcast").Str("conn", string(cid)).Str("event", event).Msg("toggle before join")
		return
	}
	roomID := domain.RoomID(p.RoomID)
	if !set(roomID, b.UserID, *p.IsOn) {
		log.Warn().Str("module", "app.broadcast").Str("room", p.RoomID).Str("user", string(b.UserID)).Str("event", event).Msg("toggle for unknown room or member")
		return
	}
	o.emitRoomExcept(roomID, cid, event, protocol.MediaBroadcast{UserID: b.UserID, IsOn: *p.IsOn})
	o.BroadcastRoomUsers(roomID)
}
