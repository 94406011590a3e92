// Package core owns the in-memory room registry. It never touches
// transport resources; adapters own and close connections.
package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/modoostudy/roomserver/internal/domain"
)

// roomState is one room's membership plus the exclusive sharer slot.
// Invariant: sharer is either empty or a key of members.
type roomState struct {
	members map[domain.UserID]*domain.Member
	sharer  domain.UserID
}

// Registry is the process-wide room state. All mutation goes through one
// mutex; handlers run on many goroutines so per-operation locking is
// required. Nothing here blocks on I/O.
type Registry struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*roomState
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*roomState)}
}

// RemoveResult reports what a member removal changed, so the caller can
// order its broadcasts accordingly.
type RemoveResult struct {
	ConnID      domain.ConnID
	WasSharer   bool
	RoomDeleted bool
}

// SharerChange reports a sharer-slot mutation. When a different member
// held the slot, Displaced carries their identity so the caller can
// notify that one connection before any room-wide broadcast.
type SharerChange struct {
	Displaced     bool
	DisplacedUser domain.UserID
	DisplacedConn domain.ConnID
}

// Snapshot is a copy of one room's state, safe to marshal after the
// registry lock is released.
type Snapshot struct {
	Users  map[domain.UserID]domain.Member
	Sharer domain.UserID
}

// RoomInfo is a read-only view for the inspection API.
type RoomInfo struct {
	ID          domain.RoomID `json:"roomId"`
	MemberCount int           `json:"memberCount"`
	Sharing     bool          `json:"sharing"`
}

func (r *Registry) ensureRoom(id domain.RoomID) *roomState {
	room, ok := r.rooms[id]
	if !ok {
		room = &roomState{members: make(map[domain.UserID]*domain.Member)}
		r.rooms[id] = room
		log.Info().Str("module", "core.registry").Str("room", string(id)).Msg("room created")
	}
	return room
}

// EnsureRoom creates an empty room if it does not exist yet.
func (r *Registry) EnsureRoom(id domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureRoom(id)
}

// AddMember inserts or overwrites the member entry. A returning sharer
// (same user id as the room's sharer slot, e.g. after a reconnect) keeps
// their sharing flag. Returns a copy of the stored member.
func (r *Registry) AddMember(roomID domain.RoomID, userID domain.UserID, connID domain.ConnID, name string) domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.ensureRoom(roomID)
	// Overwrite resets camera and voice to off; only the sharer slot
	// carries over to a returning sharer.
	m := domain.NewMember(connID, name)
	m.Sharing = room.sharer == userID
	room.members[userID] = m
	log.Info().Str("module", "core.registry").Str("room", string(roomID)).Str("user", string(userID)).Str("conn", string(connID)).Msg("member added")
	return *m
}

// RemoveMember deletes the member. If they held the sharer slot it is
// cleared; if the room becomes empty the room itself is deleted.
// Unknown room or member is a no-op with ok=false.
func (r *Registry) RemoveMember(roomID domain.RoomID, userID domain.UserID) (RemoveResult, bool) {
	return r.remove(roomID, userID, "")
}

// RemoveMemberConn removes the member only while connID is still their
// current connection. A disconnect detected late, after the user
// already rejoined on a fresh connection, must not evict the live
// member entry.
func (r *Registry) RemoveMemberConn(roomID domain.RoomID, userID domain.UserID, connID domain.ConnID) (RemoveResult, bool) {
	return r.remove(roomID, userID, connID)
}

func (r *Registry) remove(roomID domain.RoomID, userID domain.UserID, connID domain.ConnID) (RemoveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return RemoveResult{}, false
	}
	m, ok := room.members[userID]
	if !ok {
		return RemoveResult{}, false
	}
	if connID != "" && m.ConnID != connID {
		log.Info().Str("module", "core.registry").Str("room", string(roomID)).Str("user", string(userID)).Str("conn", string(connID)).Msg("stale removal skipped, member reconnected")
		return RemoveResult{}, false
	}

	res := RemoveResult{ConnID: m.ConnID}
	delete(room.members, userID)
	if room.sharer == userID {
		room.sharer = ""
		res.WasSharer = true
	}
	if len(room.members) == 0 {
		delete(r.rooms, roomID)
		res.RoomDeleted = true
		log.Info().Str("module", "core.registry").Str("room", string(roomID)).Msg("room empty, deleted")
	}
	log.Info().Str("module", "core.registry").Str("room", string(roomID)).Str("user", string(userID)).Msg("member removed")
	return res, true
}

// SetSharer claims or releases the room's exclusive sharer slot.
// Claiming displaces any current holder: their flag is cleared and their
// identity is reported back. Releasing only clears the slot when the
// caller actually holds it, but always clears the caller's own flag.
func (r *Registry) SetSharer(roomID domain.RoomID, userID domain.UserID, sharing bool) (SharerChange, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return SharerChange{}, false
	}
	m, ok := room.members[userID]
	if !ok {
		return SharerChange{}, false
	}

	var change SharerChange
	if sharing {
		if room.sharer != "" && room.sharer != userID {
			if prev, ok := room.members[room.sharer]; ok {
				prev.Sharing = false
				change = SharerChange{
					Displaced:     true,
					DisplacedUser: room.sharer,
					DisplacedConn: prev.ConnID,
				}
			}
		}
		room.sharer = userID
		m.Sharing = true
	} else {
		if room.sharer == userID {
			room.sharer = ""
		}
		m.Sharing = false
	}
	log.Info().Str("module", "core.registry").Str("room", string(roomID)).Str("user", string(userID)).Bool("sharing", sharing).Msg("sharer slot updated")
	return change, true
}

// SetCamera updates the member's camera flag.
func (r *Registry) SetCamera(roomID domain.RoomID, userID domain.UserID, on bool) bool {
	return r.setFlag(roomID, userID, func(m *domain.Member) { m.CameraOn = on })
}

// SetVoice updates the member's voice flag.
func (r *Registry) SetVoice(roomID domain.RoomID, userID domain.UserID, on bool) bool {
	return r.setFlag(roomID, userID, func(m *domain.Member) { m.VoiceOn = on })
}

func (r *Registry) setFlag(roomID domain.RoomID, userID domain.UserID, set func(*domain.Member)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	m, ok := room.members[userID]
	if !ok {
		return false
	}
	set(m)
	return true
}

// Snapshot copies the full member mapping and the sharer slot.
func (r *Registry) Snapshot(roomID domain.RoomID) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return Snapshot{}, false
	}
	users := make(map[domain.UserID]domain.Member, len(room.members))
	for id, m := range room.members {
		users[id] = *m
	}
	return Snapshot{Users: users, Sharer: room.sharer}, true
}

// Rooms lists all live rooms for the inspection API.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, RoomInfo{
			ID:          id,
			MemberCount: len(room.members),
			Sharing:     room.sharer != "",
		})
	}
	return out
}
