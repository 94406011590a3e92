// Package app wires connections to the room registry: presence
// lifecycle, negotiation relay, media-state broadcasts and the chat
// relay all live here.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/modoostudy/roomserver/internal/domain"
)

// Sender is the outbound half of one realtime connection.
// Owned by the adapter; the adapter must Close() it.
type Sender interface {
	TrySend(frame []byte) error
	Close()
}

// connEntry is the per-connection side table entry: transport endpoint
// plus the room/user identity bound by join-room. Keeping this out of
// the transport object makes the mutable state explicit and testable.
type connEntry struct {
	sender Sender
	cancel context.CancelFunc
	roomID domain.RoomID
	userID domain.UserID
}

// Binding is the identity a connection joined with.
type Binding struct {
	RoomID domain.RoomID
	UserID domain.UserID
}

// RoomConn is a fan-out target inside one room.
type RoomConn struct {
	ConnID domain.ConnID
	UserID domain.UserID
	Sender Sender
}

type ConnTable struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewConnTable() *ConnTable {
	return &ConnTable{conns: make(map[domain.ConnID]*connEntry)}
}

func (t *ConnTable) Bind(cid domain.ConnID, s Sender, cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[cid] = &connEntry{sender: s, cancel: cancel}
	log.Info().Str("module", "app.sessions").Str("conn", string(cid)).Msg("bound connection")
}

func (t *ConnTable) Unbind(cid domain.ConnID) {
	t.mu.Lock()
	e, ok := t.conns[cid]
	delete(t.conns, cid)
	t.mu.Unlock()
	if ok && e.cancel != nil {
		e.cancel()
	}
	log.Info().Str("module", "app.sessions").Str("conn", string(cid)).Msg("unbound connection")
}

// SetRoom binds a joined identity onto the connection.
func (t *ConnTable) SetRoom(cid domain.ConnID, roomID domain.RoomID, userID domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.conns[cid]
	if !ok {
		return false
	}
	e.roomID = roomID
	e.userID = userID
	return true
}

// ClearRoom returns the connection to the unjoined state.
func (t *ConnTable) ClearRoom(cid domain.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.conns[cid]; ok {
		e.roomID = ""
		e.userID = ""
	}
}

// Binding reports the joined identity; ok=false when the connection is
// unknown or still unjoined.
func (t *ConnTable) Binding(cid domain.ConnID) (Binding, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.conns[cid]
	if !ok || e.roomID == "" {
		return Binding{}, false
	}
	return Binding{RoomID: e.roomID, UserID: e.userID}, true
}

func (t *ConnTable) Sender(cid domain.ConnID) (Sender, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.conns[cid]
	if !ok {
		return nil, false
	}
	return e.sender, true
}

// InRoom copies the fan-out targets for one room so callers can send
// without holding the table lock.
func (t *ConnTable) InRoom(roomID domain.RoomID) []RoomConn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]RoomConn, 0, len(t.conns))
	for cid, e := range t.conns {
		if e.roomID == roomID {
			out = append(out, RoomConn{ConnID: cid, UserID: e.userID, Sender: e.sender})
		}
	}
	return out
}
