package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/modoostudy/roomserver/internal/domain"
	"github.com/modoostudy/roomserver/internal/protocol"
)

const (
	defaultFetchLimit = 20
	defaultHistoryCap = 500
)

// StoredMessage is one chat message kept for history paging.
type StoredMessage struct {
	ID          string
	RoomID      domain.RoomID
	SenderID    domain.UserID
	SenderName  string
	Content     string
	MessageType string
	CreatedAt   time.Time
}

// ChatStore is the narrow seam for chat history. A relational
// implementation would live outside this process; the in-memory store
// below is the default and the only one this server ships.
type ChatStore interface {
	Append(msg StoredMessage)
	// Recent returns one page counted from the newest message backwards
	// (offset 0 = latest page), ordered oldest-first within the page.
	Recent(roomID domain.RoomID, offset, limit int) []StoredMessage
	DropRoom(roomID domain.RoomID)
}

// MemoryChatStore keeps a bounded per-room slice, oldest first.
type MemoryChatStore struct {
	mu     sync.Mutex
	byRoom map[domain.RoomID][]StoredMessage
	cap    int
}

func NewMemoryChatStore(capacity int) *MemoryChatStore {
	if capacity <= 0 {
		capacity = defaultHistoryCap
	}
	return &MemoryChatStore{byRoom: make(map[domain.RoomID][]StoredMessage), cap: capacity}
}

func (s *MemoryChatStore) Append(msg StoredMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := append(s.byRoom[msg.RoomID], msg)
	if len(msgs) > s.cap {
		msgs = msgs[len(msgs)-s.cap:]
	}
	s.byRoom[msg.RoomID] = msgs
}

func (s *MemoryChatStore) Recent(roomID domain.RoomID, offset, limit int) []StoredMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.byRoom[roomID]
	end := len(msgs) - offset
	if end <= 0 {
		return nil
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]StoredMessage, end-start)
	copy(out, msgs[start:end])
	return out
}

func (s *MemoryChatStore) DropRoom(roomID domain.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byRoom, roomID)
}

// SendMessage stores the message and fans it out to the whole room,
// sender included, with the sender's display name resolved from their
// member entry.
func (o *Orchestrator) SendMessage(cid domain.ConnID, p protocol.SendMessage) {
	if !p.Valid() {
		log.Warn().Str("module", "app.chat").Str("conn", string(cid)).Msg("send-message missing roomId or content")
		return
	}
	b, ok := o.Conns.Binding(cid)
	if !ok {
		log.Warn().Str("module", "app.chat").Str("conn", string(cid)).Msg("send-message before join")
		return
	}
	roomID := domain.RoomID(p.RoomID)
	snap, ok := o.Registry.Snapshot(roomID)
	if !ok {
		log.Warn().Str("module", "app.chat").Str("room", p.RoomID).Msg("send-message to unknown room")
		return
	}
	sender, ok := snap.Users[b.UserID]
	if !ok {
		log.Warn().Str("module", "app.chat").Str("room", p.RoomID).Str("user", string(b.UserID)).Msg("send-message from non-member")
		return
	}

	msgType := p.MessageType
	if msgType == "" {
		msgType = "text"
	}
	msg := StoredMessage{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		SenderID:    b.UserID,
		SenderName:  sender.Name,
		Content:     p.Content,
		MessageType: msgType,
		CreatedAt:   time.Now().UTC(),
	}
	if o.Chat != nil {
		o.Chat.Append(msg)
	}
	o.emitRoom(roomID, protocol.EvReceiveMessage, toReceiveMessage(msg))
}

// FetchMessages answers with one page of history, targeted to the
// requesting connection only.
func (o *Orchestrator) FetchMessages(cid domain.ConnID, p protocol.FetchMessages) {
	if p.RoomID == "" || o.Chat == nil {
		return
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultFetchLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	msgs := o.Chat.Recent(domain.RoomID(p.RoomID), offset, limit)
	out := make([]protocol.ReceiveMessage, len(msgs))
	for i, m := range msgs {
		out[i] = toReceiveMessage(m)
	}
	o.sendTo(cid, protocol.EvFetchedMessages, out)
}

// RelayTyping forwards typing start/stop to the rest of the room.
func (o *Orchestrator) RelayTyping(cid domain.ConnID, event string, p protocol.Typing) {
	if !p.Valid() {
		log.Warn().Str("module", "app.chat").Str("conn", string(cid)).Str("event", event).Msg("typing missing roomId or userId")
		return
	}
	o.emitRoomExcept(domain.RoomID(p.RoomID), cid, event, p)
}

func toReceiveMessage(m StoredMessage) protocol.ReceiveMessage {
	return protocol.ReceiveMessage{
		ID:          m.ID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		Content:     m.Content,
		MessageType: m.MessageType,
		CreatedAt:   m.CreatedAt,
	}
}
