package protocol

import (
	"encoding/json"
	"time"

	"github.com/modoostudy/roomserver/internal/domain"
)

// Inbound event names.
const (
	EvJoinRoom                 = "join-room"
	EvLeaveRoom                = "leave-room"
	EvSignal                   = "signal"
	EvOffer                    = "offer"
	EvAnswer                   = "answer"
	EvCandidate                = "candidate"
	EvScreenSharingStatus      = "screen-sharing-status"
	EvRequestScreenShareStatus = "request-screen-share-status"
	EvCameraStatus             = "camera-status"
	EvVoiceStatus              = "voice-status"
	EvSendMessage              = "send-message"
	EvFetchMessages            = "fetch-messages"
	EvUserTyping               = "user-typing"
	EvUserStoppedTyping        = "user-stopped-typing"
)

// Outbound event names.
const (
	EvRoomUsers            = "room-users"
	EvUserJoined           = "user-joined"
	EvUserLeft             = "user-left"
	EvScreenSharingStopped = "screen-sharing-stopped"
	EvScreenShareSync      = "screen-share-status-sync"
	EvReceiveMessage       = "receive-message"
	EvFetchedMessages      = "fetch-messages"
)

// JoinRoom carries the identity a connection binds to. All three fields
// are required; a partial join is dropped without response.
type JoinRoom struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

func (p JoinRoom) Valid() bool {
	return p.RoomID != "" && p.UserID != "" && p.UserName != ""
}

// Signal is the generic negotiation envelope. The payload is opaque:
// the server forwards it without inspection.
type Signal struct {
	RoomID string          `json:"roomId"`
	To     string          `json:"to"`
	Data   json.RawMessage `json:"signal"`
}

func (p Signal) Valid() bool {
	return p.RoomID != "" && p.To != "" && len(p.Data) > 0
}

// SignalOut is the relayed form, tagged with the resolved sender.
type SignalOut struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"signal"`
}

// Negotiation covers offer, answer and candidate. SDP and candidate
// bodies pass through untouched; exactly one of them is set depending
// on the event. From may be omitted by the client, in which case the
// connection's bound identity is used.
type Negotiation struct {
	RoomID    string          `json:"roomId"`
	To        string          `json:"to"`
	From      string          `json:"from,omitempty"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

func (p Negotiation) Valid() bool {
	return p.RoomID != "" && p.To != "" && (len(p.SDP) > 0 || len(p.Candidate) > 0)
}

// SharingStatus toggles the sharer slot. IsSharing is a pointer so a
// missing field can be told apart from an explicit false.
type SharingStatus struct {
	RoomID    string `json:"roomId"`
	IsSharing *bool  `json:"isSharing"`
}

func (p SharingStatus) Valid() bool { return p.RoomID != "" && p.IsSharing != nil }

// MediaToggle is the shared shape of camera-status and voice-status.
type MediaToggle struct {
	RoomID string `json:"roomId"`
	IsOn   *bool  `json:"isOn"`
}

func (p MediaToggle) Valid() bool { return p.RoomID != "" && p.IsOn != nil }

// SyncRequest asks for a targeted sharer-state resync.
type SyncRequest struct {
	RoomID string `json:"roomId"`
}

// UserJoined announces a new member to the rest of the room.
type UserJoined struct {
	UserID       domain.UserID `json:"userId"`
	UserName     string        `json:"userName"`
	ConnectionID domain.ConnID `json:"connectionId"`
	IsSharing    bool          `json:"isSharing"`
}

type UserLeft struct {
	UserID       domain.UserID `json:"userId"`
	ConnectionID domain.ConnID `json:"connectionId"`
}

type SharingBroadcast struct {
	UserID    domain.UserID `json:"userId"`
	IsSharing bool          `json:"isSharing"`
}

// SharingStopped targets the displaced sharer only.
type SharingStopped struct {
	Reason      string        `json:"reason"`
	NewSharerID domain.UserID `json:"newSharerId"`
}

const ReasonNewSharer = "new-sharer"

type StatusSync struct {
	RoomID            domain.RoomID                   `json:"roomId"`
	ScreenShareUserID domain.UserID                   `json:"screenShareUserId"`
	Users             map[domain.UserID]domain.Member `json:"users"`
}

type MediaBroadcast struct {
	UserID domain.UserID `json:"userId"`
	IsOn   bool          `json:"isOn"`
}

// SendMessage posts a chat message to the connection's room.
type SendMessage struct {
	RoomID      string `json:"roomId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType,omitempty"`
}

func (p SendMessage) Valid() bool { return p.RoomID != "" && p.Content != "" }

// FetchMessages pages through recent history, newest window first,
// delivered oldest-first inside the page.
type FetchMessages struct {
	RoomID string `json:"roomId"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// ReceiveMessage is the room-wide fan-out of one chat message.
type ReceiveMessage struct {
	ID          string        `json:"id"`
	SenderID    domain.UserID `json:"senderId"`
	SenderName  string        `json:"senderName"`
	Content     string        `json:"content"`
	MessageType string        `json:"messageType"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Typing mirrors the original protocol: both ids travel in the payload
// and both are required.
type Typing struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

func (p Typing) Valid() bool { return p.RoomID != "" && p.UserID != "" }
