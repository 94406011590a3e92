package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/modoostudy/roomserver/internal/domain"
	"github.com/modoostudy/roomserver/internal/protocol"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(ctl.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "ws").Msg("writePump ping error")
				return
			}
		case frame, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump drives the connection lifecycle: on exit the member is
// removed from their room and the transport is closed. Pong deadlines
// are what eventually detect a dead peer.
func (ctl *Controller) readPump(ctx context.Context, cid domain.ConnID, c *Conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(cid)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(cid)
		ctl.Limiter.Forget(cid)
		c.Close()
	}()

	if ctl.readLimit > 0 {
		c.conn.SetReadLimit(ctl.readLimit)
	}
	pongWait := ctl.pingPeriod + writeWait
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("conn", string(cid)).Msg("readPump ctx done")
			return
		default:
			_, frame, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "ws").Str("conn", string(cid)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(cid, frame)
		}
	}
}

// dispatch decodes the envelope and routes to the orchestrator. Every
// malformed payload is logged and dropped; the protocol defines no
// error response on this path.
func (ctl *Controller) dispatch(cid domain.ConnID, frame []byte) {
	env, err := protocol.Decode(frame)
	if err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(cid)).Msg("bad envelope")
		return
	}

	switch env.Event {
	case protocol.EvJoinRoom:
		if !ctl.Limiter.Allow(cid) {
			log.Warn().Str("module", "ws").Str("conn", string(cid)).Msg("join-room rate limited")
			return
		}
		var p protocol.JoinRoom
		if !decodeInto(cid, env, &p) {
			return
		}
		ctl.Orch.JoinRoom(cid, p)
	case protocol.EvLeaveRoom:
		ctl.Orch.LeaveRoom(cid)
	case protocol.EvSignal:
		var p protocol.Signal
		if !decodeInto(cid, env, &p) {
			return
		}
		ctl.Orch.RelaySignal(cid, p)
	case protocol.EvOffer, protocol.EvAnswer, protocol.EvCandidate:
		var p protocol.Negotiation
		if !decodeInto(cid, env, &p) {
			return
		}
		ctl.Orch.RelayNegotiation(cid, env.Event, p)
	case protocol.EvScreenSharingStatus:
		var p protocol.SharingStatus
		if !decodeInto(cid, env, &p) {
			return
		}
		ctl.Orch.SetSharing(cid, p)
	case protocol.EvRequestScreenShareStatus:
		var p protocol.SyncRequest
		if !decodeInto(cid, env, &p) {
			return
		}
		ctl.Orch.SyncSharingStatus(cid, p)
	case protocol.EvCameraStatus:
		var p protocol.MediaToggle
		if !decodeInto(cid, env, &p) {
			return
		}
		ctl.Orch.SetCamera(cid, p)
	case protocol.EvVoiceStatus:
		var p protocol.MediaToggle
		if !decodeInto(cid, env, &p) {
			return
		}
		ctl.Orch.SetVoice(cid, p)
	case protocol.EvSendMessage:
		var p protocol.SendMessage
		if !decodeInto(cid, env, &p) {
			return
		}
		ctl.Orch.SendMessage(cid, p)
	case protocol.EvFetchMessages:
		var p protocol.FetchMessages
		if !decodeInto(cid, env, &p) {
			return
		}
		ctl.Orch.FetchMessages(cid, p)
	case protocol.EvUserTyping, protocol.EvUserStoppedTyping:
		var p protocol.Typing
		if !decodeInto(cid, env, &p) {
			return
		}
		ctl.Orch.RelayTyping(cid, env.Event, p)
	default:
		log.Warn().Str("module", "ws").Str("event", env.Event).Msg("unknown event")
	}
}

func decodeInto(cid domain.ConnID, env protocol.Envelope, v any) bool {
	if err := json.Unmarshal(env.Data, v); err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(cid)).Str("event", env.Event).Msg("bad payload")
		return false
	}
	return true
}
