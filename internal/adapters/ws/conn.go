// Package ws is the WebSocket transport adapter: it owns connection
// resources and translates wire frames into orchestrator calls.
package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var ErrBackpressure = errors.New("backpressure")

// Conn wraps one websocket with a buffered outbound channel. TrySend
// never blocks; a full buffer is reported as backpressure and the frame
// is dropped.
type Conn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConn(c *websocket.Conn, sendBuf int) *Conn {
	return &Conn{conn: c, send: make(chan []byte, sendBuf)}
}

func (c *Conn) TrySend(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- frame:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
