package hub

import (
	"encoding/json"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBufferSize = 256
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	writeWait      = 10 * time.Second
)

// Participant is one live connection to the broadcast channel. It exists
// from connect to disconnect and is never persisted.
type Participant struct {
	// ID identifies the connection in logs.
	ID uuid.UUID
	// UserID is the authenticated identity the connection presented at
	// upgrade time.
	UserID int

	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	closed         bool
	maxMessageSize int64
}

// NewParticipant wraps a WebSocket connection for registration with the hub.
func NewParticipant(conn *websocket.Conn, h *Hub, userID int, addr string, maxMessageSize int64) *Participant {
	if conn != nil && maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Participant{
		ID:             uuid.New(),
		UserID:         userID,
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		hub:            h,
		addr:           addr,
		maxMessageSize: maxMessageSize,
	}
}

// SendChan exposes the participant's outbound queue for reading.
func (p *Participant) SendChan() <-chan []byte {
	return p.send
}

func (p *Participant) readPump() {
	defer func() {
		// The hub may already be shut down, in which case nobody drains
		// the unregister channel.
		select {
		case p.hub.unregister <- p:
		case <-p.hub.ctx.Done():
		}
		if err := p.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection in readPump: %v", err)
		}
	}()

	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("Unexpected close from %s: %v", p.addr, err)
			}
			return
		}

		// Malformed payloads are dropped; there is no per-message error
		// channel back to the sender.
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Dropping invalid message from %s: %v", p.addr, err)
			continue
		}
		normalized, err := json.Marshal(msg)
		if err != nil {
			continue
		}

		p.hub.broadcast <- normalized
	}
}

func (p *Participant) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := p.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection in writePump: %v", err)
		}
	}()

	for {
		select {
		case payload, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.writePayload(payload); err != nil {
				log.Printf("Write to %s failed: %v", p.addr, err)
				return
			}

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writePayload writes one payload plus anything already queued behind it,
// one frame per message.
func (p *Participant) writePayload(payload []byte) error {
	if err := p.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return err
	}
	for i := len(p.send); i > 0; i-- {
		queued, ok := <-p.send
		if !ok {
			return io.EOF
		}
		if err := p.conn.WriteMessage(websocket.TextMessage, queued); err != nil {
			return err
		}
	}
	return nil
}

// isExpectedCloseError reports whether an error is routine connection
// teardown noise.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
