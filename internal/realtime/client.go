package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/duelboard/duelboard/internal/model"
)

const (
	// writeWait is the allowed time for one outbound write
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong before dropping the peer
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize bounds inbound frames
	maxMessageSize = 4096
)

// Client is one live websocket connection with its resolved identity
type Client struct {
	conn *websocket.Conn
	send chan []byte

	// sendMu guards closed; a hub may still hold a reference to a client
	// whose disconnect path has already run
	sendMu sync.Mutex
	closed bool

	connectionID model.ConnectionID
	identityKey  model.IdentityKey

	// roomID is the room this connection is currently a member of, if any
	roomID model.RoomID
}

// newClient wraps an upgraded connection
func newClient(conn *websocket.Conn, connectionID model.ConnectionID, identityKey model.IdentityKey) *Client {
	return &Client{
		conn:         conn,
		send:         make(chan []byte, 64),
		connectionID: connectionID,
		identityKey:  identityKey,
	}
}

// Send queues a message for this client. Returns false when the message
// was dropped because the buffer is full or the client has disconnected.
func (c *Client) Send(message []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend shuts the send channel exactly once; writePump exits on it
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump pushes queued messages and keepalive pings to the peer.
// Runs in its own goroutine; exits when the send channel closes.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
