package signaling

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomcast/roomcast/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024

	// Outbound buffer per connection; pushes beyond it are dropped.
	sendBuffer = 256
)

// Client is the gateway for a single websocket connection: it feeds
// inbound requests to the handler in arrival order and serializes
// responses and pushes back out.
type Client struct {
	handler *Handler
	conn    *websocket.Conn

	peer *session.Peer

	send chan *Envelope

	// done is closed when the write pump exits. A response send must
	// never outlive the writer, or a peer that stopped reading could
	// park the read pump on a full buffer and wedge its own teardown.
	done chan struct{}

	closeOnce sync.Once
}

// NewClient admits a connection into the handler and returns its
// gateway. The caller must start both pumps.
func NewClient(handler *Handler, conn *websocket.Conn) *Client {
	c := &Client{
		handler: handler,
		conn:    conn,
		send:    make(chan *Envelope, sendBuffer),
		done:    make(chan struct{}),
	}
	c.peer = handler.Connect(c)
	return c
}

// Push queues an unsolicited event without blocking. A slow reader that
// fills its buffer loses pushes rather than stalling the sender's
// request handling.
func (c *Client) Push(env *Envelope) {
	select {
	case c.send <- env:
	default:
		slog.Warn("push dropped, send buffer full", "peer", c.peer.ID, "type", env.Type)
	}
}

// ReadPump pumps messages from the websocket connection through the
// handler. It runs in a per-connection goroutine, which also gives
// every peer its per-connection request ordering. On exit it triggers
// the idempotent teardown path.
func (c *Client) ReadPump() {
	defer func() {
		c.handler.Disconnect(c.peer)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("read error", "peer", c.peer.ID, "err", err)
			}
			break
		}

		if resp := c.handler.HandleRequest(c.peer, &env); resp != nil {
			// Responses go through the same channel as pushes so the
			// write pump stays the sole writer.
			select {
			case c.send <- resp:
			case <-c.done:
				return
			}
		}
	}
}

// WritePump pumps messages from the send channel to the websocket
// connection. One goroutine per connection; all writes happen here.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case env, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				slog.Debug("write error", "peer", c.peer.ID, "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
