package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomcast/roomcast/internal/signaling"
)

const requestTimeout = 10 * time.Second

// wsClient is a single signaling connection with request/response
// correlation. Pushes read while waiting for a response are handed to
// onPush so they are not silently lost.
type wsClient struct {
	conn   *websocket.Conn
	nextID uint64
	onPush func(*signaling.Envelope)
}

func dialServer(server, token string) (*wsClient, error) {
	if !strings.Contains(server, "://") {
		server = "ws://" + server
	}

	u, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &wsClient{conn: conn}, nil
}

func (c *wsClient) close() {
	c.conn.Close()
}

// request sends one request and blocks until its response arrives.
func (c *wsClient) request(typ string, payload interface{}) (*signaling.Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	c.nextID++
	id := c.nextID
	if err := c.conn.WriteJSON(&signaling.Envelope{Type: typ, ID: id, Payload: raw}); err != nil {
		return nil, fmt.Errorf("send %s: %w", typ, err)
	}

	c.conn.SetReadDeadline(time.Now().Add(requestTimeout))
	for {
		var env signaling.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return nil, fmt.Errorf("await %s response: %w", typ, err)
		}
		if env.ID == id {
			if env.Error != "" {
				return &env, fmt.Errorf("%s rejected: %s (%s)", typ, env.Error, env.Code)
			}
			return &env, nil
		}
		if c.onPush != nil {
			c.onPush(&env)
		}
	}
}

// send fires a request that has no direct response (chat).
func (c *wsClient) send(typ string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(&signaling.Envelope{Type: typ, Payload: raw})
}

// nextEvent blocks until the next server push arrives.
func (c *wsClient) nextEvent(timeout time.Duration) (*signaling.Envelope, error) {
	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
	} else {
		c.conn.SetReadDeadline(time.Time{})
	}

	var env signaling.Envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

func printEvent(env *signaling.Envelope) {
	var buf strings.Builder
	buf.WriteString(env.Type)
	if len(env.Payload) > 0 {
		buf.WriteString(" ")
		buf.Write(env.Payload)
	}
	fmt.Println(buf.String())
}
