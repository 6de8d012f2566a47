package media

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Wire format: one msgpack stream per direction over a single
// connection. Requests carry a monotonically increasing ID which the
// engine echoes in its response; responses may arrive out of order.
type rpcRequest struct {
	ID     uint64      `msgpack:"id"`
	Method string      `msgpack:"method"`
	Data   interface{} `msgpack:"data"`
}

type rpcResponse struct {
	ID    uint64             `msgpack:"id"`
	OK    bool               `msgpack:"ok"`
	Error string             `msgpack:"error"`
	Data  msgpack.RawMessage `msgpack:"data"`
}

// Client is an Engine backed by a msgpack RPC connection to the engine
// process. Safe for concurrent use; every in-flight call owns a pending
// slot keyed by request ID.
type Client struct {
	conn      net.Conn
	opTimeout time.Duration

	encMu sync.Mutex
	enc   *msgpack.Encoder

	nextID atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan rpcResponse
	closed    bool

	closeOnce sync.Once
}

var _ Engine = (*Client)(nil)

// Dial connects to the engine RPC endpoint.
func Dial(network, addr string, opTimeout time.Duration) (*Client, error) {
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, opTimeout), nil
}

// NewClient wraps an established connection. opTimeout bounds each call
// that does not already carry a sooner context deadline.
func NewClient(conn net.Conn, opTimeout time.Duration) *Client {
	c := &Client{
		conn:      conn,
		opTimeout: opTimeout,
		enc:       msgpack.NewEncoder(conn),
		pending:   make(map[uint64]chan rpcResponse),
	}
	go c.readLoop()
	return c
}

// Close tears down the connection and fails every in-flight call.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

func (c *Client) readLoop() {
	dec := msgpack.NewDecoder(c.conn)
	for {
		var resp rpcResponse
		if err := dec.Decode(&resp); err != nil {
			c.failPending()
			return
		}

		c.pendingMu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.pendingMu.Unlock()

		if ok {
			ch <- resp
		}
	}
}

func (c *Client) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	c.closed = true
	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- rpcResponse{ID: id, Error: "engine connection closed"}
	}
}

func (c *Client) call(ctx context.Context, method string, data interface{}, out interface{}) error {
	if c.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opTimeout)
		defer cancel()
	}

	id := c.nextID.Add(1)
	ch := make(chan rpcResponse, 1)

	c.pendingMu.Lock()
	if c.closed {
		c.pendingMu.Unlock()
		return &EngineError{Op: method, Msg: "engine connection closed"}
	}
	c.pending[id] = ch
	c.pendingMu.Unlock()

	c.encMu.Lock()
	err := c.enc.Encode(rpcRequest{ID: id, Method: method, Data: data})
	c.encMu.Unlock()
	if err != nil {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return &EngineError{Op: method, Msg: err.Error()}
	}

	select {
	case resp := <-ch:
		if !resp.OK {
			return &EngineError{Op: method, Msg: resp.Error}
		}
		if out != nil {
			if err := msgpack.Unmarshal(resp.Data, out); err != nil {
				return &EngineError{Op: method, Msg: "bad response payload: " + err.Error()}
			}
		}
		return nil
	case <-ctx.Done():
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
		return &EngineError{Op: method, Msg: ctx.Err().Error()}
	}
}

func (c *Client) Capabilities(ctx context.Context) (webrtc.RTPCapabilities, error) {
	var caps webrtc.RTPCapabilities
	err := c.call(ctx, "router.rtpCapabilities", nil, &caps)
	return caps, err
}

func (c *Client) CreateTransport(ctx context.Context, dir Direction) (TransportInfo, error) {
	var info TransportInfo
	err := c.call(ctx, "router.createTransport", struct {
		Direction Direction `msgpack:"direction"`
	}{dir}, &info)
	return info, err
}

func (c *Client) ConnectTransport(ctx context.Context, transportID string, dtls webrtc.DTLSParameters) error {
	return c.call(ctx, "transport.connect", struct {
		TransportID    string                `msgpack:"transportId"`
		DTLSParameters webrtc.DTLSParameters `msgpack:"dtlsParameters"`
	}{transportID, dtls}, nil)
}

func (c *Client) CreateProducer(ctx context.Context, transportID string, kind Kind, rtpParameters json.RawMessage) (string, error) {
	var out struct {
		ID string `msgpack:"id"`
	}
	err := c.call(ctx, "transport.produce", struct {
		TransportID   string `msgpack:"transportId"`
		Kind          Kind   `msgpack:"kind"`
		RTPParameters []byte `msgpack:"rtpParameters"`
	}{transportID, kind, rtpParameters}, &out)
	return out.ID, err
}

func (c *Client) CheckConsumable(ctx context.Context, producerID string, caps webrtc.RTPCapabilities) (bool, error) {
	var out struct {
		Consumable bool `msgpack:"consumable"`
	}
	err := c.call(ctx, "router.canConsume", struct {
		ProducerID      string                 `msgpack:"producerId"`
		RTPCapabilities webrtc.RTPCapabilities `msgpack:"rtpCapabilities"`
	}{producerID, caps}, &out)
	return out.Consumable, err
}

func (c *Client) CreateConsumer(ctx context.Context, transportID, producerID string, kind Kind) (ConsumerInfo, error) {
	var info ConsumerInfo
	err := c.call(ctx, "transport.consume", struct {
		TransportID string `msgpack:"transportId"`
		ProducerID  string `msgpack:"producerId"`
		Kind        Kind   `msgpack:"kind"`
	}{transportID, producerID, kind}, &info)
	return info, err
}

func (c *Client) ResumeConsumer(ctx context.Context, consumerID string) error {
	return c.call(ctx, "consumer.resume", struct {
		ConsumerID string `msgpack:"consumerId"`
	}{consumerID}, nil)
}

func (c *Client) CloseResource(ctx context.Context, resourceID string) error {
	return c.call(ctx, "resource.close", struct {
		ResourceID string `msgpack:"resourceId"`
	}{resourceID}, nil)
}
