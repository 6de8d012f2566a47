package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/roomcast/roomcast/internal/media"
	"github.com/roomcast/roomcast/internal/registry"
	"github.com/roomcast/roomcast/internal/session"
)

// Pusher delivers unsolicited server events to one peer's connection.
// Implementations must not block the caller.
type Pusher interface {
	Push(env *Envelope)
}

// Config tunes handler behavior.
type Config struct {
	// EngineOpTimeout bounds each media engine round trip.
	EngineOpTimeout time.Duration

	// ChatEchoSender includes the sender in chat broadcasts.
	ChatEchoSender bool

	Logger *slog.Logger
}

// Handler drives the negotiation state machine. Requests for one peer
// arrive in connection order on that peer's gateway goroutine; shared
// state (room registry, session store) is internally synchronized.
type Handler struct {
	engine    media.Engine
	rooms     *registry.Registry
	sessions  *session.Store
	directory *Directory

	opTimeout time.Duration
	chatEcho  bool
	log       *slog.Logger

	connsMu sync.RWMutex
	conns   map[string]Pusher
}

func NewHandler(engine media.Engine, rooms *registry.Registry, sessions *session.Store, cfg Config) *Handler {
	if cfg.EngineOpTimeout <= 0 {
		cfg.EngineOpTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		engine:    engine,
		rooms:     rooms,
		sessions:  sessions,
		directory: NewDirectory(rooms, sessions),
		opTimeout: cfg.EngineOpTimeout,
		chatEcho:  cfg.ChatEchoSender,
		log:       cfg.Logger,
		conns:     make(map[string]Pusher),
	}
}

// Connect admits a new connection: it creates the peer session and
// registers the push channel. The peer is not in any room yet.
func (h *Handler) Connect(p Pusher) *session.Peer {
	peer := session.NewPeer()
	h.sessions.Add(peer)

	h.connsMu.Lock()
	h.conns[peer.ID] = p
	h.connsMu.Unlock()

	h.log.Info("peer connected", "peer", peer.ID)
	return peer
}

// HandleRequest runs one request through the state machine and returns
// the response envelope, or nil for fire-and-forget requests.
func (h *Handler) HandleRequest(peer *session.Peer, env *Envelope) *Envelope {
	payload, err := h.dispatch(peer, env)
	if err != nil {
		return h.errorResponse(peer, env, err)
	}
	if payload == nil {
		return nil
	}

	raw, merr := json.Marshal(payload)
	if merr != nil {
		return h.errorResponse(peer, env, errBadRequest("encode response: %v", merr))
	}
	return &Envelope{Type: env.Type, ID: env.ID, Payload: raw}
}

func (h *Handler) errorResponse(peer *session.Peer, env *Envelope, err error) *Envelope {
	code := CodeBadRequest
	var perr *Error
	var eerr *media.EngineError
	switch {
	case errors.As(err, &perr):
		code = perr.Code
	case errors.As(err, &eerr):
		code = CodeEngine
	}

	if code == CodeEngine {
		h.log.Warn("request failed", "peer", peer.ID, "type", env.Type, "err", err)
	} else {
		h.log.Debug("request rejected", "peer", peer.ID, "type", env.Type, "code", code, "err", err)
	}
	return &Envelope{Type: env.Type, ID: env.ID, Error: err.Error(), Code: code}
}

func (h *Handler) dispatch(peer *session.Peer, env *Envelope) (interface{}, error) {
	switch env.Type {
	case TypeJoinRoom:
		return h.joinRoom(peer, env.Payload)
	case TypeGetRtpCapabilities:
		return h.rtpCapabilities()
	case TypeCreateProducerTransport:
		return h.createTransport(peer, media.DirectionSend)
	case TypeCreateConsumerTransport:
		return h.createConsumerTransport(peer, env.Payload)
	case TypeConnectTransport, TypeConnectConsumerTransport:
		return h.connectTransport(peer, env.Payload)
	case TypeProduce:
		return h.produce(peer, env.Payload)
	case TypeConsume:
		return h.consume(peer, env.Payload)
	case TypeResumeConsumer:
		return h.resumeConsumer(peer, env.Payload)
	case TypeCloseProducer:
		return h.closeProducer(peer, env.Payload)
	case TypeChatMessage:
		return h.chat(peer, env.Payload)
	default:
		return nil, errBadRequest("unknown request type %q", env.Type)
	}
}

func (h *Handler) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.opTimeout)
}

func (h *Handler) joinRoom(peer *session.Peer, raw json.RawMessage) (interface{}, error) {
	var req JoinRoomRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errBadRequest("bad joinRoom payload: %v", err)
	}
	if req.RoomID == "" {
		return nil, errBadRequest("roomId is required")
	}

	prev := peer.Room()
	if prev == req.RoomID {
		return JoinRoomResponse{Success: true, PeerID: peer.ID}, nil
	}
	if prev != "" {
		h.rooms.Leave(prev, peer.ID)
		h.broadcast(prev, TypePeerLeft, PeerEventPush{PeerID: peer.ID}, peer.ID)
	}

	h.rooms.Join(req.RoomID, peer.ID)
	peer.SetRoom(req.RoomID)
	h.broadcast(req.RoomID, TypePeerJoined, PeerEventPush{PeerID: peer.ID}, peer.ID)

	h.log.Info("peer joined room", "peer", peer.ID, "room", req.RoomID)
	return JoinRoomResponse{Success: true, PeerID: peer.ID}, nil
}

func (h *Handler) rtpCapabilities() (interface{}, error) {
	ctx, cancel := h.opCtx()
	defer cancel()

	caps, err := h.engine.Capabilities(ctx)
	if err != nil {
		return nil, err
	}
	return caps, nil
}

func (h *Handler) createTransport(peer *session.Peer, dir media.Direction) (interface{}, error) {
	// Checked before any engine call so a rejected request can never
	// leak an unowned transport.
	if peer.Room() == "" {
		return nil, errPrecondition("not in a room")
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	info, err := h.engine.CreateTransport(ctx, dir)
	if err != nil {
		return nil, err
	}
	peer.AddTransport(session.Transport{ID: info.ID, Direction: dir})

	h.log.Debug("transport created", "peer", peer.ID, "transport", info.ID, "direction", dir)
	return info, nil
}

// createConsumerTransport validates the advertised capabilities at the
// boundary. They are not forwarded: the engine sees the receiver's
// capabilities again on every consume, which is where compatibility is
// actually decided.
func (h *Handler) createConsumerTransport(peer *session.Peer, raw json.RawMessage) (interface{}, error) {
	if len(raw) > 0 {
		var req CreateConsumerTransportRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, errBadRequest("bad createConsumerTransport payload: %v", err)
		}
	}
	return h.createTransport(peer, media.DirectionRecv)
}

func (h *Handler) connectTransport(peer *session.Peer, raw json.RawMessage) (interface{}, error) {
	var req ConnectTransportRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errBadRequest("bad connectTransport payload: %v", err)
	}
	if req.TransportID == "" {
		return nil, errBadRequest("transportId is required")
	}
	if _, ok := peer.Transport(req.TransportID); !ok {
		return nil, errNotFound("transport", req.TransportID)
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	if err := h.engine.ConnectTransport(ctx, req.TransportID, req.DTLSParameters); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

func (h *Handler) produce(peer *session.Peer, raw json.RawMessage) (interface{}, error) {
	var req ProduceRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errBadRequest("bad produce payload: %v", err)
	}
	if !req.Kind.Valid() {
		return nil, errBadRequest("invalid media kind %q", req.Kind)
	}

	tr, ok := peer.Transport(req.TransportID)
	if !ok {
		return nil, errNotFound("transport", req.TransportID)
	}
	if tr.Direction != media.DirectionSend {
		return nil, errPrecondition("transport is not a producer transport")
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	producerID, err := h.engine.CreateProducer(ctx, req.TransportID, req.Kind, req.RTPParameters)
	if err != nil {
		return nil, err
	}
	peer.AddProducer(session.Producer{ID: producerID, Kind: req.Kind})

	h.broadcast(peer.Room(), TypeNewProducer, NewProducerPush{ProducerID: producerID, Kind: req.Kind}, peer.ID)

	h.log.Info("producer created", "peer", peer.ID, "producer", producerID, "kind", req.Kind)
	return ProduceResponse{ProducerID: producerID}, nil
}

func (h *Handler) consume(peer *session.Peer, raw json.RawMessage) (interface{}, error) {
	var req ConsumeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errBadRequest("bad consume payload: %v", err)
	}
	if !req.Kind.Valid() {
		return nil, errBadRequest("invalid media kind %q", req.Kind)
	}

	room := peer.Room()
	if room == "" {
		return nil, errPrecondition("not in a room")
	}

	tr, ok := peer.Transport(req.TransportID)
	if !ok {
		return nil, errNotFound("transport", req.TransportID)
	}
	if tr.Direction != media.DirectionRecv {
		return nil, errPrecondition("transport is not a consumer transport")
	}

	producerID, ok := h.directory.FindProducer(room, req.Kind, peer.ID)
	if !ok {
		return nil, errNoProducer
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	consumable, err := h.engine.CheckConsumable(ctx, producerID, req.RTPCapabilities)
	if err != nil {
		return nil, err
	}
	if !consumable {
		return nil, errIncompatible
	}

	info, err := h.engine.CreateConsumer(ctx, req.TransportID, producerID, req.Kind)
	if err != nil {
		return nil, err
	}
	peer.AddConsumer(session.Consumer{ID: info.ID, ProducerID: producerID, Kind: req.Kind})

	h.log.Info("consumer created", "peer", peer.ID, "consumer", info.ID, "producer", producerID, "kind", req.Kind)
	return ConsumeResponse{
		ConsumerID:    info.ID,
		ProducerID:    producerID,
		Kind:          req.Kind,
		RTPParameters: info.RTPParameters,
	}, nil
}

func (h *Handler) resumeConsumer(peer *session.Peer, raw json.RawMessage) (interface{}, error) {
	var req ResumeConsumerRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errBadRequest("bad resumeConsumer payload: %v", err)
	}
	if _, ok := peer.Consumer(req.ConsumerID); !ok {
		return nil, errNotFound("consumer", req.ConsumerID)
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	if err := h.engine.ResumeConsumer(ctx, req.ConsumerID); err != nil {
		return nil, err
	}
	peer.SetConsumerPaused(req.ConsumerID, false)
	return SuccessResponse{Success: true}, nil
}

func (h *Handler) closeProducer(peer *session.Peer, raw json.RawMessage) (interface{}, error) {
	var req CloseProducerRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errBadRequest("bad closeProducer payload: %v", err)
	}

	pr, ok := peer.Producer(req.ProducerID)
	if !ok {
		return nil, errNotFound("producer", req.ProducerID)
	}
	if pr.Closed {
		return SuccessResponse{Success: true}, nil
	}

	ctx, cancel := h.opCtx()
	defer cancel()

	// The engine confirms before the record flips closed. On failure the
	// producer stays open, so it remains discoverable and the disconnect
	// drain retries the close.
	if err := h.engine.CloseResource(ctx, req.ProducerID); err != nil {
		return nil, err
	}
	peer.CloseProducer(req.ProducerID)

	h.log.Info("producer closed", "peer", peer.ID, "producer", req.ProducerID)
	return SuccessResponse{Success: true}, nil
}

func (h *Handler) chat(peer *session.Peer, raw json.RawMessage) (interface{}, error) {
	var msg ChatMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, errBadRequest("bad chatMessage payload: %v", err)
	}

	room, ok := h.rooms.Room(peer.ID)
	if !ok || room != msg.RoomID {
		return nil, errPrecondition("not a member of room " + msg.RoomID)
	}

	exclude := peer.ID
	if h.chatEcho {
		exclude = ""
	}
	h.broadcast(msg.RoomID, TypeChatMessage, msg, exclude)

	// Fan-out only; the sender sees its own message through the echo.
	return nil, nil
}

// Disconnect tears one peer down. Safe to call more than once: every
// step is a no-op the second time. Resource closes are best-effort; a
// failure on one never stops the rest.
func (h *Handler) Disconnect(peer *session.Peer) {
	h.connsMu.Lock()
	delete(h.conns, peer.ID)
	h.connsMu.Unlock()

	if room := peer.Room(); room != "" {
		h.rooms.Leave(room, peer.ID)
		peer.SetRoom("")
		h.broadcast(room, TypePeerLeft, PeerEventPush{PeerID: peer.ID}, peer.ID)
	}

	for _, id := range peer.TakeResources() {
		ctx, cancel := h.opCtx()
		if err := h.engine.CloseResource(ctx, id); err != nil {
			h.log.Warn("resource close failed", "peer", peer.ID, "resource", id, "err", err)
		}
		cancel()
	}

	h.sessions.Remove(peer.ID)
	h.log.Info("peer disconnected", "peer", peer.ID)
}

func (h *Handler) broadcast(room, typ string, payload interface{}, exclude string) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("encode push failed", "type", typ, "err", err)
		return
	}
	env := &Envelope{Type: typ, Payload: raw}

	for _, peerID := range h.rooms.Members(room) {
		if peerID == exclude {
			continue
		}
		h.connsMu.RLock()
		p := h.conns[peerID]
		h.connsMu.RUnlock()
		if p != nil {
			p.Push(env)
		}
	}
}
