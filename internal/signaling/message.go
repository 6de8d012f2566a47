// Package signaling implements the room negotiation protocol: the
// websocket gateway, the per-request state machine and the push fan-out
// between room members.
package signaling

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/roomcast/roomcast/internal/media"
)

// Request type constants (client to server).
const (
	TypeJoinRoom                 = "joinRoom"
	TypeGetRtpCapabilities       = "getRtpCapabilities"
	TypeCreateProducerTransport  = "createProducerTransport"
	TypeConnectTransport         = "connectTransport"
	TypeProduce                  = "produce"
	TypeCreateConsumerTransport  = "createConsumerTransport"
	TypeConnectConsumerTransport = "connectConsumerTransport"
	TypeConsume                  = "consume"
	TypeResumeConsumer           = "resumeConsumer"
	TypeCloseProducer            = "closeProducer"
	TypeChatMessage              = "chatMessage"
)

// Push type constants (server to client, unsolicited).
const (
	TypeNewProducer = "newProducer"
	TypePeerJoined  = "peerJoined"
	TypePeerLeft    = "peerLeft"
)

// Envelope frames every message on the wire. Requests carry a
// client-chosen correlation ID which the response echoes; pushes have
// no ID. Exactly one of Payload or Error is set on a response.
type Envelope struct {
	Type    string          `json:"type"`
	ID      uint64          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
}

type JoinRoomResponse struct {
	Success bool   `json:"success"`
	PeerID  string `json:"peerId"`
}

type ConnectTransportRequest struct {
	TransportID    string                `json:"transportId"`
	DTLSParameters webrtc.DTLSParameters `json:"dtlsParameters"`
}

type ProduceRequest struct {
	TransportID   string          `json:"transportId"`
	Kind          media.Kind      `json:"kind"`
	RTPParameters json.RawMessage `json:"rtpParameters"`
}

type ProduceResponse struct {
	ProducerID string `json:"producerId"`
}

type CreateConsumerTransportRequest struct {
	RTPCapabilities webrtc.RTPCapabilities `json:"rtpCapabilities"`
}

type ConsumeRequest struct {
	TransportID     string                 `json:"transportId"`
	Kind            media.Kind             `json:"kind"`
	RTPCapabilities webrtc.RTPCapabilities `json:"rtpCapabilities"`
}

type ConsumeResponse struct {
	ConsumerID    string          `json:"consumerId"`
	ProducerID    string          `json:"producerId"`
	Kind          media.Kind      `json:"kind"`
	RTPParameters json.RawMessage `json:"rtpParameters"`
}

type ResumeConsumerRequest struct {
	ConsumerID string `json:"consumerId"`
}

type CloseProducerRequest struct {
	ProducerID string `json:"producerId"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// ChatMessage doubles as the request payload and the broadcast payload.
type ChatMessage struct {
	RoomID string `json:"roomId"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type NewProducerPush struct {
	ProducerID string     `json:"producerId"`
	Kind       media.Kind `json:"kind"`
}

type PeerEventPush struct {
	PeerID string `json:"peerId"`
}
