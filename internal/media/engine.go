// Package media wraps the external media engine behind a
// request/response adapter. The relay never interprets RTP parameters;
// it shuttles them between clients and the engine as opaque payloads.
package media

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

// Kind is the media kind of a producer or consumer.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

func (k Kind) Valid() bool {
	return k == KindAudio || k == KindVideo
}

// Direction tells the engine whether a transport will be used to send
// media toward the engine (producing) or receive media from it
// (consuming).
type Direction string

const (
	DirectionSend Direction = "send"
	DirectionRecv Direction = "recv"
)

// TransportInfo is the engine's answer to a transport creation request:
// everything the client needs to run ICE/DTLS against the engine.
type TransportInfo struct {
	ID             string                `json:"id"`
	ICEParameters  webrtc.ICEParameters  `json:"iceParameters"`
	ICECandidates  []webrtc.ICECandidate `json:"iceCandidates"`
	DTLSParameters webrtc.DTLSParameters `json:"dtlsParameters"`
}

// ConsumerInfo describes a consumer the engine created, bound to
// exactly one producer.
type ConsumerInfo struct {
	ID            string          `json:"id"`
	ProducerID    string          `json:"producerId"`
	Kind          Kind            `json:"kind"`
	RTPParameters json.RawMessage `json:"rtpParameters"`
}

// Engine is the boundary to the external media engine. Every call is a
// round trip to another process and honors its context deadline.
type Engine interface {
	Capabilities(ctx context.Context) (webrtc.RTPCapabilities, error)
	CreateTransport(ctx context.Context, dir Direction) (TransportInfo, error)
	ConnectTransport(ctx context.Context, transportID string, dtls webrtc.DTLSParameters) error
	CreateProducer(ctx context.Context, transportID string, kind Kind, rtpParameters json.RawMessage) (string, error)
	CheckConsumable(ctx context.Context, producerID string, caps webrtc.RTPCapabilities) (bool, error)
	CreateConsumer(ctx context.Context, transportID, producerID string, kind Kind) (ConsumerInfo, error)
	ResumeConsumer(ctx context.Context, consumerID string) error
	CloseResource(ctx context.Context, resourceID string) error
}

// EngineError is the single failure class for engine round trips:
// malformed parameters, resource exhaustion, internal engine faults and
// timeouts all surface through it. The relay never retries these.
type EngineError struct {
	Op  string
	Msg string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("engine %s: %s", e.Op, e.Msg)
}
