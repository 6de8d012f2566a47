// Package session holds per-peer media session state: the transports,
// producers and consumers a connected peer owns. Each peer's state is
// written only by that peer's own connection goroutine; other
// components read it through snapshot-returning accessors.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roomcast/roomcast/internal/media"
)

// Transport is a peer-owned engine transport endpoint.
type Transport struct {
	ID        string
	Direction media.Direction
}

// Producer is a peer-owned media source.
type Producer struct {
	ID     string
	Kind   media.Kind
	Closed bool
}

// Consumer is a peer-owned media sink bound to one producer.
type Consumer struct {
	ID         string
	ProducerID string
	Kind       media.Kind
	Paused     bool
}

// Peer is one connected participant. All referenced resources are owned
// exclusively by this peer; nothing is shared across peers.
type Peer struct {
	ID string

	mu         sync.Mutex
	roomID     string
	transports []Transport // creation order
	producers  map[string]*Producer
	consumers  map[string]*Consumer
	torn       bool
}

func NewPeer() *Peer {
	return &Peer{
		ID:        uuid.New().String(),
		producers: make(map[string]*Producer),
		consumers: make(map[string]*Consumer),
	}
}

func (p *Peer) SetRoom(roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roomID = roomID
}

func (p *Peer) Room() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roomID
}

func (p *Peer) AddTransport(t Transport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transports = append(p.transports, t)
}

// Transport looks up an owned transport by ID.
func (p *Peer) Transport(id string) (Transport, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.transports {
		if t.ID == id {
			return t, true
		}
	}
	return Transport{}, false
}

func (p *Peer) AddProducer(pr Producer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.producers[pr.ID] = &pr
}

// Producer looks up an owned producer by ID, closed or not.
func (p *Peer) Producer(id string) (Producer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr, ok := p.producers[id]
	if !ok {
		return Producer{}, false
	}
	return *pr, true
}

// CloseProducer marks an owned producer closed. The second return tells
// whether the producer exists at all; the first whether this call
// actually transitioned it (false when already closed).
func (p *Peer) CloseProducer(id string) (closedNow, exists bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr, ok := p.producers[id]
	if !ok {
		return false, false
	}
	if pr.Closed {
		return false, true
	}
	pr.Closed = true
	return true, true
}

// Producers returns a snapshot of the peer's open producers.
func (p *Peer) Producers() []Producer {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Producer, 0, len(p.producers))
	for _, pr := range p.producers {
		if !pr.Closed {
			out = append(out, *pr)
		}
	}
	return out
}

func (p *Peer) AddConsumer(c Consumer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.consumers[c.ID] = &c
}

func (p *Peer) Consumer(id string) (Consumer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.consumers[id]
	if !ok {
		return Consumer{}, false
	}
	return *c, true
}

// SetConsumerPaused updates the paused flag of an owned consumer.
func (p *Peer) SetConsumerPaused(id string, paused bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.consumers[id]
	if !ok {
		return false
	}
	c.Paused = paused
	return true
}

// TakeResources drains every engine resource ID the peer still owns,
// consumers first, then producers, then transports. It drains exactly
// once: subsequent calls return nothing, which keeps teardown
// idempotent when an explicit stop races a disconnect.
func (p *Peer) TakeResources() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.torn {
		return nil
	}
	p.torn = true

	out := make([]string, 0, len(p.consumers)+len(p.producers)+len(p.transports))
	for id := range p.consumers {
		out = append(out, id)
	}
	for id, pr := range p.producers {
		if !pr.Closed {
			out = append(out, id)
		}
	}
	for _, t := range p.transports {
		out = append(out, t.ID)
	}

	p.consumers = make(map[string]*Consumer)
	p.producers = make(map[string]*Producer)
	p.transports = nil
	return out
}
