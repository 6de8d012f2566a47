package session

import "sync"

// Store is the process-wide peer lookup table. The producer directory
// and teardown reach peers by ID through it; they never mutate a peer.
type Store struct {
	mu    sync.RWMutex
	peers map[string]*Peer
}

func NewStore() *Store {
	return &Store{peers: make(map[string]*Peer)}
}

func (s *Store) Add(p *Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[p.ID] = p
}

func (s *Store) Get(id string) (*Peer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.peers[id]
	return p, ok
}

// Remove is a silent no-op for unknown IDs.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, id)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}
