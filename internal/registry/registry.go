// Package registry tracks which peers are members of which rooms.
// It holds membership only; media state lives with each peer's session.
package registry

import "sync"

// Registry is the process-wide room membership table. Rooms are created
// implicitly on first join and removed when their last member leaves;
// a missing room entry simply means the room does not exist.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]struct{}
	byPeer map[string]string
}

func New() *Registry {
	return &Registry{
		rooms:  make(map[string]map[string]struct{}),
		byPeer: make(map[string]string),
	}
}

// Join adds peer to room. Joining a room the peer is already in is a
// no-op. A peer can be a member of at most one room, so joining a new
// room removes the peer from its previous one first.
func (r *Registry) Join(room, peer string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byPeer[peer]; ok {
		if prev == room {
			return
		}
		r.removeLocked(prev, peer)
	}

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	members[peer] = struct{}{}
	r.byPeer[peer] = room
}

// Leave removes peer from room. Unknown room/peer pairs are silent
// no-ops. The room entry is dropped once its member set is empty.
func (r *Registry) Leave(room, peer string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byPeer[peer] == room {
		delete(r.byPeer, peer)
	}
	r.removeLocked(room, peer)
}

func (r *Registry) removeLocked(room, peer string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, peer)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// Members returns a snapshot of the room's member set. The slice is a
// copy; iteration order is arbitrary and callers must not depend on it.
func (r *Registry) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[room]
	if !ok {
		return nil
	}

	out := make([]string, 0, len(members))
	for peer := range members {
		out = append(out, peer)
	}
	return out
}

// Room returns the room the peer is currently a member of.
func (r *Registry) Room(peer string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.byPeer[peer]
	return room, ok
}

// Snapshot returns room IDs mapped to their member counts.
func (r *Registry) Snapshot() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.rooms))
	for room, members := range r.rooms {
		out[room] = len(members)
	}
	return out
}
