package signaling

import (
	"github.com/roomcast/roomcast/internal/media"
	"github.com/roomcast/roomcast/internal/registry"
	"github.com/roomcast/roomcast/internal/session"
)

// Directory answers "who in this room is producing that kind of media".
// It is a read-through view over the peers' own producer records, never
// an independent index, so it cannot drift from the authoritative
// state.
type Directory struct {
	rooms    *registry.Registry
	sessions *session.Store
}

func NewDirectory(rooms *registry.Registry, sessions *session.Store) *Directory {
	return &Directory{rooms: rooms, sessions: sessions}
}

// FindProducer returns any open producer of the requested kind owned by
// a room member other than exclude. When several match, whichever the
// membership snapshot yields first wins; that order is arbitrary and
// deliberately left so.
func (d *Directory) FindProducer(room string, kind media.Kind, exclude string) (string, bool) {
	for _, peerID := range d.rooms.Members(room) {
		if peerID == exclude {
			continue
		}
		peer, ok := d.sessions.Get(peerID)
		if !ok {
			continue
		}
		for _, pr := range peer.Producers() {
			if pr.Kind == kind {
				return pr.ID, true
			}
		}
	}
	return "", false
}
