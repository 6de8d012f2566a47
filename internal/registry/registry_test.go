package registry

import (
	"slices"
	"testing"
)

func TestJoinAndMembers(t *testing.T) {
	r := New()
	r.Join("r1", "a")
	r.Join("r1", "b")

	members := r.Members("r1")
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %v", members)
	}
	if !slices.Contains(members, "a") || !slices.Contains(members, "b") {
		t.Errorf("expected a and b in members, got %v", members)
	}
}

func TestJoinIdempotent(t *testing.T) {
	r := New()
	r.Join("r1", "a")
	r.Join("r1", "a")

	if members := r.Members("r1"); len(members) != 1 {
		t.Errorf("expected 1 member after duplicate join, got %v", members)
	}
}

func TestJoinMovesPeerBetweenRooms(t *testing.T) {
	r := New()
	r.Join("r1", "a")
	r.Join("r2", "a")

	if members := r.Members("r1"); len(members) != 0 {
		t.Errorf("expected a removed from r1, got %v", members)
	}
	if members := r.Members("r2"); len(members) != 1 || members[0] != "a" {
		t.Errorf("expected a in r2, got %v", members)
	}
	if room, ok := r.Room("a"); !ok || room != "r2" {
		t.Errorf("expected Room(a) = r2, got %q %v", room, ok)
	}
}

func TestLeaveUnknownIsNoop(t *testing.T) {
	r := New()
	r.Leave("nope", "ghost") // must not panic or create state

	if snap := r.Snapshot(); len(snap) != 0 {
		t.Errorf("expected empty registry, got %v", snap)
	}
}

func TestEmptyRoomRemoved(t *testing.T) {
	r := New()
	r.Join("r1", "a")
	r.Leave("r1", "a")

	if members := r.Members("r1"); members != nil {
		t.Errorf("expected nil members for removed room, got %v", members)
	}
	if snap := r.Snapshot(); len(snap) != 0 {
		t.Errorf("expected room entry dropped, got %v", snap)
	}
	if _, ok := r.Room("a"); ok {
		t.Error("expected peer room mapping cleared")
	}
}

func TestMembersReturnsCopy(t *testing.T) {
	r := New()
	r.Join("r1", "a")

	members := r.Members("r1")
	members[0] = "mutated"

	if got := r.Members("r1"); got[0] != "a" {
		t.Errorf("registry state mutated through snapshot: %v", got)
	}
}

func TestSnapshotCounts(t *testing.T) {
	r := New()
	r.Join("r1", "a")
	r.Join("r1", "b")
	r.Join("r2", "c")

	snap := r.Snapshot()
	if snap["r1"] != 2 || snap["r2"] != 1 {
		t.Errorf("unexpected snapshot %v", snap)
	}
}
