package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewParticipant(t *testing.T) {
	p, err := NewParticipant("c1", RolePresenter, "Alice")
	if err != nil {
		t.Fatalf("NewParticipant: %v", err)
	}
	if p.ID != "c1" || p.Role != RolePresenter || p.Name != "Alice" {
		t.Fatalf("participant=%+v", p)
	}

	if _, err := NewParticipant("c1", RoleViewer, ""); !errors.Is(err, ErrNameEmpty) {
		t.Fatalf("empty name err=%v, want ErrNameEmpty", err)
	}
	if _, err := NewParticipant("c1", RoleViewer, strings.Repeat("x", MaxNameLen+1)); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("long name err=%v, want ErrNameTooLong", err)
	}
	if _, err := NewParticipant("c1", Role("producer"), "Bob"); !errors.Is(err, ErrBadRole) {
		t.Fatalf("bad role err=%v, want ErrBadRole", err)
	}
}

func TestNewSessionID_ShortAndTypeable(t *testing.T) {
	seen := make(map[SessionID]bool)
	for i := 0; i < 100; i++ {
		id := NewSessionID()
		if len(id) != 6 {
			t.Fatalf("id %q length=%d, want 6", id, len(id))
		}
		for _, c := range string(id) {
			if strings.ContainsRune("01OI", c) {
				t.Fatalf("id %q contains ambiguous character %q", id, c)
			}
		}
		seen[id] = true
	}
	// Not a uniqueness guarantee, just a sanity check on entropy.
	if len(seen) < 90 {
		t.Fatalf("only %d distinct ids out of 100", len(seen))
	}
}
