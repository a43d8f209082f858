package registry

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Ameen-Abccoders/screen-sharing-app/internal/core"
	"github.com/Ameen-Abccoders/screen-sharing-app/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) events(t *testing.T) []core.PresencePayload {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.PresencePayload, 0, len(f.frames))
	for _, fr := range f.frames {
		var p core.PresencePayload
		if err := json.Unmarshal(fr, &p); err != nil {
			t.Fatalf("decode frame %q: %v", fr, err)
		}
		out = append(out, p)
	}
	return out
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestAdmit_ViewerGetsGeneratedSessionID(t *testing.T) {
	r := New()
	viewer := &fakeConn{}

	sid, err := r.Admit("v1", domain.RoleViewer, "Tutor", "", viewer)
	if err != nil {
		t.Fatalf("Admit viewer: %v", err)
	}
	if len(sid) != 6 {
		t.Fatalf("session id %q length=%d, want 6", sid, len(sid))
	}
	for _, c := range string(sid) {
		if !strings.ContainsRune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789", c) {
			t.Fatalf("session id %q contains %q outside the alphabet", sid, c)
		}
	}

	presenter := &fakeConn{}
	got, err := r.Admit("p1", domain.RolePresenter, "Alice", sid, presenter)
	if err != nil {
		t.Fatalf("Admit presenter: %v", err)
	}
	if got != sid {
		t.Fatalf("presenter admitted to %q, want %q", got, sid)
	}

	evs := viewer.events(t)
	if len(evs) != 1 {
		t.Fatalf("viewer events=%d, want 1", len(evs))
	}
	if evs[0].Type != core.EventPresenterJoined || evs[0].PresenterID != "p1" || evs[0].Name != "Alice" {
		t.Fatalf("viewer got %+v, want presenter-joined p1/Alice", evs[0])
	}
}

func TestAdmit_InvalidRequests(t *testing.T) {
	r := New()

	if _, err := r.Admit("p1", domain.RolePresenter, "Alice", "", &fakeConn{}); !errors.Is(err, core.ErrInvalidRequest) {
		t.Fatalf("presenter without session id err=%v, want ErrInvalidRequest", err)
	}
	if _, err := r.Admit("v1", domain.RoleViewer, "", "", &fakeConn{}); !errors.Is(err, core.ErrInvalidRequest) {
		t.Fatalf("missing name err=%v, want ErrInvalidRequest", err)
	}
	if _, err := r.Admit("x1", domain.Role("producer"), "Bob", "S1", &fakeConn{}); !errors.Is(err, core.ErrInvalidRequest) {
		t.Fatalf("bad role err=%v, want ErrInvalidRequest", err)
	}
	if got := len(r.Sessions()); got != 0 {
		t.Fatalf("sessions after rejected admissions=%d, want 0", got)
	}
}

func TestAdmit_ViewerJoiningNotifiesPresenters(t *testing.T) {
	r := New()
	p1, p2 := &fakeConn{}, &fakeConn{}

	// Presenters may create the session before the viewer arrives.
	if _, err := r.Admit("p1", domain.RolePresenter, "Alice", "S1", p1); err != nil {
		t.Fatalf("Admit p1: %v", err)
	}
	if _, err := r.Admit("p2", domain.RolePresenter, "Bob", "S1", p2); err != nil {
		t.Fatalf("Admit p2: %v", err)
	}

	if _, err := r.Admit("v1", domain.RoleViewer, "Tutor", "S1", &fakeConn{}); err != nil {
		t.Fatalf("Admit viewer: %v", err)
	}

	for name, p := range map[string]*fakeConn{"p1": p1, "p2": p2} {
		evs := p.events(t)
		if len(evs) != 1 || evs[0].Type != core.EventViewerJoined {
			t.Fatalf("%s events=%+v, want single viewer-joined", name, evs)
		}
	}
}

func TestShareLifecycle(t *testing.T) {
	r := New()
	viewer := &fakeConn{}

	sid, _ := r.Admit("v1", domain.RoleViewer, "Tutor", "", viewer)
	if _, err := r.Admit("p1", domain.RolePresenter, "Alice", sid, &fakeConn{}); err != nil {
		t.Fatalf("Admit presenter: %v", err)
	}

	r.SetSharing("p1", true)
	evs := viewer.events(t)
	last := evs[len(evs)-1]
	if last.Type != core.EventShareStarted || last.PresenterID != "p1" || last.Name != "Alice" {
		t.Fatalf("viewer got %+v, want share-started p1/Alice", last)
	}

	// Disconnect without a stop event: the viewer gets presenter-left only.
	r.Departed("p1")
	evs = viewer.events(t)
	last = evs[len(evs)-1]
	if last.Type != core.EventPresenterLeft || last.PresenterID != "p1" || last.Name != "Alice" {
		t.Fatalf("viewer got %+v, want presenter-left p1/Alice", last)
	}
}

func TestSetSharing_IgnoresNonPresenters(t *testing.T) {
	r := New()
	presenter := &fakeConn{}

	sid, _ := r.Admit("v1", domain.RoleViewer, "Tutor", "", &fakeConn{})
	r.Admit("p1", domain.RolePresenter, "Alice", sid, presenter)

	r.SetSharing("v1", true)     // viewer
	r.SetSharing("ghost", true)  // never admitted
	r.SetSharing("p2", true)     // departed/unknown presenter id

	if got := presenter.count(); got != 0 {
		t.Fatalf("presenter received %d frames, want 0", got)
	}
}

func TestRelay_ViewerSentinel(t *testing.T) {
	r := New()
	viewer := &fakeConn{}

	sid, _ := r.Admit("v1", domain.RoleViewer, "Tutor", "", viewer)
	r.Admit("p1", domain.RolePresenter, "Alice", sid, &fakeConn{})

	payload := core.Frame(`{"type":"offer","sdp":"S","senderId":"p1"}`)
	r.Relay(core.EventOffer, "p1", core.ViewerTarget(), payload)

	viewer.mu.Lock()
	frames := viewer.frames
	viewer.mu.Unlock()
	if len(frames) == 0 || string(frames[len(frames)-1]) != string(payload) {
		t.Fatalf("viewer frames=%q, want trailing %q", frames, payload)
	}

	// Viewer departs: the same relay is silently dropped.
	r.Departed("v1")
	before := viewer.count()
	r.Relay(core.EventOffer, "p1", core.ViewerTarget(), payload)
	if got := viewer.count(); got != before {
		t.Fatalf("frames after drop=%d, want %d", got, before)
	}
}

func TestRelay_ExplicitTarget(t *testing.T) {
	r := New()
	p1 := &fakeConn{}

	sid, _ := r.Admit("v1", domain.RoleViewer, "Tutor", "", &fakeConn{})
	r.Admit("p1", domain.RolePresenter, "Alice", sid, p1)

	payload := core.Frame(`{"type":"answer","sdp":"A","senderId":"v1"}`)
	r.Relay(core.EventAnswer, "v1", core.ConnectionTarget("p1"), payload)
	if got := p1.count(); got != 1 {
		t.Fatalf("p1 frames=%d, want 1", got)
	}

	r.Departed("p1")
	r.Relay(core.EventAnswer, "v1", core.ConnectionTarget("p1"), payload)
	if got := p1.count(); got != 1 {
		t.Fatalf("p1 frames after departure=%d, want still 1", got)
	}
}

func TestDeparture_MembershipStaysExact(t *testing.T) {
	r := New()

	sid, _ := r.Admit("v1", domain.RoleViewer, "Tutor", "", &fakeConn{})
	r.Admit("p1", domain.RolePresenter, "Alice", sid, &fakeConn{})
	r.Admit("p2", domain.RolePresenter, "Bob", sid, &fakeConn{})

	infos := r.Sessions()
	if len(infos) != 1 || infos[0].PresenterCount != 2 || !infos[0].ViewerPresent {
		t.Fatalf("Sessions()=%+v, want one session with 2 presenters and a viewer", infos)
	}

	r.Departed("p1")
	r.Departed("p1") // idempotent
	infos = r.Sessions()
	if infos[0].PresenterCount != 1 {
		t.Fatalf("PresenterCount=%d after departure, want 1", infos[0].PresenterCount)
	}

	r.Departed("v1")
	r.Departed("p2")
	if got := len(r.Sessions()); got != 0 {
		t.Fatalf("sessions after everyone left=%d, want 0", got)
	}

	// The freed identifier starts a fresh, empty session.
	if _, err := r.Admit("p3", domain.RolePresenter, "Carol", sid, &fakeConn{}); err != nil {
		t.Fatalf("Admit into reused id: %v", err)
	}
	infos = r.Sessions()
	if len(infos) != 1 || infos[0].ViewerPresent || infos[0].PresenterCount != 1 {
		t.Fatalf("reused session=%+v, want fresh with single presenter", infos)
	}
}

func TestViewerSlotTakeover(t *testing.T) {
	r := New()
	p1 := &fakeConn{}

	sid, _ := r.Admit("v1", domain.RoleViewer, "Tutor", "", &fakeConn{})
	r.Admit("p1", domain.RolePresenter, "Alice", sid, p1)

	if _, err := r.Admit("v2", domain.RoleViewer, "Tutor2", sid, &fakeConn{}); err != nil {
		t.Fatalf("Admit v2: %v", err)
	}

	// The superseded viewer's departure must not clear the new slot.
	r.Departed("v1")
	infos := r.Sessions()
	if len(infos) != 1 || !infos[0].ViewerPresent {
		t.Fatalf("Sessions()=%+v, want viewer still present after stale departure", infos)
	}
	for _, ev := range p1.events(t) {
		if ev.Type == core.EventViewerLeft {
			t.Fatalf("presenter saw viewer-left after stale departure")
		}
	}
}

func TestReadmissionSupersedesMembership(t *testing.T) {
	r := New()
	v1 := &fakeConn{}

	sid1, _ := r.Admit("v1", domain.RoleViewer, "Tutor", "", v1)
	r.Admit("p1", domain.RolePresenter, "Alice", sid1, &fakeConn{})

	// The same connection joins a different session: the old session sees a
	// normal departure.
	if _, err := r.Admit("p1", domain.RolePresenter, "Alice", "OTHER1", &fakeConn{}); err != nil {
		t.Fatalf("re-admit: %v", err)
	}

	evs := v1.events(t)
	last := evs[len(evs)-1]
	if last.Type != core.EventPresenterLeft || last.PresenterID != "p1" {
		t.Fatalf("old viewer got %+v, want presenter-left p1", last)
	}
	if got := len(r.Sessions()); got != 2 {
		t.Fatalf("sessions=%d, want 2 (old with viewer, new with presenter)", got)
	}
}
