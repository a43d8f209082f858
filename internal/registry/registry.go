// Package registry is the single source of truth for session membership and
// sharing state, and the authoritative router for presence and negotiation
// events. It holds no transport logic: adapters hand it SignalConnections and
// it fans out frames with non-blocking sends.
package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Ameen-Abccoders/screen-sharing-app/internal/core"
	"github.com/Ameen-Abccoders/screen-sharing-app/internal/domain"
)

type presenterRecord struct {
	name    string
	sharing bool
	sig     core.SignalConnection
}

type session struct {
	id         domain.SessionID
	viewerID   domain.ConnID // "" while the slot is empty
	viewerSig  core.SignalConnection
	presenters map[domain.ConnID]*presenterRecord
}

func newSession(id domain.SessionID) *session {
	return &session{id: id, presenters: make(map[domain.ConnID]*presenterRecord)}
}

// empty sessions are deleted immediately; they never persist with zero members.
func (s *session) empty() bool {
	return s.viewerID == "" && len(s.presenters) == 0
}

type connEntry struct {
	sessionID domain.SessionID
	role      domain.Role
	name      string
	sig       core.SignalConnection
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*session
	conns    map[domain.ConnID]*connEntry
}

func New() *Registry {
	return &Registry{
		sessions: make(map[domain.SessionID]*session),
		conns:    make(map[domain.ConnID]*connEntry),
	}
}

// Admit assigns the connection to the named session, creating the session on
// first reference. A viewer without a session id gets a generated one; a
// presenter without one is rejected. Presence notifications go out to the
// members already in the session.
func (r *Registry) Admit(id domain.ConnID, role domain.Role, name string, sessionID domain.SessionID, sig core.SignalConnection) (domain.SessionID, error) {
	p, err := domain.NewParticipant(id, role, name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", core.ErrInvalidRequest, err)
	}
	if role == domain.RolePresenter && sessionID == "" {
		return "", fmt.Errorf("%w: presenter requires a session id", core.ErrInvalidRequest)
	}
	if sessionID == "" {
		sessionID = domain.NewSessionID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A connection belongs to at most one session; re-admission supersedes
	// the previous membership.
	if _, ok := r.conns[id]; ok {
		r.departLocked(id)
	}

	sess, ok := r.sessions[sessionID]
	if !ok {
		sess = newSession(sessionID)
		r.sessions[sessionID] = sess
		log.Info().Str("module", "registry").Str("session", string(sessionID)).Msg("session created")
	}

	switch role {
	case domain.RoleViewer:
		if sess.viewerID != "" && sess.viewerID != id {
			// The new viewer takes over the slot; the old connection's
			// later operations become stale no-ops.
			delete(r.conns, sess.viewerID)
		}
		sess.viewerID = id
		sess.viewerSig = sig
		for _, rec := range sess.presenters {
			r.notify(rec.sig, core.PresencePayload{Type: core.EventViewerJoined})
		}
	case domain.RolePresenter:
		sess.presenters[id] = &presenterRecord{name: p.Name, sig: sig}
		if sess.viewerID != "" {
			r.notify(sess.viewerSig, core.PresencePayload{
				Type:        core.EventPresenterJoined,
				PresenterID: id,
				Name:        p.Name,
			})
		}
	}

	r.conns[id] = &connEntry{sessionID: sessionID, role: role, name: p.Name, sig: sig}
	log.Info().Str("module", "registry").Str("conn", string(id)).Str("role", string(role)).
		Str("name", p.Name).Str("session", string(sessionID)).Msg("admitted")
	return sessionID, nil
}

// SetSharing flips a presenter's sharing flag and tells the viewer. Anything
// that is not an admitted presenter is silently ignored.
func (r *Registry) SetSharing(id domain.ConnID, sharing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[id]
	if !ok || e.role != domain.RolePresenter {
		return
	}
	sess, ok := r.sessions[e.sessionID]
	if !ok {
		return
	}
	rec, ok := sess.presenters[id]
	if !ok {
		return
	}
	rec.sharing = sharing

	kind := core.EventShareStarted
	if !sharing {
		kind = core.EventShareStopped
	}
	log.Info().Str("module", "registry").Str("conn", string(id)).Bool("sharing", sharing).Msg("share state")
	if sess.viewerID != "" {
		r.notify(sess.viewerSig, core.PresencePayload{Type: kind, PresenterID: id, Name: rec.name})
	}
}

// Relay forwards an already-encoded negotiation frame to the resolved target.
// Unresolvable targets drop the frame without error: races with departure are
// expected traffic.
func (r *Registry) Relay(kind core.EventType, sender domain.ConnID, target core.Target, payload core.Frame) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch target.Kind {
	case core.TargetViewer:
		e, ok := r.conns[sender]
		if !ok {
			log.Debug().Str("module", "registry").Str("kind", string(kind)).Str("sender", string(sender)).Msg("relay from unknown sender dropped")
			return
		}
		sess, ok := r.sessions[e.sessionID]
		if !ok || sess.viewerID == "" {
			log.Debug().Str("module", "registry").Str("kind", string(kind)).Str("sender", string(sender)).Msg("relay dropped, no viewer")
			return
		}
		_ = sess.viewerSig.TrySend(payload)
	case core.TargetConnection:
		te, ok := r.conns[target.ID]
		if !ok {
			log.Debug().Str("module", "registry").Str("kind", string(kind)).Str("target", string(target.ID)).Msg("relay dropped, target gone")
			return
		}
		_ = te.sig.TrySend(payload)
	}
}

// Departed removes the connection from its session, notifies the remaining
// members and deletes the session the instant it becomes empty. Safe to call
// more than once.
func (r *Registry) Departed(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.departLocked(id)
}

func (r *Registry) departLocked(id domain.ConnID) {
	e, ok := r.conns[id]
	if !ok {
		return
	}
	delete(r.conns, id)

	sess, ok := r.sessions[e.sessionID]
	if !ok {
		return
	}

	switch e.role {
	case domain.RoleViewer:
		if sess.viewerID != id {
			break
		}
		sess.viewerID = ""
		sess.viewerSig = nil
		for _, rec := range sess.presenters {
			r.notify(rec.sig, core.PresencePayload{Type: core.EventViewerLeft})
		}
	case domain.RolePresenter:
		rec, ok := sess.presenters[id]
		if !ok {
			break
		}
		delete(sess.presenters, id)
		if sess.viewerID != "" {
			r.notify(sess.viewerSig, core.PresencePayload{
				Type:        core.EventPresenterLeft,
				PresenterID: id,
				Name:        rec.name,
			})
		}
	}

	log.Info().Str("module", "registry").Str("conn", string(id)).Str("session", string(e.sessionID)).Msg("departed")
	if sess.empty() {
		delete(r.sessions, e.sessionID)
		log.Info().Str("module", "registry").Str("session", string(e.sessionID)).Msg("session destroyed")
	}
}

// Sessions returns a read-only snapshot for the listing API.
func (r *Registry) Sessions() []core.SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.SessionInfo, 0, len(r.sessions))
	for id, sess := range r.sessions {
		info := core.SessionInfo{
			ID:             id,
			ViewerPresent:  sess.viewerID != "",
			PresenterCount: len(sess.presenters),
		}
		for _, rec := range sess.presenters {
			if rec.sharing {
				info.SharingCount++
			}
		}
		out = append(out, info)
	}
	return out
}

// notify marshals and fire-and-forgets a presence event. Sends never block
// and never round-trip; a full buffer just drops the event.
func (r *Registry) notify(sig core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "registry").Msg("notify marshal")
		return
	}
	_ = sig.TrySend(b)
}
