package peer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ameen-Abccoders/screen-sharing-app/internal/core"
)

// State of one peer relationship.
type State int

const (
	StateNegotiating State = iota
	StateConnected
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

var ErrCoordinatorClosed = errors.New("coordinator closed")

// Config is the restart policy. MaxRestarts 0 retries without bound.
type Config struct {
	RestartBackoff time.Duration
	MaxRestarts    int
}

// link is one peer relationship. Restart replaces the whole object; a link is
// never mutated back into negotiating.
type link struct {
	peerID    string
	initiator bool
	restarts  int
	state     State
	transport Transport
}

// Coordinator owns all peer relationships of one participant. Operations on
// different links never block each other beyond the shared table lock;
// transitions within a link are serialized by it.
type Coordinator struct {
	factory   TransportFactory
	sender    Sender
	cfg       Config
	responder bool // viewers answer, presenters offer

	mu     sync.Mutex
	links  map[string]*link
	closed bool
}

func NewCoordinator(factory TransportFactory, sender Sender, cfg Config, responder bool) *Coordinator {
	return &Coordinator{
		factory:   factory,
		sender:    sender,
		cfg:       cfg,
		responder: responder,
		links:     make(map[string]*link),
	}
}

// StartLink opens an initiator relationship with the remote peer, replacing
// any existing one wholesale.
func (c *Coordinator) StartLink(peerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCoordinatorClosed
	}
	return c.startLinkLocked(peerID, true, 0, "")
}

// HandleOffer is the responder's admission signal: a fresh relationship is
// created implicitly, superseding any previous one with this peer. An
// initiator never receives an unsolicited offer; it logs and drops.
func (c *Coordinator) HandleOffer(peerID, sdp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if !c.responder {
		log.Warn().Str("module", "peer").Str("peer", peerID).Msg("unsolicited offer dropped")
		return
	}
	if err := c.startLinkLocked(peerID, false, 0, sdp); err != nil {
		log.Error().Err(err).Str("module", "peer").Str("peer", peerID).Msg("responder setup failed")
	}
}

// HandleAnswer applies the remote answer to an initiator link still
// negotiating. Anything else is stale traffic and is dropped.
func (c *Coordinator) HandleAnswer(peerID, sdp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.links[peerID]
	if l == nil || !l.initiator || l.state != StateNegotiating {
		log.Debug().Str("module", "peer").Str("peer", peerID).Msg("stale answer dropped")
		return
	}
	if err := l.transport.ApplyAnswer(sdp); err != nil {
		log.Error().Err(err).Str("module", "peer").Str("peer", peerID).Msg("apply answer")
	}
}

// HandleCandidate applies a remote candidate if the relationship exists, even
// after connecting (late candidates are applied opportunistically). Without a
// relationship the candidate is dropped; the protocol does not buffer.
func (c *Coordinator) HandleCandidate(peerID string, cand core.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.links[peerID]
	if l == nil || l.state == StateClosed {
		log.Debug().Str("module", "peer").Str("peer", peerID).Msg("candidate for unknown peer dropped")
		return
	}
	if err := l.transport.AddRemoteCandidate(cand); err != nil {
		log.Error().Err(err).Str("module", "peer").Str("peer", peerID).Msg("add candidate")
	}
}

// CloseLink tears the relationship down terminally; no restart follows.
func (c *Coordinator) CloseLink(peerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l := c.links[peerID]; l != nil {
		c.closeLinkLocked(l)
	}
}

// Close releases every relationship. The coordinator is unusable afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, l := range c.links {
		c.closeLinkLocked(l)
	}
}

// State reports the relationship's current state.
func (c *Coordinator) State(peerID string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.links[peerID]
	if !ok {
		return StateClosed, false
	}
	return l.state, true
}

// ActiveLinks counts live relationships.
func (c *Coordinator) ActiveLinks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.links)
}

func (c *Coordinator) startLinkLocked(peerID string, initiator bool, restarts int, remoteOffer string) error {
	if old := c.links[peerID]; old != nil {
		c.closeLinkLocked(old)
	}

	t, err := c.factory()
	if err != nil {
		return err
	}
	l := &link{
		peerID:    peerID,
		initiator: initiator,
		restarts:  restarts,
		state:     StateNegotiating,
		transport: t,
	}
	c.links[peerID] = l

	t.OnCandidate(func(cand core.Candidate) {
		_ = c.sender.SendCandidate(peerID, cand)
	})
	t.OnStateChange(func(s TransportState) {
		c.transportEvent(l, s)
	})

	if err := t.Start(context.Background()); err != nil {
		c.closeLinkLocked(l)
		return err
	}

	log.Info().Str("module", "peer").Str("peer", peerID).Bool("initiator", initiator).
		Int("restarts", restarts).Msg("negotiating")

	switch {
	case initiator:
		sdp, err := t.CreateOffer()
		if err != nil {
			c.closeLinkLocked(l)
			return err
		}
		if err := c.sender.SendOffer(peerID, sdp); err != nil {
			log.Warn().Err(err).Str("module", "peer").Str("peer", peerID).Msg("send offer")
		}
	case remoteOffer != "":
		sdp, err := t.CreateAnswer(remoteOffer)
		if err != nil {
			c.closeLinkLocked(l)
			return err
		}
		if err := c.sender.SendAnswer(peerID, sdp); err != nil {
			log.Warn().Err(err).Str("module", "peer").Str("peer", peerID).Msg("send answer")
		}
	default:
		// Responder restart: the transport waits for the initiator's
		// next offer to supersede this link.
	}
	return nil
}

func (c *Coordinator) closeLinkLocked(l *link) {
	l.state = StateClosed
	l.transport.Close()
	if c.links[l.peerID] == l {
		delete(c.links, l.peerID)
	}
}

// transportEvent is the single entry point for connectivity transitions.
// Events for a superseded link land on a dead pointer and are ignored, so no
// message is ever applied to a half-torn-down relationship.
func (c *Coordinator) transportEvent(l *link, s TransportState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.links[l.peerID] != l {
		return
	}

	switch s {
	case TransportConnected:
		l.state = StateConnected
		l.restarts = 0
		log.Info().Str("module", "peer").Str("peer", l.peerID).Msg("connected")
	case TransportFailed:
		l.state = StateFailed
		log.Warn().Str("module", "peer").Str("peer", l.peerID).Int("restarts", l.restarts).Msg("negotiation failed")
		c.scheduleRestartLocked(l)
	case TransportClosed:
		if l.state == StateFailed {
			// Teardown we initiated ourselves; the restart timer owns
			// this link now.
			return
		}
		c.closeLinkLocked(l)
	}
}

func (c *Coordinator) scheduleRestartLocked(l *link) {
	next := l.restarts + 1
	if c.cfg.MaxRestarts > 0 && next > c.cfg.MaxRestarts {
		log.Warn().Str("module", "peer").Str("peer", l.peerID).Int("restarts", l.restarts).Msg("negotiation abandoned")
		c.closeLinkLocked(l)
		return
	}

	l.transport.Close()
	peerID, initiator := l.peerID, l.initiator
	time.AfterFunc(c.cfg.RestartBackoff, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.links[peerID] != l {
			return
		}
		if err := c.startLinkLocked(peerID, initiator, next, ""); err != nil {
			log.Error().Err(err).Str("module", "peer").Str("peer", peerID).Msg("restart failed")
		}
	})
}
