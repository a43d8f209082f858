// Package peer drives one negotiation per remote participant: the
// offer/answer/candidate exchange against an underlying transport, and the
// teardown-then-recreate recovery when the transport reports failure.
package peer

import (
	"context"

	"github.com/Ameen-Abccoders/screen-sharing-app/internal/core"
)

// TransportState is the reduced connectivity view the coordinator acts on.
type TransportState int

const (
	TransportConnected TransportState = iota
	TransportFailed
	TransportClosed
)

func (s TransportState) String() string {
	switch s {
	case TransportConnected:
		return "connected"
	case TransportFailed:
		return "failed"
	case TransportClosed:
		return "closed"
	}
	return "unknown"
}

// Transport is the underlying peer-connection transport for a single
// relationship. The coordinator never interprets sdp or candidate contents.
// Implementations must deliver callbacks from their own goroutines, never
// from inside Start/CreateOffer/CreateAnswer.
type Transport interface {
	// Start registers internal callbacks and binds the transport lifetime to ctx.
	Start(ctx context.Context) error
	// CreateOffer produces and installs the local offer.
	CreateOffer() (string, error)
	// CreateAnswer applies the remote offer and produces the local answer.
	CreateAnswer(remoteOffer string) (string, error)
	// ApplyAnswer installs the remote answer on an initiator transport.
	ApplyAnswer(sdp string) error
	// AddRemoteCandidate applies a remote connectivity candidate.
	AddRemoteCandidate(core.Candidate) error
	// OnCandidate sets the callback for locally discovered candidates.
	OnCandidate(func(core.Candidate))
	// OnStateChange sets the callback for connectivity transitions.
	OnStateChange(func(TransportState))
	// Close releases the transport and any media it owns.
	Close()
}

// TransportFactory builds a fresh transport for each relationship; restart
// never reuses an instance.
type TransportFactory func() (Transport, error)

// Sender carries negotiation events toward a remote peer through the session
// channel. Sends are fire-and-forget.
type Sender interface {
	SendOffer(target, sdp string) error
	SendAnswer(target, sdp string) error
	SendCandidate(target string, cand core.Candidate) error
}
