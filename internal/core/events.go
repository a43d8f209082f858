package core

import "github.com/Ameen-Abccoders/screen-sharing-app/internal/domain"

// EventType discriminates the JSON envelope both directions of the channel.
type EventType string

const (
	EventJoin       EventType = "join"
	EventJoined     EventType = "joined"
	EventError      EventType = "error"
	EventPing       EventType = "ping"
	EventPong       EventType = "pong"
	EventStartShare EventType = "start-share"
	EventStopShare  EventType = "stop-share"

	EventViewerJoined    EventType = "viewer-joined"
	EventViewerLeft      EventType = "viewer-left"
	EventPresenterJoined EventType = "presenter-joined"
	EventPresenterLeft   EventType = "presenter-left"
	EventShareStarted    EventType = "share-started"
	EventShareStopped    EventType = "share-stopped"

	EventOffer     EventType = "offer"
	EventAnswer    EventType = "answer"
	EventCandidate EventType = "candidate"
)

// Envelope carries only the discriminator; handlers re-decode the full payload.
type Envelope struct {
	Type EventType `json:"type"`
}

type JoinPayload struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Role      domain.Role `json:"role"`
	Name      string      `json:"name"`
}

// JoinedPayload acknowledges admission and carries the session id, which the
// server may have generated for a viewer.
type JoinedPayload struct {
	Type      EventType        `json:"type"`
	SessionID domain.SessionID `json:"sessionId"`
	Role      domain.Role      `json:"role"`
}

type ErrorPayload struct {
	Type  EventType `json:"type"`
	Error string    `json:"error"`
}

// PresencePayload serves viewer-joined/viewer-left (empty fields) and
// presenter-joined/presenter-left/share-started/share-stopped.
type PresencePayload struct {
	Type        EventType     `json:"type"`
	PresenterID domain.ConnID `json:"presenterId,omitempty"`
	Name        string        `json:"name,omitempty"`
}

// Candidate is an opaque connectivity candidate plus the SDP grouping hints
// the transport format defines. The registry never interprets it.
type Candidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

// SignalPayload carries offer/answer/candidate in both directions. Target is
// set client->server, SenderID server->client; sdp and candidate pass through
// unmodified.
type SignalPayload struct {
	Type          EventType     `json:"type"`
	Target        string        `json:"target,omitempty"`
	SDP           string        `json:"sdp,omitempty"`
	Candidate     string        `json:"candidate,omitempty"`
	SDPMid        *string       `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16       `json:"sdpMLineIndex,omitempty"`
	SenderID      domain.ConnID `json:"senderId,omitempty"`
}

// SessionInfo is a read-only snapshot for the HTTP listing API.
type SessionInfo struct {
	ID             domain.SessionID `json:"id"`
	ViewerPresent  bool             `json:"viewer_present"`
	PresenterCount int              `json:"presenter_count"`
	SharingCount   int              `json:"sharing_count"`
}
