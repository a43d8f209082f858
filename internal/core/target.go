package core

import "github.com/Ameen-Abccoders/screen-sharing-app/internal/domain"

// ViewerSentinel is the wire value addressing "the session's viewer"
// without knowing its connection id.
const ViewerSentinel = "viewer"

type TargetKind int

const (
	// TargetViewer resolves to the viewer slot of the sender's session.
	TargetViewer TargetKind = iota
	// TargetConnection addresses an explicit connection id, regardless of role.
	TargetConnection
)

// Target is a resolved relay destination. Resolution happens once at the
// registry boundary; nothing downstream re-interprets the sentinel.
type Target struct {
	Kind TargetKind
	ID   domain.ConnID
}

func ViewerTarget() Target { return Target{Kind: TargetViewer} }

func ConnectionTarget(id domain.ConnID) Target {
	return Target{Kind: TargetConnection, ID: id}
}

// ParseTarget maps a wire target field to a Target. An empty string is
// treated as the viewer sentinel, matching what browser presenters send.
func ParseTarget(s string) Target {
	if s == "" || s == ViewerSentinel {
		return ViewerTarget()
	}
	return ConnectionTarget(domain.ConnID(s))
}
