// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const MaxNameLen = 36

var (
	ErrNameEmpty   = errors.New("name empty")
	ErrNameTooLong = errors.New("name too long")
	ErrBadRole     = errors.New("unknown role")
)

// Role is declared once at admission and fixed for the connection's lifetime.
type Role string

const (
	RoleViewer    Role = "viewer"
	RolePresenter Role = "presenter"
)

func (r Role) Valid() bool {
	return r == RoleViewer || r == RolePresenter
}

// ConnID is the ephemeral transport-level identity of one participant.
// Assigned by the channel adapter, never by the application.
type ConnID string

type Participant struct {
	ID   ConnID `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewParticipant(id ConnID, role Role, name string) (*Participant, error) {
	if len(name) == 0 {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	if !role.Valid() {
		return nil, ErrBadRole
	}
	return &Participant{ID: id, Role: role, Name: name}, nil
}
