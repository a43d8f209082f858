package domain

import (
	"crypto/rand"
)

type SessionID string

// sessionAlphabet avoids 0/O and 1/I so generated ids stay easy to read aloud
// and type into the join form.
const sessionAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const sessionIDLen = 6

// NewSessionID returns a short human-typeable session identifier. Collisions
// are accepted as negligible; no uniqueness check is performed.
func NewSessionID() SessionID {
	buf := make([]byte, sessionIDLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = sessionAlphabet[int(b)%len(sessionAlphabet)]
	}
	return SessionID(buf)
}
