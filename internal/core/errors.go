package core

import "errors"

// ErrInvalidRequest marks a malformed admission: missing name, unknown role,
// or a presenter join without a session id. It is the only failure surfaced
// back across the channel boundary; everything else is absorbed as a no-op.
var ErrInvalidRequest = errors.New("invalid request")
