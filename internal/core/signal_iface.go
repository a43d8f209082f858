package core

// Frame is a raw signaling payload.
type Frame []byte

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues a frame without blocking. Delivery is best-effort:
	// a full buffer or a closed connection drops the frame.
	TrySend(Frame) error
	Close()
}
