package core

import "github.com/dkeye/Cipher/internal/domain"

// Frame is an encoded outbound event.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []domain.ConnID
}

// PendingConn pairs a parked join request with the requester's transport.
type PendingConn struct {
	Request domain.PendingJoin
	Conn    SignalConnection
}
