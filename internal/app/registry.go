package app

import (
	"context"
	"sync"

	"github.com/dkeye/Cipher/internal/core"
	"github.com/dkeye/Cipher/internal/domain"
	"github.com/rs/zerolog/log"
)

// Membership is what a connection is attached to. Pending is set while a
// join request waits for the host.
type Membership struct {
	Room    domain.RoomID
	Pending bool
}

type binding struct {
	Membership
	Signal core.SignalConnection
	Cancel context.CancelFunc
}

// Registry maps live connections to at most one room.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*binding
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ConnID]*binding),
	}
}

func (r *Registry) Bind(sid domain.ConnID, sig core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[sid] = &binding{Signal: sig, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

func (r *Registry) Unbind(sid domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("unbind signal")
}

func (r *Registry) Signal(sid domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.conns[sid]; ok {
		return b.Signal, true
	}
	return nil, false
}

// RoomOf reports the room the connection is a member of or waiting for.
func (r *Registry) RoomOf(sid domain.ConnID) (Membership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[sid]
	if !ok || b.Room == "" {
		return Membership{}, false
	}
	return b.Membership, true
}

func (r *Registry) UpdateRoom(sid domain.ConnID, room domain.RoomID, pending bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[sid]
	if !ok {
		return false
	}
	b.Membership = Membership{Room: room, Pending: pending}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Bool("pending", pending).Msg("updated room")
	return true
}

// RemoveRoom detaches the connection, but only from the given room so a
// late teardown cannot clear a newer association.
func (r *Registry) RemoveRoom(sid domain.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.conns[sid]; ok && b.Room == room {
		b.Membership = Membership{}
		log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(room)).Msg("removed room association")
	}
}

// Cancel stops the connection's pumps and closes its transport. The
// adapter's disconnect path does the room cleanup.
func (r *Registry) Cancel(sid domain.ConnID) bool {
	r.mu.RLock()
	b, ok := r.conns[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if b.Cancel != nil {
		b.Cancel()
	}
	if b.Signal != nil {
		b.Signal.Close()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
