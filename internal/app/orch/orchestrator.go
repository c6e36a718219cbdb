package orch

import (
	"time"

	"github.com/dkeye/Cipher/internal/app"
	"github.com/dkeye/Cipher/internal/core"
	"github.com/dkeye/Cipher/internal/domain"
	"github.com/dkeye/Cipher/internal/protocol"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Orchestrator applies client events to the room store. Every event that
// touches a room runs with that room's Mutex held from validation to the
// last frame it sends, so per-room effects are atomic and in order.
//
// Lock order: core.Room.Mutex, then the store, then the registry.
type Orchestrator struct {
	Registry *app.Registry
	Rooms    *core.RoomStore
	Policy   app.Policy
	Keys     app.KeyPolicy
	Destruct *app.Scheduler
	Clock    clockwork.Clock
	Hash     func(secret string) domain.Fingerprint

	MaxRoomAge       time.Duration
	StrictAuthorship bool
}

func (o *Orchestrator) now() time.Time {
	if o.Clock == nil {
		return time.Now()
	}
	return o.Clock.Now()
}

func (o *Orchestrator) hash(secret string) domain.Fingerprint {
	if o.Hash == nil {
		return core.HashSecret(secret)
	}
	return o.Hash(secret)
}

func (o *Orchestrator) signal(sid domain.ConnID) (core.SignalConnection, error) {
	conn, ok := o.Registry.Signal(sid)
	if !ok {
		return nil, domain.ErrNotConnected
	}
	return conn, nil
}

func (o *Orchestrator) send(conn core.SignalConnection, ev protocol.Outbound) {
	f, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("encode")
		return
	}
	if err := conn.TrySend(f); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("event", string(ev.EventType())).Msg("direct send dropped")
	}
}

func (o *Orchestrator) sendTo(room *core.Room, to domain.ConnID, ev protocol.Outbound) {
	f, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("encode")
		return
	}
	if err := room.Send(to, f); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Str("room", string(room.ID())).Str("sid", string(to)).Msg("send dropped")
		o.onBackPressure(room, []domain.ConnID{to})
	}
}

// broadcast reaches every member but from; an empty from reaches everyone.
func (o *Orchestrator) broadcast(room *core.Room, from domain.ConnID, ev protocol.Outbound) {
	f, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Msg("encode")
		return
	}
	res := room.Broadcast(from, f)
	o.onBackPressure(room, res.Dropped)
}

func (o *Orchestrator) onBackPressure(room *core.Room, dropped []domain.ConnID) {
	if o.Policy == nil {
		return
	}
	for _, slow := range dropped {
		switch o.Policy.OnBackPressure(room.ID(), slow) {
		case app.KickMember:
			log.Warn().Str("module", "app.orch").Str("room", string(room.ID())).Str("sid", string(slow)).Msg("disconnecting slow member")
			o.Registry.Cancel(slow)
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
}

// lockMemberRoom returns the caller's room locked. The caller must unlock.
func (o *Orchestrator) lockMemberRoom(sid domain.ConnID, scope domain.RoomID) (*core.Room, domain.Member, error) {
	ms, ok := o.Registry.RoomOf(sid)
	if !ok || ms.Pending || (scope != "" && scope != ms.Room) {
		return nil, domain.Member{}, domain.ErrNotAMember
	}
	room, ok := o.Rooms.Get(ms.Room)
	if !ok {
		return nil, domain.Member{}, domain.ErrNotAMember
	}
	room.Mutex.Lock()
	member, ok := room.Member(sid)
	if !room.Active() || !ok {
		room.Mutex.Unlock()
		return nil, domain.Member{}, domain.ErrNotAMember
	}
	return room, member, nil
}

func (o *Orchestrator) lockHostRoom(sid domain.ConnID, scope domain.RoomID) (*core.Room, error) {
	room, _, err := o.lockMemberRoom(sid, scope)
	if err != nil {
		return nil, err
	}
	if !room.IsHost(sid) {
		room.Mutex.Unlock()
		return nil, domain.ErrNotHost
	}
	return room, nil
}
