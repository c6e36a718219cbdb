package orch

import (
	"github.com/dkeye/Cipher/internal/core"
	"github.com/dkeye/Cipher/internal/domain"
	"github.com/dkeye/Cipher/internal/protocol"
	"github.com/rs/zerolog/log"
)

const terminatedReason = "THIS ROOM HAS BEEN TERMINATED."

// Kick removes a member on the host's behalf. The target hears kicked
// before the rest of the room sees the roster change.
func (o *Orchestrator) Kick(sid domain.ConnID, req protocol.KickUser) error {
	room, err := o.lockHostRoom(sid, req.Room())
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	if req.TargetID == sid {
		return domain.ErrCannotKickSelf
	}
	if _, ok := room.Member(req.TargetID); !ok {
		return domain.ErrTargetNotInRoom
	}
	o.sendTo(room, req.TargetID, protocol.Kicked{RoomID: room.ID()})
	o.removeLocked(room, req.TargetID, domain.CauseKicked)
	log.Info().Str("module", "app.orch").Str("sid", string(req.TargetID)).Str("room", string(room.ID())).Msg("member kicked")
	return nil
}

// Leave detaches the caller from its room without closing the connection.
// A host leaving takes the room down with it.
func (o *Orchestrator) Leave(sid domain.ConnID, req protocol.LeaveRoom) error {
	conn, err := o.signal(sid)
	if err != nil {
		return err
	}
	ms, ok := o.Registry.RoomOf(sid)
	if !ok || (req.Room() != "" && req.Room() != ms.Room) {
		return domain.ErrNotAMember
	}
	room, ok := o.Rooms.Get(ms.Room)
	if !ok {
		o.Registry.RemoveRoom(sid, ms.Room)
		return domain.ErrNotAMember
	}

	room.Mutex.Lock()
	defer room.Mutex.Unlock()

	if !o.departLocked(room, sid) {
		return domain.ErrNotAMember
	}
	o.send(conn, protocol.LeftRoom{RoomID: ms.Room})
	return nil
}

// CloseRoom tears the room down on the host's request.
func (o *Orchestrator) CloseRoom(sid domain.ConnID, req protocol.CloseRoom) error {
	room, err := o.lockHostRoom(sid, req.Room())
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	o.teardownLocked(room, domain.CloseHostTerminated)
	return nil
}

// OnDisconnect runs once the transport is gone: pending requests are
// withdrawn, members leave, a host takes the room down.
func (o *Orchestrator) OnDisconnect(sid domain.ConnID) {
	defer o.Registry.Unbind(sid)

	ms, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	room, ok := o.Rooms.Get(ms.Room)
	if !ok {
		return
	}
	room.Mutex.Lock()
	defer room.Mutex.Unlock()
	o.departLocked(room, sid)
}

// departLocked handles any voluntary exit. It reports false when sid had
// nothing to do with the room.
func (o *Orchestrator) departLocked(room *core.Room, sid domain.ConnID) bool {
	if !room.Active() {
		return false
	}
	if p, ok := room.TakePending(sid); ok {
		o.Registry.RemoveRoom(sid, room.ID())
		o.sendTo(room, room.Meta().Host, protocol.JoinRequestCancelled{ID: p.Request.ID})
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(room.ID())).Msg("join request withdrawn")
		return true
	}
	if _, ok := room.Member(sid); !ok {
		return false
	}
	if room.IsHost(sid) {
		o.teardownLocked(room, domain.CloseHostLeft)
		return true
	}
	o.removeLocked(room, sid, domain.CauseLeft)
	return true
}

func (o *Orchestrator) removeLocked(room *core.Room, sid domain.ConnID, cause domain.RemoveCause) {
	m, ok := room.RemoveMember(sid)
	if !ok {
		return
	}
	o.Registry.RemoveRoom(sid, room.ID())

	notice := m.DisplayName + " has left."
	if cause == domain.CauseKicked {
		notice = m.DisplayName + " was removed from the session."
	}
	o.broadcast(room, "", protocol.SystemNotice(notice))
	o.broadcast(room, "", protocol.UpdateUsers(room.Roster()))
}

// teardownLocked announces the closure, detaches everybody, drops pending
// timers and moves the room id to destroyed-room memory.
func (o *Orchestrator) teardownLocked(room *core.Room, reason domain.CloseReason) {
	id := room.ID()
	o.broadcast(room, "", protocol.RoomClosed{RoomID: id, Reason: reason})

	members, pending := room.Close()
	for _, m := range members {
		o.Registry.RemoveRoom(m.ID, id)
	}
	for _, p := range pending {
		o.Registry.RemoveRoom(p.Request.ID, id)
		o.send(p.Conn, protocol.JoinResult{Approved: false, Reason: terminatedReason})
	}
	if o.Destruct != nil {
		o.Destruct.CancelRoom(id)
	}
	o.Rooms.Remove(id, o.now())

	log.Info().Str("module", "app.orch").Str("room", string(id)).Str("reason", string(reason)).Int("members", len(members)).Int("pending", len(pending)).Msg("room torn down")
}
