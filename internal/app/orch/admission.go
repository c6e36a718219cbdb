package orch

import (
	"strings"

	"github.com/dkeye/Cipher/internal/core"
	"github.com/dkeye/Cipher/internal/domain"
	"github.com/dkeye/Cipher/internal/protocol"
	"github.com/rs/zerolog/log"
)

// JoinOutcome is either an admission with the post-join snapshot or a
// request parked for the host.
type JoinOutcome struct {
	Pending  bool
	Snapshot domain.RoomSnapshot
}

// CreateRoom opens a room with the caller as its host and answers with
// room_created.
func (o *Orchestrator) CreateRoom(sid domain.ConnID, req protocol.CreateRoom) (domain.RoomSnapshot, error) {
	conn, err := o.signal(sid)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	if _, busy := o.Registry.RoomOf(sid); busy {
		return domain.RoomSnapshot{}, domain.ErrAlreadyInRoom
	}
	name, err := domain.NormalizeDisplayName(req.DisplayName)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	roomName, err := domain.NormalizeRoomName(req.RoomName)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	if o.Rooms.Count() >= o.Rooms.Capacity() {
		o.Sweep()
		if o.Rooms.Count() >= o.Rooms.Capacity() {
			return domain.RoomSnapshot{}, domain.ErrCapacityExceeded
		}
	}
	if err := o.Keys.Check(req.Secret); err != nil {
		return domain.RoomSnapshot{}, err
	}

	room, err := o.Rooms.Create(domain.Room{
		Name:            roomName,
		Host:            sid,
		Fingerprint:     o.hash(req.Secret),
		RequireApproval: req.RequireApproval,
		CreatedAt:       o.now(),
	})
	if err != nil {
		return domain.RoomSnapshot{}, err
	}

	room.Mutex.Lock()
	defer room.Mutex.Unlock()

	o.Registry.UpdateRoom(sid, room.ID(), false)
	room.AddMember(domain.Member{ID: sid, DisplayName: name, IsHost: true}, conn)
	snap := room.Snapshot()
	o.send(conn, protocol.NewRoomCreated(snap))

	log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(room.ID())).Bool("approval", req.RequireApproval).Msg("room created")
	return snap, nil
}

// JoinRoom admits the caller, or parks the request when the room requires
// host approval. Nothing is mutated unless every check passes.
func (o *Orchestrator) JoinRoom(sid domain.ConnID, req protocol.JoinRoom) (JoinOutcome, error) {
	conn, err := o.signal(sid)
	if err != nil {
		return JoinOutcome{}, err
	}
	if _, busy := o.Registry.RoomOf(sid); busy {
		return JoinOutcome{}, domain.ErrAlreadyInRoom
	}
	name, err := domain.NormalizeDisplayName(req.DisplayName)
	if err != nil {
		return JoinOutcome{}, err
	}
	if err := o.Keys.Check(req.Secret); err != nil {
		return JoinOutcome{}, err
	}

	id := domain.RoomID(strings.ToUpper(strings.TrimSpace(string(req.RoomID))))
	room, ok := o.Rooms.Get(id)
	if !ok {
		return JoinOutcome{}, o.missingRoom(id)
	}

	room.Mutex.Lock()
	defer room.Mutex.Unlock()

	if !room.Active() {
		return JoinOutcome{}, domain.ErrRoomDestroyed
	}
	if !core.SameFingerprint(room.Meta().Fingerprint, o.hash(req.Secret)) {
		return JoinOutcome{}, domain.ErrWrongSecret
	}
	if room.NameTaken(name) {
		return JoinOutcome{}, domain.ErrNameTaken
	}

	if room.Meta().RequireApproval {
		pending := domain.PendingJoin{ID: sid, DisplayName: name, RequestedAt: o.now()}
		o.Registry.UpdateRoom(sid, id, true)
		room.AddPending(pending, conn)
		o.send(conn, protocol.JoinPending{RoomID: id})
		o.sendTo(room, room.Meta().Host, protocol.JoinRequest{
			ID:          sid,
			DisplayName: name,
			RequestedAt: protocol.Millis(pending.RequestedAt),
		})
		log.Info().Str("module", "app.orch").Str("sid", string(sid)).Str("room", string(id)).Msg("join request parked")
		return JoinOutcome{Pending: true}, nil
	}

	snap := o.admitLocked(room, domain.Member{ID: sid, DisplayName: name}, conn)
	return JoinOutcome{Snapshot: snap}, nil
}

func (o *Orchestrator) missingRoom(id domain.RoomID) error {
	if o.Rooms.WasDestroyed(id) {
		return domain.ErrRoomDestroyed
	}
	return domain.ErrRoomNotFound
}

// admitLocked adds the member, confirms to the joiner first and only then
// tells the others.
func (o *Orchestrator) admitLocked(room *core.Room, m domain.Member, conn core.SignalConnection) domain.RoomSnapshot {
	o.Registry.UpdateRoom(m.ID, room.ID(), false)
	room.AddMember(m, conn)
	snap := room.Snapshot()

	o.send(conn, protocol.NewJoinedRoom(snap, m.IsHost))
	o.broadcast(room, m.ID, protocol.SystemNotice(m.DisplayName+" has entered the frequency."))
	o.broadcast(room, m.ID, protocol.UpdateUsers(snap.Roster))

	log.Info().Str("module", "app.orch").Str("sid", string(m.ID)).Str("room", string(room.ID())).Int("members", room.MemberCount()).Msg("member admitted")
	return snap
}

const defaultRejectReason = "ACCESS DENIED BY HOST."

// DecideJoinRequest resolves a parked request. Only the host may decide.
func (o *Orchestrator) DecideJoinRequest(sid domain.ConnID, req protocol.DecideJoinRequest) error {
	room, err := o.lockHostRoom(sid, req.Room())
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	p, ok := room.TakePending(req.TargetID)
	if !ok {
		return domain.ErrNoSuchRequest
	}

	if req.Approve {
		o.send(p.Conn, protocol.JoinResult{Approved: true})
		o.admitLocked(room, domain.Member{ID: p.Request.ID, DisplayName: p.Request.DisplayName}, p.Conn)
		return nil
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultRejectReason
	}
	o.Registry.RemoveRoom(p.Request.ID, room.ID())
	o.send(p.Conn, protocol.JoinResult{Approved: false, Reason: reason})
	log.Info().Str("module", "app.orch").Str("sid", string(p.Request.ID)).Str("room", string(room.ID())).Msg("join request rejected")
	return nil
}
