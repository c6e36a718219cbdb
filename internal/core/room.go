package core

import (
	"sort"
	"sync"

	"github.com/dkeye/Cipher/internal/domain"
	"github.com/rs/zerolog/log"
)

// Room is the live state of one chat room.
//
// None of the methods lock: the orchestrator holds Mutex for the whole
// handling of one event, which keeps validation and mutation atomic and
// keeps broadcasts in issue order for every member.
type Room struct {
	Mutex sync.Mutex

	meta     domain.Room
	phase    domain.RoomPhase
	roster   []domain.Member
	conns    map[domain.ConnID]SignalConnection
	pending  map[domain.ConnID]PendingConn
	messages map[domain.MessageID]*messageState
	polls    map[domain.MessageID]*PollTally
}

type messageState struct {
	author  domain.ConnID
	deleted bool
}

// MessageInfo describes a relayed message as tracked by the room.
type MessageInfo struct {
	Author  domain.ConnID
	Deleted bool
}

func NewRoom(meta domain.Room) *Room {
	return &Room{
		meta:     meta,
		phase:    domain.RoomActive,
		conns:    make(map[domain.ConnID]SignalConnection),
		pending:  make(map[domain.ConnID]PendingConn),
		messages: make(map[domain.MessageID]*messageState),
		polls:    make(map[domain.MessageID]*PollTally),
	}
}

func (r *Room) Meta() domain.Room { return r.meta }
func (r *Room) ID() domain.RoomID { return r.meta.ID }
func (r *Room) Active() bool      { return r.phase == domain.RoomActive }
func (r *Room) MemberCount() int  { return len(r.roster) }
func (r *Room) PendingCount() int { return len(r.pending) }

func (r *Room) IsHost(id domain.ConnID) bool {
	return r.meta.Host == id
}

func (r *Room) Roster() []domain.Member {
	out := make([]domain.Member, len(r.roster))
	copy(out, r.roster)
	return out
}

func (r *Room) Snapshot() domain.RoomSnapshot {
	return domain.RoomSnapshot{
		ID:              r.meta.ID,
		Name:            r.meta.Name,
		CreatedAt:       r.meta.CreatedAt,
		RequireApproval: r.meta.RequireApproval,
		Roster:          r.Roster(),
	}
}

func (r *Room) Member(id domain.ConnID) (domain.Member, bool) {
	for _, m := range r.roster {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Member{}, false
}

// NameTaken checks members and parked requests alike.
func (r *Room) NameTaken(name string) bool {
	for _, m := range r.roster {
		if domain.SameName(m.DisplayName, name) {
			return true
		}
	}
	for _, p := range r.pending {
		if domain.SameName(p.Request.DisplayName, name) {
			return true
		}
	}
	return false
}

func (r *Room) AddMember(m domain.Member, conn SignalConnection) {
	r.roster = append(r.roster, m)
	r.conns[m.ID] = conn
	log.Info().Str("module", "core.room").Str("room", string(r.meta.ID)).Str("sid", string(m.ID)).Int("members", len(r.roster)).Msg("member added")
}

func (r *Room) RemoveMember(id domain.ConnID) (domain.Member, bool) {
	for i, m := range r.roster {
		if m.ID != id {
			continue
		}
		r.roster = append(r.roster[:i], r.roster[i+1:]...)
		delete(r.conns, id)
		log.Info().Str("module", "core.room").Str("room", string(r.meta.ID)).Str("sid", string(id)).Int("members", len(r.roster)).Msg("member removed")
		return m, true
	}
	return domain.Member{}, false
}

func (r *Room) AddPending(req domain.PendingJoin, conn SignalConnection) {
	r.pending[req.ID] = PendingConn{Request: req, Conn: conn}
}

func (r *Room) TakePending(id domain.ConnID) (PendingConn, bool) {
	p, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	return p, ok
}

// Pending lists parked requests oldest first.
func (r *Room) Pending() []domain.PendingJoin {
	out := make([]domain.PendingJoin, 0, len(r.pending))
	for _, p := range r.pending {
		out = append(out, p.Request)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	return out
}

// Close moves the room to its terminal phase and hands back everybody who
// was attached to it. The room keeps no connections afterwards.
func (r *Room) Close() ([]domain.Member, []PendingConn) {
	members := r.Roster()
	pending := make([]PendingConn, 0, len(r.pending))
	for _, p := range r.pending {
		pending = append(pending, p)
	}
	r.phase = domain.RoomDestroyed
	r.roster = nil
	r.conns = make(map[domain.ConnID]SignalConnection)
	r.pending = make(map[domain.ConnID]PendingConn)
	r.polls = make(map[domain.MessageID]*PollTally)
	return members, pending
}

// Send delivers a frame to a single member.
func (r *Room) Send(to domain.ConnID, f Frame) error {
	conn, ok := r.conns[to]
	if !ok {
		return domain.ErrTargetNotInRoom
	}
	return conn.TrySend(f)
}

// Broadcast fans a frame out to every member except from. An empty from
// reaches the whole room.
func (r *Room) Broadcast(from domain.ConnID, f Frame) PublishResult {
	res := PublishResult{}
	for _, m := range r.roster {
		if m.ID == from {
			continue
		}
		if err := r.conns[m.ID].TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, m.ID)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.meta.ID)).Str("from", string(from)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// TrackMessage records a relayed message id. It reports false when the id
// was already used in this room.
func (r *Room) TrackMessage(id domain.MessageID, author domain.ConnID) bool {
	if _, ok := r.messages[id]; ok {
		return false
	}
	r.messages[id] = &messageState{author: author}
	return true
}

func (r *Room) Message(id domain.MessageID) (MessageInfo, bool) {
	st, ok := r.messages[id]
	if !ok {
		return MessageInfo{}, false
	}
	return MessageInfo{Author: st.author, Deleted: st.deleted}, true
}

// DeleteMessage marks a message deleted. Only the first call for a known
// id reports true.
func (r *Room) DeleteMessage(id domain.MessageID) bool {
	st, ok := r.messages[id]
	if !ok || st.deleted {
		return false
	}
	st.deleted = true
	delete(r.polls, id)
	return true
}

func (r *Room) AddPoll(id domain.MessageID, spec domain.PollSpec) {
	r.polls[id] = NewPollTally(id, spec)
}

func (r *Room) Poll(id domain.MessageID) (*PollTally, bool) {
	t, ok := r.polls[id]
	return t, ok
}
