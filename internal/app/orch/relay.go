package orch

import (
	"time"

	"github.com/dkeye/Cipher/internal/domain"
	"github.com/dkeye/Cipher/internal/protocol"
	"github.com/rs/zerolog/log"
)

// RelayMessage forwards a message to the other members with the sender's
// roster name stamped on it, and arms its self-destruct timer if asked.
func (o *Orchestrator) RelayMessage(sid domain.ConnID, msg protocol.SendMessage) error {
	room, member, err := o.lockMemberRoom(sid, msg.Room())
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	if !room.TrackMessage(msg.ID, sid) {
		return domain.ErrDuplicateMessage
	}
	if msg.Poll != nil {
		room.AddPoll(msg.ID, msg.Poll.Spec())
	}

	sentAt := msg.Time
	if sentAt <= 0 {
		sentAt = protocol.Millis(o.now())
	}
	o.broadcast(room, sid, protocol.ChatMessage{
		ID:             msg.ID,
		RoomID:         room.ID(),
		SenderID:       sid,
		DisplayName:    member.DisplayName,
		Ciphertext:     msg.Ciphertext,
		Time:           sentAt,
		SelfDestructMs: msg.SelfDestructMs,
		ReplyTo:        msg.ReplyTo,
		Poll:           msg.Poll,
	})

	if d, ok := o.selfDestructDelay(msg.SelfDestructMs); ok {
		roomID, msgID := room.ID(), msg.ID
		o.Destruct.Schedule(roomID, msgID, d, func() {
			o.expireMessage(roomID, msgID)
		})
	}
	return nil
}

// selfDestructDelay reports whether a timer is needed at all. A delay
// longer than the room may live never fires: teardown cancels it first.
func (o *Orchestrator) selfDestructDelay(ms int64) (time.Duration, bool) {
	if ms <= 0 || o.Destruct == nil || ms > protocol.MaxSelfDestructMs {
		return 0, false
	}
	d := time.Duration(ms) * time.Millisecond
	if o.MaxRoomAge > 0 && d > o.MaxRoomAge {
		return 0, false
	}
	return d, true
}

// expireMessage is the self-destruct callback. The room or the message may
// be gone by now; both cases are no-ops.
func (o *Orchestrator) expireMessage(roomID domain.RoomID, msgID domain.MessageID) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		return
	}
	room.Mutex.Lock()
	defer room.Mutex.Unlock()

	if !room.Active() || !room.DeleteMessage(msgID) {
		return
	}
	o.broadcast(room, "", protocol.MessageDeleted{MessageID: msgID})
	log.Debug().Str("module", "app.orch").Str("room", string(roomID)).Str("message", string(msgID)).Msg("message self-destructed")
}

// EditMessage broadcasts new ciphertext for a live message to the whole
// room. Edits of unknown or deleted messages are dropped.
func (o *Orchestrator) EditMessage(sid domain.ConnID, req protocol.EditMessage) error {
	room, _, err := o.lockMemberRoom(sid, req.Room())
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	info, ok := room.Message(req.MessageID)
	if !ok || info.Deleted {
		return nil
	}
	if o.StrictAuthorship && info.Author != sid {
		return domain.ErrNotAuthor
	}
	o.broadcast(room, "", protocol.MessageUpdated{
		MessageID:  req.MessageID,
		Ciphertext: req.Ciphertext,
		Edited:     true,
	})
	return nil
}

// DeleteMessage broadcasts the deletion marker once per message; repeats
// are silent.
func (o *Orchestrator) DeleteMessage(sid domain.ConnID, req protocol.DeleteMessage) error {
	room, _, err := o.lockMemberRoom(sid, req.Room())
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	info, ok := room.Message(req.MessageID)
	if !ok || info.Deleted {
		return nil
	}
	if o.StrictAuthorship && info.Author != sid {
		return domain.ErrNotAuthor
	}
	if !room.DeleteMessage(req.MessageID) {
		return nil
	}
	if o.Destruct != nil {
		o.Destruct.Cancel(room.ID(), req.MessageID)
	}
	o.broadcast(room, "", protocol.MessageDeleted{MessageID: req.MessageID})
	return nil
}

// VotePoll applies a vote under the room lock, so concurrent voters on a
// single-choice poll cannot both keep two options.
func (o *Orchestrator) VotePoll(sid domain.ConnID, req protocol.PollVote) error {
	room, member, err := o.lockMemberRoom(sid, req.Room())
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	tally, ok := room.Poll(req.MessageID)
	if !ok {
		return domain.ErrNoSuchPoll
	}
	deltas, err := tally.Apply(member.DisplayName, req.OptionID, req.Action, o.now())
	if err != nil {
		return err
	}
	for _, d := range deltas {
		o.broadcast(room, "", protocol.NewPollVoteUpdate(d))
	}
	return nil
}

// Typing is relayed to the other members and never stored.
func (o *Orchestrator) Typing(sid domain.ConnID, req protocol.TypingStatus) error {
	room, member, err := o.lockMemberRoom(sid, req.Room())
	if err != nil {
		return err
	}
	defer room.Mutex.Unlock()

	o.broadcast(room, sid, protocol.UserTyping{DisplayName: member.DisplayName, IsTyping: req.IsTyping})
	return nil
}
