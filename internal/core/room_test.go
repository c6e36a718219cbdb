package core

import (
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Cipher/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	frames []Frame
	full   bool
}

func (c *recordingConn) TrySend(f Frame) error {
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recordingConn) Close() {}

func newTestRoom() (*Room, *recordingConn) {
	room := NewRoom(domain.Room{ID: "ROOM", Host: "h", CreatedAt: time.Now()})
	host := &recordingConn{}
	room.AddMember(domain.Member{ID: "h", DisplayName: "Host", IsHost: true}, host)
	return room, host
}

func TestRosterKeepsJoinOrder(t *testing.T) {
	room, _ := newTestRoom()
	room.AddMember(domain.Member{ID: "a", DisplayName: "alpha"}, &recordingConn{})
	room.AddMember(domain.Member{ID: "b", DisplayName: "bravo"}, &recordingConn{})

	_, ok := room.RemoveMember("a")
	require.True(t, ok)

	roster := room.Roster()
	require.Len(t, roster, 2)
	assert.Equal(t, domain.ConnID("h"), roster[0].ID)
	assert.True(t, roster[0].IsHost)
	assert.Equal(t, domain.ConnID("b"), roster[1].ID)

	_, ok = room.RemoveMember("a")
	assert.False(t, ok)
}

func TestNameTakenCoversPendingRequests(t *testing.T) {
	room, _ := newTestRoom()
	assert.True(t, room.NameTaken("HOST"))
	assert.False(t, room.NameTaken("guest"))

	room.AddPending(domain.PendingJoin{ID: "g", DisplayName: "Guest", RequestedAt: time.Now()}, &recordingConn{})
	assert.True(t, room.NameTaken("guest"))

	p, ok := room.TakePending("g")
	require.True(t, ok)
	assert.Equal(t, "Guest", p.Request.DisplayName)
	assert.False(t, room.NameTaken("guest"))
}

func TestBroadcastSkipsSenderAndReportsDrops(t *testing.T) {
	room, host := newTestRoom()
	slow := &recordingConn{full: true}
	other := &recordingConn{}
	room.AddMember(domain.Member{ID: "s", DisplayName: "slow"}, slow)
	room.AddMember(domain.Member{ID: "o", DisplayName: "other"}, other)

	res := room.Broadcast("h", Frame("hi"))
	assert.Equal(t, 1, res.SendTo)
	assert.Equal(t, []domain.ConnID{"s"}, res.Dropped)
	assert.Empty(t, host.frames)
	assert.Len(t, other.frames, 1)

	res = room.Broadcast("", Frame("all"))
	assert.Equal(t, 2, res.SendTo)
	assert.Len(t, host.frames, 1)
}

func TestDeleteMessageIsIdempotent(t *testing.T) {
	room, _ := newTestRoom()
	require.True(t, room.TrackMessage("m1", "h"))
	assert.False(t, room.TrackMessage("m1", "h"))

	room.AddPoll("m1", domain.PollSpec{Options: []domain.OptionID{"o1"}})
	assert.True(t, room.DeleteMessage("m1"))
	assert.False(t, room.DeleteMessage("m1"))
	assert.False(t, room.DeleteMessage("unknown"))

	info, ok := room.Message("m1")
	require.True(t, ok)
	assert.True(t, info.Deleted)
	_, ok = room.Poll("m1")
	assert.False(t, ok)
}

func TestCloseDetachesEverybody(t *testing.T) {
	room, _ := newTestRoom()
	room.AddPending(domain.PendingJoin{ID: "p", DisplayName: "late"}, &recordingConn{})

	members, pending := room.Close()
	assert.False(t, room.Active())
	assert.Len(t, members, 1)
	assert.Len(t, pending, 1)
	assert.Equal(t, 0, room.MemberCount())
	assert.Equal(t, 0, room.PendingCount())
	assert.ErrorIs(t, room.Send("h", Frame("x")), domain.ErrTargetNotInRoom)
}
