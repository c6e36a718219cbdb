package core

import (
	"testing"
	"time"

	"github.com/dkeye/Cipher/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequenceIDs(ids ...domain.RoomID) IDGenerator {
	i := 0
	return func() domain.RoomID {
		id := ids[i%len(ids)]
		i++
		return id
	}
}

func TestCreateRetriesOnCollision(t *testing.T) {
	s := NewRoomStore(10, sequenceIDs("AAAA", "AAAA", "BBBB"))

	first, err := s.Create(domain.Room{Host: "h1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("AAAA"), first.ID())

	second, err := s.Create(domain.Room{Host: "h2"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("BBBB"), second.ID())
	assert.Equal(t, 2, s.Count())
}

func TestCreateNeverReusesDestroyedID(t *testing.T) {
	s := NewRoomStore(10, sequenceIDs("AAAA", "AAAA", "CCCC"))
	room, err := s.Create(domain.Room{})
	require.NoError(t, err)
	s.Remove(room.ID(), time.Now())

	next, err := s.Create(domain.Room{})
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("CCCC"), next.ID())
}

func TestCreateCapacityLeavesStoreUntouched(t *testing.T) {
	s := NewRoomStore(1, nil)
	_, err := s.Create(domain.Room{})
	require.NoError(t, err)

	_, err = s.Create(domain.Room{})
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Equal(t, 1, s.Count())
}

func TestCreateGivesUpWhenEveryIDIsTaken(t *testing.T) {
	s := NewRoomStore(10, sequenceIDs("AAAA"))
	_, err := s.Create(domain.Room{})
	require.NoError(t, err)

	_, err = s.Create(domain.Room{})
	assert.ErrorIs(t, err, ErrIDSpaceExhausted)
}

func TestDestroyedMemoryIsPruned(t *testing.T) {
	s := NewRoomStore(10, nil)
	room, err := s.Create(domain.Room{})
	require.NoError(t, err)

	destroyedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Remove(room.ID(), destroyedAt)
	_, live := s.Get(room.ID())
	assert.False(t, live)
	assert.True(t, s.WasDestroyed(room.ID()))

	assert.Equal(t, 0, s.Prune(destroyedAt.Add(DestroyedRetention)))
	assert.True(t, s.WasDestroyed(room.ID()))

	assert.Equal(t, 1, s.Prune(destroyedAt.Add(DestroyedRetention+time.Second)))
	assert.False(t, s.WasDestroyed(room.ID()))
}

func TestGenerateRoomIDShape(t *testing.T) {
	id := GenerateRoomID()
	assert.Regexp(t, `^[0-9A-F]{8}$`, string(id))
}

func TestFingerprint(t *testing.T) {
	a := HashSecret("abcdef")
	assert.True(t, SameFingerprint(a, HashSecret("abcdef")))
	assert.False(t, SameFingerprint(a, HashSecret("abcdeg")))
	assert.Len(t, string(a), 64)
}
