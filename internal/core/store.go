package core

import (
	"errors"
	"sync"
	"time"

	"github.com/dkeye/Cipher/internal/domain"
	"github.com/rs/zerolog/log"
)

// IDGenerator produces candidate room ids. Collisions are retried.
type IDGenerator func() domain.RoomID

const maxIDAttempts = 64

var ErrIDSpaceExhausted = errors.New("could not allocate a free room id")

// RoomStore is the in-process registry of live rooms together with the
// memory of recently destroyed ones.
type RoomStore struct {
	mu        sync.RWMutex
	rooms     map[domain.RoomID]*Room
	destroyed *destroyedRooms
	maxRooms  int
	newID     IDGenerator
}

func NewRoomStore(maxRooms int, gen IDGenerator) *RoomStore {
	if gen == nil {
		gen = GenerateRoomID
	}
	return &RoomStore{
		rooms:     make(map[domain.RoomID]*Room),
		destroyed: newDestroyedRooms(DestroyedRetention),
		maxRooms:  maxRooms,
		newID:     gen,
	}
}

// Create allocates a fresh id and inserts the room. It fails with
// domain.ErrCapacityExceeded without touching the store when full.
func (s *RoomStore) Create(meta domain.Room) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rooms) >= s.maxRooms {
		return nil, domain.ErrCapacityExceeded
	}
	for range maxIDAttempts {
		id := s.newID()
		if _, live := s.rooms[id]; live || s.destroyed.has(id) {
			log.Debug().Str("module", "core.store").Str("room", string(id)).Msg("room id collision, retrying")
			continue
		}
		meta.ID = id
		room := NewRoom(meta)
		s.rooms[id] = room
		log.Info().Str("module", "core.store").Str("room", string(id)).Int("live", len(s.rooms)).Msg("room created")
		return room, nil
	}
	return nil, ErrIDSpaceExhausted
}

func (s *RoomStore) Get(id domain.RoomID) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	return room, ok
}

// Remove drops a live room and remembers its id as destroyed.
func (s *RoomStore) Remove(id domain.RoomID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	s.destroyed.mark(id, at)
	log.Info().Str("module", "core.store").Str("room", string(id)).Int("live", len(s.rooms)).Msg("room removed")
}

// WasDestroyed reports whether id belonged to a room torn down within the
// retention window.
func (s *RoomStore) WasDestroyed(id domain.RoomID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed.has(id)
}

// Prune forgets destroyed ids older than the retention window.
func (s *RoomStore) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed.prune(now)
}

func (s *RoomStore) List() []*Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

func (s *RoomStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func (s *RoomStore) Capacity() int { return s.maxRooms }
