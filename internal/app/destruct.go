package app

import (
	"sync"
	"time"

	"github.com/dkeye/Cipher/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type scheduled struct {
	seq   uint64
	timer clockwork.Timer
}

// Scheduler runs self-destruct callbacks keyed by room and message.
// Cancellation is best effort: a callback that already started still runs,
// so callbacks must be no-ops against deleted messages or rooms.
type Scheduler struct {
	clock clockwork.Clock

	mu     sync.Mutex
	seq    uint64
	timers map[domain.RoomID]map[domain.MessageID]scheduled
}

func NewScheduler(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:  clock,
		timers: make(map[domain.RoomID]map[domain.MessageID]scheduled),
	}
}

// Schedule arms fn to run once after d. Scheduling the same message twice
// replaces the earlier timer.
func (s *Scheduler) Schedule(room domain.RoomID, msg domain.MessageID, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	seq := s.seq

	// The callback never runs under the clock's lock; fn takes room locks.
	t := s.clock.AfterFunc(d, func() {
		go func() {
			s.forget(room, msg, seq)
			fn()
		}()
	})

	byMsg, ok := s.timers[room]
	if !ok {
		byMsg = make(map[domain.MessageID]scheduled)
		s.timers[room] = byMsg
	}
	if prev, ok := byMsg[msg]; ok {
		prev.timer.Stop()
	}
	byMsg[msg] = scheduled{seq: seq, timer: t}
	log.Debug().Str("module", "app.destruct").Str("room", string(room)).Str("message", string(msg)).Dur("after", d).Msg("self-destruct scheduled")
}

func (s *Scheduler) forget(room domain.RoomID, msg domain.MessageID, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.timers[room][msg]; ok && cur.seq == seq {
		delete(s.timers[room], msg)
		if len(s.timers[room]) == 0 {
			delete(s.timers, room)
		}
	}
}

// Cancel stops a pending timer. It reports whether one was stopped.
func (s *Scheduler) Cancel(room domain.RoomID, msg domain.MessageID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.timers[room][msg]
	if !ok {
		return false
	}
	delete(s.timers[room], msg)
	if len(s.timers[room]) == 0 {
		delete(s.timers, room)
	}
	return cur.timer.Stop()
}

// CancelRoom drops every timer of a torn down room.
func (s *Scheduler) CancelRoom(room domain.RoomID) int {
	s.mu.Lock()
	byMsg := s.timers[room]
	delete(s.timers, room)
	s.mu.Unlock()

	for _, cur := range byMsg {
		cur.timer.Stop()
	}
	if len(byMsg) > 0 {
		log.Debug().Str("module", "app.destruct").Str("room", string(room)).Int("timers", len(byMsg)).Msg("self-destruct timers canceled")
	}
	return len(byMsg)
}

// Pending counts armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, byMsg := range s.timers {
		n += len(byMsg)
	}
	return n
}
