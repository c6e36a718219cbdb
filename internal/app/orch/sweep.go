package orch

import (
	"github.com/dkeye/Cipher/internal/domain"
	"github.com/rs/zerolog/log"
)

// Sweep expires rooms older than MaxRoomAge and prunes destroyed-room
// memory. It returns how many rooms were expired.
func (o *Orchestrator) Sweep() int {
	now := o.now()
	expired := 0
	for _, room := range o.Rooms.List() {
		room.Mutex.Lock()
		if room.Active() && now.Sub(room.Meta().CreatedAt) > o.MaxRoomAge {
			o.teardownLocked(room, domain.CloseExpired)
			expired++
		}
		room.Mutex.Unlock()
	}
	pruned := o.Rooms.Prune(now)
	if expired > 0 || pruned > 0 {
		log.Info().Str("module", "app.orch").Int("expired", expired).Int("pruned", pruned).Int("live", o.Rooms.Count()).Msg("sweep")
	}
	return expired
}
