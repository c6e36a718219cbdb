package core

import (
	"time"

	"github.com/dkeye/Cipher/internal/domain"
)

// DestroyedRetention bounds how long a torn down room id is remembered.
const DestroyedRetention = 7 * 24 * time.Hour

// destroyedRooms remembers recently torn down room ids so that a late
// joiner gets "terminated" instead of "not found". Guarded by RoomStore.mu.
type destroyedRooms struct {
	at        map[domain.RoomID]time.Time
	retention time.Duration
}

func newDestroyedRooms(retention time.Duration) *destroyedRooms {
	return &destroyedRooms{
		at:        make(map[domain.RoomID]time.Time),
		retention: retention,
	}
}

func (d *destroyedRooms) mark(id domain.RoomID, at time.Time) {
	d.at[id] = at
}

func (d *destroyedRooms) has(id domain.RoomID) bool {
	_, ok := d.at[id]
	return ok
}

func (d *destroyedRooms) prune(now time.Time) int {
	n := 0
	for id, at := range d.at {
		if now.Sub(at) > d.retention {
			delete(d.at, id)
			n++
		}
	}
	return n
}
