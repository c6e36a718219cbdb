package app

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Sweeper expires rooms past their max age and prunes destroyed-room memory.
type Sweeper interface {
	Sweep() int
}

// Reaper calls Sweep on a fixed interval until the context is done.
type Reaper struct {
	Sweeper  Sweeper
	Clock    clockwork.Clock
	Interval time.Duration
}

func (r *Reaper) Run(ctx context.Context) {
	clock := r.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ticker := clock.NewTicker(r.Interval)
	defer ticker.Stop()

	log.Info().Str("module", "app.reaper").Dur("interval", r.Interval).Msg("reaper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.reaper").Msg("reaper stopped")
			return
		case <-ticker.Chan():
			if n := r.Sweeper.Sweep(); n > 0 {
				log.Info().Str("module", "app.reaper").Int("expired", n).Msg("expired rooms")
			}
		}
	}
}
