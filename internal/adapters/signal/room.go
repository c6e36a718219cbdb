package signal

import (
	"github.com/dkeye/Cipher/internal/domain"
	"github.com/dkeye/Cipher/internal/protocol"
	"github.com/rs/zerolog/log"
)

// createRoom and handleJoin are the only handlers checking a secret, so
// they share the per-address attempt budget.
func (ctl *SignalWSController) createRoom(cl client, p protocol.CreateRoom) error {
	if !ctl.allow(cl) {
		return domain.ErrRateLimited
	}
	snap, err := ctl.Orch.CreateRoom(cl.sid, p)
	if err != nil {
		return err
	}
	log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Str("room", string(snap.ID)).Msg("create")
	return nil
}

func (ctl *SignalWSController) handleJoin(cl client, p protocol.JoinRoom) error {
	if !ctl.allow(cl) {
		return domain.ErrRateLimited
	}
	out, err := ctl.Orch.JoinRoom(cl.sid, p)
	if err != nil {
		return err
	}
	log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Str("room_id", string(p.RoomID)).Bool("pending", out.Pending).Msg("join")
	return nil
}

func (ctl *SignalWSController) allow(cl client) bool {
	if ctl.Limiter == nil {
		return true
	}
	if ctl.Limiter.Allow(cl.addr) {
		return true
	}
	log.Warn().Str("module", "signal").Str("sid", string(cl.sid)).Str("addr", cl.addr).Msg("join attempts rate limited")
	return false
}
