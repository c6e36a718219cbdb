package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Cipher/internal/domain"
	"github.com/dkeye/Cipher/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, cl client, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(cl.sid)
		cancel()
		c.Close()
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(cl.sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Msg("readPump read error")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			ctl.handleSignal(cl, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(cl client, c *WsSignalConn, data []byte) {
	ev, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Str("type", string(protocol.PeekType(data))).Msg("bad signal")
		ctl.sendError(c, err)
		return
	}

	switch e := ev.(type) {
	case protocol.CreateRoom:
		err = ctl.createRoom(cl, e)
	case protocol.JoinRoom:
		err = ctl.handleJoin(cl, e)
	case protocol.DecideJoinRequest:
		err = ctl.Orch.DecideJoinRequest(cl.sid, e)
	case protocol.KickUser:
		err = ctl.Orch.Kick(cl.sid, e)
	case protocol.LeaveRoom:
		err = ctl.Orch.Leave(cl.sid, e)
	case protocol.CloseRoom:
		err = ctl.Orch.CloseRoom(cl.sid, e)
	case protocol.SendMessage:
		err = ctl.Orch.RelayMessage(cl.sid, e)
	case protocol.EditMessage:
		err = ctl.Orch.EditMessage(cl.sid, e)
	case protocol.DeleteMessage:
		err = ctl.Orch.DeleteMessage(cl.sid, e)
	case protocol.PollVote:
		err = ctl.Orch.VotePoll(cl.sid, e)
	case protocol.TypingStatus:
		err = ctl.Orch.Typing(cl.sid, e)
	case protocol.Ping:
		ctl.handlePing(c)
	case protocol.WhoAmI:
		ctl.handleWhoAmI(cl, c)
	default:
		log.Warn().Str("module", "signal").Str("type", string(ev.Type())).Msg("unknown signal")
	}

	if err != nil {
		ctl.sendError(c, err)
		if domain.CodeOf(err) == domain.CodeInternal {
			log.Error().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Str("type", string(ev.Type())).Msg("signal failed")
		} else {
			log.Debug().Err(err).Str("module", "signal").Str("sid", string(cl.sid)).Str("type", string(ev.Type())).Msg("signal rejected")
		}
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, ev protocol.Outbound) {
	f, err := protocol.Encode(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(f); err != nil && !errors.Is(err, ErrClosed) {
		log.Warn().Err(err).Str("module", "signal").Str("type", string(ev.EventType())).Msg("sendJSON dropped")
	}
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, err error) {
	ctl.sendJSON(c, protocol.ErrorFrom(err))
}
