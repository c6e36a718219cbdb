package signal

import "github.com/dkeye/Cipher/internal/protocol"

func (ctl *SignalWSController) handleWhoAmI(cl client, conn *WsSignalConn) {
	resp := protocol.WhoAmIResult{ID: cl.sid}
	if ms, ok := ctl.Orch.Registry.RoomOf(cl.sid); ok {
		resp.RoomID = ms.Room
		resp.Pending = ms.Pending
	}
	ctl.sendJSON(conn, resp)
}
