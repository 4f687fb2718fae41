package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/huddlehq/huddle/internal/domain"
)

// handleMessage is the per-message error boundary: whatever a handler
// does, the caller gets an ack and the read loop survives.
func (ctl *Controller) handleMessage(connID domain.ConnID, c *WsConn, data []byte) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendAck(c, nil, badPayloadErrMsg)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("module", "signal").Str("type", req.Type).Msg("handler panic")
			ctl.sendAck(c, req.Seq, genericErrMsg)
		}
	}()

	// Identity is resolved per message from the session store, exactly
	// like the connection-keyed people cache it replaces.
	sid, ok := ctl.Sessions.Identity(connID)
	if !ok {
		ctl.sendAck(c, req.Seq, genericErrMsg)
		return
	}

	switch req.Type {
	case "create_room":
		ctl.handleCreateRoom(sid, c, req)
	case "join_room":
		ctl.handleJoinRoom(sid, c, req)
	case "leave_room":
		ctl.handleLeaveRoom(sid, c, req)
	case "send_message":
		ctl.handleSendMessage(sid, c, req)
	case "report_peer_left":
		ctl.handleReportPeerLeft(sid, c, req)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", req.Type).Msg("unknown request type")
		ctl.sendAck(c, req.Seq, badPayloadErrMsg)
	}
}

func (ctl *Controller) handleCreateRoom(sid domain.SessionID, c *WsConn, req request) {
	p, err := decodePayload[createRoomPayload](req.Payload)
	if err != nil {
		ctl.sendAck(c, req.Seq, ackError(err))
		return
	}
	if !ctl.limiter.Allow(sid) {
		ctl.sendAck(c, req.Seq, tooManyErrMsg)
		return
	}

	room := domain.Room{
		Name:      p.Room.Name,
		CreatedBy: p.Room.CreatedBy,
		Opts:      p.Room.Opts,
	}
	created, err := ctl.Orch.CreateRoom(sid, room)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("create_room failed")
		ctl.sendAck(c, req.Seq, ackError(err))
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(created.ID)).Msg("create_room")
	ctl.sendAck(c, req.Seq, "")
}

func (ctl *Controller) handleJoinRoom(sid domain.SessionID, c *WsConn, req request) {
	p, err := decodePayload[joinRoomPayload](req.Payload)
	if err != nil {
		ctl.sendAck(c, req.Seq, ackError(err))
		return
	}
	if !ctl.limiter.Allow(sid) {
		ctl.sendAck(c, req.Seq, tooManyErrMsg)
		return
	}

	if _, err := ctl.Orch.Join(sid, p.UserName, p.RoomID); err != nil {
		log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("join_room rejected")
		ctl.sendAck(c, req.Seq, ackError(err))
		return
	}
	ctl.sendAck(c, req.Seq, "")
}

func (ctl *Controller) handleLeaveRoom(sid domain.SessionID, c *WsConn, req request) {
	p, err := decodePayload[leaveRoomPayload](req.Payload)
	if err != nil {
		ctl.sendAck(c, req.Seq, ackError(err))
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("leave_room")
	err = ctl.Orch.Leave(sid, domain.RoomID(p.RoomID))
	ctl.sendAck(c, req.Seq, ackError(err))
}

func (ctl *Controller) handleSendMessage(sid domain.SessionID, c *WsConn, req request) {
	p, err := decodePayload[sendMessagePayload](req.Payload)
	if err != nil {
		ctl.sendAck(c, req.Seq, ackError(err))
		return
	}
	err = ctl.Orch.Relay(sid, domain.SessionID(p.To), domain.RoomID(p.RoomID), p.Data)
	ctl.sendAck(c, req.Seq, ackError(err))
}

func (ctl *Controller) handleReportPeerLeft(sid domain.SessionID, c *WsConn, req request) {
	p, err := decodePayload[reportPeerLeftPayload](req.Payload)
	if err != nil {
		ctl.sendAck(c, req.Seq, ackError(err))
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("target", p.UserID).Str("room", p.RoomID).Msg("report_peer_left")
	err = ctl.Orch.ReportPeerLeft(domain.SessionID(p.UserID), domain.RoomID(p.RoomID))
	ctl.sendAck(c, req.Seq, ackError(err))
}

func (ctl *Controller) handlePing(c *WsConn) {
	data, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{"pong"})
	_ = c.TrySend(data)
}
