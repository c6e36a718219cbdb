package protocol

import (
	"encoding/json"

	"github.com/dkeye/Cipher/internal/domain"
	"github.com/tidwall/gjson"
)

var inbound = map[EventType]func() Inbound{
	EvCreateRoom:        func() Inbound { return &CreateRoom{} },
	EvJoinRoom:          func() Inbound { return &JoinRoom{} },
	EvDecideJoinRequest: func() Inbound { return &DecideJoinRequest{} },
	EvKickUser:          func() Inbound { return &KickUser{} },
	EvSendMessage:       func() Inbound { return &SendMessage{} },
	EvEditMessage:       func() Inbound { return &EditMessage{} },
	EvDeleteMessage:     func() Inbound { return &DeleteMessage{} },
	EvPollVote:          func() Inbound { return &PollVote{} },
	EvTypingStatus:      func() Inbound { return &TypingStatus{} },
	EvCloseRoom:         func() Inbound { return &CloseRoom{} },
	EvLeaveRoom:         func() Inbound { return &LeaveRoom{} },
	EvPing:              func() Inbound { return &Ping{} },
	EvWhoAmI:            func() Inbound { return &WhoAmI{} },
}

// ErrUnknownEvent is returned for a well-formed frame with a type nobody
// handles.
var ErrUnknownEvent = domain.BadPayload("unknown event type")

// PeekType returns the event tag without decoding the payload.
func PeekType(data []byte) EventType {
	return EventType(gjson.GetBytes(data, "type").String())
}

// Decode parses one client frame into its typed event. Anything malformed
// is rejected here so handlers only ever see validated values.
func Decode(data []byte) (Inbound, error) {
	if !gjson.ValidBytes(data) {
		return nil, domain.BadPayload("invalid json")
	}
	tag := gjson.GetBytes(data, "type")
	if tag.Type != gjson.String {
		return nil, domain.BadPayload("type is required")
	}
	factory, ok := inbound[EventType(tag.Str)]
	if !ok {
		return nil, ErrUnknownEvent
	}
	ev := factory()

	payload := gjson.GetBytes(data, "data")
	switch payload.Type {
	case gjson.Null:
	case gjson.JSON:
		if !payload.IsObject() {
			return nil, domain.BadPayload("data must be an object")
		}
		if err := json.Unmarshal([]byte(payload.Raw), ev); err != nil {
			return nil, domain.BadPayload("data does not match " + tag.Str)
		}
	default:
		return nil, domain.BadPayload("data must be an object")
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return deref(ev), nil
}

// deref hands out values so handlers can switch on the plain types.
func deref(ev Inbound) Inbound {
	switch e := ev.(type) {
	case *CreateRoom:
		return *e
	case *JoinRoom:
		return *e
	case *DecideJoinRequest:
		return *e
	case *KickUser:
		return *e
	case *SendMessage:
		return *e
	case *EditMessage:
		return *e
	case *DeleteMessage:
		return *e
	case *PollVote:
		return *e
	case *TypingStatus:
		return *e
	case *CloseRoom:
		return *e
	case *LeaveRoom:
		return *e
	case *Ping:
		return *e
	case *WhoAmI:
		return *e
	}
	return ev
}
