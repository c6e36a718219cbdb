package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/dkeye/Cipher/internal/domain"
)

// Inbound is one decoded client event.
type Inbound interface {
	Type() EventType
	Validate() error
}

// Scope carries the optional roomId a client may attach to room-scoped
// events. An empty value means "the room this connection is in".
type Scope struct {
	RoomID domain.RoomID `json:"roomId,omitempty"`
}

func (s Scope) Room() domain.RoomID { return s.RoomID }

type CreateRoom struct {
	DisplayName     string `json:"displayName"`
	Secret          string `json:"secret"`
	RoomName        string `json:"roomName,omitempty"`
	RequireApproval bool   `json:"requireApproval,omitempty"`
}

func (CreateRoom) Type() EventType { return EvCreateRoom }
func (CreateRoom) Validate() error { return nil }

type JoinRoom struct {
	DisplayName string        `json:"displayName"`
	RoomID      domain.RoomID `json:"roomId"`
	Secret      string        `json:"secret"`
}

func (JoinRoom) Type() EventType { return EvJoinRoom }
func (JoinRoom) Validate() error { return nil }

type DecideJoinRequest struct {
	Scope
	TargetID domain.ConnID `json:"targetId"`
	Approve  bool          `json:"approve"`
	Reason   string        `json:"reason,omitempty"`
}

func (DecideJoinRequest) Type() EventType { return EvDecideJoinRequest }

func (e DecideJoinRequest) Validate() error {
	if e.TargetID == "" {
		return domain.BadPayload("targetId is required")
	}
	return nil
}

type KickUser struct {
	Scope
	TargetID domain.ConnID `json:"targetId"`
}

func (KickUser) Type() EventType { return EvKickUser }

func (e KickUser) Validate() error {
	if e.TargetID == "" {
		return domain.BadPayload("targetId is required")
	}
	return nil
}

// PollOption keeps its label encrypted; only the id is meaningful here.
type PollOption struct {
	ID         domain.OptionID `json:"id"`
	Ciphertext json.RawMessage `json:"ciphertext,omitempty"`
}

type Poll struct {
	Options       []PollOption `json:"options"`
	AllowMultiple bool         `json:"allowMultiple,omitempty"`
	// ExpiresAt is Unix milliseconds, zero for an open-ended poll.
	ExpiresAt int64 `json:"expiresAt,omitempty"`
}

func (p Poll) Spec() domain.PollSpec {
	spec := domain.PollSpec{AllowMultiple: p.AllowMultiple}
	for _, o := range p.Options {
		spec.Options = append(spec.Options, o.ID)
	}
	if p.ExpiresAt > 0 {
		spec.ExpiresAt = FromMillis(p.ExpiresAt)
	}
	return spec
}

func (p Poll) validate() error {
	if len(p.Options) == 0 {
		return domain.BadPayload("poll needs at least one option")
	}
	seen := make(map[domain.OptionID]struct{}, len(p.Options))
	for _, o := range p.Options {
		if o.ID == "" {
			return domain.BadPayload("poll option id is required")
		}
		if _, dup := seen[o.ID]; dup {
			return domain.BadPayload(fmt.Sprintf("duplicate poll option %q", o.ID))
		}
		seen[o.ID] = struct{}{}
	}
	return nil
}

// MaxSelfDestructMs is the largest delay that still fits a time.Duration.
const MaxSelfDestructMs = math.MaxInt64 / int64(time.Millisecond)

type SendMessage struct {
	Scope
	ID         domain.MessageID `json:"id"`
	Ciphertext json.RawMessage  `json:"ciphertext"`
	// Time is the client's send time in Unix milliseconds.
	Time           int64            `json:"time,omitempty"`
	SelfDestructMs int64            `json:"selfDestructMs,omitempty"`
	ReplyTo        domain.MessageID `json:"replyTo,omitempty"`
	Poll           *Poll            `json:"poll,omitempty"`
}

func (SendMessage) Type() EventType { return EvSendMessage }

func (e SendMessage) Validate() error {
	switch {
	case e.ID == "":
		return domain.BadPayload("id is required")
	case len(e.Ciphertext) == 0 || string(e.Ciphertext) == "null":
		return domain.BadPayload("ciphertext is required")
	case e.SelfDestructMs < 0:
		return domain.BadPayload("selfDestructMs must not be negative")
	case e.SelfDestructMs > MaxSelfDestructMs:
		return domain.BadPayload("selfDestructMs is out of range")
	}
	if e.Poll != nil {
		return e.Poll.validate()
	}
	return nil
}

type EditMessage struct {
	Scope
	MessageID  domain.MessageID `json:"messageId"`
	Ciphertext json.RawMessage  `json:"ciphertext"`
}

func (EditMessage) Type() EventType { return EvEditMessage }

func (e EditMessage) Validate() error {
	if e.MessageID == "" {
		return domain.BadPayload("messageId is required")
	}
	if len(e.Ciphertext) == 0 || string(e.Ciphertext) == "null" {
		return domain.BadPayload("ciphertext is required")
	}
	return nil
}

type DeleteMessage struct {
	Scope
	MessageID domain.MessageID `json:"messageId"`
}

func (DeleteMessage) Type() EventType { return EvDeleteMessage }

func (e DeleteMessage) Validate() error {
	if e.MessageID == "" {
		return domain.BadPayload("messageId is required")
	}
	return nil
}

type PollVote struct {
	Scope
	MessageID domain.MessageID  `json:"messageId"`
	OptionID  domain.OptionID   `json:"optionId"`
	Action    domain.VoteAction `json:"action"`
}

func (PollVote) Type() EventType { return EvPollVote }

func (e PollVote) Validate() error {
	switch {
	case e.MessageID == "":
		return domain.BadPayload("messageId is required")
	case e.OptionID == "":
		return domain.BadPayload("optionId is required")
	case !e.Action.Valid():
		return domain.BadPayload("action must be add or remove")
	}
	return nil
}

type TypingStatus struct {
	Scope
	IsTyping bool `json:"isTyping"`
}

func (TypingStatus) Type() EventType { return EvTypingStatus }
func (TypingStatus) Validate() error { return nil }

type CloseRoom struct{ Scope }

func (CloseRoom) Type() EventType { return EvCloseRoom }
func (CloseRoom) Validate() error { return nil }

type LeaveRoom struct{ Scope }

func (LeaveRoom) Type() EventType { return EvLeaveRoom }
func (LeaveRoom) Validate() error { return nil }

type Ping struct{}

func (Ping) Type() EventType { return EvPing }
func (Ping) Validate() error { return nil }

type WhoAmI struct{}

func (WhoAmI) Type() EventType { return EvWhoAmI }
func (WhoAmI) Validate() error { return nil }
