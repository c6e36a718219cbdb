package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dkeye/Cipher/internal/core"
	"github.com/dkeye/Cipher/internal/domain"
)

// Outbound is one server event.
type Outbound interface {
	EventType() EventType
}

type envelope struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Encode renders ev as a wire frame. HTML escaping is off so ciphertext
// keeps its characters; only insignificant whitespace is compacted.
func Encode(ev Outbound) (core.Frame, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(envelope{Type: ev.EventType(), Data: ev}); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.EventType(), err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

type RoomCreated struct {
	RoomID          domain.RoomID   `json:"roomId"`
	RoomName        domain.RoomName `json:"roomName,omitempty"`
	CreatedAt       int64           `json:"createdAt"`
	RequireApproval bool            `json:"requireApproval"`
	Roster          []domain.Member `json:"roster"`
}

func (RoomCreated) EventType() EventType { return EvRoomCreated }

type JoinedRoom struct {
	RoomID    domain.RoomID   `json:"roomId"`
	RoomName  domain.RoomName `json:"roomName,omitempty"`
	IsHost    bool            `json:"isHost"`
	CreatedAt int64           `json:"createdAt"`
	Roster    []domain.Member `json:"roster"`
}

func (JoinedRoom) EventType() EventType { return EvJoinedRoom }

// NewRoomCreated and NewJoinedRoom build the admission responses from a
// room snapshot.
func NewRoomCreated(s domain.RoomSnapshot) RoomCreated {
	return RoomCreated{
		RoomID:          s.ID,
		RoomName:        s.Name,
		CreatedAt:       Millis(s.CreatedAt),
		RequireApproval: s.RequireApproval,
		Roster:          s.Roster,
	}
}

func NewJoinedRoom(s domain.RoomSnapshot, isHost bool) JoinedRoom {
	return JoinedRoom{
		RoomID:    s.ID,
		RoomName:  s.Name,
		IsHost:    isHost,
		CreatedAt: Millis(s.CreatedAt),
		Roster:    s.Roster,
	}
}

type JoinPending struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (JoinPending) EventType() EventType { return EvJoinPending }

// JoinRequest asks the host to decide on a parked join.
type JoinRequest struct {
	ID          domain.ConnID `json:"id"`
	DisplayName string        `json:"displayName"`
	RequestedAt int64         `json:"requestedAt"`
}

func (JoinRequest) EventType() EventType { return EvJoinRequest }

type JoinRequestCancelled struct {
	ID domain.ConnID `json:"id"`
}

func (JoinRequestCancelled) EventType() EventType { return EvJoinRequestCancelled }

type JoinResult struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`
}

func (JoinResult) EventType() EventType { return EvJoinResult }

// UpdateUsers carries the full ordered roster.
type UpdateUsers []domain.Member

func (UpdateUsers) EventType() EventType { return EvUpdateUsers }

// ChatMessage is either a relayed member message or a system notice.
type ChatMessage struct {
	System  bool   `json:"system,omitempty"`
	Message string `json:"message,omitempty"`

	ID             domain.MessageID `json:"id,omitempty"`
	RoomID         domain.RoomID    `json:"roomId,omitempty"`
	SenderID       domain.ConnID    `json:"senderId,omitempty"`
	DisplayName    string           `json:"displayName,omitempty"`
	Ciphertext     json.RawMessage  `json:"ciphertext,omitempty"`
	Time           int64            `json:"time,omitempty"`
	SelfDestructMs int64            `json:"selfDestructMs,omitempty"`
	ReplyTo        domain.MessageID `json:"replyTo,omitempty"`
	Poll           *Poll            `json:"poll,omitempty"`
}

func (ChatMessage) EventType() EventType { return EvReceiveMessage }

func SystemNotice(text string) ChatMessage {
	return ChatMessage{System: true, Message: text}
}

type MessageDeleted struct {
	MessageID domain.MessageID `json:"messageId"`
}

func (MessageDeleted) EventType() EventType { return EvMessageDeleted }

type MessageUpdated struct {
	MessageID  domain.MessageID `json:"messageId"`
	Ciphertext json.RawMessage  `json:"ciphertext"`
	Edited     bool             `json:"edited"`
}

func (MessageUpdated) EventType() EventType { return EvMessageUpdated }

type PollVoteUpdate struct {
	MessageID domain.MessageID  `json:"messageId"`
	OptionID  domain.OptionID   `json:"optionId"`
	Action    domain.VoteAction `json:"action"`
	VoterName string            `json:"voterName"`
}

func (PollVoteUpdate) EventType() EventType { return EvPollVoteUpdate }

func NewPollVoteUpdate(d domain.VoteDelta) PollVoteUpdate {
	return PollVoteUpdate{
		MessageID: d.MessageID,
		OptionID:  d.OptionID,
		Action:    d.Action,
		VoterName: d.Voter,
	}
}

type UserTyping struct {
	DisplayName string `json:"displayName"`
	IsTyping    bool   `json:"isTyping"`
}

func (UserTyping) EventType() EventType { return EvUserTyping }

type Kicked struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (Kicked) EventType() EventType { return EvKicked }

type RoomClosed struct {
	RoomID domain.RoomID      `json:"roomId"`
	Reason domain.CloseReason `json:"reason"`
}

func (RoomClosed) EventType() EventType { return EvRoomClosed }

type LeftRoom struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (LeftRoom) EventType() EventType { return EvLeftRoom }

type Error struct {
	Code    domain.Code `json:"code"`
	Message string      `json:"message"`
}

func (Error) EventType() EventType { return EvError }

const internalErrorMessage = "SOMETHING WENT WRONG."

// ErrorFrom maps any error to its wire form. Errors outside the domain
// taxonomy never leak their text to the client.
func ErrorFrom(err error) Error {
	code := domain.CodeOf(err)
	if code == domain.CodeInternal {
		return Error{Code: code, Message: internalErrorMessage}
	}
	return Error{Code: code, Message: err.Error()}
}

type Pong struct{}

func (Pong) EventType() EventType { return EvPong }

type WhoAmIResult struct {
	ID      domain.ConnID `json:"id"`
	RoomID  domain.RoomID `json:"roomId,omitempty"`
	Pending bool          `json:"pending,omitempty"`
}

func (WhoAmIResult) EventType() EventType { return EvWhoAmIResult }
