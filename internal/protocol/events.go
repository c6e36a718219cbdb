// Package protocol defines the events exchanged with clients. Every frame
// is an envelope {"type": <event>, "data": <payload>}.
package protocol

import "time"

type EventType string

// Inbound events.
const (
	EvCreateRoom        EventType = "create_room"
	EvJoinRoom          EventType = "join_room"
	EvDecideJoinRequest EventType = "decide_join_request"
	EvKickUser          EventType = "kick_user"
	EvSendMessage       EventType = "send_message"
	EvEditMessage       EventType = "edit_message"
	EvDeleteMessage     EventType = "delete_message"
	EvPollVote          EventType = "poll_vote"
	EvTypingStatus      EventType = "typing_status"
	EvCloseRoom         EventType = "close_room"
	EvLeaveRoom         EventType = "leave_room"
	EvPing              EventType = "ping"
	EvWhoAmI            EventType = "whoami"
)

// Outbound events.
const (
	EvRoomCreated          EventType = "room_created"
	EvJoinedRoom           EventType = "joined_room_success"
	EvJoinPending          EventType = "join_request_pending"
	EvJoinRequest          EventType = "join_request"
	EvJoinRequestCancelled EventType = "join_request_cancelled"
	EvJoinResult           EventType = "join_request_result"
	EvUpdateUsers          EventType = "update_users"
	EvReceiveMessage       EventType = "receive_message"
	EvMessageDeleted       EventType = "message_deleted"
	EvMessageUpdated       EventType = "message_updated"
	EvPollVoteUpdate       EventType = "poll_vote_update"
	EvUserTyping           EventType = "user_typing"
	EvKicked               EventType = "kicked"
	EvRoomClosed           EventType = "room_closed"
	EvLeftRoom             EventType = "left_room"
	EvError                EventType = "error"
	EvPong                 EventType = "pong"
	EvWhoAmIResult         EventType = "whoami"
)

// Millis converts t to the Unix millisecond form used on the wire.
func Millis(t time.Time) int64 { return t.UnixMilli() }

func FromMillis(ms int64) time.Time { return time.UnixMilli(ms) }
