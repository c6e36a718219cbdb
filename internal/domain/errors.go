package domain

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeCapacityExceeded Code = "CAPACITY_EXCEEDED"
	CodeInvalidKeyLength Code = "INVALID_KEY_LENGTH"
	CodeRoomNotFound     Code = "ROOM_NOT_FOUND"
	CodeRoomDestroyed    Code = "ROOM_DESTROYED"
	CodeWrongSecret      Code = "WRONG_SECRET"
	CodeNameTaken        Code = "NAME_TAKEN"
	CodeNotHost          Code = "NOT_HOST"
	CodeTargetNotInRoom  Code = "TARGET_NOT_IN_ROOM"
	CodeNoSuchRequest    Code = "NO_SUCH_REQUEST"
	CodeNotAMember       Code = "NOT_A_MEMBER"
	CodeBadPayload       Code = "BAD_PAYLOAD"
	CodeAlreadyInRoom    Code = "ALREADY_IN_ROOM"
	CodeInvalidName      Code = "INVALID_NAME"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeNotAuthor        Code = "NOT_AUTHOR"
	CodeNoSuchPoll       Code = "NO_SUCH_POLL"
	CodeNoSuchOption     Code = "NO_SUCH_OPTION"
	CodePollClosed       Code = "POLL_CLOSED"
	CodeDuplicateMessage Code = "DUPLICATE_MESSAGE"
	CodeCannotKickSelf   Code = "CANNOT_KICK_SELF"
	CodeNotConnected     Code = "NOT_CONNECTED"
	CodeInternal         Code = "INTERNAL"
)

// Error is a request-scoped failure reported to the requesting connection.
// Two errors are equal under errors.Is when their codes match.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrCapacityExceeded = &Error{CodeCapacityExceeded, "ROOM_LIMIT_REACHED"}
	ErrInvalidKeyLength = &Error{CodeInvalidKeyLength, "ENCRYPTION KEY HAS AN INVALID LENGTH."}
	ErrRoomNotFound     = &Error{CodeRoomNotFound, "ROOM NOT FOUND."}
	ErrRoomDestroyed    = &Error{CodeRoomDestroyed, "THIS ROOM HAS ALREADY BEEN TERMINATED."}
	ErrWrongSecret      = &Error{CodeWrongSecret, "ACCESS DENIED: Invalid Encryption Key."}
	ErrNameTaken        = &Error{CodeNameTaken, "CODENAME ALREADY IN USE."}
	ErrNotHost          = &Error{CodeNotHost, "ONLY THE HOST CAN DO THAT."}
	ErrTargetNotInRoom  = &Error{CodeTargetNotInRoom, "USER IS NOT IN THIS ROOM."}
	ErrNoSuchRequest    = &Error{CodeNoSuchRequest, "NO SUCH JOIN REQUEST."}
	ErrNotAMember       = &Error{CodeNotAMember, "YOU ARE NOT IN THIS ROOM."}
	ErrBadPayload       = &Error{CodeBadPayload, "MALFORMED REQUEST."}
	ErrAlreadyInRoom    = &Error{CodeAlreadyInRoom, "YOU ARE ALREADY IN A ROOM."}
	ErrInvalidName      = &Error{CodeInvalidName, fmt.Sprintf("CODENAME MUST BE 1 TO %d CHARACTERS.", MaxDisplayNameLen)}
	ErrInvalidRoomName  = &Error{CodeInvalidName, fmt.Sprintf("ROOM NAME MUST BE AT MOST %d CHARACTERS.", MaxRoomNameLen)}
	ErrRateLimited      = &Error{CodeRateLimited, "TOO MANY ATTEMPTS. SLOW DOWN."}
	ErrNotAuthor        = &Error{CodeNotAuthor, "ONLY THE AUTHOR CAN CHANGE THIS MESSAGE."}
	ErrNoSuchPoll       = &Error{CodeNoSuchPoll, "NO SUCH POLL."}
	ErrNoSuchOption     = &Error{CodeNoSuchOption, "NO SUCH POLL OPTION."}
	ErrPollClosed       = &Error{CodePollClosed, "THIS POLL HAS CLOSED."}
	ErrDuplicateMessage = &Error{CodeDuplicateMessage, "DUPLICATE MESSAGE ID."}
	ErrCannotKickSelf   = &Error{CodeCannotKickSelf, "THE HOST CANNOT KICK ITSELF."}
	ErrNotConnected     = &Error{CodeNotConnected, "CONNECTION IS NOT REGISTERED."}
)

// KeyLengthError reports the configured secret length bounds to the user.
func KeyLengthError(min, max int) error {
	return &Error{
		Code:    CodeInvalidKeyLength,
		Message: fmt.Sprintf("ENCRYPTION KEY MUST BE BETWEEN %d AND %d CHARACTERS.", min, max),
	}
}

// BadPayload wraps a decoding problem so it still matches ErrBadPayload.
func BadPayload(reason string) error {
	return &Error{Code: CodeBadPayload, Message: "MALFORMED REQUEST: " + reason}
}

// CodeOf extracts the error code, falling back to CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
