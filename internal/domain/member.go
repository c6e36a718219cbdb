package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxDisplayNameLen = 36
	MaxRoomNameLen    = 64
)

// Member represents a connection's participation in a room.
// No transport or lifecycle logic here.
type Member struct {
	ID          ConnID `json:"id"`
	DisplayName string `json:"displayName"`
	IsHost      bool   `json:"isHost"`
}

// PendingJoin is a join attempt parked until the host decides.
type PendingJoin struct {
	ID          ConnID
	DisplayName string
	RequestedAt time.Time
}

type RemoveCause int

const (
	CauseLeft RemoveCause = iota
	CauseKicked
)

// NormalizeDisplayName trims the name and enforces length limits.
func NormalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxDisplayNameLen {
		return "", ErrInvalidName
	}
	return name, nil
}

// NormalizeRoomName trims the optional room label. An empty label is allowed.
func NormalizeRoomName(name string) (RoomName, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxRoomNameLen {
		return "", ErrInvalidRoomName
	}
	return RoomName(name), nil
}

// SameName reports whether two display names collide inside a room.
func SameName(a, b string) bool {
	return strings.EqualFold(a, b)
}
