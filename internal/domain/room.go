// Package domain contains entity without logic, just meta-data
package domain

import "time"

type (
	RoomID      string
	RoomName    string
	ConnID      string
	Fingerprint string
)

type RoomPhase int

const (
	RoomActive RoomPhase = iota
	RoomDestroyed
)

// CloseReason tells clients why a room went away.
type CloseReason string

const (
	CloseHostLeft       CloseReason = "host_left"
	CloseHostTerminated CloseReason = "host_terminated"
	CloseExpired        CloseReason = "expired"
)

// Room holds the fields fixed at creation time.
type Room struct {
	ID              RoomID
	Name            RoomName
	Host            ConnID
	Fingerprint     Fingerprint
	RequireApproval bool
	CreatedAt       time.Time
}

// RoomSnapshot is what a creator or joiner learns about the room.
type RoomSnapshot struct {
	ID              RoomID
	Name            RoomName
	CreatedAt       time.Time
	RequireApproval bool
	Roster          []Member
}
