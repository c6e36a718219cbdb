package domain

import "time"

type (
	MessageID string
	OptionID  string
)

type VoteAction string

const (
	VoteAdd    VoteAction = "add"
	VoteRemove VoteAction = "remove"
)

func (a VoteAction) Valid() bool {
	return a == VoteAdd || a == VoteRemove
}

// PollSpec is the part of a poll the relay needs to adjudicate votes.
// Option labels stay encrypted and never reach the server in plaintext.
type PollSpec struct {
	Options       []OptionID
	AllowMultiple bool
	// ExpiresAt is zero for polls that never close.
	ExpiresAt time.Time
}

// VoteDelta is a single add or remove applied to a poll option.
type VoteDelta struct {
	MessageID MessageID
	OptionID  OptionID
	Action    VoteAction
	Voter     string
}
