package core

import (
	"testing"
	"time"

	"github.com/dkeye/Cipher/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pollNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSingleChoiceMovesVote(t *testing.T) {
	tally := NewPollTally("m", domain.PollSpec{Options: []domain.OptionID{"a", "b"}})

	deltas, err := tally.Apply("Ghost", "a", domain.VoteAdd, pollNow)
	require.NoError(t, err)
	require.Len(t, deltas, 1)

	deltas, err = tally.Apply("ghost", "b", domain.VoteAdd, pollNow)
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, domain.VoteDelta{MessageID: "m", OptionID: "a", Action: domain.VoteRemove, Voter: "ghost"}, deltas[0])
	assert.Equal(t, domain.VoteDelta{MessageID: "m", OptionID: "b", Action: domain.VoteAdd, Voter: "ghost"}, deltas[1])
	assert.Empty(t, tally.Voters("a"))
	assert.Equal(t, []string{"ghost"}, tally.Voters("b"))
}

func TestMultipleChoiceKeepsVotes(t *testing.T) {
	tally := NewPollTally("m", domain.PollSpec{Options: []domain.OptionID{"a", "b"}, AllowMultiple: true})

	_, err := tally.Apply("x", "a", domain.VoteAdd, pollNow)
	require.NoError(t, err)
	deltas, err := tally.Apply("x", "b", domain.VoteAdd, pollNow)
	require.NoError(t, err)
	assert.Len(t, deltas, 1)
	assert.Equal(t, []string{"x"}, tally.Voters("a"))
	assert.Equal(t, []string{"x"}, tally.Voters("b"))
}

func TestRepeatedVotesAreNoops(t *testing.T) {
	tally := NewPollTally("m", domain.PollSpec{Options: []domain.OptionID{"a"}})

	deltas, err := tally.Apply("x", "a", domain.VoteRemove, pollNow)
	require.NoError(t, err)
	assert.Empty(t, deltas)

	_, err = tally.Apply("x", "a", domain.VoteAdd, pollNow)
	require.NoError(t, err)
	deltas, err = tally.Apply("x", "a", domain.VoteAdd, pollNow)
	require.NoError(t, err)
	assert.Empty(t, deltas)
}

func TestPollRejections(t *testing.T) {
	tally := NewPollTally("m", domain.PollSpec{
		Options:   []domain.OptionID{"a"},
		ExpiresAt: pollNow.Add(time.Minute),
	})

	_, err := tally.Apply("x", "zzz", domain.VoteAdd, pollNow)
	assert.ErrorIs(t, err, domain.ErrNoSuchOption)

	_, err = tally.Apply("x", "a", domain.VoteAction("toggle"), pollNow)
	assert.ErrorIs(t, err, domain.ErrBadPayload)

	_, err = tally.Apply("x", "a", domain.VoteAdd, pollNow.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrPollClosed)
	assert.Empty(t, tally.Voters("a"))
}
