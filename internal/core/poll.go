package core

import (
	"sort"
	"strings"
	"time"

	"github.com/dkeye/Cipher/internal/domain"
)

// PollTally tracks who voted for what on one poll message. Voters are
// identified by display name, which is unique inside a room.
type PollTally struct {
	message domain.MessageID
	spec    domain.PollSpec
	votes   map[domain.OptionID]map[string]string
}

func NewPollTally(message domain.MessageID, spec domain.PollSpec) *PollTally {
	votes := make(map[domain.OptionID]map[string]string, len(spec.Options))
	for _, opt := range spec.Options {
		votes[opt] = make(map[string]string)
	}
	return &PollTally{message: message, spec: spec, votes: votes}
}

// Apply records a vote change and returns the deltas to broadcast, in
// order. On a single choice poll an add first removes the voter from any
// other option. Repeating an add or remove yields no deltas.
func (t *PollTally) Apply(voter string, opt domain.OptionID, action domain.VoteAction, now time.Time) ([]domain.VoteDelta, error) {
	if !action.Valid() {
		return nil, domain.BadPayload("unknown vote action")
	}
	if !t.spec.ExpiresAt.IsZero() && !now.Before(t.spec.ExpiresAt) {
		return nil, domain.ErrPollClosed
	}
	set, ok := t.votes[opt]
	if !ok {
		return nil, domain.ErrNoSuchOption
	}

	key := strings.ToLower(voter)
	_, held := set[key]

	if action == domain.VoteRemove {
		if !held {
			return nil, nil
		}
		delete(set, key)
		return []domain.VoteDelta{t.delta(opt, domain.VoteRemove, voter)}, nil
	}

	if held {
		return nil, nil
	}
	var deltas []domain.VoteDelta
	if !t.spec.AllowMultiple {
		for _, other := range t.spec.Options {
			if other == opt {
				continue
			}
			if _, ok := t.votes[other][key]; ok {
				delete(t.votes[other], key)
				deltas = append(deltas, t.delta(other, domain.VoteRemove, voter))
			}
		}
	}
	set[key] = voter
	return append(deltas, t.delta(opt, domain.VoteAdd, voter)), nil
}

// Voters lists the display names holding an option, sorted.
func (t *PollTally) Voters(opt domain.OptionID) []string {
	out := make([]string, 0, len(t.votes[opt]))
	for _, name := range t.votes[opt] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *PollTally) delta(opt domain.OptionID, action domain.VoteAction, voter string) domain.VoteDelta {
	return domain.VoteDelta{MessageID: t.message, OptionID: opt, Action: action, Voter: voter}
}
