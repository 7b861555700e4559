package delivery

import (
	"errors"
	"time"

	"xoxo/internal/recurrence"
)

var (
	// ErrCorruptState means a stored record exists but cannot be parsed.
	// The user must be skipped, never reset.
	ErrCorruptState = errors.New("corrupt delivery state")
	// ErrPersist means the state could not be written. The candy was already
	// sent, so the next pass may deliver it again.
	ErrPersist = errors.New("persist delivery state")
)

// Record is one delivered candy.
type Record struct {
	CandyName string
	SentAt    time.Time
}

// State is the delivery history of one user.
type State struct {
	History      []Record
	NextEligible *time.Time
}

func NewState() *State { return &State{} }

// IsDue reports whether a delivery may happen at now.
func (s *State) IsDue(now time.Time) bool {
	return s.NextEligible == nil || !s.NextEligible.After(now)
}

// ExcludedNames returns every candy name ever delivered.
func (s *State) ExcludedNames() map[string]struct{} {
	out := make(map[string]struct{}, len(s.History))
	for _, r := range s.History {
		out[r.CandyName] = struct{}{}
	}
	return out
}

// RecordDelivery appends the delivery and advances NextEligible from the
// previous eligible instant, or from now on the first delivery.
// Call it only after the candy was actually sent.
func (s *State) RecordDelivery(candyName string, now time.Time, policy recurrence.Policy) {
	now = now.UTC()
	s.History = append(s.History, Record{CandyName: candyName, SentAt: now})
	prior := now
	if s.NextEligible != nil {
		prior = *s.NextEligible
	}
	next := policy.Next(&prior).UTC()
	s.NextEligible = &next
}

// LastDelivery returns the most recent record, if any.
func (s *State) LastDelivery() (Record, bool) {
	if len(s.History) == 0 {
		return Record{}, false
	}
	return s.History[len(s.History)-1], true
}
