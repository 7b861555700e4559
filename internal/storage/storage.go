package storage

import "time"

// Event is one per-user outcome of a scheduling pass.
// Events are appended in chronological order.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	PassID    string    `json:"pass_id"`
	User      string    `json:"user"`
	Outcome   string    `json:"outcome"`
	Candy     string    `json:"candy,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Recorder abstracts persistence of delivery events.
// LoadEvents should return events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendEvent(event Event) error
	LoadEvents() ([]Event, error)
}
