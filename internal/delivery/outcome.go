package delivery

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindDelivered Kind = "delivered"
	KindSkipped   Kind = "skipped"
	KindFailed    Kind = "failed"
)

type Reason string

const (
	ReasonNotDue           Reason = "not_due"
	ReasonNoCandyAvailable Reason = "no_candy_available"
)

// Outcome is the terminal result of one user's pass.
type Outcome struct {
	User   string
	Kind   Kind
	Candy  string
	Reason Reason
	Err    error
}

func Delivered(user, candyName string) Outcome {
	return Outcome{User: user, Kind: KindDelivered, Candy: candyName}
}

func Skipped(user string, reason Reason) Outcome {
	return Outcome{User: user, Kind: KindSkipped, Reason: reason}
}

// Failed keeps the candy name when the send already happened.
func Failed(user, candyName string, err error) Outcome {
	return Outcome{User: user, Kind: KindFailed, Candy: candyName, Err: err}
}

func (o Outcome) String() string {
	switch o.Kind {
	case KindDelivered:
		return fmt.Sprintf("%s: delivered %q", o.User, o.Candy)
	case KindSkipped:
		return fmt.Sprintf("%s: skipped (%s)", o.User, o.Reason)
	default:
		return fmt.Sprintf("%s: failed: %v", o.User, o.Err)
	}
}

// Report aggregates the outcomes of one pass.
type Report struct {
	PassID    string
	StartedAt time.Time
	Outcomes  []Outcome
	// Cancelled is set when the pass stopped before visiting every user.
	Cancelled bool
}

func (r Report) Count(k Kind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == k {
			n++
		}
	}
	return n
}
