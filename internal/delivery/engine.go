// Package delivery decides when a user is due, picks an unseen candy,
// sends it and records the delivery durably.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"xoxo/internal/candy"
	"xoxo/internal/recurrence"
	"xoxo/internal/storage"
	"xoxo/internal/transport"
	"xoxo/internal/users"
)

// SendTimeout bounds a single delivery. A stop signal never cuts a send short.
const SendTimeout = 5 * time.Minute

// ListFunc returns the raw candy files of a user.
type ListFunc func(u users.User) ([]string, error)

// Engine runs one scheduling pass per user.
type Engine struct {
	store    Store
	selector *candy.Selector
	sender   transport.Sender
	policy   recurrence.Policy
	clock    recurrence.Clock
	list     ListFunc
	recorder storage.Recorder
}

// Option customizes an Engine.
type Option func(*Engine)

func WithClock(c recurrence.Clock) Option { return func(e *Engine) { e.clock = c } }

// WithLister replaces users.CandyFiles as the source of candy files.
func WithLister(f ListFunc) Option { return func(e *Engine) { e.list = f } }

// WithRecorder journals every outcome.
func WithRecorder(r storage.Recorder) Option { return func(e *Engine) { e.recorder = r } }

func NewEngine(store Store, selector *candy.Selector, sender transport.Sender, policy recurrence.Policy, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		selector: selector,
		sender:   sender,
		policy:   policy,
		clock:    recurrence.SystemClock,
		list:     users.CandyFiles,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RunForUser always reloads the user's state from the store first.
// The state is only mutated after a successful send.
func (e *Engine) RunForUser(ctx context.Context, u users.User) Outcome {
	state, err := e.store.Load(ctx, u)
	if err != nil {
		if errors.Is(err, ErrCorruptState) {
			log.Printf("🚨 %s: corrupt state, skipping without reset: %v", u.Name, err)
		}
		return Failed(u.Name, "", fmt.Errorf("load state: %w", err))
	}

	now := e.clock.Now().UTC()
	if !state.IsDue(now) {
		return Skipped(u.Name, ReasonNotDue)
	}

	files, err := e.list(u)
	if err != nil {
		return Failed(u.Name, "", err)
	}

	c, err := e.selector.Pick(candy.NewCatalog(files), state.ExcludedNames())
	if err != nil {
		if errors.Is(err, candy.ErrNoCandyAvailable) {
			log.Printf("🍬 No candy found for %s", u.Name)
			return Skipped(u.Name, ReasonNoCandyAvailable)
		}
		return Failed(u.Name, "", fmt.Errorf("pick candy: %w", err))
	}
	log.Printf("🍬 %s", c)

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SendTimeout)
	err = e.sender.Send(sendCtx, u.Name, c)
	cancel()
	if err != nil {
		if !errors.Is(err, transport.ErrTransport) {
			err = fmt.Errorf("%w: %w", transport.ErrTransport, err)
		}
		return Failed(u.Name, "", err)
	}

	state.RecordDelivery(c.Name, now, e.policy)
	// The send happened; the write must not be cut short by cancellation.
	if err := e.store.Save(context.WithoutCancel(ctx), u, state); err != nil {
		log.Printf("🚨 %s: candy %q was sent but state was not saved, it may be delivered again: %v", u.Name, c.Name, err)
		if !errors.Is(err, ErrPersist) {
			err = fmt.Errorf("%w: %w", ErrPersist, err)
		}
		return Failed(u.Name, c.Name, err)
	}
	log.Printf("✅ Delivered %q to %s, next delivery at %s", c.Name, u.Name, state.NextEligible.Format(time.RFC3339))
	return Delivered(u.Name, c.Name)
}

// CheckAllUsers processes users one after another. A failure never stops the
// remaining users; cancellation is only honored between users.
func (e *Engine) CheckAllUsers(ctx context.Context, us []users.User) Report {
	r := Report{PassID: uuid.New().String(), StartedAt: e.clock.Now().UTC()}
	for _, u := range us {
		if ctx.Err() != nil {
			r.Cancelled = true
			log.Printf("⏹️ Pass %s cancelled before %s", r.PassID, u.Name)
			break
		}
		o := e.RunForUser(ctx, u)
		if o.Kind == KindFailed {
			log.Printf("❌ %s", o)
		}
		r.Outcomes = append(r.Outcomes, o)
		e.record(r.PassID, o)
	}
	return r
}

func (e *Engine) record(passID string, o Outcome) {
	if e.recorder == nil {
		return
	}
	ev := storage.Event{
		Timestamp: e.clock.Now().UTC(),
		PassID:    passID,
		User:      o.User,
		Outcome:   string(o.Kind),
		Candy:     o.Candy,
		Reason:    string(o.Reason),
	}
	if o.Err != nil {
		ev.Error = o.Err.Error()
	}
	if err := e.recorder.AppendEvent(ev); err != nil {
		log.Printf("failed to journal outcome for %s: %v", o.User, err)
	}
}
