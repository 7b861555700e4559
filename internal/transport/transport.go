// Package transport delivers a selected candy to a recipient.
package transport

import (
	"context"
	"errors"
	"log"

	"xoxo/internal/candy"
)

// ErrTransport marks a failed send. Nothing was recorded, so retrying is safe.
var ErrTransport = errors.New("transport failure")

// Sender sends an already selected candy to an opaque recipient identity.
type Sender interface {
	Send(ctx context.Context, recipient string, c candy.Candy) error
}

// LogSender only logs what would have been sent.
type LogSender struct{}

func (LogSender) Send(_ context.Context, recipient string, c candy.Candy) error {
	log.Printf("📨 [dry-run] %s -> %s", c, recipient)
	return nil
}
