// Package notify defines the outbound notification contract and the HTTP
// client the listener uses to reach the SMS gateway.
package notify

import (
	"context"
	"fmt"
)

// Request describes one outbound text message. A request is built fresh per
// detection event, sent once, and never retried automatically.
type Request struct {
	To   string `json:"to"`
	Body string `json:"message"`
}

// Notifier dispatches a notification and returns the provider-assigned
// message identifier.
type Notifier interface {
	Send(ctx context.Context, req Request) (string, error)
}

// Error wraps a notification failure (network error, authentication
// failure, invalid destination). The listener logs these and continues.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("notification %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
