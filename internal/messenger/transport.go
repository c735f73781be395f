package messenger

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by a transport or messenger that has shut down.
	ErrClosed = errors.New("transport closed")

	// ErrNoSuchContext is returned when a call targets a context that is not alive.
	ErrNoSuchContext = errors.New("no such context")
)

// Transport moves messages between one context and the rest.
// Recv is only ever called from a single goroutine; Send may be called concurrently.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
	Recv(ctx context.Context) (*Message, error)
	Close() error
}
