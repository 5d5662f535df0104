// Package session tracks live transport connections: each connection's
// outbound event queue and its current room/player binding.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// ErrBufferFull is returned by Push when the connection's outbound queue is full.
var ErrBufferFull = errors.New("event buffer full")

// ErrClosed is returned by Push after the entity has been closed.
var ErrClosed = errors.New("entity closed")

// Entity is the outbound queue of one connection. The relay pushes encoded
// frames; the transport's write pump drains Events.
type Entity struct {
	id     string
	events chan []byte
	mu     sync.Mutex
	closed bool
}

// NewEntity creates an Entity for the given connection id.
//
// Precondition: id must be non-empty.
// Postcondition: Returns an Entity with an open events channel.
func NewEntity(id string, bufferSize int) *Entity {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Entity{
		id:     id,
		events: make(chan []byte, bufferSize),
	}
}

// ID returns the connection id.
func (e *Entity) ID() string {
	return e.id
}

// Push enqueues data without blocking.
//
// Postcondition: data is enqueued, or ErrClosed / ErrBufferFull is returned.
func (e *Entity) Push(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("connection %s: %w", e.id, ErrClosed)
	}
	select {
	case e.events <- data:
		return nil
	default:
		return fmt.Errorf("connection %s: %w", e.id, ErrBufferFull)
	}
}

// Events returns the read-only outbound channel. It is closed by Close.
func (e *Entity) Events() <-chan []byte {
	return e.events
}

// Close marks the entity closed and closes the events channel. Idempotent.
func (e *Entity) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}

// IsClosed reports whether the entity has been closed.
func (e *Entity) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
