package session

import (
	"fmt"
	"sync"
)

// Binding is a connection's current room membership.
type Binding struct {
	RoomID   string
	PlayerID string
}

type connection struct {
	entity  *Entity
	binding *Binding
}

// Registry maps live connection ids to their outbound Entity and to at most
// one room/player Binding. All methods are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	conns      map[string]*connection
	bufferSize int
}

// NewRegistry creates an empty Registry whose entities buffer bufferSize frames.
func NewRegistry(bufferSize int) *Registry {
	return &Registry{
		conns:      make(map[string]*connection),
		bufferSize: bufferSize,
	}
}

// Register adds a connection and returns its outbound Entity.
//
// Precondition: id must be non-empty.
// Postcondition: Returns the new Entity, or an error if id is already registered.
func (r *Registry) Register(id string) (*Entity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[id]; exists {
		return nil, fmt.Errorf("connection %q already registered", id)
	}
	e := NewEntity(id, r.bufferSize)
	r.conns[id] = &connection{entity: e}
	return e, nil
}

// Unregister removes the connection and closes its Entity. Any binding is
// discarded; callers run leave semantics first.
//
// Postcondition: Returns an error if id was not registered.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.conns[id]
	if !exists {
		return fmt.Errorf("connection %q not found", id)
	}
	_ = c.entity.Close()
	delete(r.conns, id)
	return nil
}

// Entity returns the outbound Entity for id.
func (r *Registry) Entity(id string) (*Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return c.entity, true
}

// Bind records that connection id now owns playerID in roomID, replacing any
// previous binding.
//
// Postcondition: Returns false if id is not registered.
func (r *Registry) Bind(id, roomID, playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	c.binding = &Binding{RoomID: roomID, PlayerID: playerID}
	return true
}

// Unbind clears the binding for id. No-op when id is unknown or unbound.
func (r *Registry) Unbind(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[id]; ok {
		c.binding = nil
	}
}

// Binding returns the current binding for id.
//
// Postcondition: ok is false when id is unknown or not in a room.
func (r *Registry) Binding(id string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok || c.binding == nil {
		return Binding{}, false
	}
	return *c.binding, true
}

// Push enqueues data on the Entity for id.
//
// Postcondition: Returns an error if id is unknown or its Entity rejects the frame.
func (r *Registry) Push(id string, data []byte) error {
	e, ok := r.Entity(id)
	if !ok {
		return fmt.Errorf("connection %q not found", id)
	}
	return e.Push(data)
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
