package room

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cory-johannsen/dogfight/internal/game/random"
)

// ErrRoomExists is returned by Create when the id is already taken.
var ErrRoomExists = errors.New("room already exists")

// Store is the collection of live rooms keyed by id.
//
// Invariant: every stored room was created with exactly antiAirCount AA units.
type Store struct {
	rooms        map[string]*Room
	src          random.Source
	antiAirCount int
	maxPlayers   int
}

// NewStore creates an empty Store.
//
// Precondition: src must be non-nil; antiAirCount >= 0; maxPlayers >= 1.
func NewStore(src random.Source, antiAirCount, maxPlayers int) *Store {
	return &Store{
		rooms:        make(map[string]*Room),
		src:          src,
		antiAirCount: antiAirCount,
		maxPlayers:   maxPlayers,
	}
}

// MaxPlayers returns the per-room capacity.
func (s *Store) MaxPlayers() int {
	return s.maxPlayers
}

// Create allocates a new room with a freshly generated AA ring.
//
// Precondition: id must be non-empty.
// Postcondition: Returns the new room, or ErrRoomExists if id is taken.
func (s *Store) Create(id string, now time.Time) (*Room, error) {
	if _, exists := s.rooms[id]; exists {
		return nil, fmt.Errorf("creating room %q: %w", id, ErrRoomExists)
	}
	r := newRoom(id, now, NewAntiAirRing(s.src, s.antiAirCount))
	s.rooms[id] = r
	return r, nil
}

// GetOrCreate returns the room for id, creating it if absent.
//
// Postcondition: created is true iff the room did not exist before the call.
func (s *Store) GetOrCreate(id string, now time.Time) (r *Room, created bool) {
	if r, ok := s.rooms[id]; ok {
		return r, false
	}
	r = newRoom(id, now, NewAntiAirRing(s.src, s.antiAirCount))
	s.rooms[id] = r
	return r, true
}

// Get returns the room for id.
func (s *Store) Get(id string) (*Room, bool) {
	r, ok := s.rooms[id]
	return r, ok
}

// Delete removes the room for id.
//
// Postcondition: Returns true iff a room was removed.
func (s *Store) Delete(id string) bool {
	if _, ok := s.rooms[id]; !ok {
		return false
	}
	delete(s.rooms, id)
	return true
}

// DeleteIfEmpty removes the room for id when it holds no players.
//
// Postcondition: Returns true iff a room was removed.
func (s *Store) DeleteIfEmpty(id string) bool {
	r, ok := s.rooms[id]
	if !ok || r.PlayerCount() > 0 {
		return false
	}
	delete(s.rooms, id)
	return true
}

// Len returns the number of live rooms.
func (s *Store) Len() int {
	return len(s.rooms)
}

// All returns every live room sorted by id.
func (s *Store) All() []*Room {
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// List returns the lobby summary of every live room, sorted by id.
func (s *Store) List() []Summary {
	rooms := s.All()
	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, Summary{ID: r.ID, PlayerCount: r.PlayerCount(), MaxPlayers: s.maxPlayers})
	}
	return out
}

// GenerateID returns an unused id of the form "room_xxxxxx".
func (s *Store) GenerateID() string {
	for {
		id := "room_" + random.Base36(s.src, 6)
		if _, taken := s.rooms[id]; !taken {
			return id
		}
	}
}
