package combat

import (
	"sync"
	"time"

	"github.com/cory-johannsen/dogfight/internal/game/clock"
)

// Key identifies a pending respawn.
type Key struct {
	RoomID   string
	PlayerID string
}

// Ticket is handed to the fire callback; pass it back to Complete to claim
// the respawn.
type Ticket struct {
	Key
	seq uint64
}

type pendingRespawn struct {
	seq   uint64
	timer clock.Timer
}

// Scheduler tracks at most one pending respawn per (room, player).
// It is safe for concurrent use.
//
// Timers only signal; the owner of room state claims the ticket with
// Complete on its own goroutine, so a respawn cancelled after its timer fired
// is still suppressed.
type Scheduler struct {
	mu      sync.Mutex
	clk     clock.Clock
	seq     uint64
	pending map[Key]pendingRespawn
}

// NewScheduler creates a Scheduler driven by clk.
//
// Precondition: clk must be non-nil.
func NewScheduler(clk clock.Clock) *Scheduler {
	return &Scheduler{
		clk:     clk,
		pending: make(map[Key]pendingRespawn),
	}
}

// Schedule arranges for fire to be called with a Ticket after delay,
// replacing any pending respawn for the same key.
//
// Precondition: fire must not be nil; it is called on a timer goroutine.
// Postcondition: exactly one respawn is pending for key.
func (s *Scheduler) Schedule(roomID, playerID string, delay time.Duration, fire func(Ticket)) {
	key := Key{RoomID: roomID, PlayerID: playerID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.pending[key]; ok {
		prev.timer.Stop()
	}
	s.seq++
	ticket := Ticket{Key: key, seq: s.seq}
	s.pending[key] = pendingRespawn{
		seq:   ticket.seq,
		timer: s.clk.AfterFunc(delay, func() { fire(ticket) }),
	}
}

// Complete claims t.
//
// Postcondition: Returns true exactly once for a ticket that was neither
// cancelled nor superseded; the entry is then removed.
func (s *Scheduler) Complete(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[t.Key]
	if !ok || p.seq != t.seq {
		return false
	}
	delete(s.pending, t.Key)
	return true
}

// Cancel stops the pending respawn for (roomID, playerID), if any.
//
// Postcondition: Returns true iff a pending respawn was removed.
func (s *Scheduler) Cancel(roomID, playerID string) bool {
	key := Key{RoomID: roomID, PlayerID: playerID}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(s.pending, key)
	return true
}

// CancelAll stops every pending respawn.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, key)
	}
}

// Pending reports whether a respawn is pending for (roomID, playerID).
func (s *Scheduler) Pending(roomID, playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[Key{RoomID: roomID, PlayerID: playerID}]
	return ok
}

// Len returns the number of pending respawns.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
