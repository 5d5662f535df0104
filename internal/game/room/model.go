// Package room holds the authoritative in-memory state of a game room: its
// players, in-flight bullet records and anti-air emplacements, plus the Store
// that owns every live room.
//
// Nothing in this package is safe for concurrent use. All state is owned by
// the relay's event loop goroutine.
package room

import (
	"math"
	"time"

	"github.com/cory-johannsen/dogfight/internal/game/aircraft"
	"github.com/cory-johannsen/dogfight/internal/game/geom"
)

// PlayerRecord is the server-authoritative state of one connected player.
//
// Invariant: 0 <= Health <= MaxHealth; Alive == (Health > 0).
type PlayerRecord struct {
	// ID equals the owning connection's id.
	ID           string
	Name         string
	AircraftType aircraft.Type
	Color        aircraft.Color
	Position     geom.Vec3
	Rotation     geom.Quat
	Speed        float64
	Health       int
	MaxHealth    int
	Score        int
	Alive        bool
	// LastUpdate is refreshed by join and by every position update; the sweep
	// prunes players whose LastUpdate is older than the stale timeout.
	LastUpdate time.Time
}

// Bullet is the bookkeeping entry for a relayed projectile. The server never
// simulates its flight.
type Bullet struct {
	ID        int
	OwnerID   string
	Position  geom.Vec3
	Velocity  geom.Vec3
	Type      string
	Life      float64 // seconds
	Damage    int
	IsHoming  bool
	IsBomb    bool
	CreatedAt time.Time
}

// Expired reports whether the bullet's lifetime has fully elapsed at now.
//
// Postcondition: true iff now - CreatedAt >= Life seconds.
func (b *Bullet) Expired(now time.Time) bool {
	return now.Sub(b.CreatedAt) >= lifetime(b.Life)
}

// lifetime converts seconds to a Duration, saturating instead of overflowing.
func lifetime(seconds float64) time.Duration {
	ns := seconds * float64(time.Second)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// AntiAirUnit is a stationary, destructible ground emplacement.
//
// Invariant: once Alive is false it never becomes true again.
type AntiAirUnit struct {
	ID       int
	Position geom.Vec3
	Health   int
	Alive    bool
}

// Summary is the lobby view of a room.
type Summary struct {
	ID          string
	PlayerCount int
	MaxPlayers  int
}
