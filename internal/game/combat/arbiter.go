// Package combat holds the server-authoritative damage rules for player and
// anti-air hits, and the scheduler that brings killed players back.
//
// The rules mutate room state directly and report what happened; deciding
// who hears about it is the caller's job.
package combat

import (
	"github.com/cory-johannsen/dogfight/internal/game/random"
	"github.com/cory-johannsen/dogfight/internal/game/room"
)

const (
	// KillScore is credited to the attacker for each player kill.
	KillScore = 100
	// AntiAirScore is credited to the destroyer of an AA unit.
	AntiAirScore = 50
	// UnknownKiller names a killer that no longer has a record.
	UnknownKiller = "Unknown"
)

// NormalizeDamage maps a non-positive reported damage to the default of 1.
//
// Postcondition: Returns >= 1.
func NormalizeDamage(damage int) int {
	if damage <= 0 {
		return 1
	}
	return damage
}

// HitResult reports the effect of one hitPlayer request.
type HitResult struct {
	// Applied is false when the target was unknown or already dead.
	Applied bool
	Target  *room.PlayerRecord
	// Attacker is nil when the attacking connection has no record in the room.
	Attacker *room.PlayerRecord
	Damage   int
	// Killed is true when this hit took the target from alive to dead.
	Killed bool
}

// KillerName returns the attacker's name, or UnknownKiller when it has no record.
func (h HitResult) KillerName() string {
	if h.Attacker == nil {
		return UnknownKiller
	}
	return h.Attacker.Name
}

// HitPlayer applies damage from attackerID to targetID within r.
//
// Precondition: r must be non-nil.
// Postcondition: Target health stays in [0, MaxHealth] and Alive == (Health > 0).
// A dead or unknown target is left untouched and Applied is false. On a kill the
// attacker, if it has a record, is credited KillScore.
func HitPlayer(r *room.Room, attackerID, targetID string, damage int) HitResult {
	target, ok := r.Player(targetID)
	if !ok || !target.Alive {
		return HitResult{}
	}
	res := HitResult{
		Applied: true,
		Target:  target,
		Damage:  NormalizeDamage(damage),
	}
	res.Attacker, _ = r.Player(attackerID)

	target.Health -= res.Damage
	if target.Health <= 0 {
		target.Health = 0
		target.Alive = false
		res.Killed = true
		if res.Attacker != nil {
			res.Attacker.Score += KillScore
		}
	}
	return res
}

// AntiAirResult reports the effect of one aaDestroyed request.
type AntiAirResult struct {
	// Applied is false when the unit was unknown or already destroyed.
	Applied bool
	Unit    *room.AntiAirUnit
	// Destroyer is nil when the reporting connection has no record in the room.
	Destroyer *room.PlayerRecord
	// Destroyed is true when this hit took the unit from alive to dead.
	Destroyed bool
}

// DamageAntiAir applies damage reported by destroyerID to AA unit aaID in r.
//
// Precondition: r must be non-nil.
// Postcondition: A destroyed unit never revives and credits AntiAirScore at most once.
func DamageAntiAir(r *room.Room, destroyerID string, aaID, damage int) AntiAirResult {
	unit, ok := r.AntiAir(aaID)
	if !ok || !unit.Alive {
		return AntiAirResult{}
	}
	res := AntiAirResult{Applied: true, Unit: unit}
	res.Destroyer, _ = r.Player(destroyerID)

	unit.Health -= NormalizeDamage(damage)
	if unit.Health <= 0 {
		unit.Health = 0
		unit.Alive = false
		res.Destroyed = true
		if res.Destroyer != nil {
			res.Destroyer.Score += AntiAirScore
		}
	}
	return res
}

// Respawn restores p to full health at a random point on the respawn ring.
//
// Precondition: p and src must be non-nil.
// Postcondition: p.Alive is true and p.Health == p.MaxHealth.
func Respawn(p *room.PlayerRecord, src random.Source) {
	p.Alive = true
	p.Health = p.MaxHealth
	p.Position = room.RespawnPoint(src)
}
