package room

import (
	"math"

	"github.com/cory-johannsen/dogfight/internal/game/aircraft"
	"github.com/cory-johannsen/dogfight/internal/game/geom"
	"github.com/cory-johannsen/dogfight/internal/game/random"
)

const (
	// SpawnAltitude is the altitude of every join and respawn point.
	SpawnAltitude = 150.0
	// JoinRadius is the ring radius for join spawn points.
	JoinRadius = 200.0
	// RespawnRadius is the ring radius for respawn points.
	RespawnRadius = 300.0

	antiAirHealth    = 3
	antiAirJitter    = 0.3
	antiAirMinRadius = 150.0
	antiAirSpread    = 800.0
)

// JoinSpawnPoint returns the spawn point for the given palette slot: players
// are spread evenly around a ring of radius JoinRadius.
func JoinSpawnPoint(paletteIndex int) geom.Vec3 {
	angle := float64(paletteIndex) * (2 * math.Pi / float64(len(aircraft.Palette)))
	return geom.OnRing(angle, JoinRadius, SpawnAltitude)
}

// RespawnPoint returns a uniformly random point on the respawn ring.
func RespawnPoint(src random.Source) geom.Vec3 {
	return geom.OnRing(src.Float64()*2*math.Pi, RespawnRadius, SpawnAltitude)
}

// NewAntiAirRing places n AA units roughly evenly around the origin, each
// with a small angular jitter and a random distance in [150, 950).
//
// Postcondition: len(result) == n; unit i has ID i, Health 3, Alive true.
func NewAntiAirRing(src random.Source, n int) []*AntiAirUnit {
	units := make([]*AntiAirUnit, 0, n)
	for i := 0; i < n; i++ {
		angle := float64(i)/float64(n)*2*math.Pi + (src.Float64()-0.5)*antiAirJitter
		dist := antiAirMinRadius + src.Float64()*antiAirSpread
		units = append(units, &AntiAirUnit{
			ID:       i,
			Position: geom.OnRing(angle, dist, 0),
			Health:   antiAirHealth,
			Alive:    true,
		})
	}
	return units
}
