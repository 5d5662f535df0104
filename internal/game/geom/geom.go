// Package geom holds the small vector types carried on the wire.
package geom

import "math"

// Vec3 is a position or velocity in world units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quat is an orientation quaternion.
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity is the no-rotation quaternion.
var Identity = Quat{W: 1}

// OnRing returns the point at angle (radians) and radius on the horizontal
// plane around the origin, at the given altitude. Angle 0 points along +Z.
//
// Postcondition: sqrt(X²+Z²) == radius (within float error); Y == altitude.
func OnRing(angle, radius, altitude float64) Vec3 {
	return Vec3{
		X: math.Sin(angle) * radius,
		Y: altitude,
		Z: math.Cos(angle) * radius,
	}
}

// HorizontalDistance returns the distance of v from the origin ignoring altitude.
func (v Vec3) HorizontalDistance() float64 {
	return math.Hypot(v.X, v.Z)
}
