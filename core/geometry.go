package core

import "math"

// MetersToFeet converts survey distances (metres) into scene units
// (feet). GIS imports arrive in geographic coordinates; the scene
// frame is feet.
const MetersToFeet = 3.28084

// Point2 is a planar scene coordinate: X runs east-west, Z runs
// north-south (north is negative Z).
type Point2 struct {
	X, Z float64
}

// DistanceTo returns the planar distance between two points.
func (p Point2) DistanceTo(other Point2) float64 {
	return math.Hypot(other.X-p.X, other.Z-p.Z)
}

// Sub returns p - other.
func (p Point2) Sub(other Point2) Point2 {
	return Point2{X: p.X - other.X, Z: p.Z - other.Z}
}

// lerp linearly interpolates between a and b by t.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
