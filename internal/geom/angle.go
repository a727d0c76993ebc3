// Package geom holds the 2D helpers shared by navigation, targeting and
// collision: angle handling, rotated rectangles and quadrant classification.
//
// Coordinates are screen-style: +X right, +Y down. A rotation of 0 degrees
// faces +X and angles grow clockwise on screen.
package geom

import (
	"math"

	"github.com/jakecoffman/cp"
)

// epsilon absorbs float noise in containment and overlap tests.
const epsilon = 1e-9

// NormalizeDegrees maps any angle into [0, 360).
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	// -1e-17 + 360 rounds to 360.
	if a >= 360 {
		a -= 360
	}
	return a
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Heading returns the unit vector for a rotation in degrees.
func Heading(deg float64) cp.Vector {
	return cp.ForAngle(Radians(deg))
}

// Bearing returns the direction from one point to another in [0, 360).
// Coincident points have bearing 0.
func Bearing(from, to cp.Vector) float64 {
	return NormalizeDegrees(Degrees(math.Atan2(to.Y-from.Y, to.X-from.X)))
}

// AngleDiff returns the signed shortest rotation from a to b, in (-180, 180].
func AngleDiff(a, b float64) float64 {
	d := NormalizeDegrees(b - a)
	if d > 180 {
		d -= 360
	}
	return d
}

// TurnToward rotates from toward target by at most maxStep degrees.
func TurnToward(from, target, maxStep float64) float64 {
	d := AngleDiff(from, target)
	if math.Abs(d) <= maxStep {
		return NormalizeDegrees(target)
	}
	if d < 0 {
		return NormalizeDegrees(from - maxStep)
	}
	return NormalizeDegrees(from + maxStep)
}

// Round snaps a point to the nearest integer cell.
func Round(p cp.Vector) cp.Vector {
	return cp.Vector{X: math.Round(p.X), Y: math.Round(p.Y)}
}
