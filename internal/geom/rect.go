package geom

import (
	"math"

	"github.com/jakecoffman/cp"
)

// RotatedRect is an oriented rectangle. HalfLength runs along the heading,
// HalfWidth across it. Center keeps sub-pixel precision so repeated small
// moves do not drift.
type RotatedRect struct {
	Center     cp.Vector
	Rotation   float64 // degrees, [0, 360)
	HalfLength float64
	HalfWidth  float64
}

// NewRotatedRect builds a rect with its rotation normalized.
func NewRotatedRect(center cp.Vector, rotation, halfLength, halfWidth float64) RotatedRect {
	return RotatedRect{
		Center:     center,
		Rotation:   NormalizeDegrees(rotation),
		HalfLength: halfLength,
		HalfWidth:  halfWidth,
	}
}

// AxisAligned converts a bounding box into an unrotated RotatedRect.
// cp.BB uses L,B for the minimum corner and R,T for the maximum corner.
func AxisAligned(bb cp.BB) RotatedRect {
	return RotatedRect{
		Center:     cp.Vector{X: (bb.L + bb.R) / 2, Y: (bb.B + bb.T) / 2},
		HalfLength: (bb.R - bb.L) / 2,
		HalfWidth:  (bb.T - bb.B) / 2,
	}
}

// axes returns the forward and side unit vectors.
func (r RotatedRect) axes() (fwd, side cp.Vector) {
	fwd = Heading(r.Rotation)
	side = cp.Vector{X: -fwd.Y, Y: fwd.X}
	return fwd, side
}

// Forward is the unit heading vector.
func (r RotatedRect) Forward() cp.Vector {
	fwd, _ := r.axes()
	return fwd
}

// CornerHalfAngle is the angle between the heading axis and a diagonal.
func (r RotatedRect) CornerHalfAngle() float64 {
	return Degrees(math.Atan2(r.HalfWidth, r.HalfLength))
}

// CornerOffsets returns the corners relative to the center in the order
// front-left, front-right, back-right, back-left.
func (r RotatedRect) CornerOffsets() [4]cp.Vector {
	fwd, side := r.axes()
	f := fwd.Mult(r.HalfLength)
	s := side.Mult(r.HalfWidth)
	return [4]cp.Vector{
		f.Sub(s),
		f.Add(s),
		f.Neg().Add(s),
		f.Neg().Sub(s),
	}
}

// Corners returns the world-space corners, same order as CornerOffsets.
func (r RotatedRect) Corners() [4]cp.Vector {
	offs := r.CornerOffsets()
	for i := range offs {
		offs[i] = r.Center.Add(offs[i])
	}
	return offs
}

// Local expresses p in the rect frame: X along the heading, Y across it.
func (r RotatedRect) Local(p cp.Vector) cp.Vector {
	fwd, side := r.axes()
	d := p.Sub(r.Center)
	return cp.Vector{X: d.Dot(fwd), Y: d.Dot(side)}
}

// Penetration is how far p lies inside the rect, measured to the nearest
// edge. Negative values are outside.
func (r RotatedRect) Penetration(p cp.Vector) float64 {
	l := r.Local(p)
	return math.Min(r.HalfLength-math.Abs(l.X), r.HalfWidth-math.Abs(l.Y))
}

// Contains reports whether p is inside or on the edge of the rect.
func (r RotatedRect) Contains(p cp.Vector) bool {
	return r.Penetration(p) >= -epsilon
}

// Translate returns the rect moved by d.
func (r RotatedRect) Translate(d cp.Vector) RotatedRect {
	r.Center = r.Center.Add(d)
	return r
}

// BB returns the axis-aligned bounds.
func (r RotatedRect) BB() cp.BB {
	cs := r.Corners()
	bb := cp.BB{L: cs[0].X, B: cs[0].Y, R: cs[0].X, T: cs[0].Y}
	for _, c := range cs[1:] {
		bb.L = math.Min(bb.L, c.X)
		bb.B = math.Min(bb.B, c.Y)
		bb.R = math.Max(bb.R, c.X)
		bb.T = math.Max(bb.T, c.Y)
	}
	return bb
}

// Overlaps reports whether the interiors of two rects intersect, using the
// separating axis test. Touching edges do not count.
func (r RotatedRect) Overlaps(o RotatedRect) bool {
	rf, rs := r.axes()
	of, os := o.axes()
	rc := r.Corners()
	oc := o.Corners()
	for _, axis := range [4]cp.Vector{rf, rs, of, os} {
		rMin, rMax := project(rc, axis)
		oMin, oMax := project(oc, axis)
		if rMax <= oMin+epsilon || oMax <= rMin+epsilon {
			return false
		}
	}
	return true
}

// OverlapsBB is Overlaps against an axis-aligned box.
func (r RotatedRect) OverlapsBB(bb cp.BB) bool {
	return r.Overlaps(AxisAligned(bb))
}

func project(pts [4]cp.Vector, axis cp.Vector) (lo, hi float64) {
	lo = pts[0].Dot(axis)
	hi = lo
	for _, p := range pts[1:] {
		d := p.Dot(axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// BBOverlap reports whether two boxes share interior area.
func BBOverlap(a, b cp.BB) bool {
	return a.L < b.R && a.R > b.L && a.B < b.T && a.T > b.B
}
