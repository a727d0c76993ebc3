package arena

import (
	"math"

	"github.com/jakecoffman/cp"
)

// SegmentClear reports whether the segment from→to stays out of every
// obstacle. Touching an obstacle's edge counts as blocked.
func (a *Arena) SegmentClear(from, to cp.Vector) bool {
	span := cp.BB{
		L: math.Min(from.X, to.X),
		B: math.Min(from.Y, to.Y),
		R: math.Max(from.X, to.X),
		T: math.Max(from.Y, to.Y),
	}
	for _, s := range a.tree.SearchIntersect(searchRect(span)) {
		if crossesBox(from, to, s.(*Obstacle).BB()) {
			return false
		}
	}
	return true
}

type slab struct{ origin, delta, lo, hi float64 }

// crossesBox clips the parameter range [0,1] of from→to against the box's
// X slab and then its Y slab; the segment touches the box iff some range
// survives both.
func crossesBox(from, to cp.Vector, box cp.BB) bool {
	d := to.Sub(from)
	enter, exit := 0.0, 1.0
	for _, s := range [2]slab{
		{from.X, d.X, box.L, box.R},
		{from.Y, d.Y, box.B, box.T},
	} {
		if math.Abs(s.delta) < 1e-12 {
			if s.origin < s.lo || s.origin > s.hi {
				return false
			}
			continue
		}
		t0 := (s.lo - s.origin) / s.delta
		t1 := (s.hi - s.origin) / s.delta
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		enter, exit = math.Max(enter, t0), math.Min(exit, t1)
		if enter > exit {
			return false
		}
	}
	return true
}
