package nav

import "github.com/jakecoffman/cp"

// Route is an ordered list of waypoints from source to destination,
// inclusive. The points never change after ShortestPath returns; Pop only
// advances a cursor. A nil *Route behaves as an exhausted route.
type Route struct {
	points []cp.Vector
	next   int
}

func newRoute(points []cp.Vector) *Route {
	return &Route{points: points}
}

// Len returns how many waypoints are left.
func (r *Route) Len() int {
	if r == nil {
		return 0
	}
	return len(r.points) - r.next
}

// Done reports whether every waypoint has been consumed.
func (r *Route) Done() bool { return r.Len() == 0 }

// Peek returns the next waypoint without consuming it.
func (r *Route) Peek() (cp.Vector, bool) {
	if r.Done() {
		return cp.Vector{}, false
	}
	return r.points[r.next], true
}

// Pop consumes the next waypoint.
func (r *Route) Pop() (cp.Vector, bool) {
	p, ok := r.Peek()
	if ok {
		r.next++
	}
	return p, ok
}

// Destination returns the final waypoint.
func (r *Route) Destination() (cp.Vector, bool) {
	if r == nil || len(r.points) == 0 {
		return cp.Vector{}, false
	}
	return r.points[len(r.points)-1], true
}

// Points returns a copy of the remaining waypoints.
func (r *Route) Points() []cp.Vector {
	if r.Done() {
		return nil
	}
	out := make([]cp.Vector, r.Len())
	copy(out, r.points[r.next:])
	return out
}

// Length is the euclidean length of the whole route, consumed part included.
func (r *Route) Length() float64 {
	if r == nil {
		return 0
	}
	total := 0.0
	for i := 1; i < len(r.points); i++ {
		total += r.points[i-1].Distance(r.points[i])
	}
	return total
}
