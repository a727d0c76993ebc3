package sim

import (
	"fmt"
	"math"
	"runtime"

	"github.com/Garsondee/tankbattle/internal/geom"
	"github.com/Garsondee/tankbattle/internal/nav"
	"github.com/Garsondee/tankbattle/internal/turret"
	"github.com/jakecoffman/cp"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	// stuckLimit is how many blocked ticks a tank tolerates before dropping
	// its route.
	stuckLimit = 20
	// maxDriveAngle is the largest heading error at which a tank still
	// drives forward instead of turning in place.
	maxDriveAngle = 45.0
	// holdRangeCells is how close, in grid intervals, a pursuing tank stops
	// once it has a clear line to its target.
	holdRangeCells = 5
)

// Tank is one hull on the battlefield.
type Tank struct {
	ID    int
	Label string
	Arch  turret.Archetype
	Body  geom.RotatedRect
	Alive bool

	turret  *turret.Turret
	route   *nav.Route
	goal    cp.Vector
	hasGoal bool
	detour  bool
	motion  cp.Vector
	stuck   int
}

func (t *Tank) Turret() *turret.Turret { return t.turret }

// Route returns the outstanding waypoints, nil when the tank has none.
func (t *Tank) Route() *nav.Route { return t.route }

// Goal returns the destination the current route leads to.
func (t *Tank) Goal() (cp.Vector, bool) { return t.goal, t.hasGoal }

type planJob struct {
	tank  *Tank
	goal  cp.Vector
	route *nav.Route
	err   error
}

// PlanRoutes picks destinations for every mobile tank that needs one and
// runs the path queries in parallel. Unreachable destinations are replaced
// by a random lattice node; only unexpected planner errors are returned.
func (w *World) PlanRoutes() error {
	var jobs []*planJob
	for _, t := range w.tanks {
		if !t.Alive || !t.Arch.Mobile {
			continue
		}
		goal, ok := w.desiredGoal(t)
		if !ok {
			t.route, t.hasGoal = nil, false
			continue
		}
		if t.route != nil && !t.route.Done() && goal.Distance(t.goal) <= w.grid.Interval() {
			continue
		}
		jobs = append(jobs, &planJob{tank: t, goal: goal})
	}
	if len(jobs) == 0 {
		return nil
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, j := range jobs {
		g.Go(func() error {
			j.route, j.err = nav.ShortestPath(w.grid, j.tank.Body.Center, j.goal)
			if j.err != nil && !unreachable(j.err) {
				return errors.Wrapf(j.err, "sim: plan %s", j.tank.Label)
			}
			return nil
		})
	}
	err := g.Wait()

	for _, j := range jobs {
		t := j.tank
		switch {
		case j.err == nil:
			t.route, t.goal, t.hasGoal = j.route, j.goal, true
			w.stats.RoutesPlanned++
			w.note(t, EventRoutePlanned,
				fmt.Sprintf("waypoints=%d length=%.0f", j.route.Len(), j.route.Length()), j.route.Length())
			w.logger.Debug("route planned", "tank", t.Label, "waypoints", j.route.Len())
		case unreachable(j.err):
			w.stats.NoRoute++
			w.note(t, EventNoRoute, j.err.Error(), 0)
			t.route = nil
			t.goal, t.hasGoal = w.randomNode(t.Body.Center), true
			t.detour = true
		}
	}
	return err
}

func unreachable(err error) bool {
	return errors.Is(err, nav.ErrNoRoute) || errors.Is(err, nav.ErrOutOfBounds)
}

// desiredGoal returns where t wants to go this tick. Pursuers head for
// their nearest target and hold once close with a clear line; everything
// else wanders between random lattice nodes.
func (w *World) desiredGoal(t *Tank) (cp.Vector, bool) {
	if t.detour {
		if (t.route != nil && !t.route.Done()) || (t.route == nil && t.hasGoal) {
			return t.goal, true
		}
		t.detour = false
	}
	if t.Arch.Kind != PlayerKind {
		if target, ok := w.nearestTarget(t); ok {
			pos := target.Body.Center
			hold := holdRangeCells * w.grid.Interval()
			if pos.Distance(t.Body.Center) <= hold && w.arena.SegmentClear(t.Body.Center, pos) {
				return cp.Vector{}, false
			}
			return pos, true
		}
	}
	if t.hasGoal && t.route != nil && !t.route.Done() {
		return t.goal, true
	}
	return w.randomNode(t.Body.Center), true
}

func (w *World) randomNode(fallback cp.Vector) cp.Vector {
	if len(w.nodes) == 0 {
		return fallback
	}
	return w.nodes[w.rng.Intn(len(w.nodes))].Pos
}

// drive steers the hull toward the next waypoint and moves it forward when
// the move stays clear of walls and the arena edge.
func (w *World) drive(t *Tank) {
	if t.route == nil {
		return
	}
	reach := w.grid.Interval() / 2
	wp, ok := t.route.Peek()
	for ok && wp.Distance(t.Body.Center) <= reach {
		t.route.Pop()
		wp, ok = t.route.Peek()
	}
	if !ok {
		return
	}

	bearing := geom.Bearing(t.Body.Center, wp)
	turned := t.Body
	turned.Rotation = geom.TurnToward(t.Body.Rotation, bearing, w.cfg.Tank.TurnRate)
	if w.arena.Blocks(turned) {
		w.stall(t)
		return
	}
	t.Body = turned
	if math.Abs(geom.AngleDiff(t.Body.Rotation, bearing)) > maxDriveAngle {
		return
	}
	step := math.Min(w.cfg.Tank.Speed, wp.Distance(t.Body.Center))
	motion := t.Body.Forward().Mult(step)
	next := t.Body.Translate(motion)
	if w.arena.Blocks(next) {
		w.stall(t)
		return
	}
	t.stuck = 0
	t.Body = next
	t.motion = motion
	w.note(t, EventMove,
		fmt.Sprintf("(%.0f,%.0f) rot=%.0f", next.Center.X, next.Center.Y, next.Rotation), step)
}

// stall counts a blocked tick and drops the route once the tank has been
// blocked for too long, forcing a fresh plan.
func (w *World) stall(t *Tank) {
	t.stuck++
	if t.stuck < stuckLimit {
		return
	}
	t.stuck = 0
	t.route = nil
	w.note(t, EventRouteStuck, "route dropped", 0)
}
