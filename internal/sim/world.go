// Package sim runs the headless battle: tanks follow planned routes,
// turrets pick bounced shots, shells ricochet, and overlapping hulls are
// pushed apart. The viewer and the headless report both drive it.
package sim

import (
	"fmt"
	"io"
	"math/rand"
	"slices"

	"github.com/Garsondee/tankbattle/internal/arena"
	"github.com/Garsondee/tankbattle/internal/collision"
	"github.com/Garsondee/tankbattle/internal/config"
	"github.com/Garsondee/tankbattle/internal/geom"
	"github.com/Garsondee/tankbattle/internal/nav"
	"github.com/Garsondee/tankbattle/internal/replay"
	"github.com/Garsondee/tankbattle/internal/sight"
	"github.com/Garsondee/tankbattle/internal/turret"
	"github.com/charmbracelet/log"
	"github.com/jakecoffman/cp"
	"github.com/pkg/errors"
)

// PlayerKind is the body kind of the player's tank.
const PlayerKind sight.Kind = "player"

// World is one battle. It is not safe for concurrent use; Tick runs every
// component to completion before returning.
type World struct {
	cfg      *config.Config
	arena    *arena.Arena
	grid     *nav.Grid
	nodes    []nav.Node
	tracer   *sight.Tracer
	resolver *collision.Resolver

	tanks  []*Tank
	shells []*Shell
	tick   int
	nextID int

	seed        int64
	rng         *rand.Rand
	logger      *log.Logger
	journal     *Journal
	replayOut   io.Writer
	recorder    *replay.Recorder
	stats       Stats
	spawnPlayer bool
	optErr      error
}

// New builds a world from cfg. cfg is copied; options may change the copy.
func New(cfg *config.Config, opts ...Option) (*World, error) {
	w := &World{
		cfg:         cloneConfig(cfg),
		seed:        1,
		rng:         rand.New(rand.NewSource(1)), // #nosec G404 -- game only
		logger:      log.New(io.Discard),
		journal:     NewJournal(false),
		spawnPlayer: true,
	}
	for _, o := range opts {
		if o.kind == optInfra {
			o.fn(w)
		}
	}
	if err := w.cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "sim: config")
	}

	obstacles := make([]arena.Obstacle, len(w.cfg.Level.Obstacles))
	for i, o := range w.cfg.Level.Obstacles {
		obstacles[i] = arena.Obstacle{X: o.X, Y: o.Y, Size: o.Size}
	}
	a, err := arena.New(w.cfg.Arena.Width, w.cfg.Arena.Height, obstacles)
	if err != nil {
		return nil, errors.Wrap(err, "sim")
	}
	w.arena = a

	w.grid, err = nav.Build(a.Width(), a.Height(), a, w.cfg.Grid.Interval, w.cfg.Grid.Margin)
	if err != nil {
		return nil, errors.Wrap(err, "sim")
	}
	w.nodes = w.grid.Nodes()

	w.tracer, err = sight.NewTracer(w, w.cfg.Sight.DetectInterval)
	if err != nil {
		return nil, errors.Wrap(err, "sim")
	}
	w.resolver, err = collision.NewResolver(a, w.cfg.Collision.CornerTolerance)
	if err != nil {
		return nil, errors.Wrap(err, "sim")
	}

	if w.replayOut != nil {
		if w.recorder, err = replay.NewRecorder(w.replayOut, w.ReplayHeader()); err != nil {
			return nil, errors.Wrap(err, "sim")
		}
	}

	if w.spawnPlayer {
		p := w.cfg.Level.Player
		spec, _ := w.cfg.Archetype(p.Archetype)
		w.spawn(spec, p.X, p.Y, p.Heading)
	}
	for _, e := range w.cfg.Level.Enemies {
		spec, _ := w.cfg.Archetype(e.Archetype)
		w.spawn(spec, e.X, e.Y, e.Heading)
	}
	for _, o := range opts {
		if o.kind == optTank {
			o.fn(w)
		}
	}
	if w.optErr != nil {
		return nil, w.optErr
	}

	w.logger.Info("world ready",
		"seed", w.seed,
		"nodes", w.grid.Len(),
		"obstacles", len(obstacles),
		"tanks", len(w.tanks))
	return w, nil
}

func cloneConfig(cfg *config.Config) *config.Config {
	c := *cfg
	c.Archetypes = slices.Clone(cfg.Archetypes)
	c.Level.Obstacles = slices.Clone(cfg.Level.Obstacles)
	c.Level.Enemies = slices.Clone(cfg.Level.Enemies)
	return &c
}

func (w *World) spawn(spec config.ArchetypeSpec, x, y, heading float64) {
	arch := spec.Archetype()
	tr, err := turret.New(arch, heading, rand.New(rand.NewSource(w.rng.Int63()))) // #nosec G404 -- game only
	if err != nil {
		w.optErr = errors.Wrapf(err, "sim: spawn %s", spec.Name)
		return
	}
	t := &Tank{
		ID:     w.nextID,
		Arch:   arch,
		Body:   geom.NewRotatedRect(cp.Vector{X: x, Y: y}, heading, w.cfg.Tank.HalfLength, w.cfg.Tank.HalfWidth),
		Alive:  true,
		turret: tr,
	}
	prefix := "E"
	if arch.Kind == PlayerKind {
		prefix = "P"
	}
	t.Label = fmt.Sprintf("%s%d", prefix, t.ID)
	w.nextID++
	w.tanks = append(w.tanks, t)
	if w.arena.Blocks(t.Body) {
		w.logger.Warn("tank spawned inside a wall", "tank", t.Label, "x", x, "y", y)
	}
}

func (w *World) Config() *config.Config { return w.cfg }
func (w *World) Arena() *arena.Arena    { return w.arena }
func (w *World) Grid() *nav.Grid        { return w.grid }
func (w *World) Tracer() *sight.Tracer  { return w.tracer }
func (w *World) Tanks() []*Tank         { return w.tanks }
func (w *World) Shells() []*Shell       { return w.shells }
func (w *World) CurrentTick() int       { return w.tick }
func (w *World) Seed() int64            { return w.seed }
func (w *World) Journal() *Journal      { return w.journal }
func (w *World) Stats() Stats           { return w.stats }
func (w *World) Over() bool             { return w.stats.Outcome != OutcomeNone }

// Tank returns the tank with the given label.
func (w *World) Tank(label string) (*Tank, bool) {
	for _, t := range w.tanks {
		if t.Label == label {
			return t, true
		}
	}
	return nil, false
}

// InBounds implements sight.Scene.
func (w *World) InBounds(p cp.Vector) bool { return w.arena.InBounds(p) }

// ObstacleAt implements sight.Scene.
func (w *World) ObstacleAt(p cp.Vector) (geom.RotatedRect, bool) {
	o, ok := w.arena.ObstacleAt(p)
	if !ok {
		return geom.RotatedRect{}, false
	}
	return o.Rect(), true
}

// KindsAt implements sight.Scene. Destroyed tanks are not solid.
func (w *World) KindsAt(p cp.Vector, dst []sight.Kind) []sight.Kind {
	for _, t := range w.tanks {
		if t.Alive && t.Body.Contains(p) {
			dst = append(dst, t.Arch.Kind)
		}
	}
	return dst
}

// Tick advances the battle by one step.
func (w *World) Tick() {
	w.tick++
	w.stats.Ticks = w.tick

	if err := w.PlanRoutes(); err != nil {
		w.logger.Error("route planning failed", "tick", w.tick, "err", err)
		w.note(nil, EventFault, "plan: "+err.Error(), 0)
		w.stats.Faults++
	}
	for _, t := range w.tanks {
		if !t.Alive {
			continue
		}
		if err := w.updateTank(t); err != nil {
			w.fault(t, err)
		}
	}
	w.resolveCollisions()
	w.advanceShells()
	w.checkOutcome()

	if w.recorder != nil {
		if err := w.recorder.Record(w.Snapshot()); err != nil {
			w.logger.Error("replay disabled", "err", err)
			w.recorder = nil
		}
	}
}

// RunTicks advances n ticks, stopping early once the battle is decided.
func (w *World) RunTicks(n int) {
	for range n {
		if w.Over() {
			return
		}
		w.Tick()
	}
}

// note journals an event for t, or a battle-wide one when t is nil.
func (w *World) note(t *Tank, typ EventType, detail string, value float64) {
	label := ""
	if t != nil {
		label = t.Label
	}
	w.journal.Record(w.tick, label, typ, detail, value)
}

// fault skips the tank's turn and keeps the simulation going.
func (w *World) fault(t *Tank, err error) {
	w.stats.Faults++
	w.logger.Error("tank update failed", "tank", t.Label, "tick", w.tick, "err", err)
	w.note(t, EventFault, "update: "+err.Error(), 0)
}

func (w *World) updateTank(t *Tank) error {
	t.motion = cp.Vector{}
	if t.Arch.Mobile {
		w.drive(t)
	}
	return w.aim(t)
}

func (w *World) aim(t *Tank) error {
	s := turret.Situation{Muzzle: t.Body.Center}
	if target, ok := w.nearestTarget(t); ok {
		s.Target = target.Body.Center
		s.HasTarget = true
		s.Visible = w.arena.SegmentClear(s.Muzzle, s.Target)
	}
	prev := t.turret.State()
	shot, err := t.turret.Update(s, w.tracer)
	if err != nil {
		return errors.Wrapf(err, "sim: %s turret", t.Label)
	}
	if st := t.turret.State(); st != prev {
		w.note(t, EventTurretState, prev.String()+" → "+st.String(), 0)
	}
	if shot != nil {
		w.fire(t, shot)
	}
	return nil
}

func (w *World) nearestTarget(t *Tank) (*Tank, bool) {
	var best *Tank
	bestD := 0.0
	for _, o := range w.tanks {
		if o == t || !o.Alive || !t.Arch.IsTarget(o.Arch.Kind) {
			continue
		}
		d := o.Body.Center.DistanceSq(t.Body.Center)
		if best == nil || d < bestD {
			best, bestD = o, d
		}
	}
	return best, best != nil
}

// AimPreview traces the shot the tank's turret would fire right now.
func (w *World) AimPreview(t *Tank) (sight.Trace, error) {
	return w.tracer.Trace(t.turret.Query(t.Body.Center, t.turret.Heading()))
}

func (w *World) resolveCollisions() {
	for i, a := range w.tanks {
		if !a.Alive {
			continue
		}
		for _, b := range w.tanks[i+1:] {
			if !b.Alive || !a.Body.Overlaps(b.Body) {
				continue
			}
			mover, blocked := a, b
			if b.motion.LengthSq() > a.motion.LengthSq() {
				mover, blocked = b, a
			}
			corner, ok := collision.ContactCorner(mover.Body, blocked.Body)
			if !ok {
				corner, ok = collision.ContactCorner(blocked.Body, mover.Body)
			}
			if !ok {
				corner = mover.Body.Center.Lerp(blocked.Body.Center, 0.5)
			}
			res := w.resolver.ResolvePush(collision.Mover{Rect: mover.Body, Motion: mover.motion}, blocked.Body, corner)
			if next := blocked.Body.Translate(res.Blocked); !w.arena.Blocks(next) {
				blocked.Body = next
			}
			if next := mover.Body.Translate(res.Mover); !w.arena.Blocks(next) {
				mover.Body = next
			} else if prev := mover.Body.Translate(mover.motion.Neg()); !w.arena.Blocks(prev) {
				mover.Body = prev
			}
			w.stats.Collisions++
			w.note(mover, EventCollision,
				fmt.Sprintf("%s pushed %s face=%s absorbed_x=%t absorbed_y=%t", res.Kind, blocked.Label, res.Face, res.AbsorbedX, res.AbsorbedY), 0)
		}
	}
}

func (w *World) checkOutcome() {
	if w.Over() {
		return
	}
	players, enemies := 0, 0
	playerAlive, enemyAlive := false, false
	for _, t := range w.tanks {
		if t.Arch.Kind == PlayerKind {
			players++
			playerAlive = playerAlive || t.Alive
		} else {
			enemies++
			enemyAlive = enemyAlive || t.Alive
		}
	}
	switch {
	case players > 0 && !playerAlive:
		w.stats.Outcome = OutcomeDefeat
	case enemies > 0 && !enemyAlive:
		w.stats.Outcome = OutcomeVictory
	default:
		return
	}
	w.stats.OutcomeTick = w.tick
	w.note(nil, EventOutcome, w.stats.Outcome.String(), 0)
	w.logger.Info("battle decided", "outcome", w.stats.Outcome, "tick", w.tick)
}

// FlushReplay writes any buffered replay frames.
func (w *World) FlushReplay() error {
	if w.recorder == nil {
		return nil
	}
	return w.recorder.Flush()
}

// Snapshot captures the current tick for replay.
func (w *World) Snapshot() replay.Frame {
	f := replay.Frame{Tick: w.tick}
	for _, t := range w.tanks {
		f.Tanks = append(f.Tanks, replay.Tank{
			ID:       t.ID,
			Kind:     string(t.Arch.Kind),
			X:        t.Body.Center.X,
			Y:        t.Body.Center.Y,
			Rotation: t.Body.Rotation,
			Turret:   t.turret.Heading(),
			Alive:    t.Alive,
		})
	}
	for _, s := range w.shells {
		f.Shells = append(f.Shells, replay.Shell{
			Owner:   s.Owner.ID,
			X:       s.Pos.X,
			Y:       s.Pos.Y,
			Heading: geom.Bearing(cp.Vector{}, s.Dir),
			Bounces: s.Bounces,
		})
	}
	return f
}

// ReplayHeader describes the static level for a replay stream.
func (w *World) ReplayHeader() replay.Header {
	h := replay.Header{Seed: w.seed, Width: w.arena.Width(), Height: w.arena.Height()}
	for _, o := range w.arena.Obstacles() {
		h.Obstacles = append(h.Obstacles, replay.Obstacle{X: o.X, Y: o.Y, Size: o.Size})
	}
	return h
}
