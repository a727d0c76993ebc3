package sim

import (
	"fmt"
	"math"

	"github.com/Garsondee/tankbattle/internal/geom"
	"github.com/Garsondee/tankbattle/internal/turret"
	"github.com/jakecoffman/cp"
)

// Shell is a projectile in flight.
type Shell struct {
	Owner     *Tank
	Pos       cp.Vector
	Dir       cp.Vector
	Bounces   int // ricochets left
	Ricochets int

	leftOwner bool
	dead      bool
}

func (w *World) fire(t *Tank, shot *turret.Shot) {
	w.shells = append(w.shells, &Shell{
		Owner:   t,
		Pos:     shot.Origin,
		Dir:     geom.Heading(shot.Heading),
		Bounces: shot.Bounces,
	})
	w.stats.Shots++
	w.note(t, EventFire,
		fmt.Sprintf("heading=%.1f", shot.Heading), shot.Heading)
	w.logger.Debug("shell fired", "tank", t.Label, "heading", shot.Heading)
}

// advanceShells moves every shell and releases the owner's live slot for
// each one that ends.
func (w *World) advanceShells() {
	live := w.shells[:0]
	for _, s := range w.shells {
		w.stepShell(s)
		if !s.dead {
			live = append(live, s)
			continue
		}
		if err := s.Owner.turret.ProjectileExpired(); err != nil {
			w.fault(s.Owner, err)
		}
	}
	clear(w.shells[len(live):])
	w.shells = live
}

// stepShell advances s by one tick in detect-interval substeps. Walls
// reflect it the same way the tracer reflects a ray: off the face struck,
// resuming from the last free point.
func (w *World) stepShell(s *Shell) {
	speed := w.cfg.Projectile.Speed
	n := int(math.Ceil(speed / w.tracer.Step()))
	step := speed / float64(n)
	for range n {
		next := s.Pos.Add(s.Dir.Mult(step))
		probe := geom.Round(next)
		if !w.arena.InBounds(probe) {
			w.expire(s, "bounds")
			return
		}
		if o, ok := w.arena.ObstacleAt(probe); ok {
			if s.Bounces == 0 {
				w.expire(s, "wall")
				return
			}
			face := geom.FaceOf(o.Rect(), s.Pos)
			s.Dir = geom.Reflect(s.Dir, face)
			s.Bounces--
			s.Ricochets++
			w.stats.Ricochets++
			w.note(s.Owner, EventRicochet, "face="+face.String(), float64(s.Ricochets))
			continue
		}
		s.Pos = next
		if w.shellHit(s) {
			return
		}
	}
}

// shellHit destroys the first live tank s touches. The owner's own hull is
// ignored until the shell has cleared it once.
func (w *World) shellHit(s *Shell) bool {
	if !s.leftOwner && !s.Owner.Body.Contains(s.Pos) {
		s.leftOwner = true
	}
	for _, t := range w.tanks {
		if !t.Alive || (t == s.Owner && !s.leftOwner) {
			continue
		}
		if !t.Body.Contains(s.Pos) {
			continue
		}
		t.Alive = false
		s.dead = true
		w.stats.Kills++
		w.note(s.Owner, EventKill,
			fmt.Sprintf("%s destroyed %s", s.Owner.Label, t.Label), 0)
		w.logger.Info("tank destroyed", "by", s.Owner.Label, "tank", t.Label, "tick", w.tick)
		return true
	}
	return false
}

func (w *World) expire(s *Shell, reason string) {
	s.dead = true
	w.note(s.Owner, EventExpired, reason, 0)
}
