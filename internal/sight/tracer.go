// Package sight decides whether a shot fired along a heading can reach a
// target, bouncing off obstacle faces on the way.
package sight

import (
	"math"

	"github.com/Garsondee/tankbattle/internal/geom"
	"github.com/jakecoffman/cp"
	"github.com/pkg/errors"
)

// ErrInvariant marks programming faults such as a negative bounce budget.
var ErrInvariant = errors.New("sight: invariant violated")

// Kind is a body category: "player" or an archetype name.
type Kind string

// Scene is what the tracer samples.
type Scene interface {
	InBounds(p cp.Vector) bool
	// ObstacleAt returns the shape of the static obstacle covering p.
	ObstacleAt(p cp.Vector) (geom.RotatedRect, bool)
	// KindsAt appends the kinds of every body covering p to dst.
	KindsAt(p cp.Vector, dst []Kind) []Kind
}

// Query describes one trace.
type Query struct {
	Origin      cp.Vector
	Heading     float64 // degrees
	BounceLimit int
	// Target selects the kinds that count as a hit.
	Target func(Kind) bool
	// Self is the firer's own archetype. Empty disables the check.
	Self Kind
}

// Outcome says why a trace stopped.
type Outcome uint8

const (
	OutcomeTarget Outcome = iota
	OutcomeSelf
	OutcomeObstacle
	OutcomeBounds
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTarget:
		return "target"
	case OutcomeSelf:
		return "self"
	case OutcomeObstacle:
		return "obstacle"
	case OutcomeBounds:
		return "bounds"
	}
	return "unknown"
}

// Trace is the result of a trace: the polyline through each bounce point.
type Trace struct {
	Hit     bool
	Outcome Outcome
	Bounces int
	Path    []cp.Vector
}

// Tracer samples rays through a Scene.
type Tracer struct {
	scene Scene
	step  float64
}

// NewTracer returns a tracer stepping detectInterval units per sample.
func NewTracer(scene Scene, detectInterval float64) (*Tracer, error) {
	if detectInterval <= 0 || math.IsNaN(detectInterval) {
		return nil, errors.Errorf("sight: detect interval must be positive, got %v", detectInterval)
	}
	return &Tracer{scene: scene, step: detectInterval}, nil
}

// Step returns the sampling interval.
func (t *Tracer) Step() float64 { return t.step }

// CanHit reports whether a shot along q.Heading reaches a target kind.
func (t *Tracer) CanHit(q Query) (bool, error) {
	tr, err := t.Trace(q)
	if err != nil {
		return false, err
	}
	return tr.Hit, nil
}

// selfPhase tracks the firer's own hull around the muzzle.
type selfPhase uint8

const (
	selfUnseen selfPhase = iota
	selfLeaving
	selfPassed
)

// Trace walks the ray. Positions accumulate in floating point; only the
// probed point is rounded to the nearest integer cell. At each sample:
//
//   - a target kind ends the trace with a hit;
//   - an own-archetype kind ends it with a miss, except for the first run of
//     such samples nearest the origin;
//   - an obstacle reflects the direction off the face it was struck on and
//     resumes from the last free point, while budget remains;
//   - an obstacle with no budget left, or leaving the arena, is a miss.
func (t *Tracer) Trace(q Query) (Trace, error) {
	if q.BounceLimit < 0 {
		return Trace{}, errors.Wrapf(ErrInvariant, "sight: bounce limit %d", q.BounceLimit)
	}
	if q.Target == nil {
		return Trace{}, errors.New("sight: query has no target predicate")
	}

	tr := Trace{Path: []cp.Vector{q.Origin}}
	dir := geom.Heading(q.Heading)
	pos := q.Origin
	last := q.Origin
	phase := selfUnseen
	var kinds []Kind

	finish := func(o Outcome, end cp.Vector) (Trace, error) {
		tr.Outcome = o
		tr.Hit = o == OutcomeTarget
		tr.Path = append(tr.Path, end)
		return tr, nil
	}

	for {
		pos = pos.Add(dir.Mult(t.step))
		probe := geom.Round(pos)
		if !t.scene.InBounds(probe) {
			return finish(OutcomeBounds, last)
		}

		kinds = t.scene.KindsAt(probe, kinds[:0])
		own := false
		for _, k := range kinds {
			if q.Target(k) {
				return finish(OutcomeTarget, pos)
			}
			if q.Self != "" && k == q.Self {
				own = true
			}
		}
		switch {
		case own && phase == selfPassed:
			return finish(OutcomeSelf, pos)
		case own:
			phase = selfLeaving
		case phase == selfLeaving:
			phase = selfPassed
		}

		if rect, ok := t.scene.ObstacleAt(probe); ok {
			if tr.Bounces >= q.BounceLimit {
				return finish(OutcomeObstacle, last)
			}
			dir = geom.Reflect(dir, geom.FaceOf(rect, last))
			tr.Bounces++
			tr.Path = append(tr.Path, last)
			pos = last
			continue
		}
		last = pos
	}
}
