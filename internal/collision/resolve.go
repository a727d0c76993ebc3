// Package collision separates two overlapping tank bodies within a tick.
package collision

import (
	"math"

	"github.com/Garsondee/tankbattle/internal/geom"
	"github.com/jakecoffman/cp"
	"github.com/pkg/errors"
)

// ContactKind classifies how two bodies touch.
type ContactKind uint8

const (
	// CornerToFace: one corner of the mover pokes into a flat face.
	CornerToFace ContactKind = iota
	// CornerToCorner: the contact sits on a corner of the blocked body.
	CornerToCorner
	// SideToSide: two or more mover corners are inside the blocked body.
	SideToSide
)

func (k ContactKind) String() string {
	switch k {
	case CornerToFace:
		return "corner-to-face"
	case CornerToCorner:
		return "corner-to-corner"
	case SideToSide:
		return "side-to-side"
	}
	return "unknown"
}

// Walls reports whether a body shape would clip a static obstacle or
// leave the arena. *arena.Arena satisfies it.
type Walls interface {
	Blocks(r geom.RotatedRect) bool
}

// Mover is the body that drove into the contact this tick.
type Mover struct {
	Rect   geom.RotatedRect
	Motion cp.Vector // forward motion applied this tick
}

// Resolution is the positional correction for one overlapping pair.
type Resolution struct {
	Kind ContactKind
	Face geom.Quadrant // world face of the blocked body that was struck
	// Blocked is added to the blocked body's center.
	Blocked cp.Vector
	// Mover is added to the mover's center. It is non-zero only on axes
	// where the blocked body could not move.
	Mover     cp.Vector
	AbsorbedX bool
	AbsorbedY bool
}

// Resolver computes push resolutions.
type Resolver struct {
	walls           Walls
	cornerTolerance float64
}

// NewResolver returns a resolver. walls may be nil for open ground.
// cornerTolerance is how close a contact point must be to a corner of the
// blocked body to count as corner-to-corner.
func NewResolver(walls Walls, cornerTolerance float64) (*Resolver, error) {
	if cornerTolerance < 0 || math.IsNaN(cornerTolerance) {
		return nil, errors.Errorf("collision: corner tolerance must not be negative, got %v", cornerTolerance)
	}
	return &Resolver{walls: walls, cornerTolerance: cornerTolerance}, nil
}

// ResolvePush pushes blocked out of the mover's way.
//
// Corner-to-face contacts move the blocked body along one world axis only,
// the one the struck face looks along once the blocked body's rotation is
// applied, by the mover's motion on that axis. Other contacts move it by the mover's whole motion.
// When the pushed body would clip a wall along an axis, that axis is
// cancelled for the blocked body and the mover's advance on it is undone,
// so neither body ends up inside the wall or inside the other.
func (r *Resolver) ResolvePush(m Mover, blocked geom.RotatedRect, corner cp.Vector) Resolution {
	res := Resolution{
		Kind: r.classify(m.Rect, blocked, corner),
		Face: geom.FaceOf(blocked, corner),
	}

	push := m.Motion
	if res.Kind == CornerToFace {
		if res.Face.Axis() == geom.AxisX {
			push = cp.Vector{X: m.Motion.X}
		} else {
			push = cp.Vector{Y: m.Motion.Y}
		}
	}
	res.Blocked = push

	if r.walls == nil {
		return res
	}
	if push.X != 0 && r.walls.Blocks(blocked.Translate(cp.Vector{X: push.X})) {
		res.Blocked.X = 0
		res.Mover.X = -push.X
		res.AbsorbedX = true
	}
	if push.Y != 0 && r.walls.Blocks(blocked.Translate(cp.Vector{Y: push.Y})) {
		res.Blocked.Y = 0
		res.Mover.Y = -push.Y
		res.AbsorbedY = true
	}
	return res
}

func (r *Resolver) classify(mover, blocked geom.RotatedRect, corner cp.Vector) ContactKind {
	inside := 0
	for _, c := range mover.Corners() {
		if blocked.Contains(c) {
			inside++
		}
	}
	if inside >= 2 {
		return SideToSide
	}
	for _, c := range blocked.Corners() {
		if c.Distance(corner) <= r.cornerTolerance || mover.Contains(c) {
			return CornerToCorner
		}
	}
	return CornerToFace
}

// ContactCorner returns the mover corner that sits deepest inside blocked.
func ContactCorner(mover, blocked geom.RotatedRect) (cp.Vector, bool) {
	best := cp.Vector{}
	depth := math.Inf(-1)
	for _, c := range mover.Corners() {
		if d := blocked.Penetration(c); d >= 0 && d > depth {
			best, depth = c, d
		}
	}
	return best, !math.IsInf(depth, -1)
}
