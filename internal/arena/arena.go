// Package arena holds the static playfield: its bounds and the square
// obstacles placed at level load. Obstacles are indexed in an R-tree so
// point and box queries stay cheap on large levels.
package arena

import (
	"math"

	"github.com/Garsondee/tankbattle/internal/geom"
	"github.com/dhconnelly/rtreego"
	"github.com/jakecoffman/cp"
	"github.com/pkg/errors"
)

// minExtent keeps R-tree query boxes non-degenerate.
const minExtent = 1e-6

// Obstacle is a static square wall block: top-left corner plus side length.
type Obstacle struct {
	X, Y float64
	Size float64
}

// BB returns the obstacle's bounds.
func (o *Obstacle) BB() cp.BB {
	return cp.BB{L: o.X, B: o.Y, R: o.X + o.Size, T: o.Y + o.Size}
}

// Center returns the middle of the block.
func (o *Obstacle) Center() cp.Vector {
	return cp.Vector{X: o.X + o.Size/2, Y: o.Y + o.Size/2}
}

// Rect returns the obstacle as an unrotated rect for quadrant classification.
func (o *Obstacle) Rect() geom.RotatedRect {
	return geom.AxisAligned(o.BB())
}

// Contains reports whether p falls in the half-open square [X, X+Size).
func (o *Obstacle) Contains(p cp.Vector) bool {
	return p.X >= o.X && p.X < o.X+o.Size && p.Y >= o.Y && p.Y < o.Y+o.Size
}

// Bounds implements rtreego.Spatial.
func (o *Obstacle) Bounds() rtreego.Rect {
	return searchRect(o.BB())
}

// Arena is the playfield. It is immutable after New.
type Arena struct {
	width     float64
	height    float64
	obstacles []*Obstacle
	tree      *rtreego.Rtree
}

// New validates the layout and indexes the obstacles.
func New(width, height float64, obstacles []Obstacle) (*Arena, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("arena: invalid size %vx%v", width, height)
	}
	a := &Arena{
		width:     width,
		height:    height,
		obstacles: make([]*Obstacle, 0, len(obstacles)),
		tree:      rtreego.NewTree(2, 4, 16),
	}
	for i := range obstacles {
		o := obstacles[i]
		if o.Size <= 0 {
			return nil, errors.Errorf("arena: obstacle %d at (%v,%v) has size %v", i, o.X, o.Y, o.Size)
		}
		a.obstacles = append(a.obstacles, &o)
		a.tree.Insert(&o)
	}
	return a, nil
}

func (a *Arena) Width() float64  { return a.width }
func (a *Arena) Height() float64 { return a.height }

// Obstacles returns the placed obstacles. Callers must not mutate them.
func (a *Arena) Obstacles() []*Obstacle { return a.obstacles }

// InBounds reports whether p lies inside [0,width) x [0,height).
func (a *Arena) InBounds(p cp.Vector) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < a.width && p.Y < a.height
}

// ObstacleAt returns the obstacle containing p, if any.
func (a *Arena) ObstacleAt(p cp.Vector) (*Obstacle, bool) {
	for _, s := range a.tree.SearchIntersect(searchRect(cp.BB{L: p.X, B: p.Y, R: p.X, T: p.Y})) {
		o := s.(*Obstacle)
		if o.Contains(p) {
			return o, true
		}
	}
	return nil, false
}

// Overlaps reports whether bb shares interior area with any obstacle.
func (a *Arena) Overlaps(bb cp.BB) bool {
	for _, s := range a.tree.SearchIntersect(searchRect(bb)) {
		if geom.BBOverlap(bb, s.(*Obstacle).BB()) {
			return true
		}
	}
	return false
}

// Blocks reports whether a body shaped r would leave the arena or overlap
// an obstacle.
func (a *Arena) Blocks(r geom.RotatedRect) bool {
	bb := r.BB()
	if bb.L < 0 || bb.B < 0 || bb.R > a.width || bb.T > a.height {
		return true
	}
	for _, s := range a.tree.SearchIntersect(searchRect(bb)) {
		if r.OverlapsBB(s.(*Obstacle).BB()) {
			return true
		}
	}
	return false
}

// searchRect converts a box to an R-tree rect, padding zero extents.
func searchRect(bb cp.BB) rtreego.Rect {
	w := math.Max(bb.R-bb.L, minExtent)
	h := math.Max(bb.T-bb.B, minExtent)
	// lengths are clamped positive so NewRect cannot fail
	r, _ := rtreego.NewRect(rtreego.Point{bb.L, bb.B}, []float64{w, h})
	return r
}
