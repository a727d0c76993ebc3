// Package nav builds the navigation lattice over an arena and answers
// shortest-path queries on it.
package nav

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/pkg/errors"
)

var (
	// ErrOutOfBounds is returned for lookups outside the lattice extents.
	ErrOutOfBounds = errors.New("nav: out of bounds")
	// ErrHole is returned when a lookup hits a lattice slot with no node.
	ErrHole = errors.New("nav: hole")
)

// none marks a missing neighbor link.
const none int32 = -1

// Direction names a neighbor slot relative to a node.
type Direction uint8

const (
	UpperLeft Direction = iota
	Upper
	UpperRight
	Left
	Right
	LowerLeft
	Lower
	LowerRight

	directionCount
)

// directionOffsets holds (dRow, dCol) per direction.
var directionOffsets = [directionCount][2]int{
	UpperLeft:  {-1, -1},
	Upper:      {-1, 0},
	UpperRight: {-1, 1},
	Left:       {0, -1},
	Right:      {0, 1},
	LowerLeft:  {1, -1},
	Lower:      {1, 0},
	LowerRight: {1, 1},
}

// backLinks are the neighbors that already exist when a node is created in
// row-major order.
var backLinks = [...]Direction{UpperLeft, Upper, UpperRight, Left}

// Opposite returns the reciprocal direction.
func (d Direction) Opposite() Direction { return directionCount - 1 - d }

func (d Direction) String() string {
	switch d {
	case UpperLeft:
		return "upper-left"
	case Upper:
		return "upper"
	case UpperRight:
		return "upper-right"
	case Left:
		return "left"
	case Right:
		return "right"
	case LowerLeft:
		return "lower-left"
	case Lower:
		return "lower"
	case LowerRight:
		return "lower-right"
	}
	return "unknown"
}

// Node is a lattice node: its (row, col) identity and world position.
type Node struct {
	Row, Col int
	Pos      cp.Vector
}

// Overlapper answers whether a box touches any static obstacle.
type Overlapper interface {
	Overlaps(bb cp.BB) bool
}

// Grid is an 8-connected lattice with holes where a margin-sized body would
// clip an obstacle. Nodes live in a flat row-major slice; adjacency is an
// index list per slot. Nothing is mutated after Build.
type Grid struct {
	rows, cols    int
	width, height float64
	interval      float64
	margin        float64
	present       []bool
	adj           [][directionCount]int32
	count         int
}

// Build lays nodes at the centers of interval-sized cells. A cell becomes a
// hole when the margin-sided clearance square around its center overlaps an
// obstacle. Links are wired in creation order: each new node links to its
// upper-left, upper, upper-right and left neighbors, and those neighbors get
// the reciprocal link at the same time.
func Build(width, height float64, obstacles Overlapper, interval, margin float64) (*Grid, error) {
	if interval <= 0 || math.IsNaN(interval) {
		return nil, errors.Errorf("nav: interval must be positive, got %v", interval)
	}
	if margin < 0 || math.IsNaN(margin) {
		return nil, errors.Errorf("nav: margin must not be negative, got %v", margin)
	}
	cols := int(width / interval)
	rows := int(height / interval)
	if cols <= 0 || rows <= 0 {
		return nil, errors.Errorf("nav: arena %vx%v is smaller than one interval (%v)", width, height, interval)
	}

	g := &Grid{
		rows:     rows,
		cols:     cols,
		width:    width,
		height:   height,
		interval: interval,
		margin:   margin,
		present:  make([]bool, rows*cols),
		adj:      make([][directionCount]int32, rows*cols),
	}
	for i := range g.adj {
		for d := range g.adj[i] {
			g.adj[i][d] = none
		}
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if obstacles != nil && obstacles.Overlaps(clearance(g.Position(row, col), margin)) {
				continue
			}
			idx := row*cols + col
			g.present[idx] = true
			g.count++
			for _, d := range backLinks {
				g.link(idx, row, col, d)
			}
		}
	}
	return g, nil
}

func (g *Grid) link(idx, row, col int, d Direction) {
	off := directionOffsets[d]
	nr, nc := row+off[0], col+off[1]
	if !g.inside(nr, nc) {
		return
	}
	n := nr*g.cols + nc
	if !g.present[n] {
		return
	}
	g.adj[idx][d] = int32(n)
	g.adj[n][d.Opposite()] = int32(idx)
}

// clearance is the square footprint a margin-sized body occupies at pos.
func clearance(pos cp.Vector, margin float64) cp.BB {
	h := margin / 2
	return cp.BB{L: pos.X - h, B: pos.Y - h, R: pos.X + h, T: pos.Y + h}
}

// Clearance returns the footprint tested for a node at pos.
func (g *Grid) Clearance(pos cp.Vector) cp.BB { return clearance(pos, g.margin) }

func (g *Grid) Rows() int         { return g.rows }
func (g *Grid) Cols() int         { return g.cols }
func (g *Grid) Interval() float64 { return g.interval }
func (g *Grid) Margin() float64   { return g.margin }

// Len returns the number of constructed (non-hole) nodes.
func (g *Grid) Len() int { return g.count }

func (g *Grid) inside(row, col int) bool {
	return row >= 0 && col >= 0 && row < g.rows && col < g.cols
}

// Position returns the world position of a lattice slot, hole or not.
func (g *Grid) Position(row, col int) cp.Vector {
	return cp.Vector{
		X: (float64(col) + 0.5) * g.interval,
		Y: (float64(row) + 0.5) * g.interval,
	}
}

func (g *Grid) slotPosition(idx int) cp.Vector {
	return g.Position(idx/g.cols, idx%g.cols)
}

func (g *Grid) node(idx int) Node {
	return Node{Row: idx / g.cols, Col: idx % g.cols, Pos: g.slotPosition(idx)}
}

// Node looks up the node at (row, col).
func (g *Grid) Node(row, col int) (Node, error) {
	if !g.inside(row, col) {
		return Node{}, errors.Wrapf(ErrOutOfBounds, "nav: node (%d,%d) outside %dx%d", row, col, g.rows, g.cols)
	}
	idx := row*g.cols + col
	if !g.present[idx] {
		return Node{}, errors.Wrapf(ErrHole, "nav: node (%d,%d)", row, col)
	}
	return g.node(idx), nil
}

// IsHole reports whether (row, col) has no node. Out-of-bounds slots count
// as holes.
func (g *Grid) IsHole(row, col int) bool {
	if !g.inside(row, col) {
		return true
	}
	return !g.present[row*g.cols+col]
}

// Locate maps world coordinates to the lattice slot whose cell contains
// them. The slot may be a hole; callers check with IsHole or Node.
func (g *Grid) Locate(x, y float64) (row, col int, err error) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, errors.Wrap(ErrOutOfBounds, "nav: locate NaN")
	}
	col = int(math.Floor(x / g.interval))
	row = int(math.Floor(y / g.interval))
	if !g.inside(row, col) {
		return 0, 0, errors.Wrapf(ErrOutOfBounds, "nav: locate (%.1f,%.1f)", x, y)
	}
	return row, col, nil
}

// Nearest is Locate for any point inside the arena: points in the strip
// past the last whole cell clamp to the closest edge slot. Only points
// outside the arena are ErrOutOfBounds.
func (g *Grid) Nearest(x, y float64) (row, col int, err error) {
	if math.IsNaN(x) || math.IsNaN(y) || x < 0 || y < 0 || x >= g.width || y >= g.height {
		return 0, 0, errors.Wrapf(ErrOutOfBounds, "nav: nearest (%.1f,%.1f) outside %vx%v", x, y, g.width, g.height)
	}
	col = min(int(math.Floor(x/g.interval)), g.cols-1)
	row = min(int(math.Floor(y/g.interval)), g.rows-1)
	return row, col, nil
}

// Neighbor returns the node linked from (row, col) in direction d.
func (g *Grid) Neighbor(row, col int, d Direction) (Node, bool) {
	if !g.inside(row, col) || d >= directionCount {
		return Node{}, false
	}
	n := g.adj[row*g.cols+col][d]
	if n == none {
		return Node{}, false
	}
	return g.node(int(n)), true
}

// Neighbors returns every node linked from (row, col).
func (g *Grid) Neighbors(row, col int) []Node {
	if !g.inside(row, col) {
		return nil
	}
	out := make([]Node, 0, directionCount)
	for _, n := range g.adj[row*g.cols+col] {
		if n != none {
			out = append(out, g.node(int(n)))
		}
	}
	return out
}

// Nodes returns all constructed nodes in row-major order.
func (g *Grid) Nodes() []Node {
	out := make([]Node, 0, g.count)
	for idx, ok := range g.present {
		if ok {
			out = append(out, g.node(idx))
		}
	}
	return out
}
