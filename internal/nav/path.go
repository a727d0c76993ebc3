package nav

import (
	"container/heap"
	"math"
	"sync"

	"github.com/jakecoffman/cp"
	"github.com/pkg/errors"
)

// ErrNoRoute is returned when the destination cannot be reached: it is a
// hole or lies in a component the source cannot get to.
var ErrNoRoute = errors.New("nav: no route")

// --- query-scoped search state ---

// searchState is the per-query side table: tentative distance, predecessor,
// visited flag and heap position for every lattice slot plus one extra slot
// for the synthetic source. The Grid itself stays read-only during search,
// so concurrent queries on one Grid are safe.
type searchState struct {
	dist    []float64
	prev    []int32
	visited []bool
	heapPos []int32
	open    frontier
}

var statePool = sync.Pool{
	New: func() any { return new(searchState) },
}

// acquireState returns a state sized for n slots, reset to the neutral
// baseline: infinite distance, no predecessor, unvisited, not queued.
func acquireState(n int) *searchState {
	st := statePool.Get().(*searchState)
	if cap(st.dist) < n {
		st.dist = make([]float64, n)
		st.prev = make([]int32, n)
		st.visited = make([]bool, n)
		st.heapPos = make([]int32, n)
	}
	st.dist = st.dist[:n]
	st.prev = st.prev[:n]
	st.visited = st.visited[:n]
	st.heapPos = st.heapPos[:n]
	for i := 0; i < n; i++ {
		st.dist[i] = math.Inf(1)
		st.prev[i] = none
		st.visited[i] = false
		st.heapPos[i] = none
	}
	st.open.items = st.open.items[:0]
	st.open.st = st
	return st
}

func releaseState(st *searchState) {
	st.open.st = nil
	statePool.Put(st)
}

// frontier is a min-heap of slot indices ordered by tentative distance.
// Ties are broken arbitrarily.
type frontier struct {
	items []int32
	st    *searchState
}

func (f *frontier) Len() int           { return len(f.items) }
func (f *frontier) Less(i, j int) bool { return f.st.dist[f.items[i]] < f.st.dist[f.items[j]] }
func (f *frontier) Swap(i, j int) {
	f.items[i], f.items[j] = f.items[j], f.items[i]
	f.st.heapPos[f.items[i]] = int32(i)
	f.st.heapPos[f.items[j]] = int32(j)
}
func (f *frontier) Push(x any) {
	n := x.(int32)
	f.st.heapPos[n] = int32(len(f.items))
	f.items = append(f.items, n)
}
func (f *frontier) Pop() any {
	old := f.items
	n := old[len(old)-1]
	f.items = old[:len(old)-1]
	f.st.heapPos[n] = none
	return n
}

// relax offers a path to nb through cur and re-prioritizes on strict
// improvement.
func (st *searchState) relax(cur, nb int32, cost float64) {
	if st.visited[nb] {
		return
	}
	d := st.dist[cur] + cost
	if d >= st.dist[nb] {
		return
	}
	st.dist[nb] = d
	st.prev[nb] = cur
	if st.heapPos[nb] == none {
		heap.Push(&st.open, nb)
	} else {
		heap.Fix(&st.open, int(st.heapPos[nb]))
	}
}

// --- Dijkstra ---

// ShortestPath routes from an arbitrary start point to the lattice node
// nearest end.
//
// Both points are placed with Nearest, so anything inside the arena has a
// slot even in the strip past the last whole cell. The start gets a
// synthetic source node with one-way edges to the lattice node of its slot
// and that slot's constructed neighbors, so the source reaches the grid but
// nothing routes back into it. The returned route begins at start and ends
// on the destination node's position; consecutive duplicate positions are
// collapsed. start == end on a constructed node yields a single-node route.
//
// Errors: ErrOutOfBounds when either point is outside the arena,
// ErrNoRoute when the destination is a hole or unreachable.
func ShortestPath(g *Grid, start, end cp.Vector) (*Route, error) {
	sr, sc, err := g.Nearest(start.X, start.Y)
	if err != nil {
		return nil, errors.Wrap(err, "nav: start")
	}
	dr, dc, err := g.Nearest(end.X, end.Y)
	if err != nil {
		return nil, errors.Wrap(err, "nav: destination")
	}
	dst := int32(dr*g.cols + dc)
	if !g.present[dst] {
		return nil, errors.Wrapf(ErrNoRoute, "nav: destination (%d,%d) is a hole", dr, dc)
	}
	if start == end {
		return newRoute([]cp.Vector{start}), nil
	}

	source := int32(len(g.present))
	st := acquireState(len(g.present) + 1)
	defer releaseState(st)

	position := func(idx int32) cp.Vector {
		if idx == source {
			return start
		}
		return g.slotPosition(int(idx))
	}

	st.dist[source] = 0
	heap.Push(&st.open, source)
	edges, nEdges := g.sourceEdges(sr, sc)

	for st.open.Len() > 0 {
		cur := heap.Pop(&st.open).(int32)
		st.visited[cur] = true
		if cur == dst {
			break
		}
		curPos := position(cur)
		if cur == source {
			for _, nb := range edges[:nEdges] {
				st.relax(cur, nb, curPos.Distance(position(nb)))
			}
			continue
		}
		for _, nb := range g.adj[cur] {
			if nb == none {
				continue
			}
			st.relax(cur, nb, curPos.Distance(position(nb)))
		}
	}

	if !st.visited[dst] {
		return nil, errors.Wrapf(ErrNoRoute, "nav: (%d,%d) unreachable from (%.1f,%.1f)", dr, dc, start.X, start.Y)
	}

	var rev []cp.Vector
	for n := dst; n != none; n = st.prev[n] {
		p := position(n)
		if len(rev) > 0 && rev[len(rev)-1] == p {
			continue
		}
		rev = append(rev, p)
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return newRoute(rev), nil
}

// sourceEdges lists the one-way targets of a synthetic source placed in the
// cell (row, col): the node itself when present, then every constructed
// lattice neighbor. For a constructed node that is exactly a copy of its
// own edges.
func (g *Grid) sourceEdges(row, col int) (edges [directionCount + 1]int32, n int) {
	idx := row*g.cols + col
	if g.present[idx] {
		edges[n] = int32(idx)
		n++
	}
	for _, off := range directionOffsets {
		nr, nc := row+off[0], col+off[1]
		if !g.inside(nr, nc) {
			continue
		}
		if j := nr*g.cols + nc; g.present[j] {
			edges[n] = int32(j)
			n++
		}
	}
	return edges, n
}
