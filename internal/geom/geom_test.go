package geom

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDegrees(t *testing.T) {
	cases := map[float64]float64{
		0:     0,
		360:   0,
		-90:   270,
		725:   5,
		-720:  0,
		359.5: 359.5,
	}
	for in, want := range cases {
		assert.InDelta(t, want, NormalizeDegrees(in), 1e-9, "NormalizeDegrees(%v)", in)
	}
	got := NormalizeDegrees(-1e-17)
	assert.True(t, got >= 0 && got < 360, "tiny negative must land in range, got %v", got)
}

func TestAngleDiff_ShortestWay(t *testing.T) {
	assert.InDelta(t, 20.0, AngleDiff(350, 10), 1e-9)
	assert.InDelta(t, -20.0, AngleDiff(10, 350), 1e-9)
	assert.InDelta(t, 180.0, AngleDiff(0, 180), 1e-9)
}

func TestTurnToward_ClampsStep(t *testing.T) {
	assert.InDelta(t, 5.0, TurnToward(0, 90, 5), 1e-9)
	assert.InDelta(t, 355.0, TurnToward(0, 270, 5), 1e-9)
	assert.InDelta(t, 90.0, TurnToward(88, 90, 5), 1e-9)
}

func TestRotatedRect_CornersUnrotated(t *testing.T) {
	r := NewRotatedRect(cp.Vector{X: 100, Y: 100}, 0, 20, 10)
	cs := r.Corners()
	want := [4]cp.Vector{{X: 120, Y: 90}, {X: 120, Y: 110}, {X: 80, Y: 110}, {X: 80, Y: 90}}
	for i := range want {
		assert.InDelta(t, want[i].X, cs[i].X, 1e-9, "corner %d x", i)
		assert.InDelta(t, want[i].Y, cs[i].Y, 1e-9, "corner %d y", i)
	}
}

func TestRotatedRect_RotationNormalized(t *testing.T) {
	r := NewRotatedRect(cp.Vector{}, -90, 10, 5)
	assert.InDelta(t, 270.0, r.Rotation, 1e-9)
}

func TestRotatedRect_ContainsRotated(t *testing.T) {
	r := NewRotatedRect(cp.Vector{X: 0, Y: 0}, 90, 20, 5)
	// Heading points down the screen, so the long axis is Y.
	assert.True(t, r.Contains(cp.Vector{X: 0, Y: 18}))
	assert.False(t, r.Contains(cp.Vector{X: 18, Y: 0}))
}

func TestRotatedRect_Overlaps(t *testing.T) {
	a := NewRotatedRect(cp.Vector{X: 0, Y: 0}, 0, 10, 10)
	b := NewRotatedRect(cp.Vector{X: 15, Y: 0}, 45, 10, 10)
	c := NewRotatedRect(cp.Vector{X: 20, Y: 0}, 0, 10, 10)
	assert.True(t, a.Overlaps(b))
	assert.False(t, a.Overlaps(c), "touching edges are not an overlap")
	assert.False(t, a.OverlapsBB(cp.BB{L: 40, B: 40, R: 50, T: 50}))
}

func TestQuadrantOf_AxisDirections(t *testing.T) {
	r := NewRotatedRect(cp.Vector{X: 0, Y: 0}, 0, 30, 30)
	assert.Equal(t, QuadrantRight, QuadrantOf(r, cp.Vector{X: 50, Y: 0}))
	assert.Equal(t, QuadrantBottom, QuadrantOf(r, cp.Vector{X: 0, Y: 50}))
	assert.Equal(t, QuadrantLeft, QuadrantOf(r, cp.Vector{X: -50, Y: 0}))
	assert.Equal(t, QuadrantTop, QuadrantOf(r, cp.Vector{X: 0, Y: -50}))
	assert.Equal(t, QuadrantRight, QuadrantOf(r, r.Center))
}

func TestQuadrantOf_FollowsRotation(t *testing.T) {
	r := NewRotatedRect(cp.Vector{X: 0, Y: 0}, 90, 30, 10)
	// Rotated 90: the heading side is screen-down.
	assert.Equal(t, QuadrantRight, QuadrantOf(r, cp.Vector{X: 0, Y: 50}))
	assert.Equal(t, QuadrantTop, QuadrantOf(r, cp.Vector{X: 50, Y: 0}))
}

func TestFaceOf_ReportsWorldFace(t *testing.T) {
	r := NewRotatedRect(cp.Vector{X: 0, Y: 0}, 90, 16, 12)
	assert.Equal(t, QuadrantBottom, QuadrantOf(r, cp.Vector{X: -50, Y: 0}))
	assert.Equal(t, QuadrantLeft, FaceOf(r, cp.Vector{X: -50, Y: 0}))
	assert.Equal(t, QuadrantBottom, FaceOf(r, cp.Vector{X: 0, Y: 50}))
	assert.Equal(t, QuadrantTop, FaceOf(r, cp.Vector{X: 0, Y: -50}))
	assert.Equal(t, AxisX, FaceOf(r, cp.Vector{X: 50, Y: 0}).Axis())

	flat := NewRotatedRect(cp.Vector{}, 0, 16, 12)
	for _, p := range []cp.Vector{{X: 50}, {Y: 50}, {X: -50}, {Y: -50}} {
		assert.Equal(t, QuadrantOf(flat, p), FaceOf(flat, p))
	}
}

func TestQuadrantOf_UsesAspectRatio(t *testing.T) {
	// Long and thin: the right sector is narrow.
	r := NewRotatedRect(cp.Vector{}, 0, 40, 5)
	assert.Equal(t, QuadrantBottom, QuadrantOf(r, cp.Vector{X: 30, Y: 10}))
	assert.Equal(t, QuadrantRight, QuadrantOf(r, cp.Vector{X: 80, Y: 5}))
}

func TestQuadrantOf_PartitionIsComplete(t *testing.T) {
	r := NewRotatedRect(cp.Vector{X: 10, Y: -4}, 33, 25, 12)
	h := r.CornerHalfAngle()
	counts := map[Quadrant]int{}
	for deg := 0.0; deg < 360; deg += 0.25 {
		p := r.Center.Add(Heading(r.Rotation + deg).Mult(100))
		q := QuadrantOf(r, p)
		counts[q]++
		var want Quadrant
		switch {
		case deg < h-1e-6 || deg > 360-h+1e-6:
			want = QuadrantRight
		case deg > h+1e-6 && deg < 180-h-1e-6:
			want = QuadrantBottom
		case deg > 180-h+1e-6 && deg < 180+h-1e-6:
			want = QuadrantLeft
		case deg > 180+h+1e-6 && deg < 360-h-1e-6:
			want = QuadrantTop
		default:
			continue
		}
		require.Equal(t, want, q, "relative angle %v", deg)
	}
	require.Len(t, counts, 4)
}

func TestQuadrantOf_DiagonalIsDeterministic(t *testing.T) {
	r := NewRotatedRect(cp.Vector{}, 0, 1, 1)
	p := cp.Vector{X: 1, Y: 1}
	first := QuadrantOf(r, p)
	assert.Equal(t, QuadrantBottom, first, "diagonal belongs to the sector that starts on it")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, QuadrantOf(r, p))
	}
}

func TestReflect_OrderIndependent(t *testing.T) {
	dir := Heading(37)
	a := Reflect(Reflect(dir, QuadrantLeft), QuadrantTop)
	b := Reflect(Reflect(dir, QuadrantBottom), QuadrantRight)
	assert.InDelta(t, a.X, b.X, 1e-12)
	assert.InDelta(t, a.Y, b.Y, 1e-12)
	assert.InDelta(t, -dir.X, a.X, 1e-12)
	assert.InDelta(t, -dir.Y, a.Y, 1e-12)
}

func TestBearing(t *testing.T) {
	assert.InDelta(t, 90.0, Bearing(cp.Vector{}, cp.Vector{Y: 10}), 1e-9)
	assert.InDelta(t, 180.0, Bearing(cp.Vector{}, cp.Vector{X: -3}), 1e-9)
	assert.InDelta(t, 0.0, Bearing(cp.Vector{X: 1, Y: 1}, cp.Vector{X: 1, Y: 1}), 1e-9)
	assert.False(t, math.IsNaN(Bearing(cp.Vector{}, cp.Vector{})))
}
