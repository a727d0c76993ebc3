package geom

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Quadrant names one side of a rect. QuadrantOf returns names in the rect's
// own frame, where Right is the heading side. FaceOf, Axis and Reflect use
// world names, where Right faces +X and Bottom faces +Y.
type Quadrant uint8

const (
	QuadrantRight Quadrant = iota
	QuadrantBottom
	QuadrantLeft
	QuadrantTop
)

func (q Quadrant) String() string {
	switch q {
	case QuadrantRight:
		return "right"
	case QuadrantBottom:
		return "bottom"
	case QuadrantLeft:
		return "left"
	case QuadrantTop:
		return "top"
	}
	return "unknown"
}

// Axis is a world axis.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// Axis returns the world axis a world face is perpendicular to.
func (q Quadrant) Axis() Axis {
	if q == QuadrantLeft || q == QuadrantRight {
		return AxisX
	}
	return AxisY
}

// QuadrantOf classifies p against the rect's two diagonals, which sit at
// rotation ± CornerHalfAngle. Sectors are half-open in the rect frame,
// clockwise from the heading:
//
//	right  [360-h, h)   bottom [h, 180-h)
//	left   [180-h, 180+h)   top [180+h, 360-h)
//
// so a point exactly on a diagonal belongs to the sector starting there.
// The center itself classifies as right.
func QuadrantOf(r RotatedRect, p cp.Vector) Quadrant {
	h := r.CornerHalfAngle()
	rel := NormalizeDegrees(Bearing(r.Center, p) - r.Rotation)
	switch {
	case rel < h || rel >= 360-h:
		return QuadrantRight
	case rel < 180-h:
		return QuadrantBottom
	case rel < 180+h:
		return QuadrantLeft
	default:
		return QuadrantTop
	}
}

// FaceNormal returns the outward unit normal, in world space, of the side
// of r that the rect-frame quadrant q names.
func (r RotatedRect) FaceNormal(q Quadrant) cp.Vector {
	return Heading(r.Rotation + 90*float64(q))
}

// FaceOf returns the world face of r that p lies against: the rect-frame
// sector of p, turned through r.Rotation and snapped to the nearest world
// direction. Normals exactly between two directions snap to X.
func FaceOf(r RotatedRect, p cp.Vector) Quadrant {
	return worldFace(r.FaceNormal(QuadrantOf(r, p)))
}

func worldFace(n cp.Vector) Quadrant {
	if math.Abs(n.X) >= math.Abs(n.Y) {
		if n.X >= 0 {
			return QuadrantRight
		}
		return QuadrantLeft
	}
	if n.Y >= 0 {
		return QuadrantBottom
	}
	return QuadrantTop
}

// Reflect mirrors a direction off a world face by negating one world
// component: X for a left/right face, Y for a top/bottom face.
func Reflect(dir cp.Vector, q Quadrant) cp.Vector {
	if q.Axis() == AxisX {
		dir.X = -dir.X
	} else {
		dir.Y = -dir.Y
	}
	return dir
}
