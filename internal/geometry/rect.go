package geometry

import (
	"math"
	"sort"
)

// degenerateScore marks a corner candidate with a zero-length edge.
const degenerateScore = 999999

// Rectangle is the reconstructed box.
//
// Width is the length of the edge closest to horizontal and Angle is that edge's
// angle in [0,180). Corners form a simple quadrilateral; Center is their mean.
type Rectangle struct {
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Angle   float64  `json:"angle"`
	Center  Point    `json:"center"`
	Corners [4]Point `json:"corners"`
}

// RectFromThreePoints reconstructs the rectangle implied by three of its corners,
// supplied in any order.
//
// # Algorithm
//
//  1. Pairwise vectors AB, AC, BC.
//  2. Each input point is a corner candidate with its two emanating vectors:
//     A{AB, AC}, B{-AB, BC}, C{-AC, -BC}. A candidate's score is the absolute
//     normalized dot product of its vectors (0 = right angle).
//  3. The lowest score wins; the first candidate wins ties. Its first vector is
//     the base edge, the second points at the remaining input point.
//  4. The second vector is projected onto the unit normal of the base edge, so a
//     third click that is off the true side only contributes its orthogonal extent.
//  5. The remaining corners follow by vector addition, the center is their mean.
//  6. Whichever edge is closer to horizontal becomes the width edge and provides
//     the angle; the base edge wins ties.
//
// The inputs are first sorted by X, then Y, so all six orderings of the same
// three points produce an identical Rectangle.
//
// A zero-length base edge yields a zero-area Rectangle at the chosen corner with
// angle 0.
func RectFromThreePoints(a, b, c Point) Rectangle {
	pts := []Point{a, b, c}
	sort.SliceStable(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	a, b, c = pts[0], pts[1], pts[2]

	corner, base, perp := findCorner(a, b, c)

	lengthBase := Len(base)
	if lengthBase == 0 {
		return Rectangle{
			Center:  corner,
			Corners: [4]Point{corner, corner, corner, corner},
		}
	}

	normal := Vector{X: -base.Y / lengthBase, Y: base.X / lengthBase}
	distance := Dot(perp, normal)
	lengthPerp := math.Abs(distance)
	ortho := Scale(normal, distance)

	p2 := Add(corner, base)
	p3 := Add(corner, ortho)
	p4 := Add(p2, ortho)

	rect := Rectangle{Center: Mean(corner, p2, p3, p4)}

	angleBase := AngleDeg(base)
	angleOrtho := AngleDeg(ortho)
	if horizontalDeviation(angleBase) <= horizontalDeviation(angleOrtho) {
		rect.Width, rect.Height, rect.Angle = lengthBase, lengthPerp, angleBase
		rect.Corners = [4]Point{corner, p2, p4, p3}
	} else {
		rect.Width, rect.Height, rect.Angle = lengthPerp, lengthBase, angleOrtho
		rect.Corners = [4]Point{corner, p3, p4, p2}
	}
	rect.Angle = normalizeAngle(rect.Angle)
	return rect
}

// findCorner picks the input point whose two edges are closest to perpendicular.
func findCorner(a, b, c Point) (corner Point, base, perp Vector) {
	ab, ac, bc := Sub(b, a), Sub(c, a), Sub(c, b)

	candidates := [3]struct {
		corner     Point
		base, perp Vector
	}{
		{a, ab, ac},
		{b, Neg(ab), bc},
		{c, Neg(ac), Neg(bc)},
	}

	best := 0
	bestScore := perpendicularity(candidates[0].base, candidates[0].perp)
	for i := 1; i < len(candidates); i++ {
		if s := perpendicularity(candidates[i].base, candidates[i].perp); s < bestScore {
			best, bestScore = i, s
		}
	}
	return candidates[best].corner, candidates[best].base, candidates[best].perp
}

// perpendicularity is |cos| of the angle between u and v.
func perpendicularity(u, v Vector) float64 {
	lu, lv := Len(u), Len(v)
	if lu == 0 || lv == 0 {
		return degenerateScore
	}
	return math.Abs(Dot(u, v)) / (lu * lv)
}

// horizontalDeviation is the distance in degrees of a [0,180) angle from horizontal.
func horizontalDeviation(angle float64) float64 {
	return math.Min(angle, 180-angle)
}

// AxisAlignedRect returns the axis-aligned bounding rectangle of points.
//
// Angle is always 0 and corners are ordered (minX,minY), (maxX,minY),
// (maxX,maxY), (minX,maxY). An empty slice yields the zero Rectangle.
func AxisAlignedRect(points []Point) Rectangle {
	if len(points) == 0 {
		return Rectangle{}
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	width := maxX - minX
	height := maxY - minY
	return Rectangle{
		Width:  width,
		Height: height,
		Center: Point{X: minX + width/2, Y: minY + height/2},
		Corners: [4]Point{
			{X: minX, Y: minY},
			{X: maxX, Y: minY},
			{X: maxX, Y: maxY},
			{X: minX, Y: maxY},
		},
	}
}

// RectFromCenter builds the rectangle with the given center, size and angle.
//
// The width edge runs along angle degrees (clockwise on screen); corners start at
// the top-left of the unrotated box and wind in the same direction as
// AxisAlignedRect. Angle is folded into [0,180).
func RectFromCenter(center Point, width, height, angle float64) Rectangle {
	angle = math.Mod(angle, 180)
	if angle < 0 {
		angle += 180
	}
	rad := angle * math.Pi / 180
	along := Vector{X: math.Cos(rad) * width / 2, Y: math.Sin(rad) * width / 2}
	across := Vector{X: -math.Sin(rad) * height / 2, Y: math.Cos(rad) * height / 2}

	return Rectangle{
		Width:  width,
		Height: height,
		Angle:  normalizeAngle(angle),
		Center: center,
		Corners: [4]Point{
			Sub(Sub(center, along), across),
			Sub(Add(center, along), across),
			Add(Add(center, along), across),
			Add(Sub(center, along), across),
		},
	}
}
