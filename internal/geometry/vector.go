package geometry

import "math"

// Point represents a 2D position, either in pixel space or in unit-interval space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vector is a Point used as a direction and magnitude.
type Vector = Point

// Sub returns the vector from q to p (p - q).
func Sub(p, q Point) Vector {
	return Vector{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + v.
func Add(p Point, v Vector) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y}
}

// Scale multiplies both components of v by k.
func Scale(v Vector, k float64) Vector {
	return Vector{X: v.X * k, Y: v.Y * k}
}

// Neg returns -v.
func Neg(v Vector) Vector {
	return Vector{X: -v.X, Y: -v.Y}
}

// Dot returns the dot product of u and v.
func Dot(u, v Vector) float64 {
	return u.X*v.X + u.Y*v.Y
}

// Len returns the Euclidean length of v.
func Len(v Vector) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// AngleDeg returns the angle of v against the horizontal axis in degrees,
// folded into [0,180). A zero vector has angle 0.
func AngleDeg(v Vector) float64 {
	return normalizeAngle(math.Atan2(v.Y, v.X) * 180 / math.Pi)
}

// Mean returns the arithmetic mean of the given points.
// An empty argument list yields the origin.
func Mean(points ...Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return Point{X: sx / n, Y: sy / n}
}

// normalizeAngle folds an atan2 result in (-180,180] into [0,180).
func normalizeAngle(a float64) float64 {
	if a < 0 {
		a += 360
	}
	if a >= 180 {
		a -= 180
	}
	if a == 0 {
		// atan2 returns -0 for (-0, x); keep the sign out of formatted labels.
		return 0
	}
	return a
}
