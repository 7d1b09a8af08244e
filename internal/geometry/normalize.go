package geometry

import "fmt"

// Frame is the pixel size of the surface clicks are reported against.
type Frame struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0
}

func (f Frame) String() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// Normalize converts a pixel point into the unit interval of frame.
func Normalize(p Point, frame Frame) Point {
	return Point{
		X: p.X / float64(frame.Width),
		Y: p.Y / float64(frame.Height),
	}
}

// Denormalize converts a unit-interval point back into pixels of frame.
func Denormalize(p Point, frame Frame) Point {
	return Point{
		X: p.X * float64(frame.Width),
		Y: p.Y * float64(frame.Height),
	}
}

// NormalizeAll applies Normalize to each corner.
func NormalizeAll(corners [4]Point, frame Frame) [4]Point {
	var out [4]Point
	for i, c := range corners {
		out[i] = Normalize(c, frame)
	}
	return out
}

// DenormalizeAll applies Denormalize to each corner.
func DenormalizeAll(corners [4]Point, frame Frame) [4]Point {
	var out [4]Point
	for i, c := range corners {
		out[i] = Denormalize(c, frame)
	}
	return out
}
