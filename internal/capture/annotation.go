package capture

import (
	"math"
	"strconv"
	"strings"

	"github.com/ironsheep/obb-annotate-mcp/internal/geometry"
)

// Annotation is a committed box in unit-interval coordinates.
//
// Angle is in degrees within [0,180). It describes the pixel-space rectangle, so it
// is not rescaled with the frame.
type Annotation struct {
	CX         float64           `json:"cx"`
	CY         float64           `json:"cy"`
	W          float64           `json:"w"`
	H          float64           `json:"h"`
	Angle      float64           `json:"angle"`
	Corners    [4]geometry.Point `json:"corners"`
	ClassIndex int               `json:"class_index"`
}

// FromRect normalizes a pixel-space rectangle into an Annotation with class index 0.
func FromRect(rect geometry.Rectangle, frame geometry.Frame) Annotation {
	c := geometry.Normalize(rect.Center, frame)
	return Annotation{
		CX:      c.X,
		CY:      c.Y,
		W:       rect.Width / float64(frame.Width),
		H:       rect.Height / float64(frame.Height),
		Angle:   rect.Angle,
		Corners: geometry.NormalizeAll(rect.Corners, frame),
	}
}

// FromBox rebuilds an Annotation from stored label columns.
//
// The corners are recomputed in pixel space of frame so that a non-square frame
// does not skew the rotation.
func FromBox(classIndex int, cx, cy, w, h, angle float64, frame geometry.Frame) Annotation {
	center := geometry.Denormalize(geometry.Point{X: cx, Y: cy}, frame)
	rect := geometry.RectFromCenter(center, w*float64(frame.Width), h*float64(frame.Height), angle)
	return Annotation{
		CX:         cx,
		CY:         cy,
		W:          w,
		H:          h,
		Angle:      rect.Angle,
		Corners:    geometry.NormalizeAll(rect.Corners, frame),
		ClassIndex: classIndex,
	}
}

// PixelCorners returns the corners of a in pixel space of frame.
func (a Annotation) PixelCorners(frame geometry.Frame) [4]geometry.Point {
	return geometry.DenormalizeAll(a.Corners, frame)
}

// parseAngle reads operator-entered angle text. Empty, unparsable or non-finite
// text yields fallback. The result is folded into [0,180).
func parseAngle(text string, fallback float64) float64 {
	a, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(a) || math.IsInf(a, 0) {
		a = fallback
	}
	return foldAngle(a)
}

// foldAngle maps any finite angle into [0,180) using a positive modulus.
func foldAngle(a float64) float64 {
	a = math.Mod(a, 180)
	if a < 0 {
		a += 180
	}
	if a >= 180 || a == 0 {
		// -tiny + 180 can round to 180; -0 must not leak into labels.
		return 0
	}
	return a
}

func formatAngle(a float64) string {
	return strconv.FormatFloat(a, 'f', 2, 64)
}
