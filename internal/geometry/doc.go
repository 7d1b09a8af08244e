// Package geometry reconstructs annotation rectangles from operator clicks.
//
// The package has three parts:
//
//   - Vector utilities: Point/Vector arithmetic (Sub, Add, Scale, Dot, Len, AngleDeg).
//   - Rectangle construction: RectFromThreePoints for rotation-aware boxes,
//     AxisAlignedRect for the axis-aligned fallback, RectFromCenter to rebuild corners
//     from a stored center/size/angle.
//   - Normalization: Normalize and Denormalize convert between pixel space and the
//     unit interval of a Frame.
//
// # Coordinate System
//
// Pixel coordinates follow image conventions: (0,0) is the top-left corner, X grows
// rightward and Y grows downward. Angles are therefore measured clockwise on screen,
// in degrees, against the horizontal axis, and reported in [0,180).
//
// A Point carries no marker for the space it lives in. Callers keep pixel and unit
// points apart; no function here mixes the two within one computation.
//
// # Error Handling
//
// Nothing in this package returns an error. Degenerate input (coincident points,
// zero-length edges) produces a defined zero-area Rectangle.
package geometry
