package capture

import "github.com/ironsheep/obb-annotate-mcp/internal/geometry"

// Pending is a reconstructed box awaiting commit or cancel.
type Pending struct {
	// Rect is the reconstruction in pixel space of Frame.
	Rect  geometry.Rectangle `json:"rect"`
	Frame geometry.Frame     `json:"frame"`
	// Box is Rect in unit space with the computed angle and class index 0.
	Box Annotation `json:"box"`
	// AngleText is the operator-editable angle, initially Box.Angle to 2 decimals.
	AngleText string `json:"angle_text"`
	// ClassName is empty until the operator selects a class.
	ClassName string `json:"class_name"`
}

// Angle resolves AngleText, falling back to the computed angle.
func (p Pending) Angle() float64 {
	return parseAngle(p.AngleText, p.Box.Angle)
}

// Resolve freezes p into an Annotation using classes to map ClassName to an index.
// An edited angle rotates the corners about the box center.
func (p Pending) Resolve(classes ClassIndexer) Annotation {
	ann := p.Box
	ann.Angle = p.Angle()
	if ann.Angle != p.Box.Angle && p.Frame.Valid() {
		ann.Corners = FromBox(0, ann.CX, ann.CY, ann.W, ann.H, ann.Angle, p.Frame).Corners
	}
	ann.ClassIndex = 0
	if classes != nil && p.ClassName != "" {
		if idx, ok := classes.Index(p.ClassName); ok && idx >= 0 {
			ann.ClassIndex = idx
		}
	}
	return ann
}

// ClassIndexer maps a class name to its position in the class list.
type ClassIndexer interface {
	Index(name string) (int, bool)
}
