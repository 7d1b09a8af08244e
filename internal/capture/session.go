package capture

import (
	"github.com/ironsheep/obb-annotate-mcp/internal/geometry"
)

// Session is the capture state for one image.
//
// The zero value is an Idle session with no annotations.
type Session struct {
	state       State
	buffer      []geometry.Point
	pending     *Pending
	annotations []Annotation
}

// New returns an Idle session.
func New() Session {
	return Session{}
}

// State returns the current phase.
func (s Session) State() State {
	return s.state
}

// Buffer returns a copy of the buffered unit-space clicks.
func (s Session) Buffer() []geometry.Point {
	return append([]geometry.Point(nil), s.buffer...)
}

// Pending returns the box under review, if any.
func (s Session) Pending() (Pending, bool) {
	if s.pending == nil {
		return Pending{}, false
	}
	return *s.pending, true
}

// Annotations returns a copy of the committed annotations.
func (s Session) Annotations() []Annotation {
	return append([]Annotation(nil), s.annotations...)
}

// clone returns a copy of s that shares no memory with it.
func (s Session) clone() Session {
	out := Session{
		state:       s.state,
		buffer:      s.Buffer(),
		annotations: s.Annotations(),
	}
	if s.pending != nil {
		p := *s.pending
		out.pending = &p
	}
	return out
}

// Click feeds one pixel-space click against frame.
//
// The first two clicks are buffered in unit space. The third reconstructs the
// rectangle according to mode and enters Reviewing. Clicks while Reviewing or
// Complete, and clicks with an invalid frame, leave the session unchanged.
func (s Session) Click(px geometry.Point, frame geometry.Frame, mode Mode) Session {
	if !frame.Valid() {
		return s
	}

	switch s.state {
	case Idle, Collecting1:
		next := s.clone()
		next.buffer = append(next.buffer, geometry.Normalize(px, frame))
		next.state = s.state + 1
		return next

	case Collecting2:
		p1 := geometry.Denormalize(s.buffer[0], frame)
		p2 := geometry.Denormalize(s.buffer[1], frame)

		var rect geometry.Rectangle
		if mode == ModeAxisAligned {
			rect = geometry.AxisAlignedRect([]geometry.Point{p1, p2, px})
		} else {
			rect = geometry.RectFromThreePoints(p1, p2, px)
		}

		box := FromRect(rect, frame)
		next := s.clone()
		next.buffer = nil
		next.pending = &Pending{
			Rect:      rect,
			Frame:     frame,
			Box:       box,
			AngleText: formatAngle(box.Angle),
		}
		next.state = Reviewing
		return next

	default:
		return s
	}
}

// EditAngle replaces the pending angle text. It does not validate the text.
func (s Session) EditAngle(text string) Session {
	if s.state != Reviewing || s.pending == nil {
		return s
	}
	next := s.clone()
	next.pending.AngleText = text
	return next
}

// SwitchAngle replaces the pending angle with (180 - angle) mod 180.
//
// Unparsable text is treated as the computed angle. Applying it twice restores the
// original angle modulo 180, up to the 2-decimal text precision.
func (s Session) SwitchAngle() Session {
	if s.state != Reviewing || s.pending == nil {
		return s
	}
	next := s.clone()
	next.pending.AngleText = formatAngle(foldAngle(180 - s.pending.Angle()))
	return next
}

// SelectClass records the chosen class name for the pending box.
func (s Session) SelectClass(name string) Session {
	if s.state != Reviewing || s.pending == nil {
		return s
	}
	next := s.clone()
	next.pending.ClassName = name
	return next
}

// Commit appends the pending box to the annotation list and returns to Idle.
func (s Session) Commit(classes ClassIndexer) Session {
	if s.state != Reviewing || s.pending == nil {
		return s
	}
	next := s.clone()
	next.annotations = append(next.annotations, s.pending.Resolve(classes))
	next.pending = nil
	next.state = Idle
	return next
}

// Cancel discards the pending box and any buffered clicks.
func (s Session) Cancel() Session {
	if s.state == Complete {
		return s
	}
	next := s.clone()
	next.buffer = nil
	next.pending = nil
	next.state = Idle
	return next
}

// Clear empties the annotation list, the pending box and the buffer.
// A Complete session stays Complete.
func (s Session) Clear() Session {
	state := Idle
	if s.state == Complete {
		state = Complete
	}
	return Session{state: state}
}

// Remove deletes the committed annotation at index i. Out-of-range i is a no-op.
func (s Session) Remove(i int) Session {
	if i < 0 || i >= len(s.annotations) {
		return s
	}
	next := s.clone()
	next.annotations = append(next.annotations[:i], next.annotations[i+1:]...)
	return next
}

// Load replaces the annotation list, typically with boxes read back from an
// existing label file.
func (s Session) Load(annotations []Annotation) Session {
	next := s.clone()
	next.annotations = append([]Annotation(nil), annotations...)
	return next
}

// Advance hands back the annotations to persist for the current image and
// resets for the next one. With hasNext false the new session is Complete.
func (s Session) Advance(hasNext bool) (Session, []Annotation) {
	out := s.Annotations()
	if !hasNext {
		return Session{state: Complete}, out
	}
	return New(), out
}
