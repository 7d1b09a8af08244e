// Package capture implements the annotation capture state machine.
//
// A Session is an immutable value. Every transition (Click, EditAngle, SwitchAngle,
// SelectClass, Commit, Cancel, Clear, Remove, Load, Advance) returns a Session and
// leaves the receiver untouched. A transition that changes anything returns a value
// sharing no memory with the receiver; accessors hand out copies.
// This keeps the machine testable without a rendering surface and lets a host keep
// the previous value around for undo or diffing.
//
// # States
//
//	Idle ──click──▶ Collecting1 ──click──▶ Collecting2 ──click──▶ Reviewing
//	 ▲                                                              │
//	 └───────────────────────── commit / cancel ◀───────────────────┘
//
// Complete is entered by Advance when no image remains. Clicks are ignored in
// Reviewing and Complete.
//
// # Coordinate Spaces
//
// Buffered clicks are stored in unit-interval space. On the third click the buffer is
// denormalized with the frame supplied to that click, the rectangle is reconstructed
// in pixel space, and the result is normalized back. Pending keeps both forms so a
// host can crop the pixel region while the operator reviews it.
//
// # Error Handling
//
// Nothing here returns an error. Invalid frames and out-of-state events return the
// session unchanged; an unparsable angle falls back to the computed one; an unknown
// class name resolves to index 0.
package capture
