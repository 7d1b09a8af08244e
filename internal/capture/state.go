package capture

// State is the phase of a Session.
type State int

const (
	Idle State = iota
	Collecting1
	Collecting2
	Reviewing
	Complete
)

// String returns the state name reported to hosts, e.g. "Reviewing".
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Collecting1:
		return "Collecting1"
	case Collecting2:
		return "Collecting2"
	case Reviewing:
		return "Reviewing"
	case Complete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Mode selects the reconstruction used on the third click.
type Mode int

const (
	// ModeRotated reconstructs an oriented rectangle.
	ModeRotated Mode = iota
	// ModeAxisAligned takes the bounding box of the three clicks.
	ModeAxisAligned
)

// ModeFor maps the angle-mode toggle onto a Mode.
func ModeFor(angleMode bool) Mode {
	if angleMode {
		return ModeRotated
	}
	return ModeAxisAligned
}

func (m Mode) String() string {
	if m == ModeAxisAligned {
		return "axis-aligned"
	}
	return "rotated"
}
