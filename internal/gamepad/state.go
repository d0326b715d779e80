package gamepad

// Vector is a stick position, each component in [-1, 1].
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is a snapshot of the active controller.
type State struct {
	Connected      bool             `json:"connected"`
	ControllerType string           `json:"controllerType"`
	Name           string           `json:"name"`
	Left           Vector           `json:"left"`
	Right          Vector           `json:"right"`
	LT             float64          `json:"lt"`
	RT             float64          `json:"rt"`
	Buttons        [numButtons]bool `json:"buttons"`
}

// Pressed reports whether b is held down.
func (s State) Pressed(b Button) bool {
	return int(b) < len(s.Buttons) && s.Buttons[b]
}

func (s *State) setAxis(a Axis, v float64) {
	switch a {
	case AxisLeftX:
		s.Left.X = v
	case AxisLeftY:
		s.Left.Y = v
	case AxisRightX:
		s.Right.X = v
	case AxisRightY:
		s.Right.Y = v
	case AxisLT:
		s.LT = v
	case AxisRT:
		s.RT = v
	}
}
