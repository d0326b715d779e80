package mixer

// Sample is one reading of the controller channels the mixer consumes.
// Stick axes are in [-100, 100] with positive Y forward and positive X right;
// triggers are in [0, 100].
type Sample struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	TriggerLeft  float64 `json:"lt"`
	TriggerRight float64 `json:"rt"`
	Stop         bool    `json:"stop"`
}
