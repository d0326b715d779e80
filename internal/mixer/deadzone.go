package mixer

import "math"

const (
	// AxisMax is the magnitude of a full stick or trigger deflection on the
	// controller's percent scale.
	AxisMax = 100.0

	// DefaultDeadzone is the stick threshold below which input is ignored.
	DefaultDeadzone = 20.0
)

// Clamp limits a raw reading to [-AxisMax, AxisMax]. The second result reports
// whether the reading was outside that range.
func Clamp(v float64) (float64, bool) {
	switch {
	case v > AxisMax:
		return AxisMax, true
	case v < -AxisMax:
		return -AxisMax, true
	}
	return v, false
}

// ApplyDeadzone maps a raw reading in [-100, 100] to [-1, 1]. Readings whose
// magnitude is below threshold map to exactly 0; the rest are rescaled so the
// threshold maps to 0 and full deflection to ±1.
func ApplyDeadzone(v, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	sign := 1.0
	if v < 0 {
		sign = -1
	}
	scaled := (math.Abs(v) - threshold) / (1 - threshold/AxisMax)
	return sign * scaled / AxisMax
}

// Normalize converts a raw reading in [-100, 100] to [-1, 1] without a deadzone.
func Normalize(v float64) float64 {
	return v / AxisMax
}
