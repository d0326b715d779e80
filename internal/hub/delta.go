package hub

import (
	"math"

	"github.com/soar/BrickTeleop/internal/control"
	"github.com/soar/BrickTeleop/internal/mixer"
)

// Changes smaller than this are not worth a message.
const analogThreshold = 0.01

// FrameDelta holds the parts of a frame that changed since the last one sent.
type FrameDelta struct {
	Sample *mixer.Sample  `json:"sample,omitempty"`
	Left   *mixer.Command `json:"left,omitempty"`
	Right  *mixer.Command `json:"right,omitempty"`
	Weapon *mixer.Command `json:"weapon,omitempty"`
}

func (d *FrameDelta) IsEmpty() bool {
	return d.Sample == nil && d.Left == nil && d.Right == nil && d.Weapon == nil
}

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

// Sample channels are on the percent scale, so they use a scaled threshold.
func sampleEqual(a, b mixer.Sample) bool {
	const pct = analogThreshold * mixer.AxisMax
	return math.Abs(a.X-b.X) < pct &&
		math.Abs(a.Y-b.Y) < pct &&
		math.Abs(a.TriggerLeft-b.TriggerLeft) < pct &&
		math.Abs(a.TriggerRight-b.TriggerRight) < pct &&
		a.Stop == b.Stop
}

func commandEqual(a, b mixer.Command) bool {
	return a.Mode == b.Mode && floatEqual(a.Value, b.Value)
}

// ComputeDelta compares two frames field by field.
func ComputeDelta(old, new_ control.Frame) *FrameDelta {
	d := &FrameDelta{}

	if !sampleEqual(old.Sample, new_.Sample) {
		d.Sample = &new_.Sample
	}
	if !commandEqual(old.Output.Left, new_.Output.Left) {
		d.Left = &new_.Output.Left
	}
	if !commandEqual(old.Output.Right, new_.Output.Right) {
		d.Right = &new_.Output.Right
	}
	if !commandEqual(old.Output.Weapon, new_.Output.Weapon) {
		d.Weapon = &new_.Output.Weapon
	}
	return d
}
