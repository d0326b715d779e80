package mixer

import (
	"fmt"

	"github.com/pkg/errors"
)

// Mode selects between an active drive command and free spin.
type Mode uint8

const (
	ModeCoast Mode = iota
	ModeDrive
)

func (m Mode) String() string {
	if m == ModeDrive {
		return "drive"
	}
	return "coast"
}

// Command is what a single motor is told to do for one tick. A Drive command
// with Value 0 brakes; Coast releases the motor entirely.
type Command struct {
	Mode  Mode    `json:"mode"`
	Value float64 `json:"value"`
}

// Drive returns a signed drive command.
func Drive(v float64) Command {
	return Command{Mode: ModeDrive, Value: v}
}

// Coast returns the free-spin command.
func Coast() Command {
	return Command{Mode: ModeCoast}
}

func (c Command) IsCoast() bool {
	return c.Mode == ModeCoast
}

func (c Command) String() string {
	if c.IsCoast() {
		return "coast"
	}
	return fmt.Sprintf("drive(%.3f)", c.Value)
}

// MarshalText lets commands appear as plain strings in structured logs.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "drive":
		*m = ModeDrive
	case "coast":
		*m = ModeCoast
	default:
		return errors.Errorf("unknown motor mode %q", b)
	}
	return nil
}

// Output holds the three motor commands produced by one tick.
type Output struct {
	Left   Command `json:"left"`
	Right  Command `json:"right"`
	Weapon Command `json:"weapon"`
}
