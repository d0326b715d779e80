// Package motor drives the robot's three motors. A Sink accepts signed drive
// commands in [-1, 1] and coast commands per motor.
package motor

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/soar/BrickTeleop/internal/mixer"
)

// ID addresses one of the robot's motors.
type ID string

const (
	Left   ID = "left"
	Right  ID = "right"
	Weapon ID = "weapon"
)

// All lists every motor in port order.
var All = []ID{Left, Right, Weapon}

// Sink is the actuator side of the control loop.
type Sink interface {
	// Drive applies a signed value in [-1, 1]. Zero brakes.
	Drive(ctx context.Context, id ID, value float64) error
	// Coast removes torque and lets the motor spin freely.
	Coast(ctx context.Context, id ID) error
	Close() error
}

// Apply sends one tick's commands to the sink, stopping at the first error.
func Apply(ctx context.Context, s Sink, out mixer.Output) error {
	for _, c := range []struct {
		id  ID
		cmd mixer.Command
	}{
		{Left, out.Left},
		{Right, out.Right},
		{Weapon, out.Weapon},
	} {
		var err error
		if c.cmd.IsCoast() {
			err = s.Coast(ctx, c.id)
		} else {
			err = s.Drive(ctx, c.id, c.cmd.Value)
		}
		if err != nil {
			return errors.Wrapf(err, "%s motor %s", c.id, c.cmd)
		}
	}
	return nil
}

// Halt coasts every motor. It tries all of them even when some fail.
func Halt(ctx context.Context, s Sink) error {
	var err error
	for _, id := range All {
		if cerr := s.Coast(ctx, id); cerr != nil {
			err = multierr.Append(err, errors.Wrapf(cerr, "halt %s motor", id))
		}
	}
	return err
}

// Saturate limits a drive value to [-1, 1].
func Saturate(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// ErrUnknownMotor is returned for an ID the sink has no port for.
var ErrUnknownMotor = errors.New("unknown motor")
