// Package mixer turns controller samples into motor commands: deadzone
// shaping, differential drive mixing for the wheels and trigger mixing for
// the weapon.
package mixer

import (
	"github.com/pkg/errors"
)

// DefaultTurnDivisor limits turning to a third of full authority.
const DefaultTurnDivisor = 3.0

// WeaponIdle selects what the weapon motor does when both triggers cancel out.
type WeaponIdle string

const (
	// WeaponIdleBrake sends an explicit Drive(0).
	WeaponIdleBrake WeaponIdle = "brake"
	// WeaponIdleCoast lets the weapon spin freely.
	WeaponIdleCoast WeaponIdle = "coast"
)

// Config tunes the input shaping policy.
type Config struct {
	DeadzoneEnabled bool
	Deadzone        float64
	TurnDivisor     float64
	WeaponIdle      WeaponIdle
}

// DefaultConfig matches the deadzone-enabled script: 20% deadzone, turning
// at a third of full authority and a weapon that brakes at idle.
func DefaultConfig() Config {
	return Config{
		DeadzoneEnabled: true,
		Deadzone:        DefaultDeadzone,
		TurnDivisor:     DefaultTurnDivisor,
		WeaponIdle:      WeaponIdleBrake,
	}
}

// Validate rejects settings that would make the mixer arithmetic undefined.
func (c Config) Validate() error {
	if c.Deadzone < 0 || c.Deadzone >= AxisMax {
		return errors.Errorf("deadzone must be in [0, %v), got %v", AxisMax, c.Deadzone)
	}
	if c.TurnDivisor <= 0 {
		return errors.Errorf("turn divisor must be positive, got %v", c.TurnDivisor)
	}
	switch c.WeaponIdle {
	case WeaponIdleBrake, WeaponIdleCoast:
	default:
		return errors.Errorf("weapon idle must be %q or %q, got %q", WeaponIdleBrake, WeaponIdleCoast, c.WeaponIdle)
	}
	return nil
}

// Mixer maps samples to motor commands. It holds no per-tick state.
type Mixer struct {
	cfg Config
}

func New(cfg Config) (*Mixer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "mixer config")
	}
	return &Mixer{cfg: cfg}, nil
}

func (m *Mixer) Config() Config {
	return m.cfg
}

// Shape clamps a raw reading and converts it to [-1, 1], through the
// deadzone when enabled.
func (m *Mixer) Shape(raw float64) float64 {
	v, _ := Clamp(raw)
	if m.cfg.DeadzoneEnabled {
		return ApplyDeadzone(v, m.cfg.Deadzone)
	}
	return Normalize(v)
}

// Mix shapes every channel of s and runs both mixers.
func (m *Mixer) Mix(s Sample) Output {
	x := m.Shape(s.X)
	y := m.Shape(s.Y)
	wl := m.Shape(s.TriggerLeft)
	wr := m.Shape(s.TriggerRight)

	left, right := m.Motion(x, y)
	return Output{
		Left:   left,
		Right:  right,
		Weapon: m.Weapon(wl, wr),
	}
}

// Motion mixes shaped stick values into left and right wheel commands.
// A neutral stick coasts both wheels instead of braking them.
func (m *Mixer) Motion(x, y float64) (left, right Command) {
	x /= m.cfg.TurnDivisor
	if x == 0 && y == 0 {
		return Coast(), Coast()
	}
	return Drive(-y - x), Drive(y - x)
}

// Weapon mixes shaped trigger values into the weapon command.
func (m *Mixer) Weapon(wl, wr float64) Command {
	net := wl - wr
	if net == 0 && m.cfg.WeaponIdle == WeaponIdleCoast {
		return Coast()
	}
	return Drive(net)
}
