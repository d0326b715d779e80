package motor

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// DefaultPWMFrequency is above the audible range for most small DC motors.
const DefaultPWMFrequency = 20 * physic.KiloHertz

// PinConfig names the GPIO pins of one H-bridge channel.
type PinConfig struct {
	IN1 string `mapstructure:"in1"`
	IN2 string `mapstructure:"in2"`
	PWM string `mapstructure:"pwm"`
}

// Bridge is one H-bridge channel: two direction inputs and a PWM enable.
type Bridge struct {
	IN1, IN2, PWM gpio.PinIO
}

// HBridge drives DC motors through H-bridge drivers (L298N, TB6612 and the
// like) on GPIO pins.
type HBridge struct {
	bridges map[ID]Bridge
	freq    physic.Frequency
	logger  *zap.SugaredLogger
}

// NewHBridge initializes the periph host and resolves the configured pins.
func NewHBridge(pins map[ID]PinConfig, freq physic.Frequency, logger *zap.SugaredLogger) (*HBridge, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}

	bridges := make(map[ID]Bridge, len(pins))
	for id, pc := range pins {
		var b Bridge
		for _, p := range []struct {
			name string
			dst  *gpio.PinIO
		}{{pc.IN1, &b.IN1}, {pc.IN2, &b.IN2}, {pc.PWM, &b.PWM}} {
			pin := gpioreg.ByName(p.name)
			if pin == nil {
				return nil, errors.Errorf("%s motor: pin %q not found", id, p.name)
			}
			*p.dst = pin
		}
		bridges[id] = b
		logger.Infow("h-bridge channel ready", "motor", id, "in1", pc.IN1, "in2", pc.IN2, "pwm", pc.PWM)
	}
	return NewHBridgeWithPins(bridges, freq, logger), nil
}

// NewHBridgeWithPins builds a sink from already resolved pins.
func NewHBridgeWithPins(bridges map[ID]Bridge, freq physic.Frequency, logger *zap.SugaredLogger) *HBridge {
	if freq == 0 {
		freq = DefaultPWMFrequency
	}
	return &HBridge{bridges: bridges, freq: freq, logger: logger}
}

func (h *HBridge) bridge(id ID) (Bridge, error) {
	b, ok := h.bridges[id]
	if !ok {
		return Bridge{}, errors.Wrapf(ErrUnknownMotor, "%s", id)
	}
	return b, nil
}

// Drive sets direction and duty cycle. Zero shorts both motor leads high,
// which brakes.
func (h *HBridge) Drive(_ context.Context, id ID, value float64) error {
	b, err := h.bridge(id)
	if err != nil {
		return err
	}
	value = Saturate(value)

	in1, in2 := gpio.High, gpio.Low
	switch {
	case value < 0:
		in1, in2 = gpio.Low, gpio.High
	case value == 0:
		in1, in2 = gpio.High, gpio.High
	}
	if err := b.IN1.Out(in1); err != nil {
		return errors.Wrap(err, "in1")
	}
	if err := b.IN2.Out(in2); err != nil {
		return errors.Wrap(err, "in2")
	}

	duty := gpio.Duty(math.Round(math.Abs(value) * float64(gpio.DutyMax)))
	if value == 0 {
		// Brake needs the bridge enabled.
		duty = gpio.DutyMax
	}
	return errors.Wrap(b.PWM.PWM(duty, h.freq), "pwm")
}

// Coast pulls both inputs low and disables the channel.
func (h *HBridge) Coast(_ context.Context, id ID) error {
	b, err := h.bridge(id)
	if err != nil {
		return err
	}
	if err := b.PWM.Out(gpio.Low); err != nil {
		return errors.Wrap(err, "pwm")
	}
	if err := b.IN1.Out(gpio.Low); err != nil {
		return errors.Wrap(err, "in1")
	}
	return errors.Wrap(b.IN2.Out(gpio.Low), "in2")
}

// Close leaves every channel coasting and releases the pins.
func (h *HBridge) Close() error {
	err := Halt(context.Background(), h)
	for id, b := range h.bridges {
		for _, p := range []gpio.PinIO{b.IN1, b.IN2, b.PWM} {
			if herr := p.Halt(); herr != nil {
				h.logger.Warnw("pin halt failed", "motor", id, "pin", p.Name(), "error", herr)
			}
		}
	}
	return err
}
