package motor

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/soar/BrickTeleop/internal/mixer"
)

type bufferPort struct {
	bytes.Buffer
	closed bool
}

func (b *bufferPort) Close() error {
	b.closed = true
	return nil
}

type recordingSink struct {
	calls   []string
	failOn  ID
	closeCt int
}

func (r *recordingSink) Drive(_ context.Context, id ID, value float64) error {
	if id == r.failOn {
		return errors.New("bus fault")
	}
	r.calls = append(r.calls, EncodeDrive(id, value))
	return nil
}

func (r *recordingSink) Coast(_ context.Context, id ID) error {
	if id == r.failOn {
		return errors.New("bus fault")
	}
	r.calls = append(r.calls, EncodeCoast(id))
	return nil
}

func (r *recordingSink) Close() error {
	r.closeCt++
	return nil
}

func newTestBridge() (*HBridge, map[ID][3]*gpiotest.Pin) {
	pins := make(map[ID][3]*gpiotest.Pin)
	bridges := make(map[ID]Bridge)
	for _, id := range All {
		p := [3]*gpiotest.Pin{
			{N: string(id) + "_in1"},
			{N: string(id) + "_in2"},
			{N: string(id) + "_pwm"},
		}
		pins[id] = p
		bridges[id] = Bridge{IN1: p[0], IN2: p[1], PWM: p[2]}
	}
	return NewHBridgeWithPins(bridges, 0, zap.NewNop().Sugar()), pins
}

func TestApplyAndHalt(t *testing.T) {
	ctx := context.Background()

	Convey("Apply routes each command to its motor", t, func() {
		s := &recordingSink{}
		err := Apply(ctx, s, mixer.Output{
			Left:   mixer.Drive(-0.5),
			Right:  mixer.Drive(0.5),
			Weapon: mixer.Coast(),
		})
		So(err, ShouldBeNil)
		So(s.calls, ShouldResemble, []string{
			"D left -0.500\n",
			"D right 0.500\n",
			"C weapon\n",
		})
	})

	Convey("Apply stops at the first failure", t, func() {
		s := &recordingSink{failOn: Right}
		err := Apply(ctx, s, mixer.Output{Left: mixer.Coast(), Right: mixer.Drive(1), Weapon: mixer.Drive(0)})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "right motor")
		So(s.calls, ShouldResemble, []string{"C left\n"})
	})

	Convey("Halt coasts every motor even if one fails", t, func() {
		s := &recordingSink{failOn: Left}
		err := Halt(ctx, s)
		So(err, ShouldNotBeNil)
		So(s.calls, ShouldResemble, []string{"C right\n", "C weapon\n"})
	})

	Convey("Saturate clips to the unit range", t, func() {
		So(Saturate(4.0/3), ShouldEqual, 1)
		So(Saturate(-2), ShouldEqual, -1)
		So(Saturate(0.25), ShouldEqual, 0.25)
	})
}

func TestHBridge(t *testing.T) {
	ctx := context.Background()

	Convey("Given an h-bridge on test pins", t, func() {
		h, pins := newTestBridge()
		left := pins[Left]

		Convey("forward drive sets direction and duty", func() {
			So(h.Drive(ctx, Left, 0.5), ShouldBeNil)
			So(left[0].L, ShouldEqual, gpio.High)
			So(left[1].L, ShouldEqual, gpio.Low)
			So(left[2].D, ShouldEqual, gpio.DutyHalf)
			So(left[2].F, ShouldEqual, DefaultPWMFrequency)
		})

		Convey("reverse drive flips direction", func() {
			So(h.Drive(ctx, Left, -1), ShouldBeNil)
			So(left[0].L, ShouldEqual, gpio.Low)
			So(left[1].L, ShouldEqual, gpio.High)
			So(left[2].D, ShouldEqual, gpio.DutyMax)
		})

		Convey("zero drive brakes", func() {
			So(h.Drive(ctx, Left, 0), ShouldBeNil)
			So(left[0].L, ShouldEqual, gpio.High)
			So(left[1].L, ShouldEqual, gpio.High)
			So(left[2].D, ShouldEqual, gpio.DutyMax)
		})

		Convey("coast releases both inputs", func() {
			So(h.Drive(ctx, Left, 0.8), ShouldBeNil)
			So(h.Coast(ctx, Left), ShouldBeNil)
			So(left[0].L, ShouldEqual, gpio.Low)
			So(left[1].L, ShouldEqual, gpio.Low)
			So(left[2].L, ShouldEqual, gpio.Low)
		})

		Convey("an unknown motor is rejected", func() {
			err := h.Drive(ctx, ID("arm"), 1)
			So(errors.Is(err, ErrUnknownMotor), ShouldBeTrue)
		})
	})
}

func TestSerial(t *testing.T) {
	ctx := context.Background()

	Convey("Given a serial sink on a buffer", t, func() {
		port := &bufferPort{}
		s := NewSerial(port)

		Convey("commands are written one per line", func() {
			So(s.Drive(ctx, Weapon, -0.25), ShouldBeNil)
			So(s.Coast(ctx, Left), ShouldBeNil)
			So(port.String(), ShouldEqual, "D weapon -0.250\nC left\n")
		})

		Convey("drive values are saturated", func() {
			So(s.Drive(ctx, Right, 1.3), ShouldBeNil)
			So(port.String(), ShouldEqual, "D right 1.000\n")
		})

		Convey("closing halts the motors first", func() {
			So(s.Close(), ShouldBeNil)
			So(port.String(), ShouldEqual, "C left\nC right\nC weapon\n")
			So(port.closed, ShouldBeTrue)
		})

		Convey("an unknown motor is rejected", func() {
			So(errors.Is(s.Coast(ctx, ID("arm")), ErrUnknownMotor), ShouldBeTrue)
		})
	})
}
