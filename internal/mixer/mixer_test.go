package mixer

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func newMixer(t *testing.T, cfg Config) *Mixer {
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("new mixer: %v", err)
	}
	return m
}

func TestMotion(t *testing.T) {
	m := newMixer(t, DefaultConfig())

	Convey("A neutral stick coasts both wheels", t, func() {
		left, right := m.Motion(0, 0)
		So(left, ShouldResemble, Coast())
		So(right, ShouldResemble, Coast())
	})

	Convey("Full forward drives both wheels at full power", t, func() {
		left, right := m.Motion(0, 1)
		So(left, ShouldResemble, Drive(-1))
		So(right, ShouldResemble, Drive(1))
	})

	Convey("Turning is attenuated to a third", t, func() {
		left, right := m.Motion(0.3, 0)
		So(left.Mode, ShouldEqual, ModeDrive)
		So(right.Mode, ShouldEqual, ModeDrive)
		So(left.Value, ShouldAlmostEqual, -0.1)
		So(right.Value, ShouldAlmostEqual, -0.1)
	})

	Convey("The turn divisor is tunable", t, func() {
		cfg := DefaultConfig()
		cfg.TurnDivisor = 1
		left, right := newMixer(t, cfg).Motion(0.5, 0.5)
		So(left.Value, ShouldAlmostEqual, -1)
		So(right.Value, ShouldAlmostEqual, 0)
	})
}

func TestWeapon(t *testing.T) {
	Convey("Brake at idle", t, func() {
		m := newMixer(t, DefaultConfig())

		Convey("equal triggers send an explicit zero drive", func() {
			So(m.Weapon(0.5, 0.5), ShouldResemble, Drive(0))
		})
		Convey("released triggers also brake", func() {
			So(m.Weapon(0, 0), ShouldResemble, Drive(0))
		})
		Convey("the left trigger wins over the right", func() {
			So(m.Weapon(0.75, 0.25), ShouldResemble, Drive(0.5))
			So(m.Weapon(0, 1), ShouldResemble, Drive(-1))
		})
	})

	Convey("Coast at idle", t, func() {
		cfg := DefaultConfig()
		cfg.DeadzoneEnabled = false
		cfg.WeaponIdle = WeaponIdleCoast
		m := newMixer(t, cfg)

		Convey("released triggers coast the weapon", func() {
			So(m.Weapon(0, 0), ShouldResemble, Coast())
		})
		Convey("equal triggers coast the weapon", func() {
			So(m.Weapon(0.4, 0.4), ShouldResemble, Coast())
		})
		Convey("net input still drives", func() {
			So(m.Weapon(0.4, 0), ShouldResemble, Drive(0.4))
		})
	})
}

func TestMix(t *testing.T) {
	Convey("Given the deadzone-enabled configuration", t, func() {
		m := newMixer(t, DefaultConfig())

		Convey("stick noise inside the deadzone coasts the wheels", func() {
			out := m.Mix(Sample{X: 12, Y: -15})
			So(out.Left.IsCoast(), ShouldBeTrue)
			So(out.Right.IsCoast(), ShouldBeTrue)
			So(out.Weapon, ShouldResemble, Drive(0))
		})

		Convey("full forward with a full left trigger", func() {
			out := m.Mix(Sample{Y: 100, TriggerLeft: 100})
			So(out.Left.Value, ShouldAlmostEqual, -1)
			So(out.Right.Value, ShouldAlmostEqual, 1)
			So(out.Weapon.Value, ShouldAlmostEqual, 1)
		})

		Convey("out-of-range readings are clamped", func() {
			out := m.Mix(Sample{Y: 250})
			So(out.Right.Value, ShouldAlmostEqual, 1)
		})
	})

	Convey("Given the deadzone disabled", t, func() {
		cfg := DefaultConfig()
		cfg.DeadzoneEnabled = false
		cfg.WeaponIdle = WeaponIdleCoast
		m := newMixer(t, cfg)

		Convey("small readings pass straight through", func() {
			out := m.Mix(Sample{Y: 10})
			So(out.Left.Value, ShouldAlmostEqual, -0.1)
			So(out.Right.Value, ShouldAlmostEqual, 0.1)
			So(out.Weapon.IsCoast(), ShouldBeTrue)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Defaults are valid", t, func() {
		So(DefaultConfig().Validate(), ShouldBeNil)
	})

	Convey("Invalid settings are rejected", t, func() {
		cfg := DefaultConfig()
		cfg.TurnDivisor = 0
		So(cfg.Validate(), ShouldNotBeNil)

		cfg = DefaultConfig()
		cfg.Deadzone = 100
		So(cfg.Validate(), ShouldNotBeNil)

		cfg = DefaultConfig()
		cfg.WeaponIdle = "spin"
		_, err := New(cfg)
		So(err, ShouldNotBeNil)
	})
}
