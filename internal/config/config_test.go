package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/physic"

	"github.com/soar/BrickTeleop/internal/gamepad"
	"github.com/soar/BrickTeleop/internal/mixer"
	"github.com/soar/BrickTeleop/internal/motor"
)

const hbridgeYAML = `
deadzone:
  enabled: false
weapon:
  idle: coast
loop:
  interval: 20ms
motors:
  driver: hbridge
  pwm_frequency: 1000
  left:  {in1: GPIO5, in2: GPIO6, pwm: GPIO12}
  right: {in1: GPIO20, in2: GPIO21, pwm: GPIO13}
  weapon: {in1: GPIO23, in2: GPIO24, pwm: GPIO18}
mqtt:
  broker: tcp://localhost:1883
`

func load(args ...string) (*Config, error) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	return Load(fs, args)
}

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "brick.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	Convey("With no file and no flags", t, func() {
		cfg, err := load()
		So(err, ShouldBeNil)

		Convey("the deadzone-enabled brake variant is selected", func() {
			So(cfg.MixerConfig(), ShouldResemble, mixer.DefaultConfig())
		})
		Convey("the loop and controller defaults apply", func() {
			So(cfg.Loop.Interval, ShouldEqual, 10*time.Millisecond)
			So(cfg.StopButton(), ShouldEqual, gamepad.ButtonHome)
			So(cfg.Motors.Driver, ShouldEqual, DriverLog)
			So(cfg.HTTP.Addr, ShouldEqual, ":8080")
			So(cfg.MQTT.Broker, ShouldBeEmpty)
		})
	})

	Convey("A config file selects the h-bridge and the coast variant", t, func() {
		cfg, err := load("--config", writeConfig(t, hbridgeYAML))
		So(err, ShouldBeNil)
		So(cfg.Deadzone.Enabled, ShouldBeFalse)
		So(cfg.MixerConfig().WeaponIdle, ShouldEqual, mixer.WeaponIdleCoast)
		So(cfg.Loop.Interval, ShouldEqual, 20*time.Millisecond)
		So(cfg.Pins()[motor.Weapon], ShouldResemble, motor.PinConfig{IN1: "GPIO23", IN2: "GPIO24", PWM: "GPIO18"})
		So(cfg.PWMFrequency(), ShouldEqual, physic.KiloHertz)
		So(cfg.MQTT.Topic, ShouldEqual, "brick/telemetry")
	})

	Convey("Flags override the file", t, func() {
		cfg, err := load("--config", writeConfig(t, hbridgeYAML), "--weapon-idle", "brake", "--interval", "5ms")
		So(err, ShouldBeNil)
		So(cfg.Weapon.Idle, ShouldEqual, "brake")
		So(cfg.Loop.Interval, ShouldEqual, 5*time.Millisecond)
	})

	Convey("Environment variables override defaults", t, func() {
		t.Setenv("BRICK_MIXER_TURN_DIVISOR", "2")
		cfg, err := load()
		So(err, ShouldBeNil)
		So(cfg.Mixer.TurnDivisor, ShouldEqual, 2)
	})

	Convey("Invalid settings are rejected", t, func() {
		_, err := load("--weapon-idle", "spin")
		So(err, ShouldNotBeNil)

		_, err = load("--turn-divisor", "0")
		So(err, ShouldNotBeNil)

		_, err = load("--stop-button", "turbo")
		So(err, ShouldNotBeNil)

		_, err = load("--driver", "serial")
		So(err, ShouldNotBeNil)

		_, err = load("--driver", "hbridge")
		So(err, ShouldNotBeNil)

		_, err = load("--driver", "servo")
		So(err, ShouldNotBeNil)
	})

	Convey("A missing config file is an error", t, func() {
		_, err := load("--config", filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
