// Package config loads the program settings from defaults, an optional config
// file, BRICK_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"periph.io/x/conn/v3/physic"

	"github.com/soar/BrickTeleop/internal/gamepad"
	"github.com/soar/BrickTeleop/internal/mixer"
	"github.com/soar/BrickTeleop/internal/motor"
)

// Motor drivers.
const (
	DriverHBridge = "hbridge"
	DriverSerial  = "serial"
	DriverLog     = "log"
)

const envPrefix = "BRICK"

// Config holds all application configuration values.
type Config struct {
	Debug      bool               `mapstructure:"debug"`
	Deadzone   DeadzoneConfig     `mapstructure:"deadzone"`
	Mixer      MixerConfig        `mapstructure:"mixer"`
	Weapon     WeaponConfig       `mapstructure:"weapon"`
	Loop       LoopConfig         `mapstructure:"loop"`
	Controller ControllerConfig   `mapstructure:"controller"`
	Motors     MotorsConfig       `mapstructure:"motors"`
	Serial     motor.SerialConfig `mapstructure:"serial"`
	MQTT       MQTTConfig         `mapstructure:"mqtt"`
	HTTP       HTTPConfig         `mapstructure:"http"`
	Tray       TrayConfig         `mapstructure:"tray"`
}

type DeadzoneConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	Threshold float64 `mapstructure:"threshold"`
}

type MixerConfig struct {
	TurnDivisor float64 `mapstructure:"turn_divisor"`
}

type WeaponConfig struct {
	// Idle is "brake" (explicit zero drive) or "coast".
	Idle string `mapstructure:"idle"`
}

type LoopConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type ControllerConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	StopButton     string        `mapstructure:"stop_button"`
}

type MotorsConfig struct {
	Driver       string          `mapstructure:"driver"`
	PWMFrequency int64           `mapstructure:"pwm_frequency"` // Hz
	Left         motor.PinConfig `mapstructure:"left"`
	Right        motor.PinConfig `mapstructure:"right"`
	Weapon       motor.PinConfig `mapstructure:"weapon"`
}

type MQTTConfig struct {
	Broker   string        `mapstructure:"broker"`
	ClientID string        `mapstructure:"client_id"`
	Topic    string        `mapstructure:"topic"`
	Interval time.Duration `mapstructure:"interval"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type TrayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

var defaults = map[string]any{
	"debug":                      false,
	"deadzone.enabled":           true,
	"deadzone.threshold":         mixer.DefaultDeadzone,
	"mixer.turn_divisor":         mixer.DefaultTurnDivisor,
	"weapon.idle":                string(mixer.WeaponIdleBrake),
	"loop.interval":              10 * time.Millisecond,
	"controller.connect_timeout": 30 * time.Second,
	"controller.stop_button":     "home",
	"motors.driver":              DriverLog,
	"motors.pwm_frequency":       int64(motor.DefaultPWMFrequency / physic.Hertz),
	"motors.left.in1":            "",
	"motors.left.in2":            "",
	"motors.left.pwm":            "",
	"motors.right.in1":           "",
	"motors.right.in2":           "",
	"motors.right.pwm":           "",
	"motors.weapon.in1":          "",
	"motors.weapon.in2":          "",
	"motors.weapon.pwm":          "",
	"serial.port":                "",
	"serial.baud":                115200,
	"mqtt.broker":                "",
	"mqtt.client_id":             "brick-teleop",
	"mqtt.topic":                 "brick/telemetry",
	"mqtt.interval":              100 * time.Millisecond,
	"http.addr":                  ":8080",
	"tray.enabled":               true,
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"debug":        "debug",
	"deadzone":     "deadzone.enabled",
	"threshold":    "deadzone.threshold",
	"turn-divisor": "mixer.turn_divisor",
	"weapon-idle":  "weapon.idle",
	"interval":     "loop.interval",
	"stop-button":  "controller.stop_button",
	"driver":       "motors.driver",
	"serial-port":  "serial.port",
	"mqtt-broker":  "mqtt.broker",
	"http-addr":    "http.addr",
	"tray":         "tray.enabled",
}

// RegisterFlags adds the program flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to a config file (yaml, toml or json)")
	fs.Bool("debug", false, "enable debug logging")
	fs.Bool("deadzone", true, "apply the stick deadzone")
	fs.Float64("threshold", mixer.DefaultDeadzone, "deadzone threshold in percent")
	fs.Float64("turn-divisor", mixer.DefaultTurnDivisor, "turn attenuation divisor")
	fs.String("weapon-idle", string(mixer.WeaponIdleBrake), `weapon behaviour at zero input: "brake" or "coast"`)
	fs.Duration("interval", 10*time.Millisecond, "control loop tick period")
	fs.String("stop-button", "home", "controller button that ends the program")
	fs.String("driver", DriverLog, `motor driver: "hbridge", "serial" or "log"`)
	fs.String("serial-port", "", "serial motor controller port")
	fs.String("mqtt-broker", "", "MQTT broker URL for telemetry, empty to disable")
	fs.String("http-addr", ":8080", "telemetry web server address, empty to disable")
	fs.Bool("tray", true, "show the system tray icon on Windows")
}

// Load parses args into fs (which must have RegisterFlags applied) and
// builds the validated configuration.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "parse flags")
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for flag, key := range flagKeys {
		if f := fs.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "bind flag %s", flag)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if err := c.MixerConfig().Validate(); err != nil {
		return errors.Wrap(err, "mixer")
	}
	if _, err := gamepad.ParseButton(c.Controller.StopButton); err != nil {
		return errors.Wrap(err, "controller.stop_button")
	}
	if c.Loop.Interval <= 0 {
		return errors.Errorf("loop.interval must be positive, got %s", c.Loop.Interval)
	}

	switch c.Motors.Driver {
	case DriverLog:
	case DriverSerial:
		if c.Serial.Port == "" {
			return errors.New("serial.port is required for the serial driver")
		}
		if c.Serial.Baud == 0 {
			return errors.New("serial.baud is required for the serial driver")
		}
	case DriverHBridge:
		for id, pc := range c.Pins() {
			if pc.IN1 == "" || pc.IN2 == "" || pc.PWM == "" {
				return errors.Errorf("motors.%s needs in1, in2 and pwm pins", id)
			}
		}
		if c.Motors.PWMFrequency <= 0 {
			return errors.Errorf("motors.pwm_frequency must be positive, got %d", c.Motors.PWMFrequency)
		}
	default:
		return errors.Errorf("unknown motors.driver %q", c.Motors.Driver)
	}

	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		return errors.New("mqtt.topic is required when mqtt.broker is set")
	}
	return nil
}

// MixerConfig returns the input shaping settings.
func (c *Config) MixerConfig() mixer.Config {
	return mixer.Config{
		DeadzoneEnabled: c.Deadzone.Enabled,
		Deadzone:        c.Deadzone.Threshold,
		TurnDivisor:     c.Mixer.TurnDivisor,
		WeaponIdle:      mixer.WeaponIdle(c.Weapon.Idle),
	}
}

// Pins returns the h-bridge pin assignment per motor.
func (c *Config) Pins() map[motor.ID]motor.PinConfig {
	return map[motor.ID]motor.PinConfig{
		motor.Left:   c.Motors.Left,
		motor.Right:  c.Motors.Right,
		motor.Weapon: c.Motors.Weapon,
	}
}

// StopButton returns the parsed program stop button.
func (c *Config) StopButton() gamepad.Button {
	b, _ := gamepad.ParseButton(c.Controller.StopButton)
	return b
}

// PWMFrequency returns the h-bridge PWM frequency.
func (c *Config) PWMFrequency() physic.Frequency {
	return physic.Frequency(c.Motors.PWMFrequency) * physic.Hertz
}
