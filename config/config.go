// Package config loads the flight-controller tuning parameters from
// YAML, with defaults matching the stock quad-X build.
package config

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tradewithmeai/quadfc/control"
)

// Gains is the YAML shape of one axis' PID gains.
type Gains struct {
	P float64 `yaml:"p"`
	I float64 `yaml:"i"`
	D float64 `yaml:"d"`
}

// Control converts to the controller's gain type.
func (g Gains) Control() control.Gains {
	return control.Gains{KP: g.P, KI: g.I, KD: g.D}
}

// Config is the full tuning file.
type Config struct {
	Loop struct {
		RateHz          int `yaml:"rate_hz"`
		OuterDecimation int `yaml:"outer_decimation"`
	} `yaml:"loop"`

	Filter struct {
		Alpha float64 `yaml:"alpha"`
	} `yaml:"filter"`

	Attitude struct {
		Roll  Gains `yaml:"roll"`
		Pitch Gains `yaml:"pitch"`
	} `yaml:"attitude"`

	Rate struct {
		Roll  Gains `yaml:"roll"`
		Pitch Gains `yaml:"pitch"`
		Yaw   Gains `yaml:"yaw"`
	} `yaml:"rate"`

	Limits struct {
		MaxTilt       float64 `yaml:"max_tilt"`       // rad
		MaxRate       float64 `yaml:"max_rate"`       // rad/s
		MaxYawRate    float64 `yaml:"max_yaw_rate"`   // rad/s
		IntegralLimit float64 `yaml:"integral_limit"` // PID windup clamp
	} `yaml:"limits"`

	Calibration struct {
		Samples int `yaml:"samples"`
	} `yaml:"calibration"`

	Battery struct {
		Pin   int     `yaml:"pin"`   // ADC pin; negative disables monitoring
		Scale float64 `yaml:"scale"` // raw counts to volts; 0 for the driver default
	} `yaml:"battery"`

	Ports struct {
		Command   int    `yaml:"command"`
		Telemetry string `yaml:"telemetry"` // ground station host:port
		Web       int    `yaml:"web"`
	} `yaml:"ports"`
}

// Default returns the stock tuning.
func Default() Config {
	var c Config
	c.Loop.RateHz = 100
	c.Loop.OuterDecimation = 1
	c.Filter.Alpha = 0.98
	c.Attitude.Roll = Gains{P: 1.5, D: 0.3}
	c.Attitude.Pitch = Gains{P: 1.5, D: 0.3}
	c.Rate.Roll = Gains{P: 0.5, I: 0.1, D: 0.05}
	c.Rate.Pitch = Gains{P: 0.5, I: 0.1, D: 0.05}
	c.Rate.Yaw = Gains{P: 1.0, I: 0.05}
	c.Limits.MaxTilt = 0.524
	c.Limits.MaxRate = math.Pi
	c.Limits.MaxYawRate = math.Pi / 2
	c.Limits.IntegralLimit = 10
	c.Calibration.Samples = 1000
	c.Battery.Pin = -1
	c.Ports.Command = 14551
	c.Ports.Telemetry = "255.255.255.255:14550"
	c.Ports.Web = 8000
	return c
}

// Load reads path over the defaults. A missing file is an error; to run
// on pure defaults, call Default directly.
func Load(path string) (Config, error) {
	c := Default()
	buf, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return c, errors.Wrapf(err, "parsing config %s", path)
	}
	return c, nil
}

// Cascade assembles the cascade configuration from the tuning.
func (c Config) Cascade() control.CascadeConfig {
	return control.CascadeConfig{
		AttRoll:         c.Attitude.Roll.Control(),
		AttPitch:        c.Attitude.Pitch.Control(),
		RateRoll:        c.Rate.Roll.Control(),
		RatePitch:       c.Rate.Pitch.Control(),
		RateYaw:         c.Rate.Yaw.Control(),
		MaxRate:         c.Limits.MaxRate,
		MaxYawRate:      c.Limits.MaxYawRate,
		IntegralLimit:   c.Limits.IntegralLimit,
		OuterDecimation: c.Loop.OuterDecimation,
	}
}
