package control

import (
	"math"

	"github.com/tradewithmeai/quadfc/ahrs"
)

// Default limits, radians. MaxRate caps the outer-loop rate setpoint;
// MaxYawRate caps the directly commanded yaw rate.
const (
	DefaultMaxRate    = math.Pi     // 180°/s
	DefaultMaxYawRate = math.Pi / 2 // 90°/s
)

// Gains holds the PID gains for one axis.
type Gains struct {
	KP, KI, KD float64
}

// Setpoint is the pilot/autopilot demand consumed by the cascade: roll
// and pitch angles in radians, a yaw rate in rad/s, and a normalized
// collective thrust in [0, 1]. Absent a new command the last setpoint
// holds (zero-order hold); that is defined behavior, not an error.
type Setpoint struct {
	Roll    float64
	Pitch   float64
	YawRate float64
	Thrust  float64
}

// Demand is the output of one cascade pass: collective thrust plus the
// three body-axis torque demands handed to the mixer.
type Demand struct {
	Thrust float64
	Roll   float64
	Pitch  float64
	Yaw    float64
}

// CascadeConfig collects the cascade tuning. Zero limits fall back to
// the defaults; a zero OuterDecimation means the attitude loop runs
// every tick.
type CascadeConfig struct {
	AttRoll, AttPitch            Gains
	RateRoll, RatePitch, RateYaw Gains
	MaxRate                      float64
	MaxYawRate                   float64
	IntegralLimit                float64 // windup clamp for all five PIDs; 0 keeps the default
	OuterDecimation              int
}

// Cascade is the two-stage stabilization controller. The outer loop
// turns roll/pitch angle errors into rate setpoints; the inner loop
// turns rate errors into torque demands. Yaw has no outer loop; the
// commanded yaw rate feeds the inner loop directly. The outer loop may
// be decimated to run every Nth tick, in which case the inner loop
// reuses the last rate setpoint on skipped ticks.
type Cascade struct {
	attRoll, attPitch            *PID
	rateRoll, ratePitch, rateYaw *PID
	maxRate, maxYawRate          float64
	decimation                   int

	tick                    int
	rateSPRoll, rateSPPitch float64 // held between outer-loop passes
}

// NewCascade builds the five PID blocks from cfg.
func NewCascade(cfg CascadeConfig) *Cascade {
	maxRate := cfg.MaxRate
	if maxRate <= 0 {
		maxRate = DefaultMaxRate
	}
	maxYawRate := cfg.MaxYawRate
	if maxYawRate <= 0 {
		maxYawRate = DefaultMaxYawRate
	}
	decimation := cfg.OuterDecimation
	if decimation < 1 {
		decimation = 1
	}
	c := &Cascade{
		attRoll:    NewPID(cfg.AttRoll.KP, cfg.AttRoll.KI, cfg.AttRoll.KD),
		attPitch:   NewPID(cfg.AttPitch.KP, cfg.AttPitch.KI, cfg.AttPitch.KD),
		rateRoll:   NewPID(cfg.RateRoll.KP, cfg.RateRoll.KI, cfg.RateRoll.KD),
		ratePitch:  NewPID(cfg.RatePitch.KP, cfg.RatePitch.KI, cfg.RatePitch.KD),
		rateYaw:    NewPID(cfg.RateYaw.KP, cfg.RateYaw.KI, cfg.RateYaw.KD),
		maxRate:    maxRate,
		maxYawRate: maxYawRate,
		decimation: decimation,
	}
	if cfg.IntegralLimit > 0 {
		for _, p := range []*PID{c.attRoll, c.attPitch, c.rateRoll, c.ratePitch, c.rateYaw} {
			p.SetIntegralLimit(cfg.IntegralLimit)
		}
	}
	return c
}

// Update runs one control tick: the outer loops for roll and pitch when
// due, then the three inner loops against the measured body rates.
// roll and pitch are the current attitude estimate in radians; rates is
// the bias-corrected gyro reading in rad/s.
func (c *Cascade) Update(sp Setpoint, roll, pitch float64, rates ahrs.Vector3, dt float64) Demand {
	if c.tick%c.decimation == 0 {
		c.rateSPRoll = Constrain(c.attRoll.Compute(sp.Roll-roll, dt), -c.maxRate, c.maxRate)
		c.rateSPPitch = Constrain(c.attPitch.Compute(sp.Pitch-pitch, dt), -c.maxRate, c.maxRate)
	}
	c.tick++

	yawSP := Constrain(sp.YawRate, -c.maxYawRate, c.maxYawRate)

	return Demand{
		Thrust: sp.Thrust,
		Roll:   c.rateRoll.Compute(c.rateSPRoll-rates.X, dt),
		Pitch:  c.ratePitch.Compute(c.rateSPPitch-rates.Y, dt),
		Yaw:    c.rateYaw.Compute(yawSP-rates.Z, dt),
	}
}

// RateSetpoints returns the rate setpoints currently held for the inner
// loop, rad/s.
func (c *Cascade) RateSetpoints() (roll, pitch float64) {
	return c.rateSPRoll, c.rateSPPitch
}

// Reset zeroes all five PID blocks, the held rate setpoints and the
// decimation counter. Call on every arm/disarm transition.
func (c *Cascade) Reset() {
	c.attRoll.Reset()
	c.attPitch.Reset()
	c.rateRoll.Reset()
	c.ratePitch.Reset()
	c.rateYaw.Reset()
	c.rateSPRoll = 0
	c.rateSPPitch = 0
	c.tick = 0
}
