// Package fc ties the attitude estimator, the cascaded controller and
// the motor mixer into the fixed-rate control loop.
package fc

import (
	"log"
	"time"

	"github.com/tradewithmeai/quadfc/ahrs"
	"github.com/tradewithmeai/quadfc/calibration"
	"github.com/tradewithmeai/quadfc/command"
	"github.com/tradewithmeai/quadfc/control"
	"github.com/tradewithmeai/quadfc/sensors"
	"github.com/tradewithmeai/quadfc/telemetry"
)

// DefaultMaxTilt is the clamp on commanded roll/pitch angles, radians
// (30°).
const DefaultMaxTilt = 0.524

// Actuator receives the four mixed throttle fractions, one call per
// tick, in motor order front-left, front-right, back-right, back-left.
type Actuator interface {
	SetThrottles(control.MotorCommand) error
}

// ActuatorFunc adapts a plain function to an Actuator.
type ActuatorFunc func(control.MotorCommand) error

// SetThrottles implements Actuator.
func (f ActuatorFunc) SetThrottles(m control.MotorCommand) error { return f(m) }

// Config collects the loop tuning.
type Config struct {
	Cascade control.CascadeConfig
	Alpha   float64 // complementary filter coefficient; 0 means default
	MaxTilt float64 // clamp on commanded roll/pitch, rad; 0 means default
}

// Loop owns all mutable control state: one estimator, the cascade's
// five PID blocks plus the directly commanded yaw rate, the bias
// estimate and the current setpoint. It is exclusively owned by the
// goroutine calling Tick; commands arrive on a channel and are drained
// at the top of each tick, and outbound state leaves only as immutable
// snapshot values, so no locking is needed.
type Loop struct {
	est     ahrs.Estimator
	cascade *control.Cascade
	bias    calibration.Bias
	act     Actuator
	maxTilt float64

	setpoint control.Setpoint
	armed    bool
	mode     byte

	altitude float64
	battery  float64

	commands  chan command.Command
	snapshots chan telemetry.Record
	start     time.Time
}

// NewLoop assembles a loop around act. The loop starts disarmed with a
// zero setpoint.
func NewLoop(cfg Config, act Actuator) *Loop {
	maxTilt := cfg.MaxTilt
	if maxTilt <= 0 {
		maxTilt = DefaultMaxTilt
	}
	return &Loop{
		est:       ahrs.NewComplementaryFilter(cfg.Alpha),
		cascade:   control.NewCascade(cfg.Cascade),
		act:       act,
		maxTilt:   maxTilt,
		commands:  make(chan command.Command, 16),
		snapshots: make(chan telemetry.Record, 1),
		start:     time.Now(),
	}
}

// Commands is where decoded ground-station commands are fed.
func (l *Loop) Commands() chan<- command.Command { return l.commands }

// Snapshots carries one immutable telemetry record per tick. The loop
// never blocks on it; an unread snapshot is replaced by the next one.
func (l *Loop) Snapshots() <-chan telemetry.Record { return l.snapshots }

// SetBias installs the calibration result. Call before flight, never
// while armed.
func (l *Loop) SetBias(b calibration.Bias) { l.bias = b }

// SetEnvironment updates the externally measured altitude (m) and
// battery voltage (V) passed through to telemetry.
func (l *Loop) SetEnvironment(altitude, battery float64) {
	l.altitude = altitude
	l.battery = battery
}

// Armed reports whether motor output is enabled.
func (l *Loop) Armed() bool { return l.armed }

// Estimator exposes the attitude estimate for read-only use between
// ticks (e.g. logging); callers must not retain references across
// ticks.
func (l *Loop) Estimator() ahrs.Estimator { return l.est }

// Tick runs one full control cycle over the raw sample: drain commands,
// bias-correct, estimate, cascade, mix, actuate, snapshot. dt is in
// seconds and must be > 0. The returned command is what was sent to the
// actuator; while disarmed all four throttles are zero but estimation
// still runs so the attitude is current at the moment of arming.
func (l *Loop) Tick(s sensors.IMUSample, dt float64) control.MotorCommand {
	l.drainCommands()

	cs := l.bias.Correct(s)
	l.est.Update(cs.Gyro, cs.Accel, dt)
	roll, pitch, yaw := l.est.RollPitchYaw()

	var m control.MotorCommand
	if l.armed {
		d := l.cascade.Update(l.setpoint, roll, pitch, cs.Gyro, dt)
		m = control.Mix(d.Thrust, d.Roll, d.Pitch, d.Yaw)
	}
	if err := l.act.SetThrottles(m); err != nil {
		log.Println("fc: actuator error:", err)
	}

	l.publish(roll, pitch, yaw)
	return m
}

func (l *Loop) drainCommands() {
	for {
		select {
		case cmd := <-l.commands:
			l.apply(cmd)
		default:
			return
		}
	}
}

func (l *Loop) apply(cmd command.Command) {
	switch cmd.Type {
	case command.TypeArm:
		if !l.armed {
			l.cascade.Reset()
			l.armed = true
			log.Println("fc: armed")
		}
	case command.TypeDisarm:
		if l.armed {
			l.armed = false
			l.cascade.Reset()
			l.setpoint = control.Setpoint{}
			log.Println("fc: disarmed")
		}
	case command.TypeSetMode:
		l.mode = cmd.Mode
	case command.TypeControlInput:
		c := cmd.Control
		l.setpoint = control.Setpoint{
			Roll:    control.Constrain(float64(c.Roll), -l.maxTilt, l.maxTilt),
			Pitch:   control.Constrain(float64(c.Pitch), -l.maxTilt, l.maxTilt),
			YawRate: float64(c.Yaw),
			Thrust:  control.Constrain(float64(c.Throttle), 0, 1),
		}
	case command.TypePositionTarget, command.TypeVelocityCommand:
		// Guidance modes are handled outside the stabilization core.
	}
}

func (l *Loop) publish(roll, pitch, yaw float64) {
	rec := telemetry.Record{
		Timestamp: uint32(time.Since(l.start).Milliseconds()),
		Roll:      roll,
		Pitch:     pitch,
		Yaw:       yaw,
		Altitude:  l.altitude,
		Battery:   l.battery,
		Armed:     l.armed,
		Mode:      l.mode,
	}
	select {
	case l.snapshots <- rec:
	default:
		select { // replace the stale snapshot
		case <-l.snapshots:
		default:
		}
		select {
		case l.snapshots <- rec:
		default:
		}
	}
}
