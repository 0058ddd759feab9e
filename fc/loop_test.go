package fc

import (
	"math"
	"testing"

	"github.com/tradewithmeai/quadfc/ahrs"
	"github.com/tradewithmeai/quadfc/calibration"
	"github.com/tradewithmeai/quadfc/command"
	"github.com/tradewithmeai/quadfc/control"
	"github.com/tradewithmeai/quadfc/sensors"
)

func testConfig() Config {
	return Config{
		Cascade: control.CascadeConfig{
			AttRoll:   control.Gains{KP: 1.5, KD: 0.3},
			AttPitch:  control.Gains{KP: 1.5, KD: 0.3},
			RateRoll:  control.Gains{KP: 0.5, KI: 0.1, KD: 0.05},
			RatePitch: control.Gains{KP: 0.5, KI: 0.1, KD: 0.05},
			RateYaw:   control.Gains{KP: 1.0, KI: 0.05},
		},
	}
}

func stationarySample() sensors.IMUSample {
	return sensors.IMUSample{Accel: ahrs.Vector3{Z: 9.81}}
}

func nopActuator() (*control.MotorCommand, Actuator) {
	var last control.MotorCommand
	return &last, ActuatorFunc(func(m control.MotorCommand) error {
		last = m
		return nil
	})
}

// Stationary aircraft, level target, thrust 0.3: after settling all
// four motors sit at the thrust value.
func TestLoopStationaryHover(t *testing.T) {
	last, act := nopActuator()
	l := NewLoop(testConfig(), act)

	l.Commands() <- command.Command{Type: command.TypeArm}
	l.Commands() <- command.Command{
		Type:    command.TypeControlInput,
		Control: &command.ControlInput{Throttle: 0.3},
	}

	for i := 0; i < 1000; i++ {
		l.Tick(stationarySample(), 0.01)
	}
	for i, v := range *last {
		if math.Abs(v-0.3) > 0.01 {
			t.Errorf("motor %d settled at %f, want 0.3", i, v)
		}
	}
}

// While disarmed the motors stay at zero no matter the setpoint, but
// estimation keeps running.
func TestLoopDisarmedMotorsOff(t *testing.T) {
	last, act := nopActuator()
	l := NewLoop(testConfig(), act)

	l.Commands() <- command.Command{
		Type:    command.TypeControlInput,
		Control: &command.ControlInput{Throttle: 0.8},
	}
	for i := 0; i < 10; i++ {
		l.Tick(stationarySample(), 0.01)
	}
	for i, v := range *last {
		if v != 0 {
			t.Errorf("motor %d while disarmed: %f", i, v)
		}
	}
}

func TestLoopDisarmZeroesOutput(t *testing.T) {
	last, act := nopActuator()
	l := NewLoop(testConfig(), act)

	l.Commands() <- command.Command{Type: command.TypeArm}
	l.Commands() <- command.Command{
		Type:    command.TypeControlInput,
		Control: &command.ControlInput{Throttle: 0.5},
	}
	for i := 0; i < 50; i++ {
		l.Tick(stationarySample(), 0.01)
	}
	if (*last)[0] == 0 {
		t.Fatal("motors never spun up")
	}

	l.Commands() <- command.Command{Type: command.TypeDisarm}
	l.Tick(stationarySample(), 0.01)
	for i, v := range *last {
		if v != 0 {
			t.Errorf("motor %d after disarm: %f", i, v)
		}
	}
	if l.Armed() {
		t.Error("loop still armed")
	}
}

// Commanded tilt clamps to the configured maximum.
func TestLoopTiltClamp(t *testing.T) {
	_, act := nopActuator()
	cfg := testConfig()
	cfg.MaxTilt = 0.3
	l := NewLoop(cfg, act)

	l.Commands() <- command.Command{Type: command.TypeArm}
	l.Commands() <- command.Command{
		Type:    command.TypeControlInput,
		Control: &command.ControlInput{Roll: 2.0, Throttle: 0.5},
	}
	l.Tick(stationarySample(), 0.01)

	if l.setpoint.Roll != 0.3 {
		t.Errorf("roll setpoint %f, want clamp at 0.3", l.setpoint.Roll)
	}
}

// Bias correction: a gyro offset learned at calibration must not tilt
// the estimate.
func TestLoopBiasCorrection(t *testing.T) {
	_, act := nopActuator()
	l := NewLoop(testConfig(), act)
	l.SetBias(calibration.Bias{Gyro: ahrs.Vector3{X: 0.05}})

	s := stationarySample()
	s.Gyro = ahrs.Vector3{X: 0.05}
	for i := 0; i < 500; i++ {
		l.Tick(s, 0.01)
	}
	roll, pitch, _ := l.Estimator().RollPitchYaw()
	if math.Abs(roll) > 0.01 || math.Abs(pitch) > 0.01 {
		t.Errorf("attitude drifted despite bias correction: %f %f", roll, pitch)
	}
}

func TestLoopSnapshots(t *testing.T) {
	_, act := nopActuator()
	l := NewLoop(testConfig(), act)
	l.SetEnvironment(10.5, 11.8)

	l.Commands() <- command.Command{Type: command.TypeSetMode, Mode: 2}
	l.Tick(stationarySample(), 0.01)
	l.Tick(stationarySample(), 0.01) // second snapshot replaces the first

	select {
	case rec := <-l.Snapshots():
		if rec.Altitude != 10.5 || rec.Battery != 11.8 || rec.Mode != 2 || rec.Armed {
			t.Errorf("snapshot: %+v", rec)
		}
	default:
		t.Fatal("no snapshot published")
	}
}
