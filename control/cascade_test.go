package control

import (
	"math"
	"testing"

	"github.com/tradewithmeai/quadfc/ahrs"
)

func testConfig() CascadeConfig {
	return CascadeConfig{
		AttRoll:   Gains{KP: 1.5, KD: 0.3},
		AttPitch:  Gains{KP: 1.5, KD: 0.3},
		RateRoll:  Gains{KP: 0.5, KI: 0.1, KD: 0.05},
		RatePitch: Gains{KP: 0.5, KI: 0.1, KD: 0.05},
		RateYaw:   Gains{KP: 1.0, KI: 0.05},
	}
}

// With zero error everywhere the demand is thrust-only.
func TestCascadeAtSetpoint(t *testing.T) {
	c := NewCascade(testConfig())
	d := c.Update(Setpoint{Thrust: 0.5}, 0, 0, ahrs.Vector3{}, 0.01)
	if d.Thrust != 0.5 {
		t.Errorf("thrust passthrough: %f", d.Thrust)
	}
	if !near(d.Roll, 0) || !near(d.Pitch, 0) || !near(d.Yaw, 0) {
		t.Errorf("torques at setpoint: %f %f %f", d.Roll, d.Pitch, d.Yaw)
	}
}

// A roll error produces a correcting roll torque and nothing else.
func TestCascadeRollError(t *testing.T) {
	c := NewCascade(testConfig())
	d := c.Update(Setpoint{Roll: 0.2, Thrust: 0.5}, 0, 0, ahrs.Vector3{}, 0.01)
	if d.Roll <= 0 {
		t.Errorf("roll torque %f, want positive", d.Roll)
	}
	if !near(d.Pitch, 0) || !near(d.Yaw, 0) {
		t.Errorf("cross-axis torques: pitch %f yaw %f", d.Pitch, d.Yaw)
	}
}

// The outer-loop output clamps to the configured maximum rate no matter
// how large the angle error is.
func TestCascadeRateClamp(t *testing.T) {
	cfg := testConfig()
	cfg.AttRoll = Gains{KP: 1000}
	cfg.MaxRate = 1.0
	c := NewCascade(cfg)
	c.Update(Setpoint{Roll: 1}, 0, 0, ahrs.Vector3{}, 0.01)
	rsp, _ := c.RateSetpoints()
	if rsp != 1.0 {
		t.Errorf("rate setpoint %f, want clamp at 1.0", rsp)
	}
}

func TestCascadeYawRateClamp(t *testing.T) {
	c := NewCascade(testConfig())
	// commanded yaw rate far beyond the clamp; measured rate at the clamp
	d := c.Update(Setpoint{YawRate: 100}, 0, 0, ahrs.Vector3{Z: DefaultMaxYawRate}, 0.01)
	// error after clamping is zero, so no yaw torque
	if !near(d.Yaw, 0) {
		t.Errorf("yaw torque %f, want 0 after clamp", d.Yaw)
	}
}

// With decimation the outer loop holds its rate setpoint on skipped
// ticks even as the measured angle changes.
func TestCascadeDecimationHold(t *testing.T) {
	cfg := testConfig()
	cfg.AttRoll = Gains{KP: 1}
	cfg.OuterDecimation = 4
	c := NewCascade(cfg)

	c.Update(Setpoint{Roll: 0.4}, 0, 0, ahrs.Vector3{}, 0.01)
	held, _ := c.RateSetpoints()

	// ticks 1..3: attitude changes but the outer loop must not rerun
	for i := 0; i < 3; i++ {
		c.Update(Setpoint{Roll: 0.4}, 0.3, 0, ahrs.Vector3{}, 0.01)
		rsp, _ := c.RateSetpoints()
		if rsp != held {
			t.Fatalf("rate setpoint recomputed on skipped tick %d: %f != %f", i+1, rsp, held)
		}
	}

	// tick 4: outer loop due again
	c.Update(Setpoint{Roll: 0.4}, 0.3, 0, ahrs.Vector3{}, 0.01)
	rsp, _ := c.RateSetpoints()
	if rsp == held {
		t.Errorf("rate setpoint not recomputed on due tick: %f", rsp)
	}
}

// IntegralLimit propagates to the inner-loop PIDs: a pure-integral yaw
// controller saturates at ki*limit under a held rate error.
func TestCascadeIntegralLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateYaw = Gains{KI: 1.0}
	cfg.IntegralLimit = 0.2
	c := NewCascade(cfg)
	var d Demand
	for i := 0; i < 1000; i++ {
		d = c.Update(Setpoint{YawRate: 1}, 0, 0, ahrs.Vector3{}, 0.01)
	}
	if !near(d.Yaw, 0.2) {
		t.Errorf("saturated yaw torque %f, want 0.2", d.Yaw)
	}
}

func TestCascadeReset(t *testing.T) {
	c := NewCascade(testConfig())
	for i := 0; i < 200; i++ {
		c.Update(Setpoint{Roll: 0.5, Thrust: 0.5}, 0, 0, ahrs.Vector3{}, 0.01)
	}
	c.Reset()
	rspR, rspP := c.RateSetpoints()
	if rspR != 0 || rspP != 0 {
		t.Errorf("rate setpoints after Reset: %f %f", rspR, rspP)
	}
	d := c.Update(Setpoint{Thrust: 0.5}, 0, 0, ahrs.Vector3{}, 0.01)
	if math.Abs(d.Roll) > tolerance {
		t.Errorf("residual roll torque after Reset: %f", d.Roll)
	}
}
