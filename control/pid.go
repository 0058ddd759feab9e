// Package control implements the cascaded stabilization controller and
// quad-X motor mixing that turn an attitude estimate and a pilot
// setpoint into four motor throttle fractions.
package control

// DefaultIntegralLimit is the anti-windup clamp applied to the integral
// accumulator, in the controller's native units.
const DefaultIntegralLimit = 10.0

// PID is a single-axis PID block. It is mutated on every Compute call
// and must be Reset on any transition where the error signal can jump
// discontinuously (mode change, re-arm, setpoint source change), or the
// residual integral injects a transient.
type PID struct {
	kp, ki, kd    float64
	integral      float64
	lastError     float64
	integralLimit float64
}

// NewPID returns a PID block with the given gains and the default
// integral limit.
func NewPID(kp, ki, kd float64) *PID {
	return &PID{kp: kp, ki: ki, kd: kd, integralLimit: DefaultIntegralLimit}
}

// Compute returns the PID output for the given error. dt is in seconds
// and must be > 0; dt == 0 divides by zero in the derivative term and
// must be prevented by the caller. The derivative is unfiltered, so a
// pathologically small dt lets derivative spikes dominate.
func (c *PID) Compute(err, dt float64) float64 {
	p := c.kp * err

	c.integral += err * dt
	c.integral = Constrain(c.integral, -c.integralLimit, c.integralLimit)
	i := c.ki * c.integral

	d := c.kd * (err - c.lastError) / dt

	c.lastError = err
	return p + i + d
}

// Reset zeroes the integral accumulator and the stored error.
func (c *PID) Reset() {
	c.integral = 0
	c.lastError = 0
}

// SetGains replaces the gains without touching integral or derivative
// state.
func (c *PID) SetGains(kp, ki, kd float64) {
	c.kp, c.ki, c.kd = kp, ki, kd
}

// SetIntegralLimit replaces the anti-windup clamp.
func (c *PID) SetIntegralLimit(limit float64) {
	c.integralLimit = limit
}
