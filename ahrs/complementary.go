package ahrs

import "math"

const (
	// DefaultAlpha is the default filter coefficient: the weight given
	// to the gyro-propagated attitude in each blend.
	DefaultAlpha = 0.98

	// minAccelMag is the accelerometer magnitude, m/s², below which the
	// reading carries no usable direction (free fall or a dead sensor)
	// and the tilt correction is skipped for the tick.
	minAccelMag = 1e-6
)

// Estimator is an attitude estimation algorithm fed once per control
// tick with bias-corrected gyro rates and accelerometer readings.
type Estimator interface {
	Update(gyro, accel Vector3, dt float64)
	Quaternion() Quaternion
	RollPitchYaw() (roll, pitch, yaw float64)
}

// ComplementaryFilter maintains a running attitude estimate by blending
// the gyro-integrated orientation, which is smooth but drifts, with the
// accelerometer tilt reference, which is noisy but drift-free. The blend
// is a per-component linear mix of quaternion components, not a
// spherical interpolation; it is a cheap approximation of rotation
// averaging that holds up at the small per-tick rotation deltas of a
// fixed-rate loop and degrades near large attitude changes.
type ComplementaryFilter struct {
	alpha    float64
	attitude Quaternion
}

// NewComplementaryFilter returns a filter with coefficient alpha in
// (0, 1); pass 0 to use DefaultAlpha. The initial attitude is level.
func NewComplementaryFilter(alpha float64) *ComplementaryFilter {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	return &ComplementaryFilter{
		alpha:    alpha,
		attitude: Quaternion{W: 1},
	}
}

// Update advances the estimate by one tick. gyro is in rad/s, accel in
// m/s², dt in seconds and must be > 0.
func (f *ComplementaryFilter) Update(gyro, accel Vector3, dt float64) {
	gyroQ := FromEuler(gyro.X*dt, gyro.Y*dt, gyro.Z*dt)
	prop := f.attitude.Mul(gyroQ).Normalize()

	if accel.Mag() < minAccelMag {
		// No gravity direction to correct against; gyro-only this tick.
		f.attitude = prop
		return
	}

	roll := math.Atan2(accel.Y, accel.Z)
	pitch := math.Atan2(-accel.X, math.Sqrt(accel.Y*accel.Y+accel.Z*accel.Z))
	tilt := FromEuler(roll, pitch, 0)

	a := f.alpha
	f.attitude = Quaternion{
		W: a*prop.W + (1-a)*tilt.W,
		X: a*prop.X + (1-a)*tilt.X,
		Y: a*prop.Y + (1-a)*tilt.Y,
		Z: prop.Z, // the accelerometer contributes nothing to yaw
	}.Normalize()
}

// Quaternion returns a copy of the current attitude estimate.
func (f *ComplementaryFilter) Quaternion() Quaternion {
	return f.attitude
}

// RollPitchYaw returns the current Euler angles in radians, recomputed
// from the quaternion on every call.
func (f *ComplementaryFilter) RollPitchYaw() (roll, pitch, yaw float64) {
	return f.attitude.ToEuler()
}

// SetAttitude replaces the current estimate, e.g. to seed the filter
// from a known orientation before flight.
func (f *ComplementaryFilter) SetAttitude(q Quaternion) {
	f.attitude = q.Normalize()
}
