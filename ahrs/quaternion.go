// Package ahrs implements attitude estimation for a small quadrotor based
// on inputs from a gyro/accelerometer IMU.
package ahrs

import "math"

const (
	Pi = math.Pi

	// normTolerance is the quaternion magnitude below which Normalize
	// becomes a no-op rather than dividing by a near-zero norm.
	normTolerance = 1e-4
)

// Quaternion represents a rotation of the body frame relative to the
// level frame. The zero-rotation quaternion is {1, 0, 0, 0}.
type Quaternion struct {
	W, X, Y, Z float64
}

// FromEuler builds the unit quaternion corresponding to the aerospace
// Z-Y-X Tait-Bryan angles roll, pitch, yaw, all in radians. Inputs are
// not range-restricted; they wrap naturally.
func FromEuler(roll, pitch, yaw float64) Quaternion {
	cy := math.Cos(yaw / 2)
	sy := math.Sin(yaw / 2)
	cp := math.Cos(pitch / 2)
	sp := math.Sin(pitch / 2)
	cr := math.Cos(roll / 2)
	sr := math.Sin(roll / 2)

	return Quaternion{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}

// ToEuler returns the roll, pitch, yaw angles corresponding to q, in
// radians. When floating-point drift pushes the pitch term outside the
// arcsine domain, pitch is clamped to ±Pi/2 using the sign of the
// singular term instead of propagating NaN.
func (q Quaternion) ToEuler() (roll, pitch, yaw float64) {
	sinrCosp := 2 * (q.W*q.X + q.Y*q.Z)
	cosrCosp := 1 - 2*(q.X*q.X+q.Y*q.Y)
	roll = math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (q.W*q.Y - q.Z*q.X)
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	sinyCosp := 2 * (q.W*q.Z + q.X*q.Y)
	cosyCosp := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	yaw = math.Atan2(sinyCosp, cosyCosp)
	return roll, pitch, yaw
}

// Mul returns the Hamilton product q*r, the composition that applies r
// first in the body frame and then q. Quaternion multiplication is not
// commutative.
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

// Normalize returns q scaled to unit magnitude. If the magnitude is
// already below normTolerance the input is returned unchanged.
func (q Quaternion) Normalize() Quaternion {
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n < normTolerance {
		return q
	}
	return Quaternion{q.W / n, q.X / n, q.Y / n, q.Z / n}
}

// Conjugate returns the inverse rotation for a unit quaternion.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{q.W, -q.X, -q.Y, -q.Z}
}
