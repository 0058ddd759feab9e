package ahrs

import "math"

// Vector3 is a three-component vector, used for body-frame angular rates
// (rad/s) and specific force (m/s²). It is a plain value type; all
// arithmetic returns new values.
type Vector3 struct {
	X, Y, Z float64
}

// Add returns the component-wise sum v + w.
func (v Vector3) Add(w Vector3) Vector3 {
	return Vector3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns the component-wise difference v - w.
func (v Vector3) Sub(w Vector3) Vector3 {
	return Vector3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scaled returns v scaled by k.
func (v Vector3) Scaled(k float64) Vector3 {
	return Vector3{k * v.X, k * v.Y, k * v.Z}
}

// Mag returns the Euclidean magnitude of v.
func (v Vector3) Mag() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}
