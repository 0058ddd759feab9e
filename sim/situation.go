// Package sim synthesizes IMU data from a scripted attitude trajectory
// so the control loop and estimator can run, and be checked against
// truth, without hardware.
package sim

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/skelterjohn/go.matrix"

	"github.com/tradewithmeai/quadfc/ahrs"
	"github.com/tradewithmeai/quadfc/calibration"
)

// Situation scripts an attitude flight path by piecewise-linear
// interpolation over time. Optional sensor bias and Gaussian noise are
// applied when synthesizing IMU samples, so the estimator sees inputs
// with the same defects as real hardware.
type Situation struct {
	t                []float64 // times, s, strictly increasing
	roll, pitch, yaw []float64 // attitude, rad

	GyroBias   ahrs.Vector3 // rad/s, added to synthesized gyro
	AccelBias  ahrs.Vector3 // m/s², added to synthesized accel
	GyroNoise  float64      // rad/s, stdev per axis
	AccelNoise float64      // m/s², stdev per axis
}

// NewSituation defines a scenario from parallel slices of time and
// attitude waypoints. All slices must share a length of at least two.
func NewSituation(t, roll, pitch, yaw []float64) (*Situation, error) {
	if len(t) < 2 || len(roll) != len(t) || len(pitch) != len(t) || len(yaw) != len(t) {
		return nil, errors.New("sim: waypoint slices must share a length of at least 2")
	}
	return &Situation{t: t, roll: roll, pitch: pitch, yaw: yaw}, nil
}

// BeginTime returns the time stamp when the scenario begins.
func (s *Situation) BeginTime() float64 {
	return s.t[0]
}

// EndTime returns the time stamp when the scenario ends.
func (s *Situation) EndTime() float64 {
	return s.t[len(s.t)-1]
}

// segment returns the index ix such that t lies in [t[ix], t[ix+1]].
func (s *Situation) segment(t float64) (int, error) {
	if t < s.t[0] || t > s.t[len(s.t)-1] {
		return 0, errors.New("sim: requested time is outside of scenario")
	}
	ix := 0
	if t > s.t[0] {
		ix = sort.SearchFloat64s(s.t, t) - 1
	}
	if ix > len(s.t)-2 {
		ix = len(s.t) - 2
	}
	return ix, nil
}

// Attitude interpolates the true roll, pitch, yaw at time t, rad.
func (s *Situation) Attitude(t float64) (roll, pitch, yaw float64, err error) {
	ix, err := s.segment(t)
	if err != nil {
		return 0, 0, 0, err
	}
	f := (s.t[ix+1] - t) / (s.t[ix+1] - s.t[ix])
	roll = f*s.roll[ix] + (1-f)*s.roll[ix+1]
	pitch = f*s.pitch[ix] + (1-f)*s.pitch[ix+1]
	yaw = f*s.yaw[ix] + (1-f)*s.yaw[ix+1]
	return roll, pitch, yaw, nil
}

// eulerRates returns the segment slopes at time t, rad/s.
func (s *Situation) eulerRates(t float64) (dr, dp, dy float64, err error) {
	ix, err := s.segment(t)
	if err != nil {
		return 0, 0, 0, err
	}
	ddt := s.t[ix+1] - s.t[ix]
	return (s.roll[ix+1] - s.roll[ix]) / ddt,
		(s.pitch[ix+1] - s.pitch[ix]) / ddt,
		(s.yaw[ix+1] - s.yaw[ix]) / ddt, nil
}

// BodyRates returns the true body-frame angular rates at time t, rad/s,
// mapping the Euler-angle rates through the kinematic transform for the
// current attitude.
func (s *Situation) BodyRates(t float64) (ahrs.Vector3, error) {
	roll, pitch, _, err := s.Attitude(t)
	if err != nil {
		return ahrs.Vector3{}, err
	}
	dr, dp, dy, err := s.eulerRates(t)
	if err != nil {
		return ahrs.Vector3{}, err
	}

	sphi, cphi := math.Sin(roll), math.Cos(roll)
	stheta, ctheta := math.Sin(pitch), math.Cos(pitch)

	e := matrix.MakeDenseMatrix([]float64{
		1, 0, -stheta,
		0, cphi, sphi * ctheta,
		0, -sphi, cphi * ctheta,
	}, 3, 3)
	rates := matrix.Product(e, matrix.MakeDenseMatrix([]float64{dr, dp, dy}, 3, 1))

	return ahrs.Vector3{
		X: rates.Get(0, 0),
		Y: rates.Get(1, 0),
		Z: rates.Get(2, 0),
	}, nil
}

// Accel returns the true body-frame specific force at time t for a
// quasi-static vehicle: gravity rotated into the body frame. A level
// airframe reads (0, 0, +g).
func (s *Situation) Accel(t float64) (ahrs.Vector3, error) {
	roll, pitch, yaw, err := s.Attitude(t)
	if err != nil {
		return ahrs.Vector3{}, err
	}

	sphi, cphi := math.Sin(roll), math.Cos(roll)
	stheta, ctheta := math.Sin(pitch), math.Cos(pitch)
	spsi, cpsi := math.Sin(yaw), math.Cos(yaw)

	// Body-from-earth DCM as the product of the elementary rotations
	// Rx(roll)·Ry(pitch)·Rz(yaw).
	rx := matrix.MakeDenseMatrix([]float64{
		1, 0, 0,
		0, cphi, sphi,
		0, -sphi, cphi,
	}, 3, 3)
	ry := matrix.MakeDenseMatrix([]float64{
		ctheta, 0, -stheta,
		0, 1, 0,
		stheta, 0, ctheta,
	}, 3, 3)
	rz := matrix.MakeDenseMatrix([]float64{
		cpsi, spsi, 0,
		-spsi, cpsi, 0,
		0, 0, 1,
	}, 3, 3)
	gravity := matrix.MakeDenseMatrix([]float64{0, 0, calibration.Gravity}, 3, 1)
	a := matrix.Product(rx, matrix.Product(ry, matrix.Product(rz, gravity)))

	return ahrs.Vector3{
		X: a.Get(0, 0),
		Y: a.Get(1, 0),
		Z: a.Get(2, 0),
	}, nil
}

// noisy adds bias and Gaussian noise to a true sensor value.
func noisy(v, bias ahrs.Vector3, stdev float64) ahrs.Vector3 {
	return ahrs.Vector3{
		X: v.X + bias.X + stdev*rand.NormFloat64(),
		Y: v.Y + bias.Y + stdev*rand.NormFloat64(),
		Z: v.Z + bias.Z + stdev*rand.NormFloat64(),
	}
}
