// Package calibration estimates the at-rest gyro and accelerometer
// zero-offset biases consumed by the estimator and the control loop.
package calibration

import (
	"log"

	"github.com/pkg/errors"

	"github.com/tradewithmeai/quadfc/ahrs"
	"github.com/tradewithmeai/quadfc/sensors"
)

const (
	// Gravity is the local gravitational acceleration, m/s².
	Gravity = 9.81

	// DefaultSamples is the number of rest samples averaged per pass.
	DefaultSamples = 1000

	// calDecay weights the variance accumulators used for quality
	// reporting.
	calDecay = 1 - 1.0/50
)

// Bias holds the zero-offset estimates from one calibration pass. It is
// created once per power-on (or explicit recalibration) and read-only
// afterward; every subsequent raw sample is corrected against it.
type Bias struct {
	Gyro  ahrs.Vector3 // rad/s
	Accel ahrs.Vector3 // m/s²; Z has local gravity removed
}

// Correct returns the sample with the bias subtracted.
func (b Bias) Correct(s sensors.IMUSample) sensors.IMUSample {
	s.Gyro = s.Gyro.Sub(b.Gyro)
	s.Accel = s.Accel.Sub(b.Accel)
	return s
}

// Run blocks while it averages n raw samples (DefaultSamples when n <= 0)
// from src. The gyro bias is the mean raw gyro; the accelerometer bias
// is the mean raw accel with the z axis reduced by gravity, so a
// stationary, level airframe reads zero after correction. The airframe
// must be stationary and level for the whole pass; no motion detection
// is performed, only per-axis variances logged as quality information.
// Never run while armed.
func Run(src sensors.IMUSource, n int) (Bias, error) {
	if n <= 0 {
		n = DefaultSamples
	}

	var accums [6]func(float64) (float64, float64, float64)
	for i := range accums {
		accums[i] = NewVarianceAccumulator(0, calDecay)
	}

	var gyroSum, accelSum ahrs.Vector3
	var vg, va [3]float64
	for i := 0; i < n; i++ {
		s, err := src.Read()
		if err != nil {
			return Bias{}, errors.Wrap(err, "calibration read")
		}
		gyroSum = gyroSum.Add(s.Gyro)
		accelSum = accelSum.Add(s.Accel)

		_, _, vg[0] = accums[0](s.Gyro.X)
		_, _, vg[1] = accums[1](s.Gyro.Y)
		_, _, vg[2] = accums[2](s.Gyro.Z)
		_, _, va[0] = accums[3](s.Accel.X)
		_, _, va[1] = accums[4](s.Accel.Y)
		_, _, va[2] = accums[5](s.Accel.Z)
	}

	b := Bias{
		Gyro:  gyroSum.Scaled(1 / float64(n)),
		Accel: accelSum.Scaled(1 / float64(n)),
	}
	b.Accel.Z -= Gravity

	log.Printf("calibration: %d samples collected", n)
	log.Printf("calibration: gyro bias  %.5f %.5f %.5f rad/s, variance %f %f %f",
		b.Gyro.X, b.Gyro.Y, b.Gyro.Z, vg[0], vg[1], vg[2])
	log.Printf("calibration: accel bias %.5f %.5f %.5f m/s², variance %f %f %f",
		b.Accel.X, b.Accel.Y, b.Accel.Z, va[0], va[1], va[2])

	return b, nil
}
