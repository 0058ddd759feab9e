// Package sensors defines the contracts between the flight-control core
// and the IMU drivers that feed it.
package sensors

import (
	"time"

	"github.com/tradewithmeai/quadfc/ahrs"
)

// IMUSample is one raw gyro/accelerometer reading. Values are in SI
// units but are NOT bias-corrected; the calibrator's bias estimate is
// applied downstream.
type IMUSample struct {
	Gyro  ahrs.Vector3  // rad/s
	Accel ahrs.Vector3  // m/s²
	T     time.Time     // when the sample was read
	DT    time.Duration // time since the previous sample
}

// IMUSource delivers samples to the control loop, one synchronous call
// per tick. Read blocks until the next sample is available and returns
// an error only when the source is closed or the bus fails.
type IMUSource interface {
	Read() (IMUSample, error)
}

// SourceFunc adapts a plain function to an IMUSource.
type SourceFunc func() (IMUSample, error)

// Read implements IMUSource.
func (f SourceFunc) Read() (IMUSample, error) { return f() }
