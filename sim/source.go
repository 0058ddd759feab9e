package sim

import (
	"errors"
	"time"

	"github.com/tradewithmeai/quadfc/sensors"
)

// Source adapts a Situation to the sensors.IMUSource contract, stepping
// simulated time by dt on every Read. Reads past the end of the
// scenario return an error, which closes out the control loop cleanly.
type Source struct {
	sit *Situation
	t   float64
	dt  float64
}

// NewSource starts a source at the scenario's begin time with a fixed
// sample interval dt, seconds.
func NewSource(sit *Situation, dt float64) *Source {
	return &Source{sit: sit, t: sit.BeginTime(), dt: dt}
}

// T returns the current simulated time, s.
func (s *Source) T() float64 { return s.t }

// Read implements sensors.IMUSource.
func (s *Source) Read() (sensors.IMUSample, error) {
	if s.t > s.sit.EndTime() {
		return sensors.IMUSample{}, errors.New("sim: scenario complete")
	}
	gyro, err := s.sit.BodyRates(s.t)
	if err != nil {
		return sensors.IMUSample{}, err
	}
	accel, err := s.sit.Accel(s.t)
	if err != nil {
		return sensors.IMUSample{}, err
	}
	sample := sensors.IMUSample{
		Gyro:  noisy(gyro, s.sit.GyroBias, s.sit.GyroNoise),
		Accel: noisy(accel, s.sit.AccelBias, s.sit.AccelNoise),
		T:     time.Unix(0, int64(s.t*1e9)),
		DT:    time.Duration(s.dt * 1e9),
	}
	s.t += s.dt
	return sample, nil
}
