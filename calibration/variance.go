package calibration

// NewVarianceAccumulator returns a closure that accumulates an
// exponentially weighted mean and variance with decay constant decay.
// The accumulator starts from an observation init and, on each call,
// returns the effective number of observations, the mean and the
// variance.
func NewVarianceAccumulator(init, decay float64) func(float64) (n, mean, variance float64) {
	var (
		nn float64 = 1
		m  float64 = init
		v  float64
	)

	return func(obs float64) (float64, float64, float64) {
		d := obs - m
		dm := (1 - decay) * d

		nn = 1 + decay*nn
		m += dm
		v = decay * (v + dm*d)
		return nn, m, v
	}
}
