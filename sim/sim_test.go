package sim

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/tradewithmeai/quadfc/ahrs"
)

const tolerance = 1e-4

func level(duration float64) *Situation {
	s, err := NewSituation(
		[]float64{0, duration},
		[]float64{0, 0}, []float64{0, 0}, []float64{0, 0},
	)
	if err != nil {
		panic(err)
	}
	return s
}

// A level, motionless scenario synthesizes zero rates and pure gravity.
func TestLevelRest(t *testing.T) {
	src := NewSource(level(10), 0.01)
	for i := 0; i < 100; i++ {
		s, err := src.Read()
		if err != nil {
			t.Fatal(err)
		}
		if s.Gyro.Mag() > tolerance {
			t.Fatalf("gyro at rest: %v", s.Gyro)
		}
		if math.Abs(s.Accel.Z-9.81) > tolerance || math.Abs(s.Accel.X) > tolerance || math.Abs(s.Accel.Y) > tolerance {
			t.Fatalf("accel at rest: %v", s.Accel)
		}
	}
}

func TestAttitudeInterpolation(t *testing.T) {
	s, err := NewSituation(
		[]float64{0, 2, 4},
		[]float64{0, 0.4, 0},
		[]float64{0, 0, 0.2},
		[]float64{0, 0, 0},
	)
	if err != nil {
		t.Fatal(err)
	}

	roll, _, _, err := s.Attitude(1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(roll-0.2) > tolerance {
		t.Errorf("roll at t=1: %f, want 0.2", roll)
	}

	_, pitch, _, err := s.Attitude(3)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pitch-0.1) > tolerance {
		t.Errorf("pitch at t=3: %f, want 0.1", pitch)
	}

	if _, _, _, err = s.Attitude(5); err == nil {
		t.Error("expected an error outside the scenario")
	}
}

// A pure roll ramp produces a body x rate equal to the euler roll rate.
func TestBodyRatesRollRamp(t *testing.T) {
	s, err := NewSituation(
		[]float64{0, 2},
		[]float64{0, 0.4}, []float64{0, 0}, []float64{0, 0},
	)
	if err != nil {
		t.Fatal(err)
	}
	g, err := s.BodyRates(1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(g.X-0.2) > tolerance || math.Abs(g.Y) > tolerance || math.Abs(g.Z) > tolerance {
		t.Errorf("body rates: %v, want (0.2, 0, 0)", g)
	}
}

// Gravity as measured through a rolled attitude matches the tilt
// formulas the estimator inverts.
func TestAccelMatchesTilt(t *testing.T) {
	s, err := NewSituation(
		[]float64{0, 2},
		[]float64{0.3, 0.3}, []float64{0, 0}, []float64{0, 0},
	)
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.Accel(1)
	if err != nil {
		t.Fatal(err)
	}
	roll := math.Atan2(a.Y, a.Z)
	if math.Abs(roll-0.3) > tolerance {
		t.Errorf("recovered roll %f, want 0.3", roll)
	}
	if math.Abs(a.Mag()-9.81) > tolerance {
		t.Errorf("accel magnitude %f", a.Mag())
	}
}

// The estimator fed synthesized data tracks a slow rotation.
func TestEstimatorTracksScenario(t *testing.T) {
	s, err := NewSituation(
		[]float64{0, 2, 4, 6},
		[]float64{0, 0.2, -0.2, 0},
		[]float64{0, 0, 0.15, 0},
		[]float64{0, 0, 0, 0},
	)
	if err != nil {
		t.Fatal(err)
	}

	const dt = 0.01
	src := NewSource(s, dt)
	f := ahrs.NewComplementaryFilter(0)
	for {
		tt := src.T()
		sample, err := src.Read()
		if err != nil {
			break
		}
		f.Update(sample.Gyro, sample.Accel, dt)

		trueRoll, truePitch, _, err := s.Attitude(tt)
		if err != nil {
			break
		}
		r, p, _ := f.RollPitchYaw()
		if math.Abs(r-trueRoll) > 0.05 || math.Abs(p-truePitch) > 0.05 {
			t.Fatalf("t=%.2f: estimate (%.3f, %.3f), truth (%.3f, %.3f)",
				tt, r, p, trueRoll, truePitch)
		}
	}
}

// Noise and bias are applied to the synthesized samples.
func TestNoisyBiasedSource(t *testing.T) {
	s := level(100)
	s.GyroBias = ahrs.Vector3{X: 0.5}
	src := NewSource(s, 0.01)

	var sum float64
	const n = 1000
	for i := 0; i < n; i++ {
		sample, err := src.Read()
		if err != nil {
			t.Fatal(err)
		}
		sum += sample.Gyro.X
	}
	if math.Abs(sum/n-0.5) > tolerance {
		t.Errorf("mean biased gyro x: %f, want 0.5", sum/n)
	}
}

func TestFlightLogger(t *testing.T) {
	path := t.TempDir() + "/log.csv"
	var a, b float64
	l := NewFlightLogger(path, map[string]*float64{"a": &a, "b": &b})
	a, b = 1, 2
	l.Log()
	a, b = 3, 4
	l.Log()
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("log has %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[0], "a") || !strings.Contains(lines[0], "b") {
		t.Errorf("header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "1.0") && !strings.Contains(lines[1], "2.0") {
		t.Errorf("first row: %q", lines[1])
	}
}
