package ahrs

import (
	"fmt"
	"math"
	"testing"

	"github.com/westphae/quaternion"
)

const Tolerance = 1e-4

func big(x float64) bool {
	return math.Abs(x) > Tolerance
}

func TestEulerRoundTrips(t *testing.T) {
	rolls := []float64{0, 0.1, 0.5, 1, 1.5, -1.5, -0.5, -0.1, 3, -3, 0.2, -0.2}
	pitches := []float64{0, 0.1, 0.5, 1, 1.5, -1.5, -0.5, -0.1, 0.2, -0.2, 1.2, -1.2}
	yaws := []float64{0, 0.5, 1, 2, 3, -3, -2, -1, 0.1, -0.1, 2.5, -2.5}

	for i := 0; i < len(rolls); i++ {
		q := FromEuler(rolls[i], pitches[i], yaws[i])
		r, p, y := q.ToEuler()
		if big(r-rolls[i]) || big(p-pitches[i]) || big(y-yaws[i]) {
			fmt.Printf("in  %1.4f %1.4f %1.4f\nout %1.4f %1.4f %1.4f\n",
				rolls[i], pitches[i], yaws[i], r, p, y)
			t.Fail()
		}
	}
}

// FromEuler must equal the composition qz(yaw)*qy(pitch)*qx(roll),
// computed with the reference quaternion library.
func TestAgainstReferenceLibrary(t *testing.T) {
	rolls := []float64{0, 0.3, -0.7, 1.2, -1.4, 0.05}
	pitches := []float64{0, -0.4, 0.9, -1.1, 0.6, -0.05}
	yaws := []float64{0, 1.1, -2.2, 0.4, -0.8, 3.0}

	for i := 0; i < len(rolls); i++ {
		q := FromEuler(rolls[i], pitches[i], yaws[i])

		qx := quaternion.Quaternion{W: math.Cos(rolls[i] / 2), X: math.Sin(rolls[i] / 2)}
		qy := quaternion.Quaternion{W: math.Cos(pitches[i] / 2), Y: math.Sin(pitches[i] / 2)}
		qz := quaternion.Quaternion{W: math.Cos(yaws[i] / 2), Z: math.Sin(yaws[i] / 2)}
		ref := quaternion.Prod(qz, qy, qx)

		if big(q.W-ref.W) || big(q.X-ref.X) || big(q.Y-ref.Y) || big(q.Z-ref.Z) {
			fmt.Printf("case %d: got %v, reference %v\n", i, q, ref)
			t.Fail()
		}
	}
}

func TestMulMatchesReference(t *testing.T) {
	a := FromEuler(0.2, -0.3, 1.1)
	b := FromEuler(-0.5, 0.1, 0.4)
	got := a.Mul(b)

	ra := quaternion.Quaternion{W: a.W, X: a.X, Y: a.Y, Z: a.Z}
	rb := quaternion.Quaternion{W: b.W, X: b.X, Y: b.Y, Z: b.Z}
	want := quaternion.Prod(ra, rb)

	if big(got.W-want.W) || big(got.X-want.X) || big(got.Y-want.Y) || big(got.Z-want.Z) {
		t.Errorf("product %v, reference %v", got, want)
	}
}

func TestNormalize(t *testing.T) {
	q := Quaternion{W: 2, X: 0, Y: 0, Z: 0}.Normalize()
	if big(q.W - 1) {
		t.Errorf("normalized W = %f, expected 1", q.W)
	}

	q = Quaternion{W: 1, X: 1, Y: 1, Z: 1}.Normalize()
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if big(n - 1) {
		t.Errorf("norm after Normalize = %f", n)
	}
}

// A degenerate quaternion passes through Normalize untouched rather
// than dividing by (near) zero.
func TestNormalizeDegenerate(t *testing.T) {
	q := Quaternion{W: 1e-6, X: 0, Y: 0, Z: 0}
	out := q.Normalize()
	if out != q {
		t.Errorf("degenerate quaternion was altered: %v", out)
	}
}

// Gimbal lock: |sin(pitch)| >= 1 must clamp, not NaN.
func TestPitchClamp(t *testing.T) {
	q := FromEuler(0, Pi/2, 0)
	_, p, _ := q.ToEuler()
	if math.IsNaN(p) {
		t.Fatal("pitch is NaN at gimbal lock")
	}
	if big(p - Pi/2) {
		t.Errorf("pitch at gimbal lock = %f, expected %f", p, Pi/2)
	}
}

func TestConjugateUndoesRotation(t *testing.T) {
	q := FromEuler(0.4, -0.2, 0.9)
	id := q.Mul(q.Conjugate())
	if big(id.W-1) || big(id.X) || big(id.Y) || big(id.Z) {
		t.Errorf("q * conj(q) = %v, expected identity", id)
	}
}

func TestVector3(t *testing.T) {
	v := Vector3{X: 1, Y: 2, Z: 3}
	w := Vector3{X: -1, Y: 0.5, Z: 2}

	s := v.Add(w)
	if big(s.X) || big(s.Y-2.5) || big(s.Z-5) {
		t.Errorf("Add: %v", s)
	}
	d := v.Sub(w)
	if big(d.X-2) || big(d.Y-1.5) || big(d.Z-1) {
		t.Errorf("Sub: %v", d)
	}
	if big(v.Scaled(2).Z - 6) {
		t.Errorf("Scaled: %v", v.Scaled(2))
	}
	if big(Vector3{X: 3, Y: 4}.Mag() - 5) {
		t.Errorf("Mag: %f", Vector3{X: 3, Y: 4}.Mag())
	}
}
