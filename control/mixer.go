package control

// Motor positions in a MotorCommand, quad-X frame viewed from above.
const (
	MotorFrontLeft = iota
	MotorFrontRight
	MotorBackRight
	MotorBackLeft
)

// MotorCommand holds the four motor throttle fractions in [0, 1],
// indexed by the Motor* constants. All four are produced in one mixing
// pass; a command is never partially updated.
type MotorCommand [4]float64

// Mix maps collective thrust and the three body-axis torque demands
// onto the four motors of a quad-X frame. Each motor's share is
// thrust ± roll ± pitch ± yaw with the sign pattern fixed by its
// diagonal position and rotation direction. Every output is clamped to
// [0, 1] independently; no renormalization across motors is performed,
// so a saturated motor simply loses authority on that tick.
func Mix(thrust, rollTorque, pitchTorque, yawTorque float64) MotorCommand {
	m := MotorCommand{
		thrust + rollTorque + pitchTorque + yawTorque, // front-left, CW
		thrust - rollTorque + pitchTorque - yawTorque, // front-right, CCW
		thrust - rollTorque - pitchTorque + yawTorque, // back-right, CW
		thrust + rollTorque - pitchTorque - yawTorque, // back-left, CCW
	}
	for i := range m {
		m[i] = Constrain(m[i], 0, 1)
	}
	return m
}
