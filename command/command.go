// Package command decodes ground-station command packets into typed
// events for the control loop, keeping raw byte layouts out of the
// core.
package command

// Type tags a command packet.
type Type byte

// Wire command types.
const (
	TypeArm             Type = 1
	TypeDisarm          Type = 2
	TypeSetMode         Type = 3
	TypeControlInput    Type = 4
	TypePositionTarget  Type = 5
	TypeVelocityCommand Type = 6
)

func (t Type) String() string {
	switch t {
	case TypeArm:
		return "arm"
	case TypeDisarm:
		return "disarm"
	case TypeSetMode:
		return "set-mode"
	case TypeControlInput:
		return "control-input"
	case TypePositionTarget:
		return "position-target"
	case TypeVelocityCommand:
		return "velocity-command"
	}
	return "unknown"
}

// ControlInput is the pilot stick demand: roll/pitch angles in radians,
// yaw rate in rad/s, throttle in [0, 1].
type ControlInput struct {
	Roll, Pitch, Yaw, Throttle float32
}

// PositionTarget is a position setpoint, meters. Consumed by guidance
// outside the stabilization core.
type PositionTarget struct {
	X, Y, Z float32
}

// VelocityCommand is a velocity setpoint plus yaw rate. Consumed by
// guidance outside the stabilization core.
type VelocityCommand struct {
	VX, VY, VZ, YawRate float32
}

// Command is the decoded tagged variant of one packet. At most one of
// the payload pointers is non-nil, matching Type; Mode is meaningful
// only for TypeSetMode.
type Command struct {
	Type     Type
	Control  *ControlInput
	Position *PositionTarget
	Velocity *VelocityCommand
	Mode     byte
}
