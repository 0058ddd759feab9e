package command

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Wire layout: byte 0 is the Type tag, followed by the payload for that
// type, little-endian float32s packed in field order. This matches the
// firmware's packed command struct byte for byte.

// Decode parses one command packet.
func Decode(buf []byte) (Command, error) {
	if len(buf) < 1 {
		return Command{}, errors.New("empty command packet")
	}
	cmd := Command{Type: Type(buf[0])}
	payload := buf[1:]

	switch cmd.Type {
	case TypeArm, TypeDisarm:
		// No payload.
	case TypeSetMode:
		if len(payload) < 1 {
			return Command{}, errors.New("set-mode packet too short")
		}
		cmd.Mode = payload[0]
	case TypeControlInput:
		if len(payload) < 16 {
			return Command{}, errors.New("control-input packet too short")
		}
		cmd.Control = &ControlInput{
			Roll:     float32At(payload, 0),
			Pitch:    float32At(payload, 4),
			Yaw:      float32At(payload, 8),
			Throttle: float32At(payload, 12),
		}
	case TypePositionTarget:
		if len(payload) < 12 {
			return Command{}, errors.New("position-target packet too short")
		}
		cmd.Position = &PositionTarget{
			X: float32At(payload, 0),
			Y: float32At(payload, 4),
			Z: float32At(payload, 8),
		}
	case TypeVelocityCommand:
		if len(payload) < 16 {
			return Command{}, errors.New("velocity-command packet too short")
		}
		cmd.Velocity = &VelocityCommand{
			VX:      float32At(payload, 0),
			VY:      float32At(payload, 4),
			VZ:      float32At(payload, 8),
			YawRate: float32At(payload, 12),
		}
	default:
		return Command{}, errors.Errorf("unknown command type %d", buf[0])
	}
	return cmd, nil
}

// Encode serializes cmd into the wire layout. Used by the simulator's
// ground station and by tests.
func Encode(cmd Command) []byte {
	buf := []byte{byte(cmd.Type)}
	switch cmd.Type {
	case TypeSetMode:
		buf = append(buf, cmd.Mode)
	case TypeControlInput:
		c := cmd.Control
		buf = appendFloat32(buf, c.Roll, c.Pitch, c.Yaw, c.Throttle)
	case TypePositionTarget:
		p := cmd.Position
		buf = appendFloat32(buf, p.X, p.Y, p.Z)
	case TypeVelocityCommand:
		v := cmd.Velocity
		buf = appendFloat32(buf, v.VX, v.VY, v.VZ, v.YawRate)
	}
	return buf
}

func float32At(b []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[i:]))
}

func appendFloat32(buf []byte, vals ...float32) []byte {
	for _, v := range vals {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
