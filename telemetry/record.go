// Package telemetry publishes the per-tick flight state snapshot over
// websocket (JSON) and UDP (the firmware's packed binary layout).
package telemetry

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Record is the fixed per-tick snapshot the core exposes. It is an
// immutable value copy, safe to hand across goroutines; the transports
// serialize and transmit it at their own cadence.
type Record struct {
	Timestamp uint32  `json:"timestamp"` // ms since loop start
	Roll      float64 `json:"roll"`      // rad
	Pitch     float64 `json:"pitch"`     // rad
	Yaw       float64 `json:"yaw"`       // rad
	Altitude  float64 `json:"altitude"`  // m
	Battery   float64 `json:"battery"`   // V
	Armed     bool    `json:"armed"`
	Mode      byte    `json:"mode"`
}

// packetSize is the wire size of a packed Record: uint32 + 5 float32 +
// 2 bytes.
const packetSize = 4 + 5*4 + 2

// Marshal packs r into the little-endian UDP telemetry layout.
func (r Record) Marshal() []byte {
	buf := make([]byte, 0, packetSize)
	buf = binary.LittleEndian.AppendUint32(buf, r.Timestamp)
	for _, v := range []float64{r.Roll, r.Pitch, r.Yaw, r.Altitude, r.Battery} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v)))
	}
	armed := byte(0)
	if r.Armed {
		armed = 1
	}
	return append(buf, armed, r.Mode)
}

// Unmarshal parses a packed telemetry packet. Used by ground-station
// tooling and tests.
func Unmarshal(buf []byte) (Record, error) {
	if len(buf) < packetSize {
		return Record{}, errors.Errorf("telemetry packet too short: %d bytes", len(buf))
	}
	f := func(i int) float64 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[i:])))
	}
	return Record{
		Timestamp: binary.LittleEndian.Uint32(buf),
		Roll:      f(4),
		Pitch:     f(8),
		Yaw:       f(12),
		Altitude:  f(16),
		Battery:   f(20),
		Armed:     buf[24] == 1,
		Mode:      buf[25],
	}, nil
}
