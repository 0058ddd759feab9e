// Package battery samples the flight pack voltage from an ADC pin
// behind a resistor divider, for telemetry.
package battery

import (
	"log"
	"sync"
	"time"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"
	"github.com/pkg/errors"
)

// DefaultScale converts a raw reading to volts for a 12-bit ADC with a
// 3.3 V reference behind a 2:1 divider.
const DefaultScale = 2 * 3.3 / 4095

const sampleInterval = time.Second

// Monitor owns the ADC pin. A background goroutine refreshes the
// reading once per second; Volts returns the latest value.
type Monitor struct {
	pin   embd.AnalogPin
	scale float64

	mu    sync.Mutex
	volts float64

	done chan struct{}
}

// New opens ADC pin n and takes a first reading. scale converts raw
// counts to volts; pass 0 for DefaultScale.
func New(n int, scale float64) (*Monitor, error) {
	if scale <= 0 {
		scale = DefaultScale
	}
	pin, err := embd.NewAnalogPin(n)
	if err != nil {
		return nil, errors.Wrapf(err, "battery: opening ADC pin %d", n)
	}
	m := &Monitor{pin: pin, scale: scale, done: make(chan struct{})}
	if err := m.sample(); err != nil {
		pin.Close()
		return nil, err
	}
	go m.loop()
	return m, nil
}

// Volts returns the latest pack voltage.
func (m *Monitor) Volts() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volts
}

// Close stops the sampler and releases the pin.
func (m *Monitor) Close() error {
	close(m.done)
	return m.pin.Close()
}

func (m *Monitor) sample() error {
	raw, err := m.pin.Read()
	if err != nil {
		return errors.Wrap(err, "battery: reading ADC")
	}
	m.mu.Lock()
	m.volts = Volts(raw, m.scale)
	m.mu.Unlock()
	return nil
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			if err := m.sample(); err != nil {
				log.Println("battery: sample failed:", err)
			}
		}
	}
}

// Volts converts a raw ADC count to pack volts with the given scale.
func Volts(raw int, scale float64) float64 {
	return float64(raw) * scale
}
