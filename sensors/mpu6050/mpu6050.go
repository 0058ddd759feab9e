// Package mpu6050 drives the InvenSense MPU-6050 gyro/accelerometer
// over I2C and delivers samples on a channel at a fixed rate.
package mpu6050

import (
	"log"
	"math"
	"time"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"
	_ "github.com/kidoman/embd/host/rpi"
	"github.com/pkg/errors"

	"github.com/tradewithmeai/quadfc/ahrs"
	"github.com/tradewithmeai/quadfc/sensors"
)

const (
	Address = 0x68

	regPwrMgmt1    = 0x6B
	regGyroConfig  = 0x1B
	regAccelConfig = 0x1C
	regAccelXOutH  = 0x3B
	regAccelYOutH  = 0x3D
	regAccelZOutH  = 0x3F
	regTempOutH    = 0x41
	regGyroXOutH   = 0x43
	regGyroYOutH   = 0x45
	regGyroZOutH   = 0x47
	regWhoAmI      = 0x75

	// Sensitivity at the ±2g / ±250°/s ranges the device is configured
	// for, converted to SI.
	accelScale = 9.81 / 16384.0
	gyroScale  = (math.Pi / 180) / 131.0

	bufSize = 250
)

// MPU6050 owns the I2C bus handle and a read goroutine. C carries the
// stream of samples; a slow consumer drops the oldest sample rather
// than stalling the bus loop.
type MPU6050 struct {
	C <-chan sensors.IMUSample

	i2cbus     embd.I2CBus
	sampleRate int
	c          chan sensors.IMUSample
	cClose     chan struct{}
}

// New wakes the device, configures the ±250°/s and ±2g ranges and
// starts the read loop at sampleRate Hz.
func New(sampleRate int) (*MPU6050, error) {
	m := &MPU6050{sampleRate: sampleRate}
	m.i2cbus = embd.NewI2CBus(1)

	// Wake from sleep; the register defaults select the internal clock.
	if err := m.i2cWrite(regPwrMgmt1, 0x00); err != nil {
		return nil, errors.Wrap(err, "waking MPU6050")
	}
	time.Sleep(100 * time.Millisecond)

	if err := m.i2cWrite(regGyroConfig, 0x00); err != nil {
		return nil, errors.Wrap(err, "setting gyro range")
	}
	if err := m.i2cWrite(regAccelConfig, 0x00); err != nil {
		return nil, errors.Wrap(err, "setting accel range")
	}

	whoAmI, err := m.i2cbus.ReadByteFromReg(Address, regWhoAmI)
	if err != nil {
		return nil, errors.Wrap(err, "reading WHO_AM_I")
	}
	if whoAmI != 0x68 && whoAmI != 0x98 {
		return nil, errors.Errorf("MPU6050 not found: WHO_AM_I %#x", whoAmI)
	}

	m.c = make(chan sensors.IMUSample, bufSize)
	m.C = m.c
	m.cClose = make(chan struct{})
	go m.readLoop()

	log.Printf("MPU6050: initialized at %d Hz", sampleRate)
	return m, nil
}

func (m *MPU6050) readLoop() {
	defer close(m.c)

	clock := time.NewTicker(time.Duration(int(1000.0/float32(m.sampleRate)+0.5)) * time.Millisecond)
	defer clock.Stop()

	var (
		g1, g2, g3, a1, a2, a3 int16
		err                    error
		last                   time.Time
	)

	regMap := map[*int16]byte{
		&g1: regGyroXOutH, &g2: regGyroYOutH, &g3: regGyroZOutH,
		&a1: regAccelXOutH, &a2: regAccelYOutH, &a3: regAccelZOutH,
	}

	for {
		select {
		case t := <-clock.C:
			for p, reg := range regMap {
				*p, err = m.i2cRead2(reg)
				if err != nil {
					log.Println("MPU6050 Warning: error reading gyro/accel:", err)
				}
			}
			s := sensors.IMUSample{
				Gyro:  ahrs.Vector3{X: float64(g1) * gyroScale, Y: float64(g2) * gyroScale, Z: float64(g3) * gyroScale},
				Accel: ahrs.Vector3{X: float64(a1) * accelScale, Y: float64(a2) * accelScale, Z: float64(a3) * accelScale},
				T:     t,
			}
			if !last.IsZero() {
				s.DT = t.Sub(last)
			}
			last = t
			// Drop the oldest sample on a full channel. Both steps stay
			// non-blocking; Read may drain the channel concurrently.
			select {
			case m.c <- s:
			default:
				select {
				case <-m.c:
				default:
				}
				select {
				case m.c <- s:
				default:
				}
			}
		case <-m.cClose:
			return
		}
	}
}

// Read implements sensors.IMUSource.
func (m *MPU6050) Read() (sensors.IMUSample, error) {
	s, ok := <-m.C
	if !ok {
		return sensors.IMUSample{}, errors.New("MPU6050: closed")
	}
	return s, nil
}

// Temperature reads the die temperature, °C.
func (m *MPU6050) Temperature() (float64, error) {
	t, err := m.i2cRead2(regTempOutH)
	if err != nil {
		return 0, err
	}
	return float64(t)/340.0 + 36.53, nil
}

// Close stops the read loop and releases the bus.
func (m *MPU6050) Close() {
	close(m.cClose)
}

func (m *MPU6050) i2cWrite(register, value byte) error {
	if err := m.i2cbus.WriteByteToReg(Address, register, value); err != nil {
		return errors.Wrapf(err, "MPU6050 writing %#x to %#x", value, register)
	}
	time.Sleep(time.Millisecond)
	return nil
}

func (m *MPU6050) i2cRead2(register byte) (int16, error) {
	v, err := m.i2cbus.ReadWordFromReg(Address, register)
	if err != nil {
		return 0, errors.Wrapf(err, "MPU6050 reading %#x", register)
	}
	return int16(v), nil
}
