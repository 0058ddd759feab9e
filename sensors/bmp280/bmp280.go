// Package bmp280 drives the Bosch BMP280 barometric pressure sensor
// over I2C and derives a pressure altitude for telemetry.
package bmp280

import (
	"math"
	"sync"
	"time"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"
	_ "github.com/kidoman/embd/host/rpi"
	"github.com/pkg/errors"
)

const (
	// Address is the BMP280 I2C address with SDO low; AddressAlt with
	// SDO high.
	Address    = 0x76
	AddressAlt = 0x77

	chipID    = 0x58
	softReset = 0xB6

	regCompData  = 0x88
	regChipID    = 0xD0
	regSoftReset = 0xE0
	regControl   = 0xF4
	regConfig    = 0xF5
	regPressMSB  = 0xF7

	// QNH is the sea-level reference pressure, hPa.
	QNH = 1013.25

	// control: temperature and pressure oversampling x4, normal mode
	ctrlValue = 3<<5 | 3<<2 | 3
	// config: 125 ms standby, IIR filter coefficient 4
	configValue = 2<<5 | 2<<2

	sampleInterval = 125 * time.Millisecond
)

// BMP280 owns the sensor. A background goroutine samples at the
// configured standby rate; Altitude, Pressure and Temperature return
// the latest compensated readings.
type BMP280 struct {
	bus  embd.I2CBus
	addr byte

	digT [4]int32 // compensation words, 1-indexed like the datasheet
	digP [10]int64
	tFine int32

	mu       sync.Mutex
	temp     float64 // °C
	press    float64 // hPa
	altitude float64 // m

	done chan struct{}
}

// New opens the sensor at addr (Address when 0), verifies the chip ID,
// loads the factory compensation words and starts sampling.
func New(addr byte) (*BMP280, error) {
	if addr == 0 {
		addr = Address
	}
	b := &BMP280{
		bus:  embd.NewI2CBus(1),
		addr: addr,
		done: make(chan struct{}),
	}

	id, err := b.bus.ReadByteFromReg(b.addr, regChipID)
	if err != nil {
		return nil, errors.Wrap(err, "bmp280: reading chip id")
	}
	if id != chipID {
		return nil, errors.Errorf("bmp280: unexpected chip id %#x", id)
	}

	if err := b.bus.WriteByteToReg(b.addr, regSoftReset, softReset); err != nil {
		return nil, errors.Wrap(err, "bmp280: reset")
	}
	time.Sleep(100 * time.Millisecond)

	if err := b.readCompensation(); err != nil {
		return nil, err
	}
	if err := b.bus.WriteByteToReg(b.addr, regControl, ctrlValue); err != nil {
		return nil, errors.Wrap(err, "bmp280: control")
	}
	if err := b.bus.WriteByteToReg(b.addr, regConfig, configValue); err != nil {
		return nil, errors.Wrap(err, "bmp280: config")
	}

	go b.readLoop()
	return b, nil
}

// Altitude returns the latest pressure altitude above the QNH
// reference, meters.
func (b *BMP280) Altitude() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.altitude
}

// Pressure returns the latest compensated pressure, hPa.
func (b *BMP280) Pressure() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.press
}

// Temperature returns the latest compensated temperature, °C.
func (b *BMP280) Temperature() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.temp
}

// Close stops the sample loop.
func (b *BMP280) Close() {
	close(b.done)
}

func (b *BMP280) readCompensation() error {
	raw := make([]byte, 24)
	if err := b.bus.ReadFromReg(b.addr, regCompData, raw); err != nil {
		return errors.Wrap(err, "bmp280: reading compensation data")
	}

	b.digT[1] = int32(uint16(raw[1])<<8 | uint16(raw[0]))
	for i := 2; i <= 3; i++ {
		b.digT[i] = int32(int16(raw[2*i-1])<<8 | int16(raw[2*i-2]))
	}
	b.digP[1] = int64(uint16(raw[7])<<8 | uint16(raw[6]))
	for i := 2; i <= 9; i++ {
		b.digP[i] = int64(int16(raw[2*i+5])<<8 | int16(raw[2*i+4]))
	}
	return nil
}

func (b *BMP280) readLoop() {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	raw := make([]byte, 6)
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			if err := b.bus.ReadFromReg(b.addr, regPressMSB, raw); err != nil {
				continue
			}
			// 20-bit values: msb<<12 | lsb<<4 | xlsb>>4
			rawPress := int64(raw[0])<<12 | int64(raw[1])<<4 | int64(raw[2])>>4
			rawTemp := int32(raw[3])<<12 | int32(raw[4])<<4 | int32(raw[5])>>4

			temp := b.compensateTemp(rawTemp)
			press := b.compensatePress(rawPress)

			b.mu.Lock()
			b.temp = temp
			b.press = press
			b.altitude = AltitudeFor(press)
			b.mu.Unlock()
		}
	}
}

// compensateTemp applies the datasheet's integer temperature
// compensation and latches tFine for the pressure computation.
func (b *BMP280) compensateTemp(raw int32) float64 {
	v1 := (((raw >> 3) - (b.digT[1] << 1)) * b.digT[2]) >> 11
	v2 := (((((raw >> 4) - b.digT[1]) * ((raw >> 4) - b.digT[1])) >> 12) * b.digT[3]) >> 14
	b.tFine = v1 + v2
	return float64((b.tFine*5+128)>>8) / 100
}

// compensatePress applies the datasheet's 64-bit integer pressure
// compensation, returning hPa.
func (b *BMP280) compensatePress(raw int64) float64 {
	v1 := int64(b.tFine) - 128000
	v2 := v1 * v1 * b.digP[6]
	v2 += (v1 * b.digP[5]) << 17
	v2 += b.digP[4] << 35
	v1 = ((v1 * v1 * b.digP[3]) >> 8) + ((v1 * b.digP[2]) << 12)
	v1 = ((int64(1) << 47) + v1) * b.digP[1] >> 33
	if v1 == 0 {
		return 0
	}
	p := int64(1048576) - raw
	p = (((p << 31) - v2) * 3125) / v1
	v1 = (b.digP[9] * (p >> 13) * (p >> 13)) >> 25
	v2 = (b.digP[8] * p) >> 19
	p = ((p + v1 + v2) >> 8) + (b.digP[7] << 4)
	return float64(p) / 25600
}

// AltitudeFor converts a pressure in hPa to the standard-atmosphere
// altitude above the QNH reference, meters.
func AltitudeFor(press float64) float64 {
	return 44330.77 * (1 - math.Pow(press/QNH, 0.190263))
}
