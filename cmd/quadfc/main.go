// quadfc runs the flight-control loop on real hardware: MPU6050 over
// I2C in, UDP commands in, four ESC throttle fractions out, telemetry
// over UDP and websocket.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradewithmeai/quadfc/calibration"
	"github.com/tradewithmeai/quadfc/command"
	"github.com/tradewithmeai/quadfc/config"
	"github.com/tradewithmeai/quadfc/control"
	"github.com/tradewithmeai/quadfc/fc"
	"github.com/tradewithmeai/quadfc/sensors/battery"
	"github.com/tradewithmeai/quadfc/sensors/bmp280"
	"github.com/tradewithmeai/quadfc/sensors/mpu6050"
	"github.com/tradewithmeai/quadfc/telemetry"
)

// telemetryInterval throttles how often snapshots leave the aircraft.
const telemetryInterval = 50 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "path to tuning YAML (defaults used if empty)")
	calSamples := flag.Int("cal-samples", 0, "override calibration sample count")
	verbose := flag.Bool("v", false, "log motor outputs")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalln("quadfc:", err)
		}
	}
	if *calSamples > 0 {
		cfg.Calibration.Samples = *calSamples
	}

	imu, err := mpu6050.New(cfg.Loop.RateHz)
	if err != nil {
		log.Fatalln("quadfc: IMU init:", err)
	}
	defer imu.Close()

	// Barometer feeds the telemetry altitude; the loop flies without it.
	baro, err := bmp280.New(0)
	if err != nil {
		log.Println("quadfc: no barometer:", err)
		baro = nil
	} else {
		defer baro.Close()
	}

	// Battery monitor is optional the same way; enabled by a non-negative
	// ADC pin in the config.
	var batt *battery.Monitor
	if cfg.Battery.Pin >= 0 {
		batt, err = battery.New(cfg.Battery.Pin, cfg.Battery.Scale)
		if err != nil {
			log.Println("quadfc: no battery monitor:", err)
			batt = nil
		} else {
			defer batt.Close()
		}
	}

	log.Println("quadfc: calibrating - keep the airframe still and level")
	bias, err := calibration.Run(imu, cfg.Calibration.Samples)
	if err != nil {
		log.Fatalln("quadfc: calibration:", err)
	}

	loop := fc.NewLoop(fc.Config{
		Cascade: cfg.Cascade(),
		Alpha:   cfg.Filter.Alpha,
		MaxTilt: cfg.Limits.MaxTilt,
	}, escActuator(*verbose))
	loop.SetBias(bias)

	rx, err := command.Listen(cfg.Ports.Command)
	if err != nil {
		log.Fatalln("quadfc:", err)
	}
	defer rx.Close()
	go func() {
		for cmd := range rx.C {
			loop.Commands() <- cmd
		}
	}()

	room := telemetry.NewRoom()
	go room.Run()
	http.Handle("/telemetry", room)
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Ports.Web), nil); err != nil {
			log.Println("quadfc: telemetry web server:", err)
		}
	}()

	udp, err := telemetry.NewUDPSender(cfg.Ports.Telemetry)
	if err != nil {
		log.Println("quadfc: telemetry UDP disabled:", err)
	}
	go func() {
		ticker := time.NewTicker(telemetryInterval)
		defer ticker.Stop()
		for range ticker.C {
			select {
			case rec := <-loop.Snapshots():
				room.Broadcast(rec)
				if udp != nil {
					udp.Send(rec)
				}
			default:
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Println("quadfc: entering control loop")
	nominalDT := 1 / float64(cfg.Loop.RateHz)
	for {
		select {
		case <-sigCh:
			log.Println("quadfc: shutting down")
			return
		default:
		}

		sample, err := imu.Read()
		if err != nil {
			log.Fatalln("quadfc: IMU read:", err)
		}
		dt := sample.DT.Seconds()
		if dt <= 0 {
			dt = nominalDT
		}
		var altitude, volts float64
		if baro != nil {
			altitude = baro.Altitude()
		}
		if batt != nil {
			volts = batt.Volts()
		}
		if baro != nil || batt != nil {
			loop.SetEnvironment(altitude, volts)
		}
		loop.Tick(sample, dt)
	}
}

// escActuator converts throttle fractions to the 1000-2000 µs pulse
// widths standard ESCs expect. The PWM hardware layer consumes these
// outside the core; with -v the pulses are logged instead.
func escActuator(verbose bool) fc.ActuatorFunc {
	return func(m control.MotorCommand) error {
		var pulses [4]uint32
		for i, throttle := range m {
			pulses[i] = uint32(control.MapRange(throttle, 0, 1, 1000, 2000))
		}
		if verbose {
			log.Printf("motors: FL=%d FR=%d BR=%d BL=%d µs",
				pulses[0], pulses[1], pulses[2], pulses[3])
		}
		return nil
	}
}
