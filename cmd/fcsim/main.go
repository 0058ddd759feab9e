// fcsim flies the full control loop against a scripted attitude
// scenario: calibrate at rest, arm, hold a hover setpoint while the
// scenario rocks the airframe, and log estimate vs truth plus motor
// outputs to CSV for fcplot.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tradewithmeai/quadfc/ahrs"
	"github.com/tradewithmeai/quadfc/calibration"
	"github.com/tradewithmeai/quadfc/command"
	"github.com/tradewithmeai/quadfc/config"
	"github.com/tradewithmeai/quadfc/control"
	"github.com/tradewithmeai/quadfc/fc"
	"github.com/tradewithmeai/quadfc/sim"
	"github.com/tradewithmeai/quadfc/telemetry"
)

func main() {
	logFile := flag.String("log", "fcsim.csv", "CSV output file")
	thrust := flag.Float64("thrust", 0.5, "commanded hover thrust fraction")
	webPort := flag.Int("web", 0, "serve websocket telemetry on this port (0 disables)")
	push := flag.String("push", "", "push telemetry to a ground-station web server (host:port)")
	gyroNoise := flag.Float64("gyro-noise", 0.02, "gyro noise stdev, rad/s")
	accelNoise := flag.Float64("accel-noise", 0.3, "accel noise stdev, m/s²")
	flag.Parse()

	cfg := config.Default()
	dt := 1 / float64(cfg.Loop.RateHz)

	// Rock the airframe: level, roll right and back, pitch forward and
	// back, then a combined wobble.
	sit, err := sim.NewSituation(
		[]float64{0, 2, 4, 6, 8, 10, 12, 14},
		[]float64{0, 0, 0.2, 0, 0, 0, 0.1, 0},
		[]float64{0, 0, 0, 0, 0.15, 0, -0.1, 0},
		[]float64{0, 0, 0, 0, 0, 0, 0, 0},
	)
	if err != nil {
		log.Fatalln("fcsim:", err)
	}
	sit.GyroBias = ahrs.Vector3{X: 0.01, Y: -0.005, Z: 0.002}
	sit.GyroNoise = *gyroNoise
	sit.AccelNoise = *accelNoise

	// Calibrate at rest with the same sensor defects, just as on
	// hardware before takeoff.
	rest, err := sim.NewSituation(
		[]float64{0, float64(cfg.Calibration.Samples+1) * dt},
		[]float64{0, 0}, []float64{0, 0}, []float64{0, 0},
	)
	if err != nil {
		log.Fatalln("fcsim:", err)
	}
	rest.GyroBias = sit.GyroBias
	rest.GyroNoise = sit.GyroNoise
	rest.AccelNoise = sit.AccelNoise
	bias, err := calibration.Run(sim.NewSource(rest, dt), cfg.Calibration.Samples)
	if err != nil {
		log.Fatalln("fcsim: calibration:", err)
	}

	var motors control.MotorCommand
	loop := fc.NewLoop(fc.Config{
		Cascade: cfg.Cascade(),
		Alpha:   cfg.Filter.Alpha,
	}, fc.ActuatorFunc(func(m control.MotorCommand) error {
		motors = m
		return nil
	}))
	loop.SetBias(bias)

	var room *telemetry.Room
	if *webPort > 0 {
		room = telemetry.NewRoom()
		go room.Run()
		http.Handle("/telemetry", room)
		go func() {
			log.Printf("fcsim: telemetry on :%d/telemetry", *webPort)
			if err := http.ListenAndServe(fmt.Sprintf(":%d", *webPort), nil); err != nil {
				log.Println("fcsim:", err)
			}
		}()
	}

	var sender *telemetry.Sender
	if *push != "" {
		sender, err = telemetry.NewSender(*push)
		if err != nil {
			log.Fatalln("fcsim: connecting to ground station:", err)
		}
		defer sender.Close()
	}

	loop.Commands() <- command.Command{Type: command.TypeArm}
	loop.Commands() <- command.Command{
		Type:    command.TypeControlInput,
		Control: &command.ControlInput{Throttle: float32(*thrust)},
	}

	var t, estRoll, estPitch, estYaw, trueRoll, truePitch, trueYaw float64
	logger := sim.NewFlightLogger(*logFile, map[string]*float64{
		"t":         &t,
		"estRoll":   &estRoll,
		"estPitch":  &estPitch,
		"estYaw":    &estYaw,
		"trueRoll":  &trueRoll,
		"truePitch": &truePitch,
		"trueYaw":   &trueYaw,
		"motorFL":   &motors[control.MotorFrontLeft],
		"motorFR":   &motors[control.MotorFrontRight],
		"motorBR":   &motors[control.MotorBackRight],
		"motorBL":   &motors[control.MotorBackLeft],
	})
	defer logger.Close()

	src := sim.NewSource(sit, dt)
	var worstErr float64
	for {
		t = src.T()
		sample, err := src.Read()
		if err != nil {
			break
		}
		loop.Tick(sample, dt)

		estRoll, estPitch, estYaw = loop.Estimator().RollPitchYaw()
		trueRoll, truePitch, trueYaw, err = sit.Attitude(t)
		if err != nil {
			break
		}
		logger.Log()

		if e := abs(estRoll - trueRoll); e > worstErr {
			worstErr = e
		}
		if e := abs(estPitch - truePitch); e > worstErr {
			worstErr = e
		}

		// With a live telemetry client the run is paced to real time.
		if room != nil || sender != nil {
			select {
			case rec := <-loop.Snapshots():
				if room != nil {
					room.Broadcast(rec)
				}
				if sender != nil {
					sender.Send(rec)
				}
			default:
			}
			time.Sleep(time.Duration(dt * float64(time.Second)))
		}
	}

	log.Printf("fcsim: scenario complete, worst roll/pitch error %.4f rad", worstErr)
	log.Printf("fcsim: log written to %s", *logFile)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
