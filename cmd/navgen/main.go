// navgen writes synthetic device logs (combined GNSS/INS hex, inertial line
// log and fused binary) for exercising the pipeline without hardware.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/navsync/internal/nav"
	"github.com/banshee-data/navsync/internal/nav/frame"
)

var (
	outDir   = flag.String("out", "testdata", "Output directory for generated logs")
	duration = flag.Float64("duration", 60, "Simulated span in seconds")
	gnssFreq = flag.Float64("gnss-freq", 1, "Position fix frequency in Hz")
	imuFreq  = flag.Float64("imu-freq", 95, "Inertial sample frequency in Hz")
	fused    = flag.Bool("fused", true, "Also write a fused-result binary log")
	noise    = flag.Float64("noise", 0.02, "Velocity noise amplitude")
	seed     = flag.Int64("seed", 1, "Random seed")
)

// trajectory returns the simulated state at time t: a gentle arc with a
// sinusoidal altitude profile.
func trajectory(t float64) (lon, lat, alt, velX, velY, velZ float64) {
	lon = 121.5 + 1e-4*t + 2e-5*math.Sin(t/10)
	lat = 31.2 + 8e-5*t + 2e-5*math.Cos(t/10)
	alt = 15 + 3*math.Sin(t/20)
	velX = 8 + math.Sin(t/10)
	velY = 6 + math.Cos(t/10)
	velZ = 0.15 * math.Cos(t/20)
	return
}

func main() {
	flag.Parse()

	if *duration <= 0 || *gnssFreq <= 0 || *imuFreq <= 0 {
		log.Fatal("duration and frequencies must be positive")
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	if err := writeCombined(rng); err != nil {
		log.Fatalf("failed to write combined log: %v", err)
	}
	if err := writeInertial(rng); err != nil {
		log.Fatalf("failed to write inertial log: %v", err)
	}
	if *fused {
		if err := writeFused(rng); err != nil {
			log.Fatalf("failed to write fused log: %v", err)
		}
	}
}

func calendarAt(t float64) (year uint16, month, day, hour, minute uint8, micro uint32) {
	// Fixed session start; t seconds elapse within the hour.
	sec := int(t)
	return 2024, 6, 1, 12, uint8(sec / 60 % 60), uint32(sec%60)*1_000_000 + uint32((t-math.Floor(t))*1e6)
}

func writeCombined(rng *rand.Rand) error {
	var b strings.Builder
	n := int(*duration * *gnssFreq)
	for i := 0; i < n; i++ {
		t := float64(i) / *gnssFreq
		lon, lat, alt, vx, vy, vz := trajectory(t)

		year, month, day, hour, minute, micro := calendarAt(t)
		pos := &nav.PositionRecord{
			Year: year, Month: month, Day: day, Hour: hour, Minute: minute,
			Microsecond: micro,
			Longitude:   lon,
			Latitude:    lat,
			Altitude:    alt,
			VelX:        vx + rng.Float64()**noise,
			VelY:        vy + rng.Float64()**noise,
			VelZ:        vz + rng.Float64()**noise,
			Valid:       true,
		}
		ins := inertialAt(t, rng)

		b.WriteString(hex.EncodeToString(frame.EncodePosition(pos)))
		b.WriteString(hex.EncodeToString(frame.EncodeInertial(ins)))
		b.WriteString("\n")
	}

	path := filepath.Join(*outDir, "combined.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %d combined windows to %s\n", n, path)
	return nil
}

func inertialAt(t float64, rng *rand.Rand) *nav.InertialRecord {
	return &nav.InertialRecord{
		GyroX:  0.01*math.Sin(t/5) + rng.NormFloat64()*1e-4,
		GyroY:  0.01*math.Cos(t/5) + rng.NormFloat64()*1e-4,
		GyroZ:  0.002 + rng.NormFloat64()*1e-4,
		AccelX: 0.2*math.Sin(t/10) + rng.NormFloat64()*1e-3,
		AccelY: 0.2*math.Cos(t/10) + rng.NormFloat64()*1e-3,
		AccelZ: -9.81 + rng.NormFloat64()*1e-3,
	}
}

func writeInertial(rng *rand.Rand) error {
	var b strings.Builder
	n := int(*duration * *imuFreq)
	for i := 0; i < n; i++ {
		t := float64(i) / *imuFreq
		b.WriteString(hex.EncodeToString(frame.EncodeInertial(inertialAt(t, rng))))
		b.WriteString("\n")
	}

	path := filepath.Join(*outDir, "inertial.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %d inertial lines to %s\n", n, path)
	return nil
}

func writeFused(rng *rand.Rand) error {
	var buf []byte
	n := int(*duration * *gnssFreq)
	for i := 0; i < n; i++ {
		t := float64(i) / *gnssFreq
		lon, lat, alt, vx, vy, vz := trajectory(t)

		year, month, day, hour, minute, micro := calendarAt(t)
		sol := nav.Solution{
			Longitude: lon, Latitude: lat, Altitude: alt,
			VelX: vx, VelY: vy, VelZ: vz,
			Heading: math.Mod(45+t, 360), Pitch: rng.NormFloat64() * 0.1, Roll: rng.NormFloat64() * 0.1,
		}
		rec := &nav.FusedRecord{
			Year: year, Month: month, Day: day, Hour: hour, Minute: minute,
			Microsecond:  micro,
			Mode:         nav.ModeLooseCombined,
			Fused:        sol,
			InertialOnly: sol,
			FrameIndex:   int32(i % 200),
		}
		buf = append(buf, frame.EncodeFused(rec)...)
	}

	path := filepath.Join(*outDir, "fused.dat")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %d fused frames to %s\n", n, path)
	return nil
}
