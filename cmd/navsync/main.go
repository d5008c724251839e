package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/navsync/internal/nav/pipeline"
	"github.com/banshee-data/navsync/internal/navdb"
	"github.com/banshee-data/navsync/internal/navio"
	"github.com/banshee-data/navsync/internal/navweb"
	"github.com/banshee-data/navsync/internal/version"
)

var (
	configFile = flag.String("config", "", "Path to JSON pipeline configuration")
	gnssFile   = flag.String("gnss", "", "Combined GNSS/INS hex log (overrides config)")
	imuFile    = flag.String("imu", "", "Line-oriented inertial hex log (overrides config)")
	resultFile = flag.String("result", "", "Optional fused-result log (overrides config)")
	imuFreq    = flag.Float64("freq", 0, "Inertial sample frequency in Hz (0 = config/default)")
	targetFreq = flag.Float64("target-freq", 0, "Resampling timeline frequency in Hz (0 = config/default)")
	method     = flag.String("method", "", "Interpolation method: linear or spline")
	boundary   = flag.String("boundary", "", "Spline boundary condition: natural, clamped or not-a-knot")
	outDir     = flag.String("out", "", "Directory for CSV exports (empty = no export)")
	plotDir    = flag.String("plots", "", "Directory for PNG plots (empty = no plots)")

	serve   = flag.Bool("serve", false, "Run the HTTP job server instead of a one-shot pipeline run")
	listen  = flag.String("listen", ":8080", "HTTP listen address")
	dbFile  = flag.String("db", "navsync.db", "Path to the SQLite job database")
	dataDir = flag.String("data-dir", "navsync_data", "Directory for uploaded job files")

	capturePort = flag.String("capture", "", "Serial port to capture a raw device stream from")
	captureBaud = flag.Int("baud", 115200, "Serial baud rate for capture")
	captureOut  = flag.String("capture-out", "capture.log", "Output file for captured hex stream")

	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *serve:
		if err := runServer(ctx); err != nil {
			log.Fatalf("server error: %v", err)
		}
	case *capturePort != "":
		if err := runCapture(ctx); err != nil {
			log.Fatalf("capture error: %v", err)
		}
	default:
		if err := runPipeline(); err != nil {
			log.Fatalf("pipeline error: %v", err)
		}
	}
}

// buildConfig merges the optional JSON config with command line overrides.
func buildConfig() (*pipeline.Config, error) {
	cfg := &pipeline.Config{}
	if *configFile != "" {
		loaded, err := pipeline.LoadConfig(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if *gnssFile != "" {
		cfg.PositionFile = gnssFile
	}
	if *imuFile != "" {
		cfg.InertialFile = imuFile
	}
	if *resultFile != "" {
		cfg.FusedFile = resultFile
	}
	if *imuFreq > 0 {
		cfg.InertialFrequency = imuFreq
	}
	if *targetFreq > 0 {
		cfg.TargetFrequency = targetFreq
	}
	if *method != "" {
		cfg.Method = method
	}
	if *boundary != "" {
		cfg.Boundary = boundary
	}

	return cfg, nil
}

func runPipeline() error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	results, err := p.Run()
	if err != nil {
		return err
	}

	printSummary(results)

	if *outDir != "" {
		if err := exportCSVs(*outDir, results); err != nil {
			return err
		}
	}
	if *plotDir != "" {
		n, err := navweb.SavePlots(*plotDir, results)
		if err != nil {
			return err
		}
		log.Printf("wrote %d plots to %s", n, *plotDir)
	}

	return nil
}

func printSummary(results *pipeline.Results) {
	r := results.Report
	fmt.Printf("positions:   %d (resyncs=%d trailing=%d)\n",
		len(results.Positions), results.ScanDiag.Resyncs, results.ScanDiag.TrailingBytes)
	fmt.Printf("inertials:   %d (skipped lines=%d)\n",
		len(results.Inertials), results.InertialDiag.SkippedLines)
	if len(results.Fused) > 0 {
		fmt.Printf("fused:       %d (unknown modes=%d bad years=%d)\n",
			len(results.Fused), results.FusedDiag.UnknownModes, results.FusedDiag.BadYears)
	}
	fmt.Printf("resampled:   %d (extrapolations=%d)\n",
		len(results.Resampled), results.ResampleDiag.Extrapolations)
	fmt.Printf("aligned:     %d pairs\n", r.TotalPairs)
	fmt.Printf("  avg offset %.3f ms (max %.3f, min %.3f)\n",
		r.AvgTimeDiff*1000, r.MaxTimeDiff*1000, r.MinTimeDiff*1000)
	fmt.Printf("  within 5ms %.1f%%, within 10ms %.1f%%\n",
		r.FractionWithin5ms()*100, r.FractionWithin10ms()*100)
}

func exportCSVs(dir string, results *pipeline.Results) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	aligned, err := os.Create(filepath.Join(dir, "aligned.csv"))
	if err != nil {
		return err
	}
	defer aligned.Close()
	if err := navio.WriteAlignedCSV(aligned, results.Pairs); err != nil {
		return err
	}

	resampled, err := os.Create(filepath.Join(dir, "resampled.csv"))
	if err != nil {
		return err
	}
	defer resampled.Close()
	if err := navio.WriteResampledCSV(resampled, results.Resampled); err != nil {
		return err
	}

	log.Printf("wrote aligned.csv and resampled.csv to %s", dir)
	return nil
}

func runServer(ctx context.Context) error {
	db, err := navdb.NewDB(*dbFile)
	if err != nil {
		return fmt.Errorf("failed to open job database: %w", err)
	}
	defer db.Close()

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	s := navweb.NewServer(navweb.ServerConfig{
		Address: *listen,
		DB:      db,
		DataDir: *dataDir,
	})
	return s.Start(ctx)
}

func runCapture(ctx context.Context) error {
	port, err := navio.NewDevicePort(*capturePort, *captureBaud)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", *capturePort, err)
	}

	out, err := os.Create(*captureOut)
	if err != nil {
		return err
	}
	defer out.Close()

	go func() {
		if err := port.Monitor(ctx); err != nil {
			log.Printf("serial monitor stopped: %v", err)
		}
	}()

	log.Printf("capturing %s at %d baud to %s (Ctrl-C to stop)", *capturePort, *captureBaud, *captureOut)
	written, err := navio.Capture(ctx, port, out)
	log.Printf("captured %d bytes", written)
	return err
}
