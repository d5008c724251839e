package pipeline

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navsync/internal/nav"
	"github.com/banshee-data/navsync/internal/nav/frame"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int         { return &v }

// writeFixtures writes a combined position log (hex dump), an inertial line
// log and a fused binary log covering a 10 second span at 1 Hz / 10 Hz.
func writeFixtures(t *testing.T, dir string) (posFile, insFile, fusedFile string) {
	t.Helper()

	var combined strings.Builder
	for i := 0; i < 10; i++ {
		pos := &nav.PositionRecord{
			Year: 2024, Month: 6, Day: 1, Hour: 12, Minute: 0,
			Microsecond: uint32(i) * 1_000_000,
			Longitude:   121.5 + float64(i)*0.0001,
			Latitude:    31.2 + float64(i)*0.0001,
			Altitude:    10 + float64(i),
			VelX:        1,
		}
		ins := &nav.InertialRecord{GyroZ: 0.01, AccelZ: -9.81}
		combined.WriteString(hex.EncodeToString(frame.EncodePosition(pos)))
		combined.WriteString(hex.EncodeToString(frame.EncodeInertial(ins)))
		combined.WriteString("\n")
	}
	posFile = filepath.Join(dir, "combined.txt")
	require.NoError(t, os.WriteFile(posFile, []byte(combined.String()), 0o644))

	var lines strings.Builder
	for i := 0; i < 95; i++ {
		ins := &nav.InertialRecord{GyroX: float64(i) * 1e-4, AccelZ: -9.81}
		fmt.Fprintf(&lines, "%s\n", hex.EncodeToString(frame.EncodeInertial(ins)))
	}
	insFile = filepath.Join(dir, "inertial.txt")
	require.NoError(t, os.WriteFile(insFile, []byte(lines.String()), 0o644))

	var fused []byte
	for i := 0; i < 5; i++ {
		rec := &nav.FusedRecord{
			Year: 2024, Month: 6, Day: 1, Hour: 12,
			Microsecond: uint32(i) * 1_000_000,
			Mode:        nav.ModeLooseCombined,
			FrameIndex:  int32(i),
		}
		fused = append(fused, frame.EncodeFused(rec)...)
	}
	fusedFile = filepath.Join(dir, "fused.dat")
	require.NoError(t, os.WriteFile(fusedFile, fused, 0o644))

	return posFile, insFile, fusedFile
}

func TestPipelineRun(t *testing.T) {
	dir := t.TempDir()
	posFile, insFile, fusedFile := writeFixtures(t, dir)

	cfg := &Config{
		PositionFile:      strPtr(posFile),
		InertialFile:      strPtr(insFile),
		FusedFile:         strPtr(fusedFile),
		InertialFrequency: f64Ptr(10.0),
		TargetFrequency:   f64Ptr(10.0),
	}
	p, err := New(cfg)
	require.NoError(t, err)

	res, err := p.Run()
	require.NoError(t, err)

	assert.Len(t, res.Positions, 10)
	assert.Len(t, res.Inertials, 95)
	assert.Len(t, res.Fused, 5)
	assert.NotEmpty(t, res.Resampled)
	assert.Zero(t, res.ScanDiag.Resyncs, "clean fixture should need no resync")

	// Inertial clock anchored at the first position fix.
	assert.Equal(t, res.Positions[0].Timestamp, res.Inertials[0].Timestamp)
	assert.InDelta(t, res.Positions[0].Timestamp+9.4, res.Inertials[94].Timestamp, 1e-9)

	// Resampled timeline spans the position range and stays sorted.
	first := res.Resampled[0]
	last := res.Resampled[len(res.Resampled)-1]
	assert.Equal(t, res.Positions[0].Timestamp, first.Timestamp)
	assert.Equal(t, res.Positions[9].Timestamp, last.Timestamp)
	for i := 1; i < len(res.Resampled); i++ {
		assert.Greater(t, res.Resampled[i].Timestamp, res.Resampled[i-1].Timestamp)
	}

	// Inertials land ~exactly on the 10 Hz resampled timeline here, so the
	// report should show tight alignment.
	assert.Equal(t, 95, res.Report.TotalPairs)
	assert.Less(t, res.Report.AvgTimeDiff, 0.05)
}

func TestPipelineRunSpline(t *testing.T) {
	dir := t.TempDir()
	posFile, insFile, _ := writeFixtures(t, dir)

	cfg := &Config{
		PositionFile:      strPtr(posFile),
		InertialFile:      strPtr(insFile),
		InertialFrequency: f64Ptr(10.0),
		Method:            strPtr("spline"),
		Boundary:          strPtr("not-a-knot"),
	}
	p, err := New(cfg)
	require.NoError(t, err)

	res, err := p.Run()
	require.NoError(t, err)
	assert.NotEmpty(t, res.Resampled)
	assert.Empty(t, res.Fused, "fused input is optional")
}

func TestPipelineRunFusedText(t *testing.T) {
	dir := t.TempDir()
	posFile, insFile, _ := writeFixtures(t, dir)

	// Text export variant of the fused log: calendar ints, mode, two 9-value
	// solutions, frame index.
	var text strings.Builder
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&text, "2024 6 1 12 0 %d 2", i*1_000_000)
		for j := 0; j < 18; j++ {
			fmt.Fprintf(&text, " %.4f", float64(j))
		}
		fmt.Fprintf(&text, " %d\n", i)
	}
	fusedFile := filepath.Join(dir, "fused.txt")
	require.NoError(t, os.WriteFile(fusedFile, []byte(text.String()), 0o644))

	cfg := &Config{
		PositionFile:      strPtr(posFile),
		InertialFile:      strPtr(insFile),
		FusedFile:         strPtr(fusedFile),
		InertialFrequency: f64Ptr(10.0),
	}
	p, err := New(cfg)
	require.NoError(t, err)

	res, err := p.Run()
	require.NoError(t, err)
	require.Len(t, res.Fused, 4)
	assert.Equal(t, nav.ModeLooseCombined, res.Fused[0].Mode)
	assert.InDelta(t, 1.0, res.Fused[1].Timestamp-res.Fused[0].Timestamp, 1e-9)
}

func TestPipelineAlignSampleLimit(t *testing.T) {
	dir := t.TempDir()
	posFile, insFile, _ := writeFixtures(t, dir)

	cfg := &Config{
		PositionFile:      strPtr(posFile),
		InertialFile:      strPtr(insFile),
		InertialFrequency: f64Ptr(10.0),
		AlignSampleLimit:  intPtr(20),
	}
	p, err := New(cfg)
	require.NoError(t, err)

	res, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, 20, res.Report.TotalPairs)
}

func TestNewRequiresInputs(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)

	_, err = New(&Config{PositionFile: strPtr("a"), InertialFile: strPtr("b"), Method: strPtr("bogus")})
	assert.Error(t, err)
}

func TestTimeline(t *testing.T) {
	ts := Timeline(0, 10, 1)
	require.Len(t, ts, 10)
	assert.Equal(t, 0.0, ts[0])
	assert.Equal(t, 10.0, ts[len(ts)-1])

	// Degenerate span still yields both endpoints.
	ts = Timeline(5, 5, 100)
	require.Len(t, ts, 2)
	assert.Equal(t, 5.0, ts[0])
	assert.Equal(t, 5.0, ts[1])
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"position_file": "combined.txt",
		"inertial_file": "inertial.txt",
		"interpolation_method": "spline",
		"target_frequency": 50
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "spline", cfg.GetMethod())
	assert.Equal(t, 50.0, cfg.GetTargetFrequency())
	// Omitted fields fall back to defaults.
	assert.Equal(t, DefaultInertialFrequency, cfg.GetInertialFrequency())
	assert.Equal(t, DefaultBoundary, cfg.GetBoundary())
	assert.Equal(t, DefaultAlignSampleLimit, cfg.GetAlignSampleLimit())

	_, err = LoadConfig(filepath.Join(dir, "run.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"target_frequency": -1}`), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}
