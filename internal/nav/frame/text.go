package frame

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/navsync/internal/nav"
)

// fusedTextColumns is the column count of the whitespace-separated fused
// result export: 6 calendar fields, mode, two 9-value solutions, frame index.
const fusedTextColumns = 26

// LooksLikeFusedText reports whether data appears to be the text export
// rather than the binary (or hex-dumped binary) stream: its first non-empty
// line splits into the expected column count.
func LooksLikeFusedText(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return len(strings.Fields(line)) == fusedTextColumns
	}
	return false
}

// ScanFusedText reads the text variant of the fused-result log, one record
// per line. Lines with the wrong column count or unparseable numbers are
// skipped and counted, matching the binary scanners' recovery policy.
func ScanFusedText(r io.Reader) ([]*nav.FusedRecord, Diagnostics, error) {
	var (
		records []*nav.FusedRecord
		diag    Diagnostics
	)

	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}

		rec, err := parseFusedTextLine(line)
		if err != nil {
			diag.SkippedLines++
			continue
		}
		if rec.Year < MinYear || rec.Year > MaxYear {
			diag.BadYears++
		}
		if !rec.Mode.Known() {
			diag.UnknownModes++
		}
		records = append(records, rec)
		diag.Frames++
	}
	if err := scan.Err(); err != nil {
		return nil, diag, fmt.Errorf("reading fused text stream: %w", err)
	}

	return records, diag, nil
}

func parseFusedTextLine(line string) (*nav.FusedRecord, error) {
	parts := strings.Fields(line)
	if len(parts) != fusedTextColumns {
		return nil, fmt.Errorf("expected %d columns, got %d", fusedTextColumns, len(parts))
	}

	ints := make([]int64, 7)
	for i := 0; i < 7; i++ {
		v, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		ints[i] = v
	}

	floats := make([]float64, 18)
	for i := 0; i < 18; i++ {
		v, err := strconv.ParseFloat(parts[7+i], 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", 7+i, err)
		}
		floats[i] = v
	}

	frameIndex, err := strconv.ParseInt(parts[25], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("frame index: %w", err)
	}

	rec := &nav.FusedRecord{
		Year:         uint16(ints[0]),
		Month:        uint8(ints[1]),
		Day:          uint8(ints[2]),
		Hour:         uint8(ints[3]),
		Minute:       uint8(ints[4]),
		Microsecond:  uint32(ints[5]),
		Mode:         nav.NavMode(ints[6]),
		Fused:        solutionFromSlice(floats[0:9]),
		InertialOnly: solutionFromSlice(floats[9:18]),
		FrameIndex:   int32(frameIndex),
	}
	rec.Timestamp, _ = nav.CalendarTime(rec.Year, rec.Month, rec.Day, rec.Hour, rec.Minute, rec.Microsecond)
	return rec, nil
}

func solutionFromSlice(v []float64) nav.Solution {
	return nav.Solution{
		Longitude: v[0],
		Latitude:  v[1],
		Altitude:  v[2],
		VelX:      v[3],
		VelY:      v[4],
		VelZ:      v[5],
		Roll:      v[6],
		Heading:   v[7],
		Pitch:     v[8],
	}
}
