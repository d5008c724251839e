package frame

import (
	"fmt"
	"strings"
	"testing"

	"github.com/banshee-data/navsync/internal/nav"
)

func fusedTextLine(microsecond uint32, mode int, frameIndex int) string {
	fields := []string{
		"2024", "6", "1", "12", "0", fmt.Sprint(microsecond),
		fmt.Sprint(mode),
	}
	// fused solution then inertial-only solution
	for i := 0; i < 18; i++ {
		fields = append(fields, fmt.Sprintf("%.6f", 100+float64(i)))
	}
	fields = append(fields, fmt.Sprint(frameIndex))
	return strings.Join(fields, " ")
}

func TestScanFusedText(t *testing.T) {
	input := strings.Join([]string{
		fusedTextLine(0, int(nav.ModeLooseCombined), 0),
		"",
		fusedTextLine(500000, int(nav.ModeLooseCombined), 1),
		"not a record at all",
		fusedTextLine(1000000, 7, 2), // out-of-enum mode is kept
	}, "\n")

	records, diag, err := ScanFusedText(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ScanFusedText returned error: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if diag.SkippedLines != 1 {
		t.Errorf("expected 1 skipped line, got %d", diag.SkippedLines)
	}
	if diag.UnknownModes != 1 {
		t.Errorf("expected 1 unknown mode, got %d", diag.UnknownModes)
	}

	first := records[0]
	if first.Mode != nav.ModeLooseCombined {
		t.Errorf("mode = %d, want %d", first.Mode, nav.ModeLooseCombined)
	}
	if first.Fused.Longitude != 100 || first.InertialOnly.Longitude != 109 {
		t.Errorf("solution columns misassigned: fused lon %v, inertial lon %v",
			first.Fused.Longitude, first.InertialOnly.Longitude)
	}
	if records[1].Timestamp-records[0].Timestamp != 0.5 {
		t.Errorf("timestamp delta = %v, want 0.5", records[1].Timestamp-records[0].Timestamp)
	}
	if records[2].FrameIndex != 2 {
		t.Errorf("frame index = %d, want 2", records[2].FrameIndex)
	}
}

func TestScanFusedTextBadNumbers(t *testing.T) {
	line := fusedTextLine(0, 2, 0)
	broken := strings.Replace(line, "2024", "year", 1)

	records, diag, err := ScanFusedText(strings.NewReader(broken))
	if err != nil {
		t.Fatalf("ScanFusedText returned error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if diag.SkippedLines != 1 {
		t.Errorf("expected 1 skipped line, got %d", diag.SkippedLines)
	}
}

func TestLooksLikeFusedText(t *testing.T) {
	if !LooksLikeFusedText([]byte("\n" + fusedTextLine(0, 2, 0) + "\n")) {
		t.Error("expected text export to be detected")
	}
	if LooksLikeFusedText(EncodeFused(&nav.FusedRecord{Year: 2024, Month: 1, Day: 1})) {
		t.Error("binary stream misdetected as text")
	}
	if LooksLikeFusedText([]byte("99665566aabb")) {
		t.Error("hex dump misdetected as text")
	}
	if LooksLikeFusedText(nil) {
		t.Error("empty input misdetected as text")
	}
}
