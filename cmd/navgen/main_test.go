package main

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/navsync/internal/nav/frame"
)

func TestWriteFusedFrameIndexCycles(t *testing.T) {
	dir := t.TempDir()
	*outDir = dir
	*duration = 30
	*gnssFreq = 10

	if err := writeFused(rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("writeFused: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "fused.dat"))
	if err != nil {
		t.Fatalf("reading fused log: %v", err)
	}
	records, diag := frame.ScanFused(data)
	if len(records) != 300 {
		t.Fatalf("got %d records, want 300", len(records))
	}
	if diag.BadYears != 0 || diag.UnknownModes != 0 {
		t.Errorf("diagnostics = %+v, want clean", diag)
	}
	for i, rec := range records {
		if rec.FrameIndex != int32(i%200) {
			t.Fatalf("record %d: frame index = %d, want %d", i, rec.FrameIndex, i%200)
		}
	}
}
