package frame

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/banshee-data/navsync/internal/nav"
)

// Diagnostics reports the recoverable conditions a scan encountered. None of
// them abort a scan; they exist so callers can observe and test data quality
// instead of reading it off a log.
type Diagnostics struct {
	Frames        int // records emitted (pairs count once per stream)
	Resyncs       int // single-byte cursor advances after a failed window
	SkippedLines  int // malformed lines in a line-oriented stream
	TrailingBytes int // bytes left over after the last whole frame
	UnknownModes  int // fused frames carrying an out-of-enum navigation mode
	BadYears      int // fused frames carrying an out-of-range year (kept)
}

// ScanCombined walks a raw log that interleaves position and inertial frames
// in 98-byte composite windows. At each cursor position it attempts a
// position decode at the cursor and an inertial decode 46 bytes further on;
// only when both succeed does it emit the pair and step a whole window,
// otherwise it advances one byte and retries. After k corrupt bytes this
// recovers framing at a cost of k extra attempts.
func ScanCombined(data []byte) ([]*nav.PositionRecord, []*nav.InertialRecord, Diagnostics) {
	var (
		positions []*nav.PositionRecord
		inertials []*nav.InertialRecord
		diag      Diagnostics
	)

	cursor := 0
	for cursor+CombinedFrameSize <= len(data) {
		pos, perr := DecodePosition(data[cursor:])
		ins, ierr := DecodeInertial(data[cursor+PositionFrameSize:])
		if perr != nil || ierr != nil {
			cursor++
			diag.Resyncs++
			continue
		}

		positions = append(positions, pos)
		inertials = append(inertials, ins)
		diag.Frames++
		cursor += CombinedFrameSize
	}
	diag.TrailingBytes = len(data) - cursor

	return positions, inertials, diag
}

// ScanInertialLines reads a stream of newline-delimited ASCII-hex inertial
// frames, one frame per line. Malformed lines (bad hex, bad marker, length or
// checksum) are skipped and counted; only a read failure is an error.
func ScanInertialLines(r io.Reader) ([]*nav.InertialRecord, Diagnostics, error) {
	var (
		records []*nav.InertialRecord
		diag    Diagnostics
	)

	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scan.Scan() {
		line := bytes.TrimSpace(scan.Bytes())
		if len(line) == 0 {
			continue
		}

		raw := make([]byte, hex.DecodedLen(len(line)))
		if _, err := hex.Decode(raw, line); err != nil {
			diag.SkippedLines++
			continue
		}

		rec, err := DecodeInertial(raw)
		if err != nil {
			diag.SkippedLines++
			continue
		}
		records = append(records, rec)
		diag.Frames++
	}
	if err := scan.Err(); err != nil {
		return nil, diag, fmt.Errorf("reading inertial stream: %w", err)
	}

	return records, diag, nil
}

// ScanFused walks a flat sequence of fixed 160-byte fused-result frames. The
// format is assumed reliable so there is no resynchronization; a frame with
// an out-of-range year or out-of-enum mode is kept but counted, and a short
// tail is reported via Diagnostics rather than treated as an error.
func ScanFused(data []byte) ([]*nav.FusedRecord, Diagnostics) {
	var (
		records []*nav.FusedRecord
		diag    Diagnostics
	)

	cursor := 0
	for cursor+FusedFrameSize <= len(data) {
		rec, err := DecodeFused(data[cursor : cursor+FusedFrameSize])
		cursor += FusedFrameSize
		if err != nil {
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
	diag.TrailingBytes = len(data) - cursor

	return records, diag
}

// DecodeHexDump converts an ASCII-hex dump to bytes, ignoring all whitespace.
// Raw combined logs are distributed in this form.
func DecodeHexDump(text []byte) ([]byte, error) {
	compact := make([]byte, 0, len(text))
	for _, b := range text {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		compact = append(compact, b)
	}

	raw := make([]byte, hex.DecodedLen(len(compact)))
	if _, err := hex.Decode(raw, compact); err != nil {
		return nil, fmt.Errorf("decoding hex dump: %w", err)
	}
	return raw, nil
}

// NormalizeFused accepts a fused-result log in either ASCII-hex or raw binary
// form and returns the binary bytes. Detection simply tries the hex decode
// first; a genuine binary log is overwhelmingly unlikely to survive it.
func NormalizeFused(data []byte) []byte {
	if raw, err := DecodeHexDump(data); err == nil && len(raw) > 0 {
		return raw
	}
	return data
}
