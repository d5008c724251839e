// Package frame decodes the fixed-layout binary records emitted by the
// GNSS/INS device: 46-byte position frames, 52-byte inertial frames, and
// 160-byte fused-result frames. All multi-byte fields are little-endian.
//
// Position and inertial frames carry a two-byte marker, a length byte, and a
// trailing additive checksum; decode rejects a window on any structural
// mismatch so the scanner can resynchronize by advancing a single byte.
// Fused-result frames have no framing and rely on sanity checks only.
package frame

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/banshee-data/navsync/internal/nav"
)

const (
	PositionFrameSize = 46
	InertialFrameSize = 52
	FusedFrameSize    = 160

	// CombinedFrameSize is the composite window of the interleaved raw log:
	// one position frame immediately followed by one inertial frame.
	CombinedFrameSize = PositionFrameSize + InertialFrameSize

	PositionLengthByte = 0x2E
	InertialLengthByte = 0x34

	// Years outside this range mark a frame as structurally corrupt for the
	// position stream, and as suspect (warn-only) for the fused stream.
	MinYear = 2000
	MaxYear = 2100
)

// Frame markers. The position stream uses 0x99 0x66, the inertial stream
// 0x55 0xAA.
var (
	PositionMarker = [2]byte{0x99, 0x66}
	InertialMarker = [2]byte{0x55, 0xAA}
)

// Decode rejection reasons. The scanner treats any of these as "no record
// here" and advances the cursor one byte.
var (
	ErrShortBuffer = errors.New("frame: buffer shorter than frame size")
	ErrBadMarker   = errors.New("frame: marker mismatch")
	ErrBadLength   = errors.New("frame: length byte mismatch")
	ErrBadChecksum = errors.New("frame: checksum mismatch")
	ErrBadYear     = errors.New("frame: year outside 2000-2100")
)

// Checksum returns the low 8 bits of the byte sum over data.
func Checksum(data []byte) byte {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return byte(sum)
}

// DecodePosition decodes one 46-byte position frame.
//
// Layout: marker(2) length(1) year(u16) month day hour minute(u8 each)
// microsecond(u32) lon(f64) lat(f64) alt(f32) vel(f32 x3) checksum(1), with
// the checksum covering bytes [3:45].
func DecodePosition(data []byte) (*nav.PositionRecord, error) {
	if len(data) < PositionFrameSize {
		return nil, ErrShortBuffer
	}
	if data[0] != PositionMarker[0] || data[1] != PositionMarker[1] {
		return nil, ErrBadMarker
	}
	if data[2] != PositionLengthByte {
		return nil, ErrBadLength
	}
	if Checksum(data[3:45]) != data[45] {
		return nil, ErrBadChecksum
	}

	rec := &nav.PositionRecord{
		Year:        binary.LittleEndian.Uint16(data[3:5]),
		Month:       data[5],
		Day:         data[6],
		Hour:        data[7],
		Minute:      data[8],
		Microsecond: binary.LittleEndian.Uint32(data[9:13]),
		Longitude:   math.Float64frombits(binary.LittleEndian.Uint64(data[13:21])),
		Latitude:    math.Float64frombits(binary.LittleEndian.Uint64(data[21:29])),
		Altitude:    float64(math.Float32frombits(binary.LittleEndian.Uint32(data[29:33]))),
		VelX:        float64(math.Float32frombits(binary.LittleEndian.Uint32(data[33:37]))),
		VelY:        float64(math.Float32frombits(binary.LittleEndian.Uint32(data[37:41]))),
		VelZ:        float64(math.Float32frombits(binary.LittleEndian.Uint32(data[41:45]))),
		Valid:       true,
	}

	// A wildly wrong year means the window only happened to look framed.
	if rec.Year < MinYear || rec.Year > MaxYear {
		return nil, ErrBadYear
	}

	rec.Timestamp, _ = nav.CalendarTime(rec.Year, rec.Month, rec.Day, rec.Hour, rec.Minute, rec.Microsecond)
	return rec, nil
}

// DecodeInertial decodes one 52-byte inertial frame.
//
// Layout: marker(2) length(1) gyro(f64 x3) accel(f64 x3) checksum(1), with
// the checksum covering bytes [3:51]. The frame carries no clock; the
// returned record has a NaN timestamp until timesync.Relabel assigns one.
func DecodeInertial(data []byte) (*nav.InertialRecord, error) {
	if len(data) < InertialFrameSize {
		return nil, ErrShortBuffer
	}
	if data[0] != InertialMarker[0] || data[1] != InertialMarker[1] {
		return nil, ErrBadMarker
	}
	if data[2] != InertialLengthByte {
		return nil, ErrBadLength
	}
	if Checksum(data[3:51]) != data[51] {
		return nil, ErrBadChecksum
	}

	return &nav.InertialRecord{
		Timestamp: math.NaN(),
		GyroX:     math.Float64frombits(binary.LittleEndian.Uint64(data[3:11])),
		GyroY:     math.Float64frombits(binary.LittleEndian.Uint64(data[11:19])),
		GyroZ:     math.Float64frombits(binary.LittleEndian.Uint64(data[19:27])),
		AccelX:    math.Float64frombits(binary.LittleEndian.Uint64(data[27:35])),
		AccelY:    math.Float64frombits(binary.LittleEndian.Uint64(data[35:43])),
		AccelZ:    math.Float64frombits(binary.LittleEndian.Uint64(data[43:51])),
	}, nil
}

// DecodeFused decodes one 160-byte fused-result frame.
//
// Layout: year(u16) month day hour minute(u8 each) microsecond(u32) mode(i8)
// fused solution(f64 x9) inertial-only solution(f64 x9) frame index(i32),
// plus one reserved trailing byte. There is no marker or checksum, so the
// only rejection is a short buffer. An out-of-enum mode or out-of-range year
// is kept as-is and left for the caller to flag; only Position frames treat
// a bad year as corruption.
func DecodeFused(data []byte) (*nav.FusedRecord, error) {
	if len(data) < FusedFrameSize {
		return nil, ErrShortBuffer
	}

	rec := &nav.FusedRecord{
		Year:        binary.LittleEndian.Uint16(data[0:2]),
		Month:       data[2],
		Day:         data[3],
		Hour:        data[4],
		Minute:      data[5],
		Microsecond: binary.LittleEndian.Uint32(data[6:10]),
		Mode:        nav.NavMode(int8(data[10])),
	}

	rec.Fused = decodeSolution(data[11:83])
	rec.InertialOnly = decodeSolution(data[83:155])
	rec.FrameIndex = int32(binary.LittleEndian.Uint32(data[155:159]))

	rec.Timestamp, _ = nav.CalendarTime(rec.Year, rec.Month, rec.Day, rec.Hour, rec.Minute, rec.Microsecond)
	return rec, nil
}

func decodeSolution(data []byte) nav.Solution {
	f := func(i int) float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(data[i*8 : i*8+8]))
	}
	return nav.Solution{
		Longitude: f(0),
		Latitude:  f(1),
		Altitude:  f(2),
		VelX:      f(3),
		VelY:      f(4),
		VelZ:      f(5),
		Roll:      f(6),
		Heading:   f(7),
		Pitch:     f(8),
	}
}
