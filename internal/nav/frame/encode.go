package frame

import (
	"encoding/binary"
	"math"

	"github.com/banshee-data/navsync/internal/nav"
)

// Encoders for the three frame kinds. The device writes these formats; we
// only need them to synthesize test fixtures and replay logs (cmd/navgen),
// so they are kept byte-exact with the decoders and covered by round-trip
// tests.

// EncodePosition packs rec into a 46-byte position frame with a valid
// marker, length byte and checksum.
func EncodePosition(rec *nav.PositionRecord) []byte {
	buf := make([]byte, PositionFrameSize)
	buf[0], buf[1] = PositionMarker[0], PositionMarker[1]
	buf[2] = PositionLengthByte
	binary.LittleEndian.PutUint16(buf[3:5], rec.Year)
	buf[5] = rec.Month
	buf[6] = rec.Day
	buf[7] = rec.Hour
	buf[8] = rec.Minute
	binary.LittleEndian.PutUint32(buf[9:13], rec.Microsecond)
	binary.LittleEndian.PutUint64(buf[13:21], math.Float64bits(rec.Longitude))
	binary.LittleEndian.PutUint64(buf[21:29], math.Float64bits(rec.Latitude))
	binary.LittleEndian.PutUint32(buf[29:33], math.Float32bits(float32(rec.Altitude)))
	binary.LittleEndian.PutUint32(buf[33:37], math.Float32bits(float32(rec.VelX)))
	binary.LittleEndian.PutUint32(buf[37:41], math.Float32bits(float32(rec.VelY)))
	binary.LittleEndian.PutUint32(buf[41:45], math.Float32bits(float32(rec.VelZ)))
	buf[45] = Checksum(buf[3:45])
	return buf
}

// EncodeInertial packs rec into a 52-byte inertial frame.
func EncodeInertial(rec *nav.InertialRecord) []byte {
	buf := make([]byte, InertialFrameSize)
	buf[0], buf[1] = InertialMarker[0], InertialMarker[1]
	buf[2] = InertialLengthByte
	binary.LittleEndian.PutUint64(buf[3:11], math.Float64bits(rec.GyroX))
	binary.LittleEndian.PutUint64(buf[11:19], math.Float64bits(rec.GyroY))
	binary.LittleEndian.PutUint64(buf[19:27], math.Float64bits(rec.GyroZ))
	binary.LittleEndian.PutUint64(buf[27:35], math.Float64bits(rec.AccelX))
	binary.LittleEndian.PutUint64(buf[35:43], math.Float64bits(rec.AccelY))
	binary.LittleEndian.PutUint64(buf[43:51], math.Float64bits(rec.AccelZ))
	buf[51] = Checksum(buf[3:51])
	return buf
}

// EncodeFused packs rec into a 160-byte fused-result frame. The reserved
// trailing byte is zero.
func EncodeFused(rec *nav.FusedRecord) []byte {
	buf := make([]byte, FusedFrameSize)
	binary.LittleEndian.PutUint16(buf[0:2], rec.Year)
	buf[2] = rec.Month
	buf[3] = rec.Day
	buf[4] = rec.Hour
	buf[5] = rec.Minute
	binary.LittleEndian.PutUint32(buf[6:10], rec.Microsecond)
	buf[10] = byte(rec.Mode)
	encodeSolution(buf[11:83], rec.Fused)
	encodeSolution(buf[83:155], rec.InertialOnly)
	binary.LittleEndian.PutUint32(buf[155:159], uint32(rec.FrameIndex))
	return buf
}

func encodeSolution(buf []byte, s nav.Solution) {
	vals := [9]float64{
		s.Longitude, s.Latitude, s.Altitude,
		s.VelX, s.VelY, s.VelZ,
		s.Roll, s.Heading, s.Pitch,
	}
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:i*8+8], math.Float64bits(v))
	}
}
