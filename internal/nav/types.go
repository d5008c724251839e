// Package nav defines the record types produced by decoding raw logs from a
// combined GNSS/INS navigation device, along with the calendar/timestamp
// conversion shared by every frame kind.
//
// Three streams exist: a low-rate GNSS position/velocity stream, a high-rate
// inertial stream with no clock of its own, and an optional pre-computed fused
// navigation solution. Records are created only by the frame decoder; after
// creation the only sanctioned mutation is the one-time timestamp relabel of
// inertial records performed by the timesync package.
package nav

// PositionRecord is one sample of the low-rate GNSS position/velocity stream.
//
// Timestamp is Unix seconds (UTC) derived from the calendar fields at decode
// time, or NaN when the calendar fields do not form a valid date. The calendar
// fields are retained unchanged either way.
type PositionRecord struct {
	Timestamp float64

	Year        uint16
	Month       uint8
	Day         uint8
	Hour        uint8
	Minute      uint8
	Microsecond uint32

	Longitude float64 // degrees
	Latitude  float64 // degrees
	Altitude  float64 // metres

	VelX float64 // m/s
	VelY float64
	VelZ float64

	Valid bool
}

// InertialRecord is one sample of the high-rate angular-rate/acceleration
// stream. The binary frame carries no clock, so the decoder leaves Timestamp
// NaN and the calendar fields zero; timesync.Relabel fills both in exactly
// once.
type InertialRecord struct {
	Timestamp float64

	Year        uint16
	Month       uint8
	Day         uint8
	Hour        uint8
	Minute      uint8
	Microsecond uint32

	GyroX float64 // rad/s
	GyroY float64
	GyroZ float64

	AccelX float64 // m/s²
	AccelY float64
	AccelZ float64
}

// NavMode is the navigation mode reported in a fused-result frame.
type NavMode int8

const (
	ModePureInertial  NavMode = 0
	ModeLooseCombined NavMode = 2
	ModeAligning      NavMode = 3
	ModeStandby       NavMode = 4
)

// Known reports whether m is one of the defined mode values. Frames with an
// unknown mode are kept; the decoder only warns.
func (m NavMode) Known() bool {
	switch m {
	case ModePureInertial, ModeLooseCombined, ModeAligning, ModeStandby:
		return true
	}
	return false
}

func (m NavMode) String() string {
	switch m {
	case ModePureInertial:
		return "pure-inertial"
	case ModeLooseCombined:
		return "loose-combined"
	case ModeAligning:
		return "aligning"
	case ModeStandby:
		return "standby"
	}
	return "unknown"
}

// Solution is the 9-value navigation solution carried twice in each
// fused-result frame: once fused, once inertial-only.
type Solution struct {
	Longitude float64
	Latitude  float64
	Altitude  float64
	VelX      float64
	VelY      float64
	VelZ      float64
	Roll      float64
	Heading   float64
	Pitch     float64
}

// FusedRecord is one frame of the pre-computed fused navigation solution.
// FrameIndex cycles through 0-199 on the device.
type FusedRecord struct {
	Timestamp float64

	Year        uint16
	Month       uint8
	Day         uint8
	Hour        uint8
	Minute      uint8
	Microsecond uint32

	Mode         NavMode
	Fused        Solution
	InertialOnly Solution
	FrameIndex   int32
}
