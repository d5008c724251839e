// Package navio handles the I/O surfaces around the core: CSV export of
// pipeline outputs and live serial capture of the device's raw stream.
package navio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/navsync/internal/nav"
	"github.com/banshee-data/navsync/internal/nav/timesync"
)

// WriteAlignedCSV writes aligned position/inertial pairs with their time
// offsets (in milliseconds).
func WriteAlignedCSV(w io.Writer, pairs []timesync.AlignedPair) error {
	cw := csv.NewWriter(w)

	header := []string{
		"timestamp",
		"gnss_latitude", "gnss_longitude", "gnss_altitude",
		"gnss_vel_x", "gnss_vel_y", "gnss_vel_z",
		"imu_gyro_x", "imu_gyro_y", "imu_gyro_z",
		"imu_accel_x", "imu_accel_y", "imu_accel_z",
		"time_diff_ms",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("navio: write header: %w", err)
	}

	for _, p := range pairs {
		row := []string{
			fmtF(p.Ref.Timestamp),
			fmtF(p.Ref.Latitude), fmtF(p.Ref.Longitude), fmtF(p.Ref.Altitude),
			fmtF(p.Ref.VelX), fmtF(p.Ref.VelY), fmtF(p.Ref.VelZ),
			fmtF(p.Query.GyroX), fmtF(p.Query.GyroY), fmtF(p.Query.GyroZ),
			fmtF(p.Query.AccelX), fmtF(p.Query.AccelY), fmtF(p.Query.AccelZ),
			fmtF(p.TimeDiff * 1000),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("navio: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteResampledCSV writes resampled position records. Calendar columns are
// copied from the source records and are not calendar-accurate for
// interpolated rows.
func WriteResampledCSV(w io.Writer, records []*nav.PositionRecord) error {
	cw := csv.NewWriter(w)

	header := []string{
		"timestamp",
		"year", "month", "day", "hour", "minute", "microsecond",
		"latitude", "longitude", "altitude",
		"vel_x", "vel_y", "vel_z",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("navio: write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			fmtF(r.Timestamp),
			strconv.Itoa(int(r.Year)), strconv.Itoa(int(r.Month)), strconv.Itoa(int(r.Day)),
			strconv.Itoa(int(r.Hour)), strconv.Itoa(int(r.Minute)), strconv.Itoa(int(r.Microsecond)),
			fmtF(r.Latitude), fmtF(r.Longitude), fmtF(r.Altitude),
			fmtF(r.VelX), fmtF(r.VelY), fmtF(r.VelZ),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("navio: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func fmtF(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
