// Package timesync reconciles the clock domains of the decoded streams: it
// assigns synthetic timestamps to the clockless inertial stream and pairs
// high-rate records against a low-rate reference by nearest timestamp.
package timesync

import (
	"fmt"
	"math"

	"github.com/banshee-data/navsync/internal/nav"
)

// Relabel assigns timestamps to an inertial record sequence in file order:
// record i gets epoch + i/freq seconds, and its calendar fields are rewritten
// from the synthesized timestamp because later stages may read them directly.
//
// This is the single sanctioned mutation of a record after decode. The model
// assumes a perfectly uniform sampling interval anchored at epoch
// (conventionally the first valid position fix); it deliberately ignores
// sensor clock drift and jitter.
func Relabel(records []*nav.InertialRecord, epoch float64, freq float64) error {
	if math.IsNaN(epoch) || math.IsInf(epoch, 0) {
		return fmt.Errorf("timesync: reference epoch must be finite, got %v", epoch)
	}
	if freq <= 0 {
		return fmt.Errorf("timesync: sampling frequency must be positive, got %v", freq)
	}

	dt := 1.0 / freq
	for i, rec := range records {
		ts := epoch + float64(i)*dt
		rec.Timestamp = ts
		rec.Year, rec.Month, rec.Day, rec.Hour, rec.Minute, rec.Microsecond = nav.CalendarFromTime(ts)
	}
	return nil
}
