// Package resample converts a sparse, possibly irregular position stream into
// a dense uniformly spaced one by per-channel interpolation onto an explicit
// target timeline.
//
// Preprocessing is mandatory and idempotent: records with the NaN timestamp
// sentinel are dropped, the remainder is sorted ascending, and timestamps
// closer than 1 ns to the previously kept record are deduplicated. Fewer than
// two surviving records is the one fatal condition.
package resample

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/navsync/internal/nav"
)

// ErrInsufficientData is returned when fewer than two usable records survive
// preprocessing; interpolation needs at least one segment.
var ErrInsufficientData = errors.New("resample: fewer than two usable records")

// DuplicateEpsilon is the minimum timestamp separation between kept records.
const DuplicateEpsilon = 1e-9

// Method selects the interpolation strategy.
type Method int

const (
	MethodLinear Method = iota
	MethodSpline
)

// ParseMethod maps a configuration name to a Method.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "linear":
		return MethodLinear, nil
	case "spline":
		return MethodSpline, nil
	}
	return 0, fmt.Errorf("resample: unknown interpolation method %q", name)
}

// Boundary selects the cubic-spline boundary condition.
type Boundary int

const (
	BoundaryNatural Boundary = iota
	BoundaryClamped
	BoundaryNotAKnot
)

// ParseBoundary maps a configuration name to a Boundary.
func ParseBoundary(name string) (Boundary, error) {
	switch name {
	case "natural":
		return BoundaryNatural, nil
	case "clamped":
		return BoundaryClamped, nil
	case "not-a-knot":
		return BoundaryNotAKnot, nil
	}
	return 0, fmt.Errorf("resample: unknown boundary condition %q", name)
}

// Options configures a resampling run.
type Options struct {
	Method   Method
	Boundary Boundary // spline only
}

// Diagnostics reports the data-quality conditions of a run. Extrapolations is
// the count of target timestamps outside the source range; extrapolation
// error is unbounded so callers should treat a nonzero count as a warning,
// but it does not abort the run.
type Diagnostics struct {
	DroppedNaN        int
	DroppedDuplicates int
	Extrapolations    int
}

// channel indices into the per-channel series arrays
const (
	chLon = iota
	chLat
	chAlt
	chVelX
	chVelY
	chVelZ
	numChannels
)

// Resample interpolates records onto targets, an ascending slice of
// timestamps. It is a pure function: identical inputs yield identical
// outputs. The returned records carry the target timestamps and interpolated
// channel values; their calendar fields are copied verbatim from the first
// record of the unfiltered input and must not be treated as accurate.
func Resample(records []*nav.PositionRecord, targets []float64, opts Options) ([]*nav.PositionRecord, Diagnostics, error) {
	clean, diag := Preprocess(records)
	if len(clean) < 2 {
		return nil, diag, ErrInsufficientData
	}

	xs := make([]float64, len(clean))
	series := make([][]float64, numChannels)
	for ch := range series {
		series[ch] = make([]float64, len(clean))
	}
	for i, r := range clean {
		xs[i] = r.Timestamp
		series[chLon][i] = r.Longitude
		series[chLat][i] = r.Latitude
		series[chAlt][i] = r.Altitude
		series[chVelX][i] = r.VelX
		series[chVelY][i] = r.VelY
		series[chVelZ][i] = r.VelZ
	}

	for _, t := range targets {
		if t < xs[0] || t > xs[len(xs)-1] {
			diag.Extrapolations++
		}
	}

	var (
		out [numChannels][]float64
		err error
	)
	switch opts.Method {
	case MethodLinear:
		for ch := range series {
			out[ch] = linearResample(xs, series[ch], targets)
		}
	case MethodSpline:
		for ch := range series {
			out[ch], err = splineResample(xs, series[ch], targets, opts.Boundary)
			if err != nil {
				return nil, diag, err
			}
		}
	default:
		return nil, diag, fmt.Errorf("resample: unknown method %d", opts.Method)
	}

	base := records[0]
	result := make([]*nav.PositionRecord, len(targets))
	for i, t := range targets {
		result[i] = &nav.PositionRecord{
			Timestamp:   t,
			Year:        base.Year,
			Month:       base.Month,
			Day:         base.Day,
			Hour:        base.Hour,
			Minute:      base.Minute,
			Microsecond: base.Microsecond,
			Longitude:   out[chLon][i],
			Latitude:    out[chLat][i],
			Altitude:    out[chAlt][i],
			VelX:        out[chVelX][i],
			VelY:        out[chVelY][i],
			VelZ:        out[chVelZ][i],
			Valid:       true,
		}
	}
	return result, diag, nil
}

// Preprocess drops NaN-timestamped records, sorts the rest ascending, and
// deduplicates timestamps closer than DuplicateEpsilon to the previously
// kept record (earliest occurrence wins). The input slice is not modified.
func Preprocess(records []*nav.PositionRecord) ([]*nav.PositionRecord, Diagnostics) {
	var diag Diagnostics

	kept := make([]*nav.PositionRecord, 0, len(records))
	for _, r := range records {
		if math.IsNaN(r.Timestamp) {
			diag.DroppedNaN++
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Timestamp < kept[j].Timestamp
	})

	dedup := kept[:0]
	for _, r := range kept {
		if len(dedup) > 0 && r.Timestamp-dedup[len(dedup)-1].Timestamp < DuplicateEpsilon {
			diag.DroppedDuplicates++
			continue
		}
		dedup = append(dedup, r)
	}

	return dedup, diag
}
