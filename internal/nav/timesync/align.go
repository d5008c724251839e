package timesync

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/navsync/internal/nav"
)

// Alignment quality thresholds. Fixed design constants for a ~95-100 Hz
// inertial stream against a ~1 Hz reference; comparisons are strict.
const (
	Within5ms  = 0.005
	Within10ms = 0.010
)

// AlignedPair pairs a query record with its nearest reference record.
// TimeDiff is the absolute timestamp difference in seconds.
type AlignedPair struct {
	Ref      *nav.PositionRecord
	Query    *nav.InertialRecord
	TimeDiff float64
}

// AlignmentReport summarizes the |Δt| distribution over a set of pairs.
type AlignmentReport struct {
	TotalPairs      int     `json:"total_pairs"`
	MaxTimeDiff     float64 `json:"max_time_diff"`
	MinTimeDiff     float64 `json:"min_time_diff"`
	AvgTimeDiff     float64 `json:"avg_time_diff"`
	PairsWithin5ms  int     `json:"pairs_within_5ms"`
	PairsWithin10ms int     `json:"pairs_within_10ms"`
}

// FractionWithin5ms returns PairsWithin5ms as a fraction of the total.
func (r AlignmentReport) FractionWithin5ms() float64 {
	if r.TotalPairs == 0 {
		return 0
	}
	return float64(r.PairsWithin5ms) / float64(r.TotalPairs)
}

// FractionWithin10ms returns PairsWithin10ms as a fraction of the total.
func (r AlignmentReport) FractionWithin10ms() float64 {
	if r.TotalPairs == 0 {
		return 0
	}
	return float64(r.PairsWithin10ms) / float64(r.TotalPairs)
}

// NearestIndex finds the index of the reference timestamp closest to q.
// refs must be sorted ascending with no duplicates. Ties pick the lower
// index. The second return is |refs[idx] - q|.
func NearestIndex(refs []float64, q float64) (int, float64) {
	idx := sort.SearchFloat64s(refs, q)
	switch {
	case idx == 0:
		return 0, math.Abs(refs[0] - q)
	case idx == len(refs):
		return len(refs) - 1, math.Abs(refs[len(refs)-1] - q)
	}

	left := math.Abs(refs[idx-1] - q)
	right := math.Abs(refs[idx] - q)
	if left <= right {
		return idx - 1, left
	}
	return idx, right
}

// Align pairs every query record with its nearest reference record by binary
// search: O(m log n) for m queries against n references.
//
// refs must be sorted ascending by timestamp with no duplicate or NaN
// timestamps, and queries must carry finite timestamps (run Relabel first);
// the caller owns that filtering, as a NaN here would silently corrupt the
// search.
func Align(refs []*nav.PositionRecord, queries []*nav.InertialRecord) []AlignedPair {
	if len(refs) == 0 || len(queries) == 0 {
		return nil
	}

	ts := make([]float64, len(refs))
	for i, r := range refs {
		ts[i] = r.Timestamp
	}

	pairs := make([]AlignedPair, 0, len(queries))
	for _, q := range queries {
		idx, diff := NearestIndex(ts, q.Timestamp)
		pairs = append(pairs, AlignedPair{Ref: refs[idx], Query: q, TimeDiff: diff})
	}
	return pairs
}

// Report computes alignment quality statistics over pairs.
func Report(pairs []AlignedPair) AlignmentReport {
	if len(pairs) == 0 {
		return AlignmentReport{}
	}

	diffs := make([]float64, len(pairs))
	var within5, within10 int
	for i, p := range pairs {
		diffs[i] = p.TimeDiff
		if p.TimeDiff < Within5ms {
			within5++
		}
		if p.TimeDiff < Within10ms {
			within10++
		}
	}

	return AlignmentReport{
		TotalPairs:      len(pairs),
		MaxTimeDiff:     floats.Max(diffs),
		MinTimeDiff:     floats.Min(diffs),
		AvgTimeDiff:     stat.Mean(diffs, nil),
		PairsWithin5ms:  within5,
		PairsWithin10ms: within10,
	}
}
