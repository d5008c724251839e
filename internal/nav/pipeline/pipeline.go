// Package pipeline runs the full reconciliation pass over one set of raw
// logs: decode, synthetic-clock relabeling, resampling of the position
// stream onto a uniform timeline, and alignment quality evaluation.
//
// The core stages are pure and synchronous; independent runs may execute
// concurrently as long as each operates on its own inputs. Cancellation, if
// needed, wraps a whole Run, since the stages themselves have no suspension
// points.
package pipeline

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/banshee-data/navsync/internal/monitoring"
	"github.com/banshee-data/navsync/internal/nav"
	"github.com/banshee-data/navsync/internal/nav/frame"
	"github.com/banshee-data/navsync/internal/nav/resample"
	"github.com/banshee-data/navsync/internal/nav/timesync"
)

// Results is the typed output of one pipeline run.
type Results struct {
	Positions []*nav.PositionRecord
	Inertials []*nav.InertialRecord
	Fused     []*nav.FusedRecord
	Resampled []*nav.PositionRecord
	Pairs     []timesync.AlignedPair
	Report    timesync.AlignmentReport

	ScanDiag     frame.Diagnostics
	InertialDiag frame.Diagnostics
	FusedDiag    frame.Diagnostics
	ResampleDiag resample.Diagnostics
}

// Pipeline executes the staged reconciliation pass described by its Config.
type Pipeline struct {
	cfg *Config
}

// New creates a Pipeline after validating cfg.
func New(cfg *Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.GetPositionFile() == "" || cfg.GetInertialFile() == "" {
		return nil, fmt.Errorf("pipeline: position and inertial input files are required")
	}
	return &Pipeline{cfg: cfg}, nil
}

// Run executes all stages and returns the collected results.
func (p *Pipeline) Run() (*Results, error) {
	res := &Results{}

	if err := p.load(res); err != nil {
		return nil, err
	}
	if err := p.relabel(res); err != nil {
		return nil, err
	}
	if err := p.resample(res); err != nil {
		return nil, err
	}
	p.align(res)

	return res, nil
}

func (p *Pipeline) load(res *Results) error {
	text, err := os.ReadFile(p.cfg.GetPositionFile())
	if err != nil {
		return fmt.Errorf("pipeline: reading position log: %w", err)
	}
	raw, err := frame.DecodeHexDump(text)
	if err != nil {
		return fmt.Errorf("pipeline: position log: %w", err)
	}
	res.Positions, _, res.ScanDiag = frame.ScanCombined(raw)
	monitoring.Stagef("load", "position log: %d records, %d resyncs, %d trailing bytes",
		len(res.Positions), res.ScanDiag.Resyncs, res.ScanDiag.TrailingBytes)

	f, err := os.Open(p.cfg.GetInertialFile())
	if err != nil {
		return fmt.Errorf("pipeline: reading inertial log: %w", err)
	}
	defer f.Close()
	res.Inertials, res.InertialDiag, err = frame.ScanInertialLines(f)
	if err != nil {
		return fmt.Errorf("pipeline: inertial log: %w", err)
	}
	monitoring.Stagef("load", "inertial log: %d records, %d lines skipped",
		len(res.Inertials), res.InertialDiag.SkippedLines)

	if path := p.cfg.GetFusedFile(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("pipeline: reading fused log: %w", err)
		}
		if frame.LooksLikeFusedText(data) {
			res.Fused, res.FusedDiag, err = frame.ScanFusedText(bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("pipeline: fused log: %w", err)
			}
		} else {
			res.Fused, res.FusedDiag = frame.ScanFused(frame.NormalizeFused(data))
		}
		monitoring.Stagef("load", "fused log: %d records, %d unknown modes",
			len(res.Fused), res.FusedDiag.UnknownModes)
	}

	return nil
}

// relabel anchors the inertial stream's synthetic clock at the first valid
// position fix.
func (p *Pipeline) relabel(res *Results) error {
	epoch := math.NaN()
	for _, pos := range res.Positions {
		if !math.IsNaN(pos.Timestamp) {
			epoch = pos.Timestamp
			break
		}
	}
	if math.IsNaN(epoch) {
		return fmt.Errorf("pipeline: no valid position fix to anchor the inertial clock")
	}

	if err := timesync.Relabel(res.Inertials, epoch, p.cfg.GetInertialFrequency()); err != nil {
		return err
	}
	monitoring.Stagef("timesync", "relabeled %d inertial records from epoch %.3f at %g Hz",
		len(res.Inertials), epoch, p.cfg.GetInertialFrequency())
	return nil
}

func (p *Pipeline) resample(res *Results) error {
	method, err := resample.ParseMethod(p.cfg.GetMethod())
	if err != nil {
		return err
	}
	boundary, err := resample.ParseBoundary(p.cfg.GetBoundary())
	if err != nil {
		return err
	}

	clean, _ := resample.Preprocess(res.Positions)
	if len(clean) < 2 {
		return resample.ErrInsufficientData
	}
	targets := Timeline(clean[0].Timestamp, clean[len(clean)-1].Timestamp, p.cfg.GetTargetFrequency())

	res.Resampled, res.ResampleDiag, err = resample.Resample(res.Positions, targets, resample.Options{
		Method:   method,
		Boundary: boundary,
	})
	if err != nil {
		return err
	}
	monitoring.Stagef("resample", "%s: %d -> %d records (%d NaN dropped, %d duplicates, %d extrapolated)",
		p.cfg.GetMethod(), len(res.Positions), len(res.Resampled),
		res.ResampleDiag.DroppedNaN, res.ResampleDiag.DroppedDuplicates, res.ResampleDiag.Extrapolations)
	return nil
}

func (p *Pipeline) align(res *Results) {
	refs := res.Resampled
	if len(refs) == 0 {
		refs = res.Positions
	}

	queries := res.Inertials
	if limit := p.cfg.GetAlignSampleLimit(); limit > 0 && len(queries) > limit {
		queries = queries[:limit]
	}

	res.Pairs = timesync.Align(refs, queries)
	res.Report = timesync.Report(res.Pairs)
	monitoring.Stagef("align", "%d pairs, avg |dt| %.3f ms, %.1f%% within 5 ms",
		res.Report.TotalPairs, res.Report.AvgTimeDiff*1000, res.Report.FractionWithin5ms()*100)
}

// Timeline builds a uniform timeline from start to end inclusive at freq Hz:
// n = floor((end-start)*freq) points spread evenly across the span, matching
// the resampling timeline of the device's desktop tooling. A degenerate span
// still yields the two endpoints.
func Timeline(start, end, freq float64) []float64 {
	n := int((end - start) * freq)
	if n < 2 {
		n = 2
	}

	ts := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range ts {
		ts[i] = start + float64(i)*step
	}
	ts[n-1] = end
	return ts
}
