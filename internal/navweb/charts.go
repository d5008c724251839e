package navweb

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// handleAlignmentChart renders the per-pair time offsets of a completed job as
// a scatter plot (HTML). This is a debugging-only endpoint to eyeball clock
// agreement without pulling the CSV export.
// Query params:
//   - job_id (required)
//   - max_points (optional; default 8000) to reduce payload size
func (s *Server) handleAlignmentChart(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "missing 'job_id' parameter")
		return
	}

	results := s.jobResults(jobID)
	if results == nil || len(results.Pairs) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no in-memory results for job")
		return
	}

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		var v int
		if _, err := fmt.Sscanf(mp, "%d", &v); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	pairs := results.Pairs
	stride := 1
	if len(pairs) > maxPoints {
		stride = int(math.Ceil(float64(len(pairs)) / float64(maxPoints)))
	}

	t0 := pairs[0].Ref.Timestamp
	data := make([]opts.ScatterData, 0, len(pairs)/stride+1)
	maxDiffMs := 0.0
	for i := 0; i < len(pairs); i += stride {
		p := pairs[i]
		diffMs := p.TimeDiff * 1000
		if diffMs > maxDiffMs {
			maxDiffMs = diffMs
		}
		data = append(data, opts.ScatterData{Value: []interface{}{p.Ref.Timestamp - t0, diffMs}})
	}
	if maxDiffMs == 0 {
		maxDiffMs = 1
	}

	subtitle := fmt.Sprintf("job=%s pairs=%d stride=%d avg=%.3fms within5ms=%.1f%%",
		jobID, len(pairs), stride,
		results.Report.AvgTimeDiff*1000,
		results.Report.FractionWithin5ms()*100)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Alignment Offsets", Theme: "dark", Width: "1200px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Alignment Time Offsets", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Elapsed (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Offset (ms)", NameLocation: "middle", NameGap: 40}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxDiffMs),
			Dimension:  "1",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}},
		}),
	)
	scatter.AddSeries("offset", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleResampleChart overlays the raw altitude samples with the resampled
// curve so interpolation quality can be eyeballed per run.
// Query params:
//   - job_id (required)
func (s *Server) handleResampleChart(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "missing 'job_id' parameter")
		return
	}

	results := s.jobResults(jobID)
	if results == nil || len(results.Resampled) == 0 || len(results.Positions) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no in-memory results for job")
		return
	}

	t0 := results.Resampled[0].Timestamp

	resampled := make([]opts.ScatterData, 0, len(results.Resampled))
	for _, rec := range results.Resampled {
		resampled = append(resampled, opts.ScatterData{Value: []interface{}{rec.Timestamp - t0, rec.Altitude}})
	}

	raw := make([]opts.ScatterData, 0, len(results.Positions))
	for _, rec := range results.Positions {
		if math.IsNaN(rec.Timestamp) {
			continue
		}
		raw = append(raw, opts.ScatterData{Value: []interface{}{rec.Timestamp - t0, rec.Altitude}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Resampling Overlay", Theme: "dark", Width: "1200px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Altitude: raw vs resampled", Subtitle: fmt.Sprintf("job=%s raw=%d resampled=%d", jobID, len(raw), len(resampled))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Elapsed (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Altitude (m)", NameLocation: "middle", NameGap: 40}),
	)

	scatter.AddSeries("resampled", resampled, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#35b779"}))
	scatter.AddSeries("raw", raw, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleTrajectoryChart renders the resampled horizontal trajectory coloured
// by altitude.
// Query params:
//   - job_id (required)
//   - max_points (optional; default 8000)
func (s *Server) handleTrajectoryChart(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "missing 'job_id' parameter")
		return
	}

	results := s.jobResults(jobID)
	if results == nil {
		s.writeJSONError(w, http.StatusNotFound, "no in-memory results for job")
		return
	}

	records := results.Resampled
	if len(records) == 0 {
		records = results.Positions
	}
	if len(records) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no position records for job")
		return
	}

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		var v int
		if _, err := fmt.Sscanf(mp, "%d", &v); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	stride := 1
	if len(records) > maxPoints {
		stride = int(math.Ceil(float64(len(records)) / float64(maxPoints)))
	}

	data := make([]opts.ScatterData, 0, len(records)/stride+1)
	minAlt := math.Inf(1)
	maxAlt := math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	for i := 0; i < len(records); i += stride {
		rec := records[i]
		if rec.Altitude < minAlt {
			minAlt = rec.Altitude
		}
		if rec.Altitude > maxAlt {
			maxAlt = rec.Altitude
		}
		minLon = math.Min(minLon, rec.Longitude)
		maxLon = math.Max(maxLon, rec.Longitude)
		minLat = math.Min(minLat, rec.Latitude)
		maxLat = math.Max(maxLat, rec.Latitude)
		data = append(data, opts.ScatterData{Value: []interface{}{rec.Longitude, rec.Latitude, rec.Altitude}})
	}
	if maxAlt <= minAlt {
		maxAlt = minAlt + 1
	}

	// Small padding so edge points stay visible.
	lonPad := (maxLon - minLon) * 0.05
	latPad := (maxLat - minLat) * 0.05
	if lonPad == 0 {
		lonPad = 1e-5
	}
	if latPad == 0 {
		latPad = 1e-5
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Trajectory", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Horizontal Trajectory", Subtitle: fmt.Sprintf("job=%s points=%d stride=%d", jobID, len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: minLon - lonPad, Max: maxLon + lonPad, Name: "Longitude (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: minLat - latPad, Max: maxLat + latPad, Name: "Latitude (deg)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minAlt),
			Max:        float32(maxAlt),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}},
		}),
	)
	scatter.AddSeries("trajectory", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
