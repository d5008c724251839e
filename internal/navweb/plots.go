package navweb

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/navsync/internal/nav"
	"github.com/banshee-data/navsync/internal/nav/pipeline"
)

// SavePlots writes PNG summaries of a pipeline run into dir: alignment
// offsets over time, the horizontal trajectory, and the altitude profile.
// Returns the number of plots generated.
func SavePlots(dir string, results *pipeline.Results) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	count := 0
	if len(results.Pairs) > 0 {
		if err := saveAlignmentPlot(filepath.Join(dir, "alignment_offsets.png"), results); err != nil {
			return count, err
		}
		count++
	}

	records := results.Resampled
	if len(records) == 0 {
		records = results.Positions
	}
	if len(records) > 0 {
		if err := saveTrajectoryPlot(filepath.Join(dir, "trajectory.png"), records); err != nil {
			return count, err
		}
		count++
		if err := saveAltitudePlot(filepath.Join(dir, "altitude.png"), records); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func saveAlignmentPlot(path string, results *pipeline.Results) error {
	p := plot.New()
	p.Title.Text = "Alignment Time Offsets"
	p.X.Label.Text = "Elapsed (s)"
	p.Y.Label.Text = "Offset (ms)"

	pairs := results.Pairs
	t0 := pairs[0].Ref.Timestamp

	pts := make(plotter.XYs, 0, len(pairs))
	for _, pair := range pairs {
		pts = append(pts, plotter.XY{X: pair.Ref.Timestamp - t0, Y: pair.TimeDiff * 1000})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("avg %.3fms", results.Report.AvgTimeDiff*1000), line)
	p.Legend.Top = true

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save alignment plot: %w", err)
	}
	return nil
}

func saveTrajectoryPlot(path string, records []*nav.PositionRecord) error {
	p := plot.New()
	p.Title.Text = "Horizontal Trajectory"
	p.X.Label.Text = "Longitude (deg)"
	p.Y.Label.Text = "Latitude (deg)"

	pts := make(plotter.XYs, 0, len(records))
	for _, r := range records {
		pts = append(pts, plotter.XY{X: r.Longitude, Y: r.Latitude})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(10*vg.Inch, 10*vg.Inch, path); err != nil {
		return fmt.Errorf("save trajectory plot: %w", err)
	}
	return nil
}

func saveAltitudePlot(path string, records []*nav.PositionRecord) error {
	p := plot.New()
	p.Title.Text = "Altitude Profile"
	p.X.Label.Text = "Elapsed (s)"
	p.Y.Label.Text = "Altitude (m)"

	t0 := records[0].Timestamp
	pts := make(plotter.XYs, 0, len(records))
	for _, r := range records {
		pts = append(pts, plotter.XY{X: r.Timestamp - t0, Y: r.Altitude})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save altitude plot: %w", err)
	}
	return nil
}
