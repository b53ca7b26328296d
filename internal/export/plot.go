package export

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/nvandessel/squadsim/internal/sim"
)

// PlotPNG renders all node activations over time as one line plot and
// writes it to path as a PNG.
func PlotPNG(path, title string, tr *sim.Trajectory) error {
	if tr.Len() == 0 {
		return fmt.Errorf("plot: empty trajectory")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = "activation"
	p.Y.Min, p.Y.Max = 0, 1.05
	p.Legend.Top = true

	for j, node := range tr.Nodes {
		pts := make(plotter.XYs, tr.Len())
		for i := range tr.Times {
			pts[i].X = tr.Times[i]
			pts[i].Y = tr.Values[i][j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plot: line for %s: %w", node, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(j)
		p.Add(line)
		p.Legend.Add(node, line)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("plot: creating directory: %w", err)
		}
	}
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: saving %s: %w", path, err)
	}
	return nil
}
