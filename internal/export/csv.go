// Package export renders trajectories to CSV files and PNG plots.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/nvandessel/squadsim/internal/sim"
)

// WriteCSV writes the trajectory as CSV: a "t" column followed by one
// column per node, one row per sample.
func WriteCSV(w io.Writer, tr *sim.Trajectory) error {
	cw := csv.NewWriter(w)

	header := append([]string{"t"}, tr.Nodes...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv: writing header: %w", err)
	}

	row := make([]string, len(tr.Nodes)+1)
	for i, t := range tr.Times {
		row[0] = formatFloat(t)
		for j := range tr.Nodes {
			row[j+1] = formatFloat(tr.Values[i][j])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the trajectory to a CSV file at path.
func WriteCSVFile(path string, tr *sim.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, tr); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.15g", v)
}
