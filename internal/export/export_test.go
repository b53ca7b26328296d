package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/squadsim/internal/sim"
)

func testTrajectory() *sim.Trajectory {
	return &sim.Trajectory{
		Nodes:  []string{"A", "B"},
		Times:  []float64{0, 0.5, 1},
		Values: [][]float64{{0, 1}, {0.25, 0.75}, {0.5, 0.5}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testTrajectory()); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4 (header + 3 samples):\n%s", len(lines), buf.String())
	}
	if lines[0] != "t,A,B" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "0.5,0.25,0.75" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteCSVFile(path, testTrajectory()); err != nil {
		t.Fatalf("WriteCSVFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.HasPrefix(string(data), "t,A,B\n") {
		t.Errorf("file content = %q", data)
	}
}

func TestPlotPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "out.png")
	if err := PlotPNG(path, "test run", testTrajectory()); err != nil {
		t.Fatalf("PlotPNG: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}

func TestPlotPNG_EmptyTrajectory(t *testing.T) {
	tr := &sim.Trajectory{Nodes: []string{"A"}}
	if err := PlotPNG(filepath.Join(t.TempDir(), "out.png"), "empty", tr); err == nil {
		t.Error("expected error for empty trajectory")
	}
}
