package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/squadsim/internal/config"
	"github.com/nvandessel/squadsim/internal/export"
	"github.com/nvandessel/squadsim/internal/integrate"
	"github.com/nvandessel/squadsim/internal/logging"
	"github.com/nvandessel/squadsim/internal/logic"
	"github.com/nvandessel/squadsim/internal/network"
	"github.com/nvandessel/squadsim/internal/perturb"
	"github.com/nvandessel/squadsim/internal/sim"
	"github.com/nvandessel/squadsim/internal/squad"
	"github.com/nvandessel/squadsim/internal/store"
)

// newRunCmd creates the 'run' command: load a scenario, simulate it, store
// the resulting trajectory, and optionally export it.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "Simulate a scenario and store the trajectory",
		Long: `Simulates a scenario file (or the built-in toggle-switch demo) and
stores the sampled trajectory in the run database.

Examples:
  squadsim run scenario.yaml
  squadsim run --demo --plot toggle.png
  squadsim run scenario.yaml --csv out.csv --no-save`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}

	cmd.Flags().Bool("demo", false, "Run the built-in toggle-switch demo scenario")
	cmd.Flags().String("csv", "", "Also write the trajectory to this CSV file")
	cmd.Flags().String("plot", "", "Also render the trajectory to this PNG file")
	cmd.Flags().Bool("no-save", false, "Skip storing the run in the database")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	log := logging.NewLogger(level, os.Stderr)

	demo, _ := cmd.Flags().GetBool("demo")

	var scenario *config.Scenario
	var err error
	switch {
	case demo:
		scenario = config.Demo()
	case len(args) == 1:
		scenario, err = config.LoadFromFile(args[0])
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("a scenario file or --demo is required")
	}

	if err := scenario.Validate(); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}

	spec, err := buildRunSpec(scenario)
	if err != nil {
		return err
	}

	log.Info("simulating",
		"scenario", scenario.Name,
		"nodes", len(scenario.Rules),
		"horizon", scenario.Horizon,
		"step_size", scenario.StepSize,
		"events", len(spec.Events))

	started := time.Now()
	tr, err := sim.Run(cmd.Context(), spec)
	if err != nil {
		return err
	}
	log.Debug("simulation finished", "samples", tr.Len(), "elapsed", time.Since(started))

	var runID string
	if noSave, _ := cmd.Flags().GetBool("no-save"); !noSave {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		runID, err = saveRun(cmd.Context(), dataDir, scenario, tr)
		if err != nil {
			return err
		}
		log.Info("run stored", "id", runID)
	}

	if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
		if err := export.WriteCSVFile(csvPath, tr); err != nil {
			return err
		}
	}
	if plotPath, _ := cmd.Flags().GetString("plot"); plotPath != "" {
		if err := export.PlotPNG(plotPath, scenario.Name, tr); err != nil {
			return err
		}
	}

	return printRunResult(cmd, runID, scenario, tr)
}

// buildRunSpec wires a validated scenario into domain objects.
func buildRunSpec(scenario *config.Scenario) (sim.RunSpec, error) {
	rules := make(map[string]logic.Expr, len(scenario.Rules))
	for name, text := range scenario.Rules {
		if text == "" {
			rules[name] = nil // unregulated input node
			continue
		}
		expr, err := logic.Parse(text)
		if err != nil {
			return sim.RunSpec{}, fmt.Errorf("rule for %s: %w", name, err)
		}
		rules[name] = expr
	}

	model, err := network.New(rules)
	if err != nil {
		return sim.RunSpec{}, err
	}

	initial := make(map[string]float64, len(rules))
	for name := range rules {
		initial[name] = scenario.Initial[name] // absent nodes default to 0
	}

	specs := make([]perturb.Spec, len(scenario.Perturbations))
	for i, p := range scenario.Perturbations {
		specs[i] = perturb.Spec{Node: p.Node, At: p.At, Steps: p.Steps, Value: p.Value}
	}
	events, err := perturb.BuildTable(specs, scenario.StepSize)
	if err != nil {
		return sim.RunSpec{}, err
	}

	return sim.RunSpec{
		Model:    model,
		Initial:  initial,
		Params:   squad.Params{H: scenario.H, Gamma: scenario.Gamma},
		Horizon:  scenario.Horizon,
		StepSize: scenario.StepSize,
		Events:   events,
		Options: integrate.Options{
			AbsTol: scenario.Tolerances.Abs,
			RelTol: scenario.Tolerances.Rel,
		},
	}, nil
}

func saveRun(ctx context.Context, dataDir string, scenario *config.Scenario, tr *sim.Trajectory) (string, error) {
	s, err := store.NewSQLiteRunStore(dataDir)
	if err != nil {
		return "", err
	}
	defer s.Close()

	return s.SaveRun(ctx, store.Run{
		Name:     scenario.Name,
		H:        scenario.H,
		Gamma:    scenario.Gamma,
		Horizon:  scenario.Horizon,
		StepSize: scenario.StepSize,
		Nodes:    tr.Nodes,
	}, tr)
}

func printRunResult(cmd *cobra.Command, runID string, scenario *config.Scenario, tr *sim.Trajectory) error {
	final := tr.Final()

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		out := map[string]any{
			"run_id":   runID,
			"scenario": scenario.Name,
			"samples":  tr.Len(),
			"final":    final,
		}
		return json.NewEncoder(os.Stdout).Encode(out)
	}

	if runID != "" {
		fmt.Printf("run %s: %d samples over [0, %g]\n", runID, tr.Len(), scenario.Horizon)
	} else {
		fmt.Printf("%d samples over [0, %g]\n", tr.Len(), scenario.Horizon)
	}
	fmt.Println("final activations:")
	for _, node := range tr.Nodes {
		fmt.Printf("  %-12s %.4f\n", node, final[node])
	}
	return nil
}
