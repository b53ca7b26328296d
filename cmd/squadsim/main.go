package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "squadsim",
		Short: "Continuous simulation of Boolean regulatory networks",
		Long: `squadsim converts a Boolean regulatory-network model into a coupled
sigmoidal ODE system (the SQUAD transform) and simulates its trajectory
under time-scheduled perturbations.

Scenarios are YAML files describing topology rules, initial activations,
shape parameters, the time grid and perturbation windows. Completed runs
are stored locally and can be listed, exported to CSV, or plotted.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("data-dir", defaultDataDir(), "Directory for the run database")
	rootCmd.PersistentFlags().String("log-level", envOr("SQUADSIM_LOG_LEVEL", "info"), "Log level: info, debug, trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newRunsCmd(),
		newExportCmd(),
		newPlotCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("squadsim version %s\n", version)
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".squadsim"
	}
	return home + "/.squadsim"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
