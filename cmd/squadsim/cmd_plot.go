package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/squadsim/internal/export"
	"github.com/nvandessel/squadsim/internal/store"
)

// newPlotCmd creates the 'plot' command rendering a stored run to PNG.
func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <run-id>",
		Short: "Render a stored run's trajectory to a PNG plot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = args[0] + ".png"
			}

			dataDir, _ := cmd.Flags().GetString("data-dir")
			s, err := store.NewSQLiteRunStore(dataDir)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tr, err := s.GetTrajectory(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			title, _ := cmd.Flags().GetString("title")
			if title == "" {
				title = run.Name
			}
			if err := export.PlotPNG(out, title, tr); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().String("out", "", "Output PNG path (default <run-id>.png)")
	cmd.Flags().String("title", "", "Plot title (default run name)")
	return cmd
}
