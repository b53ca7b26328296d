package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/squadsim/internal/export"
	"github.com/nvandessel/squadsim/internal/store"
)

// newExportCmd creates the 'export' command writing a stored run to CSV.
func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a stored run's trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = args[0] + ".csv"
			}

			dataDir, _ := cmd.Flags().GetString("data-dir")
			s, err := store.NewSQLiteRunStore(dataDir)
			if err != nil {
				return err
			}
			defer s.Close()

			tr, err := s.GetTrajectory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := export.WriteCSVFile(out, tr); err != nil {
				return err
			}
			fmt.Printf("wrote %s (%d samples)\n", out, tr.Len())
			return nil
		},
	}

	cmd.Flags().String("out", "", "Output CSV path (default <run-id>.csv)")
	return cmd
}
