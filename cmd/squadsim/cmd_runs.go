package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/squadsim/internal/store"
)

// newRunsCmd creates the 'runs' command listing stored runs.
func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored simulation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			s, err := store.NewSQLiteRunStore(dataDir)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Println("no stored runs")
				return nil
			}
			fmt.Printf("%-14s %-20s %-22s %6s %6s %8s %6s\n",
				"ID", "NAME", "CREATED", "H", "GAMMA", "HORIZON", "STEP")
			for _, run := range runs {
				fmt.Printf("%-14s %-20s %-22s %6g %6g %8g %6g  %s\n",
					run.ID, run.Name, run.CreatedAt.Format("2006-01-02 15:04:05"),
					run.H, run.Gamma, run.Horizon, run.StepSize,
					strings.Join(run.Nodes, ","))
			}
			return nil
		},
	}
}
