package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/octave-labs/catalog-cli/internal/model"
)

var statusFailures int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a per-stage status breakdown and recent failures",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		for _, tt := range model.AllTaskTypes {
			counts, err := env.Store.CountByStatus(cmd.Context(), tt)
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				fmt.Printf("%-20s (no tasks)\n", tt)
				continue
			}
			parts := make([]string, 0, len(counts))
			for _, c := range counts {
				parts = append(parts, fmt.Sprintf("%s=%d", c.Status, c.Count))
			}
			fmt.Printf("%-20s %s\n", tt, strings.Join(parts, " "))
		}

		if statusFailures <= 0 {
			return nil
		}
		fmt.Println()
		for _, tt := range model.AllTaskTypes {
			failures, err := env.Store.RecentFailures(cmd.Context(), tt, statusFailures)
			if err != nil {
				return err
			}
			for _, f := range failures {
				fmt.Printf("failed %s entity=%s retries=%d/%d: %s\n",
					f.Type, f.EntityID, f.RetryCount, f.MaxRetries, f.ErrorMessage)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().IntVar(&statusFailures, "failures", 5, "recent failures to show per stage (0 to hide)")
	rootCmd.AddCommand(statusCmd)
}
