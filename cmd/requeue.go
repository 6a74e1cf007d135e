package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/octave-labs/catalog-cli/internal/model"
)

var requeueCmd = &cobra.Command{
	Use:   "requeue <entity-id> <task-type>",
	Short: "Reset a task to pending so the next batch picks it up again",
	Long:  "Works on any status, including completed and skipped. The retry counter is reset.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tt, err := model.ParseTaskType(args[1])
		if err != nil {
			return err
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.RequeueTask(cmd.Context(), args[0], tt); err != nil {
			return err
		}
		fmt.Printf("requeued %s for entity %s\n", tt, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(requeueCmd)
}
