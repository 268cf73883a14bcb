package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/farg/internal/app"
	"github.com/nvandessel/farg/internal/stopping"
	"github.com/spf13/cobra"
)

func newConditionsCmd(application *app.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "conditions",
		Short: "List the stopping conditions usable with --stopping_condition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			table := application.StoppingConditions
			if table == nil {
				table = stopping.NewTable(stopping.Defaults())
			}
			names := table.Names()

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"conditions": names,
					"count":      len(names),
				})
			}

			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stopping conditions registered.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopping conditions (%d):\n", len(names))
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", name)
			}
			return nil
		},
	}
}
