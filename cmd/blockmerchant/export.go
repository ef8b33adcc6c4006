package main

import (
	"fmt"

	"github.com/piwi3910/BlockMerchant/internal/project"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <bundle.json>",
		Short: "Bundle the current config and stage into one JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := a.loadStage()
			if err != nil {
				return err
			}
			if err := project.ExportBundle(args[0], a.cfg, stage); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", stage.Name, args[0])
			return nil
		},
	}
}
