package main

import (
	"fmt"

	"github.com/piwi3910/BlockMerchant/internal/engine"
	"github.com/piwi3910/BlockMerchant/internal/export"
	"github.com/piwi3910/BlockMerchant/internal/order"
	"github.com/spf13/cobra"
)

func newSolveCmd(a *app) *cobra.Command {
	var pdfPath, labelsPath string
	var maxSteps int
	cmd := &cobra.Command{
		Use:   "solve <guest>",
		Short: "Find a layout of a guest's order on their serving pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := a.loadStage()
			if err != nil {
				return err
			}
			g, ok := stage.Guest(args[0])
			if !ok {
				return fmt.Errorf("unknown guest %q", args[0])
			}
			pat, ok := stage.Pattern(g.Pattern)
			if !ok {
				return fmt.Errorf("guest %q has no serving pattern", g.ID)
			}
			required, err := stage.OrderBlocks(g)
			if err != nil {
				return err
			}

			b := engine.NewBoard(a.logger)
			tray, err := b.AddGrid("tray", engine.KindServing, pat.Width, pat.Height)
			if err != nil {
				return err
			}
			if err := b.ApplyPattern(tray.ID(), pat); err != nil {
				return err
			}

			if !cmd.Flags().Changed("max-steps") {
				maxSteps = a.cfg.Solver.MaxSteps
			}
			layout, err := b.Solve(tray.ID(), required, maxSteps)
			if err != nil {
				return err
			}
			for _, as := range layout {
				if _, reason := b.Place(tray.ID(), as.Origin, as.Shape, as.Block); reason != engine.ReasonNone {
					return fmt.Errorf("solved layout rejected %s at %s: %s", as.Block.Name, as.Origin, reason)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, export.RenderText(tray))
			fmt.Fprintf(out, "price: %d gold, up to %d points\n", order.Price(tray, g), order.Points(g, g.Patience))

			planes := []*engine.Plane{tray}
			if pdfPath != "" {
				if err := export.ExportPDF(pdfPath, planes); err != nil {
					return err
				}
				a.logger.Info("wrote layout", "path", pdfPath)
			}
			if labelsPath != "" {
				if err := export.ExportLabels(labelsPath, planes); err != nil {
					return err
				}
				a.logger.Info("wrote labels", "path", labelsPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "write the layout as PDF")
	cmd.Flags().StringVar(&labelsPath, "labels", "", "write QR labels for the placed blocks")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "search step limit (default from config)")
	return cmd
}
