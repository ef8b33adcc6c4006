package main

import (
	"errors"
	"io"
	"os"

	"github.com/piwi3910/BlockMerchant/internal/export"
	"github.com/piwi3910/BlockMerchant/internal/model"
	"github.com/piwi3910/BlockMerchant/internal/script"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var pdfPath, labelsPath, textPath string
	cmd := &cobra.Command{
		Use:   "run <script|->",
		Short: "Run a placement script against a fresh board",
		Long: `Run a placement script against a board holding the configured inventory grid.
The stage, when configured, supplies blocks, patterns and guests. Use - to read
the script from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := a.loadStage()
			if errors.Is(err, errNoStage) {
				stage = model.Stage{Name: "scratch"}
			} else if err != nil {
				return err
			}

			var src io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}

			b, err := a.newBoard()
			if err != nil {
				return err
			}
			r := script.New(b, stage, script.Options{
				Slots:  a.cfg.SpawnSlots,
				Seed:   a.cfg.Seed,
				Out:    cmd.OutOrStdout(),
				Logger: a.logger,
			})
			if err := r.Run(src); err != nil {
				return err
			}

			planes := b.Grids()
			if pdfPath != "" {
				if err := export.ExportPDF(pdfPath, planes); err != nil {
					return err
				}
				a.logger.Info("wrote board", "path", pdfPath)
			}
			if labelsPath != "" {
				if err := export.ExportLabels(labelsPath, planes); err != nil {
					return err
				}
				a.logger.Info("wrote labels", "path", labelsPath)
			}
			if textPath != "" {
				if err := export.ExportText(textPath, planes); err != nil {
					return err
				}
				a.logger.Info("wrote board text", "path", textPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "write the final board as PDF")
	cmd.Flags().StringVar(&labelsPath, "labels", "", "write QR labels for the placed blocks")
	cmd.Flags().StringVar(&textPath, "text", "", "write the final board as text")
	return cmd
}
