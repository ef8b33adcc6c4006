package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/piwi3910/BlockMerchant/internal/engine"
	"github.com/piwi3910/BlockMerchant/internal/export"
	"github.com/piwi3910/BlockMerchant/internal/model"
	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the blocks, patterns and guests of a stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := a.loadStage()
			if err != nil {
				return err
			}
			return printStage(cmd.OutOrStdout(), stage)
		},
	}
}

func printStage(w io.Writer, stage model.Stage) error {
	fmt.Fprintf(w, "Stage %s\n\nBlocks (%d):\n", stage.Name, len(stage.Catalog.Blocks))
	for _, b := range stage.Catalog.Blocks {
		request := string(b.Request)
		if request == "" {
			request = "-"
		}
		fmt.Fprintf(w, "  %-12s %-8s %s  %d cells\n", b.Name, request, b.Color.Hex(), b.Shape.Len())
		art, err := shapeArt(b.Shape)
		if err != nil {
			return fmt.Errorf("block %q: %w", b.Name, err)
		}
		for _, row := range art {
			fmt.Fprintf(w, "    %s\n", row)
		}
	}

	fmt.Fprintf(w, "\nPatterns (%d):\n", len(stage.Patterns))
	for _, p := range stage.Patterns {
		fmt.Fprintf(w, "  %s %dx%d, %d usable\n", p.Name, p.Width, p.Height, p.UsableCount())
		for _, row := range p.Rows() {
			fmt.Fprintf(w, "    %s\n", row)
		}
	}

	fmt.Fprintf(w, "\nGuests (%d):\n", len(stage.Guests))
	for _, g := range stage.Guests {
		fmt.Fprintf(w, "  %s: pays %d, waits %.0fs, pattern %q, order [%s]",
			g.ID, g.Payment, g.Patience, g.Pattern, strings.Join(g.Order, ", "))
		if g.Prefers != model.RequestNone {
			fmt.Fprintf(w, ", prefers %s", g.Prefers)
		}
		if g.Avoids != model.RequestNone {
			fmt.Fprintf(w, ", avoids %s", g.Avoids)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// shapeArt draws a shape on a scratch plane sized to its bounds, top row first.
func shapeArt(shape model.Shape) ([]string, error) {
	norm := shape.Normalize()
	w, h := norm.Bounds()
	p, err := engine.NewPlane("shape", engine.KindStorage, w, h, nil)
	if err != nil {
		return nil, err
	}
	if !norm.IsEmpty() {
		rec := engine.NewRecord(model.BlockDef{}, norm)
		p.Place(model.Cell{}, norm, rec)
	}
	lines := strings.Split(strings.TrimRight(export.RenderText(p), "\n"), "\n")
	// Drop the header and the legend line.
	return lines[1 : 1+h], nil
}
