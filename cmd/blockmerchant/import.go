package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/BlockMerchant/internal/importer"
	"github.com/piwi3910/BlockMerchant/internal/model"
	"github.com/piwi3910/BlockMerchant/internal/project"
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var outPath string
	var cellSize float64
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import blocks (CSV, XLSX, DXF), patterns (text) and bundles into a stage file",
		Long: `Import block catalogs from CSV or Excel sheets, block outlines from DXF drawings
and guest patterns from text files. Files ending in .bundle.json, as written by
the export command, contribute their blocks, patterns and guests. Imported assets are merged into the output
stage file, which is created when missing. Blocks whose name is already in the
catalog are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				outPath = a.cfg.Stage
			}
			if outPath == "" {
				return errors.New("no output stage: pass --out or set stage in the config")
			}

			stage, err := project.LoadStage(outPath)
			if errors.Is(err, os.ErrNotExist) {
				name := strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
				stage = model.Stage{Name: name, Catalog: model.Catalog{Name: name}}
			} else if err != nil {
				return err
			}

			var blocks, patterns int
			for _, path := range args {
				if strings.HasSuffix(strings.ToLower(path), ".bundle.json") {
					bundle, err := project.ImportBundle(path)
					if err != nil {
						return err
					}
					a.logger.Info("read bundle", "file", path, "version", bundle.Version, "created", bundle.CreatedAt)
					blocks += a.mergeBlocks(&stage, path, importer.ImportResult{Blocks: bundle.Stage.Catalog.Blocks})
					patterns += a.mergePatterns(&stage, path, bundle.Stage.Patterns...)
					a.mergeGuests(&stage, path, bundle.Stage.Guests)
					continue
				}
				switch strings.ToLower(filepath.Ext(path)) {
				case ".csv", ".tsv":
					blocks += a.mergeBlocks(&stage, path, importer.ImportCSV(path))
				case ".xlsx", ".xlsm":
					blocks += a.mergeBlocks(&stage, path, importer.ImportExcel(path))
				case ".dxf":
					blocks += a.mergeBlocks(&stage, path, importer.ImportDXF(path, cellSize))
				default:
					p, err := importer.ImportPattern(path)
					if err != nil {
						return err
					}
					patterns += a.mergePatterns(&stage, path, p)
				}
			}

			if err := project.ValidateStage(stage); err != nil {
				return fmt.Errorf("imported stage is invalid: %w", err)
			}
			if err := project.SaveStage(outPath, stage); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d blocks and %d patterns into %s\n", blocks, patterns, outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "stage file to write (default: configured stage)")
	cmd.Flags().Float64Var(&cellSize, "cell-size", 1, "DXF drawing units per grid cell")
	return cmd
}

// mergeBlocks logs the import problems of one file and appends its new blocks
// to the stage catalog. It returns how many blocks were added.
func (a *app) mergeBlocks(stage *model.Stage, path string, result importer.ImportResult) int {
	for _, w := range result.Warnings {
		a.logger.Warn(w, "file", path)
	}
	for _, e := range result.Errors {
		a.logger.Error(e, "file", path)
	}
	added := 0
	for _, b := range result.Blocks {
		if _, ok := stage.Catalog.Lookup(b.Name); ok {
			a.logger.Warn("block already in catalog, skipped", "file", path, "block", b.Name)
			continue
		}
		stage.Catalog.Blocks = append(stage.Catalog.Blocks, b)
		added++
	}
	a.logger.Info("imported blocks", "file", path, "added", added, "errors", len(result.Errors))
	return added
}

func (a *app) mergePatterns(stage *model.Stage, path string, patterns ...model.Pattern) int {
	added := 0
	for _, p := range patterns {
		if _, ok := stage.Pattern(p.Name); ok {
			a.logger.Warn("pattern already in stage, skipped", "file", path, "pattern", p.Name)
			continue
		}
		stage.Patterns = append(stage.Patterns, p)
		added++
	}
	return added
}

func (a *app) mergeGuests(stage *model.Stage, path string, guests []model.Guest) {
	for _, g := range guests {
		if _, ok := stage.Guest(g.ID); ok {
			a.logger.Warn("guest already in stage, skipped", "file", path, "guest", g.ID)
			continue
		}
		stage.Guests = append(stage.Guests, g)
	}
}
