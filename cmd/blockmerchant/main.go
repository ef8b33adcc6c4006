// BlockMerchant drives the block placement engine from the command line:
// inspect stage assets, solve guest orders, run placement scripts and import
// block catalogs from spreadsheets and drawings.
//
// Build:
//
//	go build -o blockmerchant ./cmd/blockmerchant
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/piwi3910/BlockMerchant/internal/engine"
	"github.com/piwi3910/BlockMerchant/internal/logging"
	"github.com/piwi3910/BlockMerchant/internal/model"
	"github.com/piwi3910/BlockMerchant/internal/project"
	"github.com/spf13/cobra"
)

var errNoStage = errors.New("no stage file: pass --stage or set stage in the config")

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	stagePath  string

	cfg    model.AppConfig
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "blockmerchant",
		Short:         "Grid block placement engine",
		Long:          `Place, move and validate polyomino blocks on inventory, storage and serving grids.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", project.DefaultConfigPath(), "config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	root.PersistentFlags().StringVar(&a.stagePath, "stage", "", "stage asset file (overrides config)")

	root.AddCommand(
		newShowCmd(a),
		newSolveCmd(a),
		newRunCmd(a),
		newImportCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := project.LoadAppConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.stagePath != "" {
		cfg.Stage = a.stagePath
	}
	a.cfg = cfg
	a.logger = logging.New("blockmerchant", cfg.LogLevel, cmd.ErrOrStderr())
	a.logger.Debug("config loaded", "path", a.configPath, "stage", cfg.Stage, "spawn_slots", cfg.SpawnSlots)
	return nil
}

// loadStage reads the configured stage file.
func (a *app) loadStage() (model.Stage, error) {
	if a.cfg.Stage == "" {
		return model.Stage{}, errNoStage
	}
	stage, err := project.LoadStage(a.cfg.Stage)
	if err != nil {
		return model.Stage{}, err
	}
	a.logger.Info("stage loaded", "stage", stage.Name, "blocks", len(stage.Catalog.Blocks),
		"patterns", len(stage.Patterns), "guests", len(stage.Guests))
	return stage, nil
}

// newBoard returns a board holding the player's inventory grid.
func (a *app) newBoard() (*engine.Board, error) {
	b := engine.NewBoard(a.logger)
	if _, err := b.AddGrid("inventory", engine.KindInventory, a.cfg.Inventory.Width, a.cfg.Inventory.Height); err != nil {
		return nil, fmt.Errorf("failed to create inventory: %w", err)
	}
	return b, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
