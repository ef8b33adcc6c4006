package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/BlockMerchant/internal/model"
)

// BundleVersion is written into every bundle.
const BundleVersion = "1.0.0"

// Bundle is the top-level structure for sharing a configuration together with
// the stage assets it was used with.
type Bundle struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Stage     model.Stage     `json:"stage"`
}

// ExportBundle writes config and stage to a single JSON file.
func ExportBundle(exportPath string, config model.AppConfig, stage model.Stage) error {
	bundle := Bundle{
		Version:   BundleVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Stage:     stage,
	}
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}

	dir := filepath.Dir(exportPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write bundle file: %w", err)
	}
	return nil
}

// ImportBundle reads a bundle file and validates the contained stage.
// The caller is responsible for applying the imported config.
func ImportBundle(importPath string) (Bundle, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to read bundle file: %w", err)
	}
	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return Bundle{}, fmt.Errorf("failed to parse bundle file: %w", err)
	}
	if bundle.Version == "" {
		return Bundle{}, fmt.Errorf("invalid bundle file: missing version field")
	}
	applyStageDefaults(&bundle.Stage)
	if err := ValidateStage(bundle.Stage); err != nil {
		return Bundle{}, fmt.Errorf("invalid bundle stage: %w", err)
	}
	return bundle, nil
}
