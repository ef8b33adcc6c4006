package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/piwi3910/BlockMerchant/internal/model"
	"gopkg.in/yaml.v3"
)

// SaveStage writes a stage asset file. Files ending in .json are written as
// JSON, everything else as YAML.
func SaveStage(path string, stage model.Stage) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create stage directory: %w", err)
	}
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(stage, "", "  ")
	} else {
		data, err = yaml.Marshal(stage)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal stage: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write stage file: %w", err)
	}
	return nil
}

// LoadStage reads a stage asset file, fills in defaults for missing block IDs
// and guest terms, and validates the cross references between guests,
// patterns and the catalog.
func LoadStage(path string) (model.Stage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Stage{}, fmt.Errorf("failed to read stage file: %w", err)
	}
	var stage model.Stage
	if isJSON(path) {
		err = json.Unmarshal(data, &stage)
	} else {
		err = yaml.Unmarshal(data, &stage)
	}
	if err != nil {
		return model.Stage{}, fmt.Errorf("failed to parse stage file: %w", err)
	}
	if stage.Name == "" {
		stage.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	applyStageDefaults(&stage)
	if err := ValidateStage(stage); err != nil {
		return model.Stage{}, fmt.Errorf("invalid stage %q: %w", stage.Name, err)
	}
	return stage, nil
}

func applyStageDefaults(stage *model.Stage) {
	for i := range stage.Catalog.Blocks {
		b := &stage.Catalog.Blocks[i]
		if b.ID == "" {
			b.ID = uuid.New().String()[:8]
		}
		if b.Color == (model.Color{}) {
			b.Color = model.White
		}
	}
	for i := range stage.Guests {
		g := &stage.Guests[i]
		if g.Patience == 0 {
			g.Patience = model.DefaultPatience
		}
		if g.Payment == 0 {
			g.Payment = model.DefaultPayment
		}
	}
}

// ValidateStage checks the catalog and that every guest refers to known
// patterns and blocks.
func ValidateStage(stage model.Stage) error {
	var errs []error
	if err := stage.Catalog.Validate(); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]bool, len(stage.Patterns))
	for _, p := range stage.Patterns {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("pattern %q: duplicate name", p.Name))
		}
		seen[p.Name] = true
	}
	ids := make(map[string]bool, len(stage.Guests))
	for i, g := range stage.Guests {
		if g.ID == "" {
			errs = append(errs, fmt.Errorf("guest %d: missing id", i+1))
		} else if ids[g.ID] {
			errs = append(errs, fmt.Errorf("guest %q: duplicate id", g.ID))
		}
		ids[g.ID] = true
		if g.Pattern != "" && !seen[g.Pattern] {
			errs = append(errs, fmt.Errorf("guest %q: unknown pattern %q", g.ID, g.Pattern))
		}
		if _, err := stage.OrderBlocks(g); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
