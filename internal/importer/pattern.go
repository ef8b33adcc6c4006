package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/BlockMerchant/internal/model"
)

// ParsePattern reads a guest pattern drawn as text, top row first. Blank
// lines and surrounding whitespace are ignored. '#', 'X' and '1' mark usable
// cells; '.', '0' and '-' mark blocked ones.
func ParsePattern(name, text string) (model.Pattern, error) {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	p, err := model.ParsePatternRows(name, rows)
	if err != nil {
		return model.Pattern{}, fmt.Errorf("failed to parse pattern: %w", err)
	}
	return p, nil
}

// ImportPattern reads a pattern file. The pattern is named after the file.
func ImportPattern(path string) (model.Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Pattern{}, fmt.Errorf("failed to read pattern file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParsePattern(name, string(data))
}
