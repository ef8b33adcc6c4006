package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/piwi3910/BlockMerchant/internal/engine"
	"github.com/piwi3910/BlockMerchant/internal/model"
)

// recordGlyphs are assigned to records in row-major order of their first cell.
const recordGlyphs = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// RenderText draws p as ASCII, top row first: '#' is blocked, '.' is free and
// each placed record gets its own letter. A legend mapping letters to blocks
// follows the grid.
func RenderText(p *engine.Plane) string {
	records := p.Records()
	glyphs := make(map[engine.RecordID]byte, len(records))
	for i, rec := range records {
		g := byte('*')
		if i < len(recordGlyphs) {
			g = recordGlyphs[i]
		}
		glyphs[rec.ID] = g
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s, %dx%d)\n", p.ID(), p.Kind(), p.Width(), p.Height())
	for y := p.Height() - 1; y >= 0; y-- {
		for x := 0; x < p.Width(); x++ {
			switch rec, ok := p.RecordAt(x, y); {
			case ok:
				sb.WriteByte(glyphs[rec.ID])
			case p.IsBlocked(x, y):
				sb.WriteByte('#')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	for _, rec := range records {
		fmt.Fprintf(&sb, "  %c %-12s %-8s @ %s [%s]\n",
			glyphs[rec.ID], rec.Block.Name, requestLabel(rec.Block.Request), rec.Origin, rec.Shape)
	}
	return sb.String()
}

// ExportText writes every plane rendered by RenderText to path, separated by
// blank lines.
func ExportText(path string, planes []*engine.Plane) error {
	if len(planes) == 0 {
		return ErrNoGrids
	}
	parts := make([]string, len(planes))
	for i, p := range planes {
		parts[i] = RenderText(p)
	}
	if err := os.WriteFile(path, []byte(strings.Join(parts, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to write text export: %w", err)
	}
	return nil
}

func requestLabel(r model.RequestType) string {
	if r == model.RequestNone {
		return "-"
	}
	return string(r)
}
