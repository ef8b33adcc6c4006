package importer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParsePattern(t *testing.T) {
	text := `
	  ##.
	  ###

	`
	p, err := ParsePattern("tray", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Width != 3 || p.Height != 2 {
		t.Fatalf("expected 3x2, got %dx%d", p.Width, p.Height)
	}
	if p.Get(2, 1) {
		t.Error("expected top-right cell blocked")
	}
	if !p.Get(2, 0) {
		t.Error("expected bottom-right cell usable")
	}
}

func TestParsePatternErrors(t *testing.T) {
	if _, err := ParsePattern("empty", "\n\n"); err == nil {
		t.Error("expected error for empty pattern")
	}
	if _, err := ParsePattern("ragged", "##\n#\n"); err == nil {
		t.Error("expected error for ragged rows")
	}
}

func TestImportPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lunch.txt")
	if err := os.WriteFile(path, []byte("X-X\nXXX\n"), 0644); err != nil {
		t.Fatal(err)
	}
	p, err := ImportPattern(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "lunch" {
		t.Errorf("expected name lunch, got %s", p.Name)
	}
	if p.UsableCount() != 5 {
		t.Errorf("expected 5 usable cells, got %d", p.UsableCount())
	}

	if _, err := ImportPattern(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
