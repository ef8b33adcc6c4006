package export

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/BlockMerchant/internal/engine"
	"github.com/piwi3910/BlockMerchant/internal/model"
)

func mustShape(t *testing.T, text string) model.Shape {
	t.Helper()
	s, err := model.ParseShape(text)
	if err != nil {
		t.Fatalf("ParseShape(%q): %v", text, err)
	}
	return s
}

// buildTestBoard creates a board with a partly filled inventory and a
// patterned serving tray.
func buildTestBoard(t *testing.T) *engine.Board {
	t.Helper()
	b := engine.NewBoard(nil)

	inv, err := b.AddGrid("inv", engine.KindInventory, 4, 3)
	if err != nil {
		t.Fatalf("AddGrid: %v", err)
	}
	inv.SetBlocked(3, 2, true)

	tray, err := b.AddGrid("tray", engine.KindServing, 3, 3)
	if err != nil {
		t.Fatalf("AddGrid: %v", err)
	}
	pattern, err := model.ParsePatternRows("tray", []string{"##.", "###", "###"})
	if err != nil {
		t.Fatalf("ParsePatternRows: %v", err)
	}
	if err := tray.ApplyPattern(pattern); err != nil {
		t.Fatalf("ApplyPattern: %v", err)
	}

	bread := model.NewBlockDef("bread", model.Color{R: 217, G: 160, B: 102}, mustShape(t, "0,0 1,0"))
	bread.Request = "savory"
	cookie := model.NewBlockDef("cookie", model.White, mustShape(t, "0,0"))
	cookie.Request = "sweet"
	pie := model.NewBlockDef("pie", model.White, mustShape(t, "0,0 1,0 0,1 1,1"))

	if _, reason := b.Place("inv", model.Cell{X: 0, Y: 0}, bread.Shape, bread); reason != engine.ReasonNone {
		t.Fatalf("place bread: %v", reason)
	}
	if _, reason := b.Place("inv", model.Cell{X: 0, Y: 2}, cookie.Shape, cookie); reason != engine.ReasonNone {
		t.Fatalf("place cookie: %v", reason)
	}
	if _, reason := b.Place("tray", model.Cell{X: 0, Y: 0}, pie.Shape, pie); reason != engine.ReasonNone {
		t.Fatalf("place pie: %v", reason)
	}
	return b
}

func TestExportPDF_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_output.pdf")

	b := buildTestBoard(t)
	err := ExportPDF(path, b.Grids())
	if err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("PDF file is empty")
	}
	// 2 grid pages plus the summary
	if info.Size() < 500 {
		t.Errorf("PDF file seems too small: %d bytes", info.Size())
	}
}

func TestExportPDF_NoGrids(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.pdf")

	err := ExportPDF(path, nil)
	if err == nil {
		t.Fatal("expected error for no grids, got nil")
	}
}

func TestExportPDF_EmptyGrid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "single.pdf")

	p, err := engine.NewPlane("fridge", engine.KindRefrigerator, 5, 5, nil)
	if err != nil {
		t.Fatalf("NewPlane: %v", err)
	}

	if err := ExportPDF(path, []*engine.Plane{p}); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("PDF file is empty")
	}
}

func TestExportPDF_ManyBlocks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "many_blocks.pdf")

	// More records than palette colors to test color cycling
	p, err := engine.NewPlane("big", engine.KindStorage, 8, 5, nil)
	if err != nil {
		t.Fatalf("NewPlane: %v", err)
	}
	for i := 0; i < 20; i++ {
		def := model.NewBlockDef(fmt.Sprintf("Block %d", i+1), model.White, mustShape(t, "0,0 1,0"))
		rec := engine.NewRecord(def, def.Shape)
		if !p.Place(model.Cell{X: (i % 4) * 2, Y: i / 4}, def.Shape, rec) {
			t.Fatalf("failed to place block %d", i+1)
		}
	}

	if err := ExportPDF(path, []*engine.Plane{p}); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("PDF file is empty")
	}
}

func TestStats(t *testing.T) {
	b := buildTestBoard(t)

	inv, _ := b.Grid("inv")
	got := Stats(inv)
	want := GridStats{Blocks: 2, Occupied: 3, Blocked: 1, Free: 8, Total: 12}
	if got != want {
		t.Errorf("Stats(inv) = %+v, want %+v", got, want)
	}

	tray, _ := b.Grid("tray")
	got = Stats(tray)
	if got.Fill() != 50 {
		t.Errorf("Fill() = %v, want 50", got.Fill())
	}
}

func TestFillColor(t *testing.T) {
	if got := fillColor(model.White, 1); got != blockColors[1] {
		t.Errorf("white block should use palette color, got %+v", got)
	}
	if got := fillColor(model.White, len(blockColors)); got != blockColors[0] {
		t.Errorf("palette should cycle, got %+v", got)
	}
	c := model.Color{R: 1, G: 2, B: 3}
	if got := fillColor(c, 0); got != (blockColor{R: 1, G: 2, B: 3}) {
		t.Errorf("fillColor(%v) = %+v", c, got)
	}
}

func TestLabelFontSize(t *testing.T) {
	tests := []struct {
		cell float64
		want float64
	}{
		{50, 8},
		{25, 7},
		{10, 6},
	}
	for _, tt := range tests {
		if got := labelFontSize(tt.cell); got != tt.want {
			t.Errorf("labelFontSize(%v) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}
