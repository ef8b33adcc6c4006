package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/BlockMerchant/internal/model"
)

func TestLoadStage(t *testing.T) {
	stage, err := LoadStage(filepath.Join("testdata", "bakery.yaml"))
	if err != nil {
		t.Fatalf("LoadStage failed: %v", err)
	}

	if stage.Name != "bakery" {
		t.Errorf("expected name bakery, got %s", stage.Name)
	}
	if len(stage.Catalog.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(stage.Catalog.Blocks))
	}
	cake, ok := stage.Catalog.Lookup("cake")
	if !ok {
		t.Fatal("expected cake in catalog")
	}
	if cake.Shape.Len() != 3 {
		t.Errorf("expected 3-cell cake, got %v", cake.Shape)
	}
	if cake.Request != "sweet" {
		t.Errorf("expected sweet cake, got %q", cake.Request)
	}
	if cake.Color.Hex() != "#ff88cc" {
		t.Errorf("unexpected cake color %s", cake.Color.Hex())
	}
	if cake.ID == "" {
		t.Error("expected generated block ID")
	}

	tray, ok := stage.Pattern("tray")
	if !ok {
		t.Fatal("expected tray pattern")
	}
	if tray.Width != 3 || tray.Height != 3 || tray.Get(2, 2) {
		t.Errorf("unexpected tray pattern %v", tray.Rows())
	}

	ben, ok := stage.Guest("ben")
	if !ok {
		t.Fatal("expected guest ben")
	}
	if ben.Patience != model.DefaultPatience || ben.Payment != model.DefaultPayment {
		t.Errorf("expected guest defaults, got %+v", ben)
	}
}

func TestSaveAndLoadStageJSON(t *testing.T) {
	stage, err := LoadStage(filepath.Join("testdata", "bakery.yaml"))
	if err != nil {
		t.Fatalf("LoadStage failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "bakery.json")
	if err := SaveStage(path, stage); err != nil {
		t.Fatalf("SaveStage failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"shape": "0,0 1,0 0,1"`) {
		t.Errorf("expected compact shape text in JSON, got:\n%s", data)
	}

	loaded, err := LoadStage(path)
	if err != nil {
		t.Fatalf("LoadStage(json) failed: %v", err)
	}
	pie, _ := loaded.Catalog.Lookup("pie")
	orig, _ := stage.Catalog.Lookup("pie")
	if !pie.Shape.Equal(orig.Shape) || pie.ID != orig.ID {
		t.Errorf("pie changed across save/load: %+v vs %+v", pie, orig)
	}
	if len(loaded.Guests) != 2 || len(loaded.Patterns) != 2 {
		t.Errorf("unexpected guests/patterns after reload")
	}
}

func TestLoadStageNameFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "morning.yaml")
	content := "catalog:\n  blocks:\n    - name: a\n      shape: \"0,0\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	stage, err := LoadStage(path)
	if err != nil {
		t.Fatalf("LoadStage failed: %v", err)
	}
	if stage.Name != "morning" {
		t.Errorf("expected name from file, got %q", stage.Name)
	}
	a, _ := stage.Catalog.Lookup("a")
	if a.Color != model.White {
		t.Errorf("expected default white, got %v", a.Color)
	}
}

func TestLoadStageValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := `catalog:
  blocks:
    - name: a
      shape: "0,0"
patterns:
  - name: p
    rows: ["#"]
guests:
  - id: g
    pattern: missing
    order: [a, b]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadStage(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{`unknown pattern "missing"`, `unknown block "b"`} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestLoadStageBadShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := "catalog:\n  blocks:\n    - name: a\n      shape: \"0;x\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStage(path); err == nil {
		t.Fatal("expected parse error for bad shape")
	}
}

func TestLoadStageMissingFile(t *testing.T) {
	if _, err := LoadStage(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
