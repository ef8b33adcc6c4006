package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/BlockMerchant/internal/model"
)

func TestExportAndImportBundle(t *testing.T) {
	stage, err := LoadStage(filepath.Join("testdata", "bakery.yaml"))
	if err != nil {
		t.Fatalf("LoadStage failed: %v", err)
	}
	cfg := model.DefaultAppConfig()
	cfg.SpawnSlots = 3
	cfg.LogLevel = "warn"

	path := filepath.Join(t.TempDir(), "bundle.json")
	if err := ExportBundle(path, cfg, stage); err != nil {
		t.Fatalf("ExportBundle failed: %v", err)
	}

	bundle, err := ImportBundle(path)
	if err != nil {
		t.Fatalf("ImportBundle failed: %v", err)
	}
	if bundle.Version != BundleVersion {
		t.Errorf("expected version %s, got %s", BundleVersion, bundle.Version)
	}
	if bundle.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if bundle.Config != cfg {
		t.Errorf("config changed: %+v", bundle.Config)
	}
	if len(bundle.Stage.Catalog.Blocks) != 4 {
		t.Errorf("expected 4 blocks, got %d", len(bundle.Stage.Catalog.Blocks))
	}
}

func TestImportBundleMissingFile(t *testing.T) {
	_, err := ImportBundle(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportBundleInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json}"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportBundle(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestImportBundleMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"config":{}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportBundle(path); err == nil {
		t.Fatal("expected error for missing version")
	}
}
