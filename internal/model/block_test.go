package model

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#ff8800", Color{255, 136, 0}, false},
		{"00ff00", Color{0, 255, 0}, false},
		{"#f80", Color{255, 136, 0}, false},
		{"", White, false},
		{"#12", Color{}, true},
		{"#zzzzzz", Color{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseColor(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseColor(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	if (Color{255, 136, 0}).Hex() != "#ff8800" {
		t.Errorf("unexpected hex %s", (Color{255, 136, 0}).Hex())
	}
}

func TestNewBlockDef(t *testing.T) {
	b := NewBlockDef("bread", White, lTriomino())
	if b.ID == "" || len(b.ID) != 8 {
		t.Errorf("expected 8-char ID, got %q", b.ID)
	}
	w, h := b.Bounds()
	if w != 2 || h != 2 {
		t.Errorf("expected 2x2 bounds, got %dx%d", w, h)
	}
}

func testCatalog() Catalog {
	return Catalog{
		Name: "bakery",
		Blocks: []BlockDef{
			NewBlockDef("bread", White, NewShape(Cell{0, 0}, Cell{1, 0})),
			NewBlockDef("cake", White, lTriomino()),
			NewBlockDef("cookie", White, NewShape(Cell{0, 0})),
			NewBlockDef("pie", White, NewShape(Cell{0, 0}, Cell{1, 0}, Cell{0, 1}, Cell{1, 1})),
		},
	}
}

func TestCatalogLookup(t *testing.T) {
	c := testCatalog()
	b, ok := c.Lookup("cake")
	if !ok || b.Name != "cake" {
		t.Fatalf("expected to find cake")
	}
	if _, ok := c.Lookup("soup"); ok {
		t.Errorf("did not expect to find soup")
	}
	if got := strings.Join(c.Names(), ","); got != "bread,cake,cookie,pie" {
		t.Errorf("unexpected names %s", got)
	}
}

func TestCatalogShuffledIsPermutation(t *testing.T) {
	c := testCatalog()
	rng := rand.New(rand.NewPCG(1, 2))
	out := c.Shuffled(rng)
	if len(out) != len(c.Blocks) {
		t.Fatalf("expected %d blocks, got %d", len(c.Blocks), len(out))
	}
	seen := make(map[string]int)
	for _, b := range out {
		seen[b.Name]++
	}
	for _, b := range c.Blocks {
		if seen[b.Name] != 1 {
			t.Errorf("block %s appears %d times", b.Name, seen[b.Name])
		}
	}
	if c.Blocks[0].Name != "bread" {
		t.Errorf("Shuffled must not reorder the catalog")
	}

	again := c.Shuffled(rand.New(rand.NewPCG(1, 2)))
	for i := range out {
		if out[i].Name != again[i].Name {
			t.Errorf("same seed should give same order")
			break
		}
	}
}

func TestCatalogValidate(t *testing.T) {
	if err := testCatalog().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := Catalog{Blocks: []BlockDef{
		{Name: "", Shape: NewShape(Cell{0, 0})},
		{Name: "a", Shape: Shape{}},
		{Name: "a", Shape: NewShape(Cell{0, 0}, Cell{0, 0})},
	}}
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"missing name", "empty shape", "duplicate name", "duplicate offset"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}
