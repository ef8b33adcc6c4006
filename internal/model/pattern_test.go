package model

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParsePatternRowsTopRowFirst(t *testing.T) {
	p, err := ParsePatternRows("tray", []string{
		"##.",
		"###",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Width != 3 || p.Height != 2 {
		t.Fatalf("expected 3x2, got %dx%d", p.Width, p.Height)
	}
	// Top row is y=1; its last cell is blocked.
	if p.Get(2, 1) {
		t.Errorf("expected (2,1) blocked")
	}
	if !p.Get(2, 0) {
		t.Errorf("expected (2,0) usable")
	}
	if p.UsableCount() != 5 {
		t.Errorf("expected 5 usable cells, got %d", p.UsableCount())
	}
	if p.Get(-1, 0) || p.Get(3, 0) {
		t.Errorf("out-of-range cells must not be usable")
	}
}

func TestParsePatternRowsErrors(t *testing.T) {
	if _, err := ParsePatternRows("x", nil); err == nil {
		t.Error("expected error for no rows")
	}
	if _, err := ParsePatternRows("x", []string{"##", "#"}); err == nil {
		t.Error("expected error for ragged rows")
	}
	if _, err := ParsePatternRows("x", []string{"#?"}); err == nil {
		t.Error("expected error for unknown character")
	}
}

func TestPatternRowsRoundTrip(t *testing.T) {
	rows := []string{"#.#", "...", "X1o"}
	p, err := ParsePatternRows("p", rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := p.Rows()
	want := []string{"#.#", "...", "###"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestPatternSetIgnoresOutOfRange(t *testing.T) {
	p := NewPattern("p", 2, 2)
	p.Set(5, 5, false)
	p.Set(1, 1, false)
	if p.UsableCount() != 3 {
		t.Errorf("expected 3 usable cells, got %d", p.UsableCount())
	}
	if err := (Pattern{Name: "bad", Width: 2, Height: 2, Data: make([]bool, 3)}).Validate(); err == nil {
		t.Error("expected validation error for short data")
	}
}

func TestPatternSerializesAsRows(t *testing.T) {
	p, err := ParsePatternRows("tray", []string{"#.", "##"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	var fromJSON Pattern
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if fromJSON.Name != "tray" || fromJSON.Get(1, 1) || !fromJSON.Get(1, 0) {
		t.Errorf("json round trip lost data: %+v", fromJSON)
	}

	out, err := yaml.Marshal(p)
	if err != nil {
		t.Fatalf("yaml marshal: %v", err)
	}
	var fromYAML Pattern
	if err := yaml.Unmarshal(out, &fromYAML); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if fromYAML.UsableCount() != 3 || fromYAML.Width != 2 {
		t.Errorf("yaml round trip lost data: %+v", fromYAML)
	}
}
