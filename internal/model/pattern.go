package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pattern is a width x height boolean layout supplied by a guest order.
// A true cell is usable; a false cell is blocked on any grid the pattern is
// applied to. Data is row-major with y=0 as the bottom row.
// Patterns serialize as their rows, see Rows.
type Pattern struct {
	Name   string
	Width  int
	Height int
	Data   []bool
}

// NewPattern returns a pattern of the given size with every cell usable.
func NewPattern(name string, width, height int) Pattern {
	data := make([]bool, width*height)
	for i := range data {
		data[i] = true
	}
	return Pattern{Name: name, Width: width, Height: height, Data: data}
}

// Get reports whether (x, y) is usable. Out-of-range cells are not usable.
func (p Pattern) Get(x, y int) bool {
	if x < 0 || x >= p.Width || y < 0 || y >= p.Height {
		return false
	}
	return p.Data[y*p.Width+x]
}

// Set marks (x, y) usable or blocked. Out-of-range writes are ignored.
func (p Pattern) Set(x, y int, usable bool) {
	if x < 0 || x >= p.Width || y < 0 || y >= p.Height {
		return
	}
	p.Data[y*p.Width+x] = usable
}

// UsableCount returns the number of usable cells.
func (p Pattern) UsableCount() int {
	n := 0
	for _, v := range p.Data {
		if v {
			n++
		}
	}
	return n
}

// Validate checks dimensions against the data length.
func (p Pattern) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("pattern %q: invalid size %dx%d", p.Name, p.Width, p.Height)
	}
	if len(p.Data) != p.Width*p.Height {
		return fmt.Errorf("pattern %q: has %d cells, want %d", p.Name, len(p.Data), p.Width*p.Height)
	}
	return nil
}

// Rows renders the pattern top row first, '#' usable and '.' blocked.
func (p Pattern) Rows() []string {
	rows := make([]string, 0, p.Height)
	for y := p.Height - 1; y >= 0; y-- {
		var sb strings.Builder
		for x := 0; x < p.Width; x++ {
			if p.Get(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		rows = append(rows, sb.String())
	}
	return rows
}

// ParsePatternRows builds a pattern from rows listed top row first.
// '#', 'X', 'x', 'O', 'o' and '1' are usable; '.', '0', '-' and '_' are blocked.
// All rows must have the same width.
func ParsePatternRows(name string, rows []string) (Pattern, error) {
	if len(rows) == 0 {
		return Pattern{}, fmt.Errorf("pattern %q: no rows", name)
	}
	width := len(rows[0])
	height := len(rows)
	p := Pattern{Name: name, Width: width, Height: height, Data: make([]bool, width*height)}
	for i, row := range rows {
		if len(row) != width {
			return Pattern{}, fmt.Errorf("pattern %q: row %d has width %d, want %d", name, i+1, len(row), width)
		}
		y := height - 1 - i
		for x, ch := range []byte(row) {
			switch ch {
			case '#', 'X', 'x', 'O', 'o', '1':
				p.Data[y*width+x] = true
			case '.', '0', '-', '_':
			default:
				return Pattern{}, fmt.Errorf("pattern %q: row %d: unexpected %q", name, i+1, ch)
			}
		}
	}
	if err := p.Validate(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

type patternDoc struct {
	Name string   `json:"name" yaml:"name"`
	Rows []string `json:"rows" yaml:"rows"`
}

func (p Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(patternDoc{Name: p.Name, Rows: p.Rows()})
}

func (p *Pattern) UnmarshalJSON(data []byte) error {
	var doc patternDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	parsed, err := ParsePatternRows(doc.Name, doc.Rows)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Pattern) MarshalYAML() (interface{}, error) {
	return patternDoc{Name: p.Name, Rows: p.Rows()}, nil
}

func (p *Pattern) UnmarshalYAML(value *yaml.Node) error {
	var doc patternDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	parsed, err := ParsePatternRows(doc.Name, doc.Rows)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
