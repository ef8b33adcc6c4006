package model

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Color is an RGB display color used to tag placed blocks.
type Color struct {
	R, G, B uint8
}

// White is the default block color.
var White = Color{R: 255, G: 255, B: 255}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor accepts "#rrggbb", "rrggbb" or "#rgb". An empty string yields White.
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return White, nil
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: expected #rrggbb", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// RequestType is the category a guest may prefer or avoid (e.g. "sweet").
// The empty value means the block carries no category.
type RequestType string

const RequestNone RequestType = ""

// BlockDef is one authored block in a catalog: a name, a display color, an
// optional request category and the base shape before any rotation.
type BlockDef struct {
	ID      string      `json:"id" yaml:"id"`
	Name    string      `json:"name" yaml:"name"`
	Color   Color       `json:"color" yaml:"color"`
	Request RequestType `json:"request,omitempty" yaml:"request,omitempty"`
	Shape   Shape       `json:"shape" yaml:"shape"`
}

func NewBlockDef(name string, color Color, shape Shape) BlockDef {
	return BlockDef{
		ID:    uuid.New().String()[:8],
		Name:  name,
		Color: color,
		Shape: shape,
	}
}

// Bounds returns the bounding box of the base shape.
func (b BlockDef) Bounds() (width, height int) {
	return b.Shape.Bounds()
}

// Catalog is an ordered list of block definitions available in a stage.
type Catalog struct {
	Name   string     `json:"name" yaml:"name"`
	Blocks []BlockDef `json:"blocks" yaml:"blocks"`
}

// Lookup returns the first block with the given name.
func (c Catalog) Lookup(name string) (BlockDef, bool) {
	for _, b := range c.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return BlockDef{}, false
}

// Names returns the block names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.Blocks))
	for _, b := range c.Blocks {
		names = append(names, b.Name)
	}
	return names
}

// Shuffled returns a Fisher-Yates shuffled copy of the blocks.
func (c Catalog) Shuffled(rng *rand.Rand) []BlockDef {
	out := make([]BlockDef, len(c.Blocks))
	copy(out, c.Blocks)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Validate checks that every block has a name, a non-empty shape without
// duplicate offsets, and that names are unique.
func (c Catalog) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(c.Blocks))
	for i, b := range c.Blocks {
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("block %d: missing name", i+1))
		} else if seen[b.Name] {
			errs = append(errs, fmt.Errorf("block %q: duplicate name", b.Name))
		}
		seen[b.Name] = true
		if b.Shape.IsEmpty() {
			errs = append(errs, fmt.Errorf("block %q: empty shape", b.Name))
			continue
		}
		offsets := make(map[Cell]bool, b.Shape.Len())
		for _, c := range b.Shape.Cells() {
			if offsets[c] {
				errs = append(errs, fmt.Errorf("block %q: duplicate offset %s", b.Name, c))
				break
			}
			offsets[c] = true
		}
	}
	return errors.Join(errs...)
}
