package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Cell is an integer grid coordinate or a relative offset.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// NoCell is the sentinel for "no grid cell found". Placing at NoCell always fails.
var NoCell = Cell{X: -1, Y: -1}

// Add returns the component-wise sum of two cells.
func (c Cell) Add(o Cell) Cell {
	return Cell{X: c.X + o.X, Y: c.Y + o.Y}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Shape is an ordered list of offsets describing a polyomino around an implicit
// origin (0,0). A Shape is a value: every transform returns a new Shape and the
// backing slice is never shared with callers.
type Shape struct {
	cells []Cell
}

// NewShape builds a shape from the given offsets. The input slice is copied.
func NewShape(cells ...Cell) Shape {
	cp := make([]Cell, len(cells))
	copy(cp, cells)
	return Shape{cells: cp}
}

// Len returns the number of cells in the shape.
func (s Shape) Len() int { return len(s.cells) }

// IsEmpty reports whether the shape has no cells.
func (s Shape) IsEmpty() bool { return len(s.cells) == 0 }

// At returns the i-th offset.
func (s Shape) At(i int) Cell { return s.cells[i] }

// Cells returns a copy of the offsets.
func (s Shape) Cells() []Cell {
	cp := make([]Cell, len(s.cells))
	copy(cp, s.cells)
	return cp
}

// Rotate turns every offset by 90 degrees without re-anchoring the result.
// Clockwise maps (dx,dy) to (dy,-dx); counter-clockwise maps (dx,dy) to (-dy,dx).
// This is the pipeline used while a block is being dragged: the grabbed cell
// stays at the origin so the preview does not jump.
func (s Shape) Rotate(clockwise bool) Shape {
	out := make([]Cell, len(s.cells))
	for i, c := range s.cells {
		if clockwise {
			out[i] = Cell{X: c.Y, Y: -c.X}
		} else {
			out[i] = Cell{X: -c.Y, Y: c.X}
		}
	}
	return Shape{cells: out}
}

// RotateNormalized rotates and then normalizes, giving an origin-anchored
// canonical orientation. Use this for fitting and catalog keys, never for
// drag previews.
func (s Shape) RotateNormalized(clockwise bool) Shape {
	return s.Rotate(clockwise).Normalize()
}

// Normalize translates the shape so that its minimum x and minimum y are 0.
func (s Shape) Normalize() Shape {
	if len(s.cells) == 0 {
		return Shape{}
	}
	minX, minY, _, _ := s.extent()
	return s.Translate(-minX, -minY)
}

// Center translates the shape so its bounding-box center sits at (0,0).
// Odd-sized boxes use floor division, so a 2-wide shape keeps offsets 0 and 1.
// Centering is for visual alignment only.
func (s Shape) Center() Shape {
	if len(s.cells) == 0 {
		return Shape{}
	}
	minX, minY, maxX, maxY := s.extent()
	return s.Translate(-floorDiv(minX+maxX, 2), -floorDiv(minY+maxY, 2))
}

// Bounds returns the bounding-box width and height, counting negative offsets.
// An empty shape reports (1,1).
func (s Shape) Bounds() (width, height int) {
	if len(s.cells) == 0 {
		return 1, 1
	}
	minX, minY, maxX, maxY := s.extent()
	return maxX - minX + 1, maxY - minY + 1
}

// Translate shifts every offset by (dx, dy).
func (s Shape) Translate(dx, dy int) Shape {
	out := make([]Cell, len(s.cells))
	for i, c := range s.cells {
		out[i] = Cell{X: c.X + dx, Y: c.Y + dy}
	}
	return Shape{cells: out}
}

// Contains reports whether the shape has the given offset.
func (s Shape) Contains(offset Cell) bool {
	for _, c := range s.cells {
		if c == offset {
			return true
		}
	}
	return false
}

// Equal reports whether both shapes hold the same offsets in the same order.
func (s Shape) Equal(o Shape) bool {
	if len(s.cells) != len(o.cells) {
		return false
	}
	for i := range s.cells {
		if s.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// SameCells reports whether both shapes cover the same set of offsets,
// ignoring order.
func (s Shape) SameCells(o Shape) bool {
	if len(s.cells) != len(o.cells) {
		return false
	}
	a, b := s.sorted(), o.sorted()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Key returns a canonical string for the normalized cell set. Two shapes with
// the same footprint at different translations share a key.
func (s Shape) Key() string {
	return Shape{cells: s.Normalize().sorted()}.String()
}

// Orientations returns the distinct normalized clockwise rotations of the
// shape, starting with the normalized shape itself.
func (s Shape) Orientations() []Shape {
	seen := make(map[string]bool, 4)
	var out []Shape
	cur := s.Normalize()
	for i := 0; i < 4; i++ {
		k := cur.Key()
		if !seen[k] {
			seen[k] = true
			out = append(out, cur)
		}
		cur = cur.RotateNormalized(true)
	}
	return out
}

// String renders the offsets as "x,y x,y ...".
func (s Shape) String() string {
	parts := make([]string, len(s.cells))
	for i, c := range s.cells {
		parts[i] = strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y)
	}
	return strings.Join(parts, " ")
}

// MarshalText implements encoding.TextMarshaler so shapes serialize as a
// compact string in JSON, YAML and CSV cells.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(text []byte) error {
	parsed, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseShape parses offsets written as "x,y" pairs separated by spaces or
// semicolons. Parentheses around pairs are accepted, e.g. "(0,0);(1,0)".
func ParseShape(text string) (Shape, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == ';' || r == '\t' || r == '\n' || r == '|'
	})
	cells := make([]Cell, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "()[]")
		if f == "" {
			continue
		}
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return Shape{}, fmt.Errorf("invalid offset %q: expected x,y", f)
		}
		x, err := strconv.Atoi(strings.TrimSpace(xs))
		if err != nil {
			return Shape{}, fmt.Errorf("invalid x in offset %q: %w", f, err)
		}
		y, err := strconv.Atoi(strings.TrimSpace(ys))
		if err != nil {
			return Shape{}, fmt.Errorf("invalid y in offset %q: %w", f, err)
		}
		cells = append(cells, Cell{X: x, Y: y})
	}
	return Shape{cells: cells}, nil
}

func (s Shape) extent() (minX, minY, maxX, maxY int) {
	minX, minY = s.cells[0].X, s.cells[0].Y
	maxX, maxY = minX, minY
	for _, c := range s.cells[1:] {
		minX = min(minX, c.X)
		minY = min(minY, c.Y)
		maxX = max(maxX, c.X)
		maxY = max(maxY, c.Y)
	}
	return minX, minY, maxX, maxY
}

func (s Shape) sorted() []Cell {
	cp := s.Cells()
	sort.Slice(cp, func(i, j int) bool {
		if cp[i].Y != cp[j].Y {
			return cp[i].Y < cp[j].Y
		}
		return cp[i].X < cp[j].X
	})
	return cp
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Rotation is a quarter-turn orientation in degrees: 0, 90, 180 or 270.
type Rotation int

// Turn returns the rotation after one more quarter turn.
func (r Rotation) Turn(clockwise bool) Rotation {
	if clockwise {
		return (r + 90) % 360
	}
	return (r - 90 + 360) % 360
}
