package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/kamstrup/intmap"
	"github.com/piwi3910/BlockMerchant/internal/model"
)

// GridID names a plane inside a Board.
type GridID string

// Kind is the role a grid plays in the restaurant.
type Kind int

const (
	KindInventory Kind = iota
	KindStorage
	KindRefrigerator
	KindServing
)

func (k Kind) String() string {
	switch k {
	case KindInventory:
		return "inventory"
	case KindStorage:
		return "storage"
	case KindRefrigerator:
		return "refrigerator"
	case KindServing:
		return "serving"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "inventory":
		return KindInventory, nil
	case "storage":
		return KindStorage, nil
	case "refrigerator", "fridge":
		return KindRefrigerator, nil
	case "serving", "tray":
		return KindServing, nil
	}
	return 0, fmt.Errorf("unknown grid kind %q", s)
}

// Reason explains why a placement was rejected. ReasonNone means it is legal.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonEmptyShape
	ReasonNoOrigin
	ReasonOutOfBounds
	ReasonBlocked
	ReasonOccupied
	ReasonUnknownGrid
	ReasonNoDrag
	ReasonNoRecord
	ReasonAttached
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "ok"
	case ReasonEmptyShape:
		return "empty shape"
	case ReasonNoOrigin:
		return "no origin"
	case ReasonOutOfBounds:
		return "out of bounds"
	case ReasonBlocked:
		return "blocked"
	case ReasonOccupied:
		return "occupied"
	case ReasonUnknownGrid:
		return "unknown grid"
	case ReasonNoDrag:
		return "no drag in progress"
	case ReasonNoRecord:
		return "no record"
	case ReasonAttached:
		return "already placed"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

var (
	ErrInvalidSize = errors.New("grid dimensions must be positive")
	ErrNotEmpty    = errors.New("grid still holds placements")
)

// Plane is a fixed-size occupancy grid with an optional blocked mask.
// Cells are row-major with y=0 at the bottom.
type Plane struct {
	id      GridID
	kind    Kind
	width   int
	height  int
	cells   []RecordID
	blocked []bool // nil when no mask is configured
	records *intmap.Map[RecordID, *Record]
	logger  *log.Logger
}

// NewPlane creates an empty plane. A nil logger discards output.
func NewPlane(id GridID, kind Kind, width, height int, logger *log.Logger) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("failed to create grid %q (%dx%d): %w", id, width, height, ErrInvalidSize)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Plane{
		id:      id,
		kind:    kind,
		width:   width,
		height:  height,
		cells:   make([]RecordID, width*height),
		records: intmap.New[RecordID, *Record](16),
		logger:  logger,
	}, nil
}

func (p *Plane) ID() GridID  { return p.id }
func (p *Plane) Kind() Kind  { return p.kind }
func (p *Plane) Width() int  { return p.width }
func (p *Plane) Height() int { return p.height }

// Len returns the number of live records on the plane.
func (p *Plane) Len() int { return p.records.Len() }

// HasAnyItem reports whether at least one record is placed.
func (p *Plane) HasAnyItem() bool { return p.records.Len() > 0 }

// InBounds reports whether (x, y) lies inside the plane.
func (p *Plane) InBounds(x, y int) bool {
	return x >= 0 && x < p.width && y >= 0 && y < p.height
}

func (p *Plane) index(x, y int) int { return y*p.width + x }

// IsBlocked reports whether (x, y) is masked out. Without a mask nothing is blocked.
func (p *Plane) IsBlocked(x, y int) bool {
	if p.blocked == nil || !p.InBounds(x, y) {
		return false
	}
	return p.blocked[p.index(x, y)]
}

// IsOccupied reports whether a record covers (x, y).
func (p *Plane) IsOccupied(x, y int) bool {
	return p.InBounds(x, y) && p.cells[p.index(x, y)] != 0
}

// RecordAt returns the record covering (x, y), if any.
func (p *Plane) RecordAt(x, y int) (*Record, bool) {
	if !p.InBounds(x, y) {
		return nil, false
	}
	id := p.cells[p.index(x, y)]
	if id == 0 {
		return nil, false
	}
	return p.records.Get(id)
}

// Records returns the live records in row-major order of their first cell.
func (p *Plane) Records() []*Record {
	out := make([]*Record, 0, p.records.Len())
	seen := make(map[RecordID]bool, p.records.Len())
	for _, id := range p.cells {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		if rec, ok := p.records.Get(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Holds reports whether rec is live on this plane.
func (p *Plane) Holds(rec *Record) bool {
	if rec == nil {
		return false
	}
	cur, ok := p.records.Get(rec.ID)
	return ok && cur == rec
}

// SetBlocked marks a single cell as blocked or usable. Out-of-range writes
// are ignored. Blocking an occupied cell does not evict its record.
func (p *Plane) SetBlocked(x, y int, blocked bool) {
	if !p.InBounds(x, y) {
		return
	}
	if p.blocked == nil {
		if !blocked {
			return
		}
		p.blocked = make([]bool, p.width*p.height)
	}
	p.blocked[p.index(x, y)] = blocked
}

// Check validates a placement without side effects and returns the first
// failure found, or ReasonNone.
func (p *Plane) Check(origin model.Cell, shape model.Shape) Reason {
	if shape.IsEmpty() {
		return ReasonEmptyShape
	}
	if origin == model.NoCell {
		return ReasonNoOrigin
	}
	for i := 0; i < shape.Len(); i++ {
		c := origin.Add(shape.At(i))
		switch {
		case !p.InBounds(c.X, c.Y):
			return ReasonOutOfBounds
		case p.IsBlocked(c.X, c.Y):
			return ReasonBlocked
		case p.cells[p.index(c.X, c.Y)] != 0:
			return ReasonOccupied
		}
	}
	return ReasonNone
}

// CanPlace reports whether shape fits at origin.
func (p *Plane) CanPlace(origin model.Cell, shape model.Shape) bool {
	return p.Check(origin, shape) == ReasonNone
}

// Place validates and, on success, marks every target cell with rec and
// attaches rec to this plane. On failure nothing changes.
func (p *Plane) Place(origin model.Cell, shape model.Shape, rec *Record) bool {
	return p.place(origin, shape, rec) == ReasonNone
}

func (p *Plane) place(origin model.Cell, shape model.Shape, rec *Record) Reason {
	if rec == nil || rec.ID == 0 {
		return ReasonNoRecord
	}
	// A record lives on one grid at a time; move it through the board.
	if rec.Attached() || p.records.Has(rec.ID) {
		return ReasonAttached
	}
	if reason := p.Check(origin, shape); reason != ReasonNone {
		return reason
	}
	for i := 0; i < shape.Len(); i++ {
		c := origin.Add(shape.At(i))
		p.cells[p.index(c.X, c.Y)] = rec.ID
	}
	rec.Origin = origin
	rec.Shape = shape
	rec.Grid = p.id
	p.records.Put(rec.ID, rec)
	p.logger.Debug("placed block", "grid", p.id, "block", rec.Block.Name, "record", rec.Label, "origin", origin)
	return ReasonNone
}

// Remove clears the cells covered by rec and detaches it. Offsets that fall
// outside the plane are skipped.
func (p *Plane) Remove(rec *Record) {
	if rec == nil {
		return
	}
	for i := 0; i < rec.Shape.Len(); i++ {
		c := rec.Origin.Add(rec.Shape.At(i))
		if !p.InBounds(c.X, c.Y) {
			continue
		}
		idx := p.index(c.X, c.Y)
		if p.cells[idx] == rec.ID {
			p.cells[idx] = 0
		}
	}
	if p.records.Del(rec.ID) {
		p.logger.Debug("removed block", "grid", p.id, "block", rec.Block.Name, "record", rec.Label)
	}
	if rec.Grid == p.id {
		rec.Grid = ""
	}
}

// ClearAll empties every cell and detaches every record. The blocked mask is kept.
func (p *Plane) ClearAll() {
	for _, rec := range p.Records() {
		rec.Grid = ""
	}
	clear(p.cells)
	p.records.Clear()
}

// AllOccupied reports whether every cell is either blocked or occupied.
func (p *Plane) AllOccupied() bool {
	for i, id := range p.cells {
		if id == 0 && (p.blocked == nil || !p.blocked[i]) {
			return false
		}
	}
	return true
}

// FreeCount returns the number of cells that are neither blocked nor occupied.
func (p *Plane) FreeCount() int {
	n := 0
	for i, id := range p.cells {
		if id == 0 && (p.blocked == nil || !p.blocked[i]) {
			n++
		}
	}
	return n
}

// Resize replaces the occupancy array and drops the blocked mask. It refuses
// to run while records are placed so no record is orphaned.
func (p *Plane) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("failed to resize grid %q to %dx%d: %w", p.id, width, height, ErrInvalidSize)
	}
	if p.HasAnyItem() {
		return fmt.Errorf("failed to resize grid %q: %w", p.id, ErrNotEmpty)
	}
	p.width = width
	p.height = height
	p.cells = make([]RecordID, width*height)
	p.blocked = nil
	return nil
}

// ApplyPattern resizes the plane to the pattern and blocks every unusable cell.
func (p *Plane) ApplyPattern(pattern model.Pattern) error {
	if err := pattern.Validate(); err != nil {
		return fmt.Errorf("failed to apply pattern to grid %q: %w", p.id, err)
	}
	if err := p.Resize(pattern.Width, pattern.Height); err != nil {
		return err
	}
	mask := make([]bool, len(pattern.Data))
	for i, usable := range pattern.Data {
		mask[i] = !usable
	}
	p.blocked = mask
	return nil
}

// clone returns a deep copy of the occupancy state used for trial placements.
// Records in the copy are fresh detached stand-ins.
func (p *Plane) clone() *Plane {
	cp := &Plane{
		id:      p.id,
		kind:    p.kind,
		width:   p.width,
		height:  p.height,
		cells:   make([]RecordID, len(p.cells)),
		records: intmap.New[RecordID, *Record](p.records.Len() + 8),
		logger:  log.New(io.Discard),
	}
	copy(cp.cells, p.cells)
	if p.blocked != nil {
		cp.blocked = make([]bool, len(p.blocked))
		copy(cp.blocked, p.blocked)
	}
	for _, rec := range p.Records() {
		stand := *rec
		cp.records.Put(rec.ID, &stand)
	}
	return cp
}

// without returns a clone of the plane with rec lifted off.
func (p *Plane) without(rec *Record) *Plane {
	cp := p.clone()
	if stand, ok := cp.records.Get(rec.ID); ok {
		cp.Remove(stand)
	}
	return cp
}
