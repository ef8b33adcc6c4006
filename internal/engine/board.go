package engine

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/piwi3910/BlockMerchant/internal/model"
)

var (
	ErrDuplicateGrid = errors.New("grid already registered")
	ErrUnknownGrid   = errors.New("unknown grid")
)

// Board owns the registered planes and runs every placement workflow. All
// methods are safe for concurrent use; a Move holds the board lock from the
// optimistic removal until the record is settled again.
type Board struct {
	mu     sync.Mutex
	planes map[GridID]*Plane
	order  []GridID
	logger *log.Logger
}

// NewBoard creates an empty board. A nil logger discards output.
func NewBoard(logger *log.Logger) *Board {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Board{
		planes: make(map[GridID]*Plane),
		logger: logger,
	}
}

// Logger returns the board's logger.
func (b *Board) Logger() *log.Logger { return b.logger }

// Register adds a plane to the board.
func (b *Board) Register(p *Plane) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.planes[p.ID()]; ok {
		return fmt.Errorf("failed to register grid %q: %w", p.ID(), ErrDuplicateGrid)
	}
	b.planes[p.ID()] = p
	b.order = append(b.order, p.ID())
	b.logger.Info("registered grid", "grid", p.ID(), "kind", p.Kind(), "width", p.Width(), "height", p.Height())
	return nil
}

// AddGrid creates and registers a plane in one step.
func (b *Board) AddGrid(id GridID, kind Kind, width, height int) (*Plane, error) {
	p, err := NewPlane(id, kind, width, height, b.logger)
	if err != nil {
		return nil, err
	}
	if err := b.Register(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Unregister tears a plane down. Its records are detached and become invalid.
func (b *Board) Unregister(id GridID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.planes[id]
	if !ok {
		return fmt.Errorf("failed to unregister grid %q: %w", id, ErrUnknownGrid)
	}
	p.ClearAll()
	delete(b.planes, id)
	for i, gid := range b.order {
		if gid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.logger.Info("unregistered grid", "grid", id)
	return nil
}

// Grid returns the plane registered under id.
func (b *Board) Grid(id GridID) (*Plane, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.planes[id]
	return p, ok
}

// GridByKind returns the first registered plane of the given kind.
func (b *Board) GridByKind(kind Kind) (*Plane, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.order {
		if p := b.planes[id]; p.Kind() == kind {
			return p, true
		}
	}
	return nil, false
}

// Grids returns the planes in registration order.
func (b *Board) Grids() []*Plane {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Plane, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.planes[id])
	}
	return out
}

// Check validates a placement on the given grid without side effects.
func (b *Board) Check(id GridID, origin model.Cell, shape model.Shape) Reason {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.planes[id]
	if !ok {
		return ReasonUnknownGrid
	}
	return p.Check(origin, shape)
}

// Place puts a new block on a grid. On failure no record is created.
func (b *Board) Place(id GridID, origin model.Cell, shape model.Shape, def model.BlockDef) (*Record, Reason) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.planes[id]
	if !ok {
		return nil, ReasonUnknownGrid
	}
	if reason := p.Check(origin, shape); reason != ReasonNone {
		b.logger.Debug("placement rejected", "grid", id, "block", def.Name, "origin", origin, "reason", reason)
		return nil, reason
	}
	rec := NewRecord(def, shape)
	if reason := p.place(origin, shape, rec); reason != ReasonNone {
		return nil, reason
	}
	return rec, ReasonNone
}

// Move relocates a placed record to dst at origin with shape. The record is
// removed first so its own cells never block the new position. If the new
// position is rejected the record is put back exactly where it was.
func (b *Board) Move(rec *Record, dst GridID, origin model.Cell, shape model.Shape) Reason {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.move(rec, dst, origin, shape)
}

func (b *Board) move(rec *Record, dst GridID, origin model.Cell, shape model.Shape) Reason {
	src, ok := b.planes[rec.Grid]
	if !ok || !src.Holds(rec) {
		return ReasonUnknownGrid
	}
	target, ok := b.planes[dst]
	if !ok {
		return ReasonUnknownGrid
	}

	before := rec.snapshot()
	src.Remove(rec)
	reason := target.place(origin, shape, rec)
	if reason == ReasonNone {
		b.logger.Debug("moved block", "record", rec.Label, "from", before.grid, "to", dst, "origin", origin)
		return ReasonNone
	}

	if back := src.place(before.origin, before.shape, rec); back != ReasonNone {
		b.logger.Error("failed to restore record after rejected move",
			"record", rec.Label, "grid", before.grid, "origin", before.origin, "reason", back)
		panic(fmt.Sprintf("engine: record %s lost during move: %s", rec.Label, back))
	}
	b.logger.Debug("move rejected", "record", rec.Label, "to", dst, "origin", origin, "reason", reason)
	return reason
}

// Remove takes a record off its grid and detaches it. It reports whether the
// record was live.
func (b *Board) Remove(rec *Record) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rec == nil {
		return false
	}
	p, ok := b.planes[rec.Grid]
	if !ok || !p.Holds(rec) {
		return false
	}
	p.Remove(rec)
	return true
}

// Clear empties a single grid.
func (b *Board) Clear(id GridID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.planes[id]
	if !ok {
		return fmt.Errorf("failed to clear grid %q: %w", id, ErrUnknownGrid)
	}
	p.ClearAll()
	return nil
}

// ClearAll empties every registered grid.
func (b *Board) ClearAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.order {
		b.planes[id].ClearAll()
	}
}

// Placement is a block position on a named grid, as passed to Restore.
type Placement struct {
	Grid   GridID
	Block  model.BlockDef
	Origin model.Cell
	Shape  model.Shape
}

// Restore replaces every record on the board with fresh records at the given
// placements. Either every placement succeeds or the board is left untouched.
// Handles to the old records become detached.
func (b *Board) Restore(placements []Placement) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	staged := make(map[GridID]*Plane, len(b.planes))
	for id, p := range b.planes {
		cp := p.clone()
		cp.ClearAll()
		staged[id] = cp
	}
	for _, pl := range placements {
		cp, ok := staged[pl.Grid]
		if !ok {
			return fmt.Errorf("failed to restore %s on %s: %w", pl.Block.Name, pl.Grid, ErrUnknownGrid)
		}
		if reason := cp.place(pl.Origin, pl.Shape, NewRecord(pl.Block, pl.Shape)); reason != ReasonNone {
			return fmt.Errorf("failed to restore %s on %s at %s: %s", pl.Block.Name, pl.Grid, pl.Origin, reason)
		}
	}
	for _, id := range b.order {
		p := b.planes[id]
		p.ClearAll()
		p.cells, p.records = staged[id].cells, staged[id].records
	}
	b.logger.Debug("restored board", "records", len(placements))
	return nil
}

// Resize changes a grid's dimensions. The grid must be empty.
func (b *Board) Resize(id GridID, width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.planes[id]
	if !ok {
		return fmt.Errorf("failed to resize grid %q: %w", id, ErrUnknownGrid)
	}
	return p.Resize(width, height)
}

// ApplyPattern reshapes a grid to match a guest pattern. The grid must be empty.
func (b *Board) ApplyPattern(id GridID, pattern model.Pattern) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.planes[id]
	if !ok {
		return fmt.Errorf("failed to apply pattern to grid %q: %w", id, ErrUnknownGrid)
	}
	if err := p.ApplyPattern(pattern); err != nil {
		return err
	}
	b.logger.Info("applied pattern", "grid", id, "pattern", pattern.Name, "width", pattern.Width, "height", pattern.Height)
	return nil
}

// Stow places a block on the first slot of the grid where any of its
// orientations fits.
func (b *Board) Stow(id GridID, def model.BlockDef) (*Record, Reason) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.planes[id]
	if !ok {
		return nil, ReasonUnknownGrid
	}
	origin, shape, ok := FindSlot(p, def.Shape)
	if !ok {
		switch {
		case def.Shape.IsEmpty():
			return nil, ReasonEmptyShape
		case !fitsBounds(p, def.Shape):
			return nil, ReasonOutOfBounds
		}
		return nil, ReasonOccupied
	}
	rec := NewRecord(def, shape)
	if reason := p.place(origin, shape, rec); reason != ReasonNone {
		return nil, reason
	}
	return rec, ReasonNone
}

// Solve searches for a layout of blocks on a grid without changing it.
func (b *Board) Solve(id GridID, blocks []model.BlockDef, maxSteps int) ([]Assignment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.planes[id]
	if !ok {
		return nil, fmt.Errorf("failed to solve grid %q: %w", id, ErrUnknownGrid)
	}
	return Solve(p, blocks, maxSteps)
}
